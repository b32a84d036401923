package cart

import "strings"

// ProductRecord is the unit of work produced by extraction and stored in the
// cart. Empty strings mark fields that could not be resolved; title is the
// only field whose absence disqualifies a record.
type ProductRecord struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Brand string `json:"brand"`
	Price string `json:"price"`
	Img   string `json:"img"`
	Link  string `json:"link"`
}

// AddOptions carries the context of one add request.
type AddOptions struct {
	TabID       string
	Source      string
	ModeEnabled bool
}

// Ack is the reply to every add/remove/clear request. Failures are reported
// here, never raised.
type Ack struct {
	OK      bool   `json:"ok"`
	Ignored bool   `json:"ignored,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Saved   bool   `json:"saved,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// Ignore reasons reported in Ack.Reason.
const (
	ReasonModeOff        = "mode_off"
	ReasonNoise          = "noise"
	ReasonNotProductPage = "not_product_page"
	ReasonStorageError   = "storage_error"
)

// Store is the persistent key-value surface the reducer mutates. Satisfied by
// database.KVRepository.
type Store interface {
	Get(key, defaultValue string) (string, error)
	Set(key, value string) error
}

// Storage keys owned by the reducer.
const (
	StorageKeyCart = "cart"
	StorageKeyMode = "shopping_mode"
)

// CartUpdatedPayload is broadcast after every successful mutation.
type CartUpdatedPayload struct {
	Items []ProductRecord `json:"items"`
	Added *ProductRecord  `json:"added,omitempty"`
	Count int             `json:"count"`
}

// ConfirmationPayload asks a toast-rendering collaborator to show feedback.
type ConfirmationPayload struct {
	Text     string `json:"text"`
	Position string `json:"position"`
}

// BadgePayload carries a transient badge update for one tab.
type BadgePayload struct {
	Text string `json:"text"`
}

// normalizeKey case-normalizes an identity key for comparison. Two records
// with matching normalized id OR matching normalized link are the same entry.
func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "/")
	return s
}

// SameEntry reports whether two records share an identity key.
func SameEntry(a, b ProductRecord) bool {
	if id := normalizeKey(a.ID); id != "" && id == normalizeKey(b.ID) {
		return true
	}
	if link := normalizeKey(a.Link); link != "" && link == normalizeKey(b.Link) {
		return true
	}
	return false
}
