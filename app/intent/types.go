package intent

import "time"

type Source string

const (
	SourceClick      Source = "click"
	SourceNetwork    Source = "network"
	SourceFormSubmit Source = "form-submit"
)

// AncestorInfo describes one element in a click target's ancestor chain as
// reported by the content script, innermost first. The target itself is the
// first entry.
type AncestorInfo struct {
	Tag   string `json:"tag"`
	Role  string `json:"role"`
	ID    string `json:"id"`
	Class string `json:"class"`
	Name  string `json:"name"`
}

// ClickEvent is a UI click observation from a content script.
type ClickEvent struct {
	TabID     string         `json:"tab_id"`
	PageURL   string         `json:"page_url"`
	Text      string         `json:"text"`
	AriaLabel string         `json:"aria_label"`
	IDAttr    string         `json:"id_attr"`
	ClassAttr string         `json:"class_attr"`
	Ancestry  []AncestorInfo `json:"ancestry"`
}

// NetworkEvent is an outgoing request observation from the page-context
// interceptor: URL, method and payload, plus the page it originated from.
type NetworkEvent struct {
	TabID       string `json:"tab_id"`
	PageURL     string `json:"page_url"`
	URL         string `json:"url"`
	Method      string `json:"method"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
	FormSubmit  bool   `json:"form_submit"`
}

// AddIntentSignal marks one genuine add-to-cart action. Ephemeral: consumed
// by the pipeline immediately, never persisted.
type AddIntentSignal struct {
	Source    Source
	TabID     string
	URL       string
	PageURL   string
	Method    string
	ProductID string
	Quantity  int
	Timestamp time.Time
}
