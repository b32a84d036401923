package intent

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/onecart/onecart/app/sites"
)

// maxAncestorDepth bounds the ancestor-chain walk when rejecting clicks that
// originate inside variant pickers and other non-add UI regions.
const maxAncestorDepth = 6

var (
	addWordPattern       = regexp.MustCompile(`(?i)\badd(ed|ing)?\b`)
	containerWordPattern = regexp.MustCompile(`(?i)\b(cart|bag|basket|tote)\b`)
)

// Roles that mark navigation or selection UI rather than an add control.
var rejectedRoles = map[string]bool{
	"navigation": true,
	"menu":       true,
	"menuitem":   true,
	"listbox":    true,
	"option":     true,
	"radiogroup": true,
	"radio":      true,
	"tablist":    true,
}

// Classifier decides, from UI clicks and network observations, whether a
// genuine add-to-cart action is occurring. It holds only a rolling last-click
// timestamp and last signal key per tab, overwritten on each update.
type Classifier struct {
	registry    *sites.Registry
	clickWindow time.Duration
	debounce    time.Duration
	now         func() time.Time

	mu         sync.Mutex
	lastClick  map[string]time.Time
	lastSignal map[string]signalKey
}

type signalKey struct {
	key string
	at  time.Time
}

func NewClassifier(registry *sites.Registry, clickWindow, debounce time.Duration) *Classifier {
	return &Classifier{
		registry:    registry,
		clickWindow: clickWindow,
		debounce:    debounce,
		now:         time.Now,
		lastClick:   make(map[string]time.Time),
		lastSignal:  make(map[string]signalKey),
	}
}

// ObserveClick records a qualifying add-to-cart click and reports whether the
// click qualified. Clicks inside variant pickers, navigation or wishlist
// controls never qualify.
func (c *Classifier) ObserveClick(ev ClickEvent) bool {
	combined := strings.Join([]string{ev.Text, ev.AriaLabel, ev.IDAttr, ev.ClassAttr}, " ")
	if !addWordPattern.MatchString(combined) || !containerWordPattern.MatchString(combined) {
		return false
	}

	if c.inRejectedRegion(ev) {
		slog.Debug("Click rejected by ancestor heuristics", "tab", ev.TabID, "text", ev.Text)
		return false
	}

	c.mu.Lock()
	c.lastClick[ev.TabID] = c.now()
	c.mu.Unlock()

	slog.Debug("Qualifying add click", "tab", ev.TabID, "text", ev.Text)
	return true
}

// ObserveNetwork classifies one observed request. A signal is emitted only
// when the request matches an add-endpoint shape with a mutating method and a
// positive quantity, AND a qualifying click happened within the click window.
// Any parse trouble means "not an add".
func (c *Classifier) ObserveNetwork(ev NetworkEvent) (*AddIntentSignal, bool) {
	u, err := url.Parse(ev.URL)
	if err != nil || u.Host == "" {
		return nil, false
	}

	method := strings.ToUpper(ev.Method)
	if method != "POST" && method != "PUT" && method != "PATCH" {
		return nil, false
	}

	if !c.registry.IsAddEndpoint(u) {
		return nil, false
	}

	body := ParseRequestBody(ev.ContentType, ev.Body)

	qty, found := quantityFromQuery(u)
	if !found {
		qty, found = body.Quantity()
	}

	if isGraphQLRequest(u, body) {
		host := u.Hostname()
		if ev.PageURL != "" {
			if pu, err := url.Parse(ev.PageURL); err == nil && pu.Hostname() != "" {
				host = pu.Hostname()
			}
		}
		if !body.NamesAddMutation(c.registry.GraphQLOps(host)) {
			return nil, false
		}
	}

	if !found {
		return nil, false
	}

	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	lastClick, clicked := c.lastClick[ev.TabID]
	if !clicked || now.Sub(lastClick) > c.clickWindow {
		slog.Debug("Network add signal without recent click, ignoring", "tab", ev.TabID, "url", ev.URL)
		return nil, false
	}

	key := ev.TabID + "|" + ev.URL
	if last, ok := c.lastSignal[ev.TabID]; ok && last.key == key && now.Sub(last.at) < c.debounce {
		return nil, false
	}
	c.lastSignal[ev.TabID] = signalKey{key: key, at: now}

	source := SourceNetwork
	if ev.FormSubmit {
		source = SourceFormSubmit
	}

	return &AddIntentSignal{
		Source:    source,
		TabID:     ev.TabID,
		URL:       ev.URL,
		PageURL:   ev.PageURL,
		Method:    method,
		ProductID: body.ProductID(),
		Quantity:  qty,
		Timestamp: now,
	}, true
}

// ResetTab clears per-tab click state after a navigation.
func (c *Classifier) ResetTab(tabID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lastClick, tabID)
	delete(c.lastSignal, tabID)
}

func (c *Classifier) inRejectedRegion(ev ClickEvent) bool {
	tokens := c.registry.VariantTokens(hostOf(ev.PageURL))

	depth := len(ev.Ancestry)
	if depth > maxAncestorDepth {
		depth = maxAncestorDepth
	}

	for _, ancestor := range ev.Ancestry[:depth] {
		if rejectedRoles[strings.ToLower(ancestor.Role)] {
			return true
		}
		if ancestor.Tag != "" && strings.EqualFold(ancestor.Tag, "select") {
			return true
		}
		attrTokens := splitTokens(ancestor.Class + " " + ancestor.ID + " " + ancestor.Name)
		for _, t := range attrTokens {
			for _, variant := range tokens {
				if t == variant {
					return true
				}
			}
		}
	}
	return false
}

func quantityFromQuery(u *url.URL) (int, bool) {
	query := u.Query()
	for _, key := range quantityKeys {
		if v := query.Get(key); v != "" {
			if qty, ok := positiveInt(v); ok {
				return qty, true
			}
		}
	}
	return 0, false
}

func isGraphQLRequest(u *url.URL, body RequestBody) bool {
	if strings.Contains(strings.ToLower(u.Path), "graphql") {
		return true
	}
	if body.Kind == BodyStructured {
		_, hasQuery := body.JSON["query"].(string)
		return hasQuery
	}
	return false
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
