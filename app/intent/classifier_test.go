package intent

import (
	"testing"
	"time"

	"github.com/onecart/onecart/app/sites"
)

func newTestClassifier() *Classifier {
	return NewClassifier(sites.NewRegistry(""), 5*time.Second, 400*time.Millisecond)
}

func qualifyingClick(tabID string) ClickEvent {
	return ClickEvent{
		TabID:   tabID,
		PageURL: "https://shop.example.com/product/trail-shoes",
		Text:    "Add to Cart",
	}
}

func addRequest(tabID string) NetworkEvent {
	return NetworkEvent{
		TabID:       tabID,
		PageURL:     "https://shop.example.com/product/trail-shoes",
		URL:         "https://shop.example.com/cart/add",
		Method:      "POST",
		ContentType: "application/x-www-form-urlencoded",
		Body:        "product_id=SKU-42&quantity=2",
	}
}

func TestClassifierClickThenNetworkEmitsSignal(t *testing.T) {
	c := newTestClassifier()

	if !c.ObserveClick(qualifyingClick("tab-1")) {
		t.Fatal("Expected click to qualify")
	}

	signal, ok := c.ObserveNetwork(addRequest("tab-1"))
	if !ok {
		t.Fatal("Expected signal from add request after click")
	}
	if signal.Quantity != 2 {
		t.Errorf("Expected quantity 2, got %d", signal.Quantity)
	}
	if signal.ProductID != "SKU-42" {
		t.Errorf("Expected product id SKU-42, got %q", signal.ProductID)
	}
	if signal.Source != SourceNetwork {
		t.Errorf("Expected network source, got %q", signal.Source)
	}
}

func TestClassifierNetworkWithoutClickIgnored(t *testing.T) {
	c := newTestClassifier()

	if _, ok := c.ObserveNetwork(addRequest("tab-1")); ok {
		t.Error("Expected no signal without a preceding click")
	}
}

func TestClassifierClickWindowExpires(t *testing.T) {
	c := newTestClassifier()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.ObserveClick(qualifyingClick("tab-1"))

	current = current.Add(6 * time.Second)
	if _, ok := c.ObserveNetwork(addRequest("tab-1")); ok {
		t.Error("Expected no signal after click window expired")
	}
}

func TestClassifierDebouncesDuplicateSignals(t *testing.T) {
	c := newTestClassifier()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.ObserveClick(qualifyingClick("tab-1"))

	if _, ok := c.ObserveNetwork(addRequest("tab-1")); !ok {
		t.Fatal("Expected first signal")
	}

	current = current.Add(100 * time.Millisecond)
	if _, ok := c.ObserveNetwork(addRequest("tab-1")); ok {
		t.Error("Expected duplicate within debounce window suppressed")
	}

	current = current.Add(time.Second)
	if _, ok := c.ObserveNetwork(addRequest("tab-1")); !ok {
		t.Error("Expected signal again after debounce window")
	}
}

func TestClassifierClickScopedToTab(t *testing.T) {
	c := newTestClassifier()

	c.ObserveClick(qualifyingClick("tab-1"))

	if _, ok := c.ObserveNetwork(addRequest("tab-2")); ok {
		t.Error("Expected click in one tab not to arm another")
	}
}

func TestClassifierResetTabClearsClick(t *testing.T) {
	c := newTestClassifier()

	c.ObserveClick(qualifyingClick("tab-1"))
	c.ResetTab("tab-1")

	if _, ok := c.ObserveNetwork(addRequest("tab-1")); ok {
		t.Error("Expected no signal after tab reset")
	}
}

func TestClassifierClickWording(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name string
		ev   ClickEvent
		want bool
	}{
		{"add to cart text", ClickEvent{TabID: "t", Text: "Add to Cart"}, true},
		{"add to bag aria", ClickEvent{TabID: "t", AriaLabel: "Add to bag"}, true},
		{"added to basket", ClickEvent{TabID: "t", Text: "Added to basket"}, true},
		{"class attribute", ClickEvent{TabID: "t", ClassAttr: "btn add-to-cart"}, true},
		{"add without container", ClickEvent{TabID: "t", Text: "Add address"}, false},
		{"container without add", ClickEvent{TabID: "t", Text: "View cart"}, false},
		{"address substring does not count", ClickEvent{TabID: "t", Text: "Address cart"}, false},
		{"empty", ClickEvent{TabID: "t"}, false},
	}

	for _, tt := range tests {
		if got := c.ObserveClick(tt.ev); got != tt.want {
			t.Errorf("%s: ObserveClick = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClassifierRejectsVariantPickerRegions(t *testing.T) {
	c := newTestClassifier()

	ev := qualifyingClick("tab-1")
	ev.Ancestry = []AncestorInfo{
		{Tag: "button"},
		{Tag: "div", Class: "size-selector"},
	}

	if c.ObserveClick(ev) {
		t.Error("Expected click inside size selector rejected")
	}
}

func TestClassifierRejectsNavigationRoles(t *testing.T) {
	c := newTestClassifier()

	ev := qualifyingClick("tab-1")
	ev.Ancestry = []AncestorInfo{
		{Tag: "a"},
		{Tag: "nav", Role: "navigation"},
	}

	if c.ObserveClick(ev) {
		t.Error("Expected click inside navigation rejected")
	}
}

func TestClassifierRejectsSelectElements(t *testing.T) {
	c := newTestClassifier()

	ev := qualifyingClick("tab-1")
	ev.Ancestry = []AncestorInfo{
		{Tag: "option"},
		{Tag: "select"},
	}

	if c.ObserveClick(ev) {
		t.Error("Expected click inside select rejected")
	}
}

func TestClassifierAncestorDepthBounded(t *testing.T) {
	c := newTestClassifier()

	ev := qualifyingClick("tab-1")
	for i := 0; i < maxAncestorDepth; i++ {
		ev.Ancestry = append(ev.Ancestry, AncestorInfo{Tag: "div"})
	}
	// Beyond the walk depth; must not affect the outcome.
	ev.Ancestry = append(ev.Ancestry, AncestorInfo{Tag: "div", Class: "size-selector"})

	if !c.ObserveClick(ev) {
		t.Error("Expected ancestor beyond walk depth ignored")
	}
}

func TestClassifierIgnoresNonMutatingMethods(t *testing.T) {
	c := newTestClassifier()
	c.ObserveClick(qualifyingClick("tab-1"))

	ev := addRequest("tab-1")
	ev.Method = "GET"

	if _, ok := c.ObserveNetwork(ev); ok {
		t.Error("Expected GET request ignored")
	}
}

func TestClassifierIgnoresNonAddEndpoints(t *testing.T) {
	c := newTestClassifier()
	c.ObserveClick(qualifyingClick("tab-1"))

	ev := addRequest("tab-1")
	ev.URL = "https://shop.example.com/api/analytics"

	if _, ok := c.ObserveNetwork(ev); ok {
		t.Error("Expected non-add endpoint ignored")
	}
}

func TestClassifierRequiresQuantity(t *testing.T) {
	c := newTestClassifier()
	c.ObserveClick(qualifyingClick("tab-1"))

	ev := addRequest("tab-1")
	ev.Body = "product_id=SKU-42"

	if _, ok := c.ObserveNetwork(ev); ok {
		t.Error("Expected request without quantity ignored")
	}
}

func TestClassifierQuantityFromQuery(t *testing.T) {
	c := newTestClassifier()
	c.ObserveClick(qualifyingClick("tab-1"))

	ev := addRequest("tab-1")
	ev.URL = "https://shop.example.com/cart/add?qty=3"
	ev.Body = ""

	signal, ok := c.ObserveNetwork(ev)
	if !ok {
		t.Fatal("Expected signal with query quantity")
	}
	if signal.Quantity != 3 {
		t.Errorf("Expected quantity 3, got %d", signal.Quantity)
	}
}

func TestClassifierGraphQLRequiresAddMutation(t *testing.T) {
	c := newTestClassifier()
	c.ObserveClick(qualifyingClick("tab-1"))

	ev := addRequest("tab-1")
	ev.URL = "https://shop.example.com/graphql"
	ev.ContentType = "application/json"
	ev.Body = `{"query":"query productDetails { product { id } }","variables":{"quantity":1}}`

	if _, ok := c.ObserveNetwork(ev); ok {
		t.Error("Expected non-mutation GraphQL request ignored")
	}

	ev.Body = `{"query":"mutation cartLinesAdd($lines: [CartLineInput!]!) { cartLinesAdd(lines: $lines) { cart { id } } }","variables":{"lines":[{"quantity":2}]}}`

	signal, ok := c.ObserveNetwork(ev)
	if !ok {
		t.Fatal("Expected signal from add mutation")
	}
	if signal.Quantity != 2 {
		t.Errorf("Expected quantity 2 from variables, got %d", signal.Quantity)
	}
}

func TestClassifierFormSubmitSource(t *testing.T) {
	c := newTestClassifier()
	c.ObserveClick(qualifyingClick("tab-1"))

	ev := addRequest("tab-1")
	ev.FormSubmit = true

	signal, ok := c.ObserveNetwork(ev)
	if !ok {
		t.Fatal("Expected signal from form submit")
	}
	if signal.Source != SourceFormSubmit {
		t.Errorf("Expected form-submit source, got %q", signal.Source)
	}
}
