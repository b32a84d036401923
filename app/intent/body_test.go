package intent

import "testing"

func TestParseRequestBodyFormEncoded(t *testing.T) {
	body := ParseRequestBody("application/x-www-form-urlencoded", "product_id=SKU-1&quantity=2")

	if body.Kind != BodyFormEncoded {
		t.Fatalf("Expected form-encoded kind, got %d", body.Kind)
	}

	qty, ok := body.Quantity()
	if !ok || qty != 2 {
		t.Errorf("Expected quantity 2, got %d (%v)", qty, ok)
	}
	if body.ProductID() != "SKU-1" {
		t.Errorf("Expected product id SKU-1, got %q", body.ProductID())
	}
}

func TestParseRequestBodyJSON(t *testing.T) {
	body := ParseRequestBody("application/json", `{"items":[{"variantId":"V-9","qty":3}]}`)

	if body.Kind != BodyStructured {
		t.Fatalf("Expected structured kind, got %d", body.Kind)
	}

	qty, ok := body.Quantity()
	if !ok || qty != 3 {
		t.Errorf("Expected nested quantity 3, got %d (%v)", qty, ok)
	}
	if body.ProductID() != "V-9" {
		t.Errorf("Expected nested variant id, got %q", body.ProductID())
	}
}

func TestParseRequestBodyJSONSuffixType(t *testing.T) {
	body := ParseRequestBody("application/vnd.shop+json", `{"quantity":1}`)
	if body.Kind != BodyStructured {
		t.Errorf("Expected +json content type parsed as JSON, got %d", body.Kind)
	}
}

func TestParseRequestBodySniffsJSON(t *testing.T) {
	body := ParseRequestBody("", `{"quantity":4}`)
	if body.Kind != BodyStructured {
		t.Fatalf("Expected sniffed JSON, got %d", body.Kind)
	}
	if qty, ok := body.Quantity(); !ok || qty != 4 {
		t.Errorf("Expected quantity 4, got %d (%v)", qty, ok)
	}
}

func TestParseRequestBodySniffsFormEncoded(t *testing.T) {
	body := ParseRequestBody("", "qty=5&sku=A1")
	if body.Kind != BodyFormEncoded {
		t.Fatalf("Expected sniffed form encoding, got %d", body.Kind)
	}
	if qty, ok := body.Quantity(); !ok || qty != 5 {
		t.Errorf("Expected quantity 5, got %d (%v)", qty, ok)
	}
}

func TestParseRequestBodyMultipart(t *testing.T) {
	raw := "--xyz\r\n" +
		"Content-Disposition: form-data; name=\"quantity\"\r\n\r\n" +
		"2\r\n" +
		"--xyz\r\n" +
		"Content-Disposition: form-data; name=\"product_id\"\r\n\r\n" +
		"SKU-7\r\n" +
		"--xyz--\r\n"

	body := ParseRequestBody("multipart/form-data; boundary=xyz", raw)

	if body.Kind != BodyFormEncoded {
		t.Fatalf("Expected multipart parsed into form fields, got %d", body.Kind)
	}
	if qty, ok := body.Quantity(); !ok || qty != 2 {
		t.Errorf("Expected quantity 2, got %d (%v)", qty, ok)
	}
	if body.ProductID() != "SKU-7" {
		t.Errorf("Expected product id SKU-7, got %q", body.ProductID())
	}
}

func TestParseRequestBodyMalformedFallsBackToText(t *testing.T) {
	body := ParseRequestBody("application/json", "{broken")
	if body.Kind != BodyText {
		t.Errorf("Expected text fallback for malformed JSON, got %d", body.Kind)
	}
}

func TestQuantityRejectsNonPositive(t *testing.T) {
	tests := []string{
		`{"quantity":0}`,
		`{"quantity":-1}`,
		`{"quantity":1.5}`,
		`{"quantity":"abc"}`,
	}

	for _, raw := range tests {
		body := ParseRequestBody("application/json", raw)
		if qty, ok := body.Quantity(); ok {
			t.Errorf("Expected no quantity from %s, got %d", raw, qty)
		}
	}
}

func TestQuantityStringCoercion(t *testing.T) {
	body := ParseRequestBody("application/json", `{"quantity":"3"}`)
	if qty, ok := body.Quantity(); !ok || qty != 3 {
		t.Errorf("Expected string quantity coerced to 3, got %d (%v)", qty, ok)
	}
}

func TestQuantityDepthBounded(t *testing.T) {
	deep := `{"a":{"b":{"c":{"d":{"e":{"quantity":2}}}}}}`
	body := ParseRequestBody("application/json", deep)
	if _, ok := body.Quantity(); ok {
		t.Error("Expected quantity beyond depth limit not found")
	}
}

func TestQuantityFromGraphQLText(t *testing.T) {
	body := RequestBody{Kind: BodyText, Text: `mutation { add(input: {"quantity": 6}) }`}
	if qty, ok := body.Quantity(); !ok || qty != 6 {
		t.Errorf("Expected quantity 6 from text pattern, got %d (%v)", qty, ok)
	}
}

func TestNamesAddMutation(t *testing.T) {
	ops := []string{"addToCart", "cartLinesAdd"}

	tests := []struct {
		name string
		body RequestBody
		want bool
	}{
		{
			"mutation in query",
			RequestBody{Kind: BodyStructured, JSON: map[string]interface{}{"query": "mutation { addToCart }"}},
			true,
		},
		{
			"operation name only",
			RequestBody{Kind: BodyStructured, JSON: map[string]interface{}{"query": "mutation x { y }", "operationName": "cartLinesAdd"}},
			true,
		},
		{
			"query without mutation keyword",
			RequestBody{Kind: BodyStructured, JSON: map[string]interface{}{"query": "query { addToCart }"}},
			false,
		},
		{
			"mutation without known op",
			RequestBody{Kind: BodyStructured, JSON: map[string]interface{}{"query": "mutation { removeFromCart }"}},
			false,
		},
		{
			"text document",
			RequestBody{Kind: BodyText, Text: "mutation { cartLinesAdd }"},
			true,
		},
		{
			"form encoded never matches",
			RequestBody{Kind: BodyFormEncoded},
			false,
		},
	}

	for _, tt := range tests {
		if got := tt.body.NamesAddMutation(ops); got != tt.want {
			t.Errorf("%s: NamesAddMutation = %v, want %v", tt.name, got, tt.want)
		}
	}
}
