package intent

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// BodyKind tags the parsed form of an observed request payload.
type BodyKind int

const (
	BodyFormEncoded BodyKind = iota // url-encoded or multipart fields
	BodyStructured                  // JSON object
	BodyText                        // raw text (GraphQL documents, unparseable payloads)
)

// RequestBody is the tagged union of payload shapes the classifier inspects.
// Exactly one of Values, JSON or Text carries data, selected by Kind.
type RequestBody struct {
	Kind   BodyKind
	Values url.Values
	JSON   map[string]interface{}
	Text   string
}

var quantityKeys = []string{"quantity", "qty", "units", "count"}

var productIDKeys = []string{
	"product_id", "productId", "variant_id", "variantId",
	"sku", "item_id", "itemId", "id",
}

var graphqlQuantityPattern = regexp.MustCompile(`"(?:quantity|qty)"\s*:\s*([1-9]\d*)`)

// ParseRequestBody dispatches on content type. It never fails: payloads that
// do not parse fall back to the text variant, which downstream checks treat
// conservatively.
func ParseRequestBody(contentType, body string) RequestBody {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		return parseFormBody(body)
	case mediaType == "multipart/form-data":
		return parseMultipartBody(body, params["boundary"])
	case mediaType == "application/json" || mediaType == "text/json" || strings.HasSuffix(mediaType, "+json"):
		return parseJSONBody(body)
	default:
		// Interceptors frequently omit the content type; sniff JSON objects.
		if strings.HasPrefix(strings.TrimSpace(body), "{") {
			return parseJSONBody(body)
		}
		if values, err := url.ParseQuery(body); err == nil && looksFormEncoded(body) {
			return RequestBody{Kind: BodyFormEncoded, Values: values}
		}
		return RequestBody{Kind: BodyText, Text: body}
	}
}

func parseFormBody(body string) RequestBody {
	values, err := url.ParseQuery(body)
	if err != nil {
		return RequestBody{Kind: BodyText, Text: body}
	}
	return RequestBody{Kind: BodyFormEncoded, Values: values}
}

func parseMultipartBody(body, boundary string) RequestBody {
	if boundary == "" {
		return RequestBody{Kind: BodyText, Text: body}
	}

	values := url.Values{}
	reader := multipart.NewReader(strings.NewReader(body), boundary)
	for {
		part, err := reader.NextPart()
		if err != nil {
			break
		}
		if name := part.FormName(); name != "" {
			data, err := io.ReadAll(io.LimitReader(part, 4096))
			if err == nil {
				values.Add(name, string(data))
			}
		}
		part.Close()
	}

	if len(values) == 0 {
		return RequestBody{Kind: BodyText, Text: body}
	}
	return RequestBody{Kind: BodyFormEncoded, Values: values}
}

func parseJSONBody(body string) RequestBody {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return RequestBody{Kind: BodyText, Text: body}
	}
	return RequestBody{Kind: BodyStructured, JSON: obj}
}

func looksFormEncoded(body string) bool {
	return strings.Contains(body, "=") && !strings.ContainsAny(body, " \n{")
}

// Quantity finds a positive numeric quantity field in the payload.
func (b RequestBody) Quantity() (int, bool) {
	switch b.Kind {
	case BodyFormEncoded:
		for _, key := range quantityKeys {
			if v := b.Values.Get(key); v != "" {
				if qty, ok := positiveInt(v); ok {
					return qty, true
				}
			}
		}
	case BodyStructured:
		if qty, ok := findQuantity(b.JSON, 0); ok {
			return qty, true
		}
	case BodyText:
		if m := graphqlQuantityPattern.FindStringSubmatch(b.Text); m != nil {
			return positiveInt(m[1])
		}
	}
	return 0, false
}

// ProductID finds a product/variant identifier in the payload, best effort.
func (b RequestBody) ProductID() string {
	switch b.Kind {
	case BodyFormEncoded:
		for _, key := range productIDKeys {
			if v := b.Values.Get(key); v != "" {
				return v
			}
		}
	case BodyStructured:
		for _, key := range productIDKeys {
			if v, ok := findString(b.JSON, key, 0); ok {
				return v
			}
		}
	}
	return ""
}

// NamesAddMutation reports whether a GraphQL-style payload textually names one
// of the given add-mutation operations.
func (b RequestBody) NamesAddMutation(ops []string) bool {
	var doc string
	switch b.Kind {
	case BodyStructured:
		if q, ok := b.JSON["query"].(string); ok {
			doc = q
		}
		if op, ok := b.JSON["operationName"].(string); ok {
			doc += " " + op
		}
	case BodyText:
		doc = b.Text
	default:
		return false
	}

	lower := strings.ToLower(doc)
	if !strings.Contains(lower, "mutation") {
		return false
	}
	for _, op := range ops {
		if strings.Contains(lower, strings.ToLower(op)) {
			return true
		}
	}
	return false
}

const maxBodyDepth = 4

func findQuantity(obj map[string]interface{}, depth int) (int, bool) {
	if depth > maxBodyDepth {
		return 0, false
	}

	for _, key := range quantityKeys {
		if raw, ok := obj[key]; ok {
			switch v := raw.(type) {
			case float64:
				if v > 0 && v == float64(int(v)) {
					return int(v), true
				}
			case string:
				if qty, ok := positiveInt(v); ok {
					return qty, true
				}
			}
		}
	}

	for _, raw := range obj {
		switch v := raw.(type) {
		case map[string]interface{}:
			if qty, ok := findQuantity(v, depth+1); ok {
				return qty, true
			}
		case []interface{}:
			for _, elem := range v {
				if nested, ok := elem.(map[string]interface{}); ok {
					if qty, ok := findQuantity(nested, depth+1); ok {
						return qty, true
					}
				}
			}
		}
	}

	return 0, false
}

func findString(obj map[string]interface{}, key string, depth int) (string, bool) {
	if depth > maxBodyDepth {
		return "", false
	}

	if raw, ok := obj[key]; ok {
		switch v := raw.(type) {
		case string:
			if v != "" {
				return v, true
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
	}

	for _, raw := range obj {
		switch v := raw.(type) {
		case map[string]interface{}:
			if s, ok := findString(v, key, depth+1); ok {
				return s, true
			}
		case []interface{}:
			for _, elem := range v {
				if nested, ok := elem.(map[string]interface{}); ok {
					if s, ok := findString(nested, key, depth+1); ok {
						return s, true
					}
				}
			}
		}
	}

	return "", false
}

func positiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
