package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// productData is the flattened schema.org Product block found in a page's
// JSON-LD scripts, zero-valued when absent.
type productData struct {
	Name     string
	Brand    string
	SKU      string
	MPN      string
	ID       string
	Image    string
	Price    float64
	Currency string
}

// parseProductData scans ld+json scripts for the first Product node. Malformed
// blocks are skipped; extraction never fails on bad structured data.
func parseProductData(doc *goquery.Document) productData {
	var product productData

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw interface{}
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true
		}

		if node, ok := findProductNode(raw, 0); ok {
			product = flattenProduct(node)
			return false
		}
		return true
	})

	return product
}

func findProductNode(raw interface{}, depth int) (map[string]interface{}, bool) {
	if depth > 3 {
		return nil, false
	}

	switch v := raw.(type) {
	case map[string]interface{}:
		if isProductType(v["@type"]) {
			return v, true
		}
		if graph, ok := v["@graph"]; ok {
			return findProductNode(graph, depth+1)
		}
	case []interface{}:
		for _, elem := range v {
			if node, ok := findProductNode(elem, depth+1); ok {
				return node, true
			}
		}
	}
	return nil, false
}

func isProductType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Product")
	case []interface{}:
		for _, elem := range v {
			if s, ok := elem.(string); ok && strings.EqualFold(s, "Product") {
				return true
			}
		}
	}
	return false
}

func flattenProduct(node map[string]interface{}) productData {
	product := productData{
		Name: stringValue(node["name"]),
		SKU:  stringValue(node["sku"]),
		MPN:  stringValue(node["mpn"]),
		ID:   stringValue(node["productID"]),
	}

	switch brand := node["brand"].(type) {
	case string:
		product.Brand = brand
	case map[string]interface{}:
		product.Brand = stringValue(brand["name"])
	}

	switch img := node["image"].(type) {
	case string:
		product.Image = img
	case []interface{}:
		if len(img) > 0 {
			product.Image = stringValue(img[0])
		}
	case map[string]interface{}:
		product.Image = stringValue(img["url"])
	}

	product.Price, product.Currency = firstOffer(node["offers"])

	return product
}

// firstOffer returns the first offer with a positive numeric price.
func firstOffer(raw interface{}) (float64, string) {
	switch v := raw.(type) {
	case map[string]interface{}:
		price := numericValue(v["price"])
		if price <= 0 {
			price = numericValue(v["lowPrice"])
		}
		if price > 0 {
			return price, stringValue(v["priceCurrency"])
		}
	case []interface{}:
		for _, elem := range v {
			if price, currency := firstOffer(elem); price > 0 {
				return price, currency
			}
		}
	}
	return 0, ""
}

func stringValue(raw interface{}) string {
	s, _ := raw.(string)
	return strings.TrimSpace(s)
}

func numericValue(raw interface{}) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}
