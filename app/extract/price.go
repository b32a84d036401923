package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var currencyAmountPattern = regexp.MustCompile(`[$€£¥]\s?\d{1,3}(?:,\d{3})*(?:\.\d{2})?|\d{1,3}(?:\.\d{3})*,\d{2}\s?€`)

// Class/id vocabulary marking struck-through, compare-at and unit pricing.
var excludedPriceTokens = []string{
	"compare", "was-price", "old-price", "strike", "crossed",
	"unit-price", "per-unit", "list-price", "msrp",
}

// priceFromMeta reads commerce meta tags (og/product price pairs).
func priceFromMeta(doc *goquery.Document) string {
	for _, sel := range []string{
		`meta[property="product:price:amount"]`,
		`meta[property="og:price:amount"]`,
		`meta[itemprop="price"]`,
	} {
		amount := metaContent(doc, sel)
		if amount == "" {
			continue
		}
		currency := metaContent(doc, `meta[property="product:price:currency"]`)
		if currency == "" {
			currency = metaContent(doc, `meta[property="og:price:currency"]`)
		}
		if currency != "" {
			return formatAmount(amount, currency)
		}
		return amount
	}
	return ""
}

// priceFromDOM finds visible currency-amount text in price-suggestive nodes,
// skipping struck-through and compare-at elements. The matched token is
// passed through as-is.
func priceFromDOM(doc *goquery.Document) string {
	var price string

	doc.Find(`[class*="price"], [id*="price"], [itemprop="price"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if isExcludedPriceNode(s) {
			return true
		}

		if m := currencyAmountPattern.FindString(s.Text()); m != "" {
			price = strings.Join(strings.Fields(m), "")
			return false
		}
		return true
	})

	return price
}

func isExcludedPriceNode(s *goquery.Selection) bool {
	node := s
	for depth := 0; depth < 3 && node.Length() > 0; depth++ {
		tag := goquery.NodeName(node)
		if tag == "del" || tag == "s" || tag == "strike" {
			return true
		}

		attrs := strings.ToLower(node.AttrOr("class", "") + " " + node.AttrOr("id", ""))
		for _, token := range excludedPriceTokens {
			if strings.Contains(attrs, token) {
				return true
			}
		}
		node = node.Parent()
	}
	return false
}

var symbolForCurrency = map[string]string{
	"USD": "$",
	"CAD": "C$",
	"AUD": "A$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// formatAmount renders a numeric amount with its currency symbol and two
// decimals. Unknown currencies keep their code as a prefix token.
func formatAmount(amount, currency string) string {
	value := numericValue(amount)
	if value <= 0 {
		return ""
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if symbol, ok := symbolForCurrency[currency]; ok {
		return fmt.Sprintf("%s%.2f", symbol, value)
	}
	if currency != "" {
		return fmt.Sprintf("%s %.2f", currency, value)
	}
	return fmt.Sprintf("$%.2f", value)
}
