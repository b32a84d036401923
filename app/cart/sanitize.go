package cart

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/onecart/onecart/app/sites"
)

const (
	maxFieldLength      = 1024
	maxInlineImageBytes = 2048
)

var (
	bareNumberPattern   = regexp.MustCompile(`^\d+(?:[.,]\d{1,2})?$`)
	currencyCodePattern = regexp.MustCompile(`(?i)^(usd|eur|gbp|cad|aud)\s*(\d+(?:[.,]\d{1,2})?)$`)

	titleCaser = cases.Title(language.English)
)

var currencySymbols = map[string]string{
	"usd": "$",
	"cad": "C$",
	"aud": "A$",
	"eur": "€",
	"gbp": "£",
}

// Sanitize normalizes every field of a candidate record to a safe string.
// After sanitization the id is never empty when a link is present.
func Sanitize(rec ProductRecord, registry *sites.Registry) ProductRecord {
	rec.Title = cleanField(rec.Title)
	rec.Link = cleanField(rec.Link)
	rec.Img = sanitizeImage(rec.Img)
	rec.Brand = canonicalBrand(rec.Brand, rec.Link, registry)
	rec.Price = NormalizePrice(rec.Price)

	rec.ID = cleanField(rec.ID)
	if rec.ID == "" {
		rec.ID = rec.Link
	}

	return rec
}

func cleanField(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxFieldLength {
		s = s[:maxFieldLength]
	}
	return s
}

func sanitizeImage(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(src), "data:") && len(src) > maxInlineImageBytes {
		return ""
	}
	if sites.IsTrackingImage(src) {
		return ""
	}
	if len(src) > maxFieldLength {
		return ""
	}
	return src
}

func canonicalBrand(raw, link string, registry *sites.Registry) string {
	raw = cleanField(raw)
	host := hostOf(link)

	if raw != "" {
		if registry != nil {
			if canonical, ok := registry.CanonicalBrand(host, raw); ok {
				return canonical
			}
		}
		return titleCaser.String(strings.ToLower(raw))
	}

	return BrandFromHost(host)
}

// BrandFromHost derives a display brand from a hostname, e.g.
// "shop.acme-outdoors.co.uk" -> "Acme Outdoors".
func BrandFromHost(host string) string {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if host == "" {
		return ""
	}

	labels := strings.Split(host, ".")
	name := labels[0]
	if len(labels) >= 2 {
		// Pick the registrable label, skipping two-letter public-suffix parts
		// like co.uk.
		name = labels[len(labels)-2]
		if len(name) <= 2 && len(labels) >= 3 {
			name = labels[len(labels)-3]
		}
	}

	name = strings.ReplaceAll(name, "-", " ")
	return titleCaser.String(name)
}

// NormalizePrice formats bare numeric and currency-code-hinted values with a
// currency symbol and two decimals. Anything else passes through untouched.
func NormalizePrice(price string) string {
	price = cleanField(price)
	if price == "" {
		return ""
	}

	if bareNumberPattern.MatchString(price) {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(price, ",", "."), 64); err == nil {
			return fmt.Sprintf("$%.2f", v)
		}
		return price
	}

	if m := currencyCodePattern.FindStringSubmatch(price); m != nil {
		symbol := currencySymbols[strings.ToLower(m[1])]
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64); err == nil {
			return fmt.Sprintf("%s%.2f", symbol, v)
		}
	}

	return price
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
