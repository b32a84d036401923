package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/onecart/onecart/app/cart"
	"github.com/onecart/onecart/app/sites"
)

// Extractor builds a best-effort ProductRecord from a page snapshot, trying
// multiple sources per field in a fixed priority order and stopping at the
// first usable value. Unresolved fields stay empty; the caller decides
// whether an incomplete record is usable.
type Extractor struct {
	registry *sites.Registry
}

func NewExtractor(registry *sites.Registry) *Extractor {
	return &Extractor{registry: registry}
}

func (e *Extractor) Run(html []byte, pageURL string) (cart.ProductRecord, error) {
	if len(html) == 0 {
		return cart.ProductRecord{}, fmt.Errorf("page snapshot is empty")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return cart.ProductRecord{}, fmt.Errorf("failed to parse page snapshot: %w", err)
	}

	product := parseProductData(doc)
	article := readabilityArticle(html, pageURL)

	link := e.extractLink(doc, pageURL)

	record := cart.ProductRecord{
		Title: e.extractTitle(doc, product, article),
		Brand: e.extractBrand(doc, product, article, link),
		Price: e.extractPrice(doc, product),
		Img:   e.extractImage(doc, product, article, link),
		ID:    e.extractID(product, link),
		Link:  link,
	}

	return record, nil
}

// extractTitle: page metadata -> structured data -> primary heading ->
// document title -> readability title.
func (e *Extractor) extractTitle(doc *goquery.Document, product productData, article readability.Article) string {
	for _, candidate := range []string{
		metaContent(doc, `meta[property="og:title"]`),
		product.Name,
		strings.TrimSpace(doc.Find("h1").First().Text()),
		strings.TrimSpace(doc.Find("title").First().Text()),
		article.Title,
	} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// extractPrice: structured-data offers -> price meta tags -> visible DOM text
// matching a currency-amount pattern.
func (e *Extractor) extractPrice(doc *goquery.Document, product productData) string {
	if product.Price > 0 {
		return formatAmount(fmt.Sprintf("%f", product.Price), product.Currency)
	}
	if price := priceFromMeta(doc); price != "" {
		return price
	}
	return priceFromDOM(doc)
}

// extractImage: og image -> structured data -> srcset/largest/lazy/preload ->
// social card -> readability lead image.
func (e *Extractor) extractImage(doc *goquery.Document, product productData, article readability.Article, base string) string {
	for _, candidate := range []string{
		metaContent(doc, `meta[property="og:image"]`),
		product.Image,
	} {
		if candidate != "" && !sites.IsTrackingImage(candidate) {
			return absolutize(candidate, base)
		}
	}

	if img := imageFromDOM(doc, base); img != "" {
		return img
	}

	for _, candidate := range []string{
		metaContent(doc, `meta[name="twitter:image"]`),
		article.Image,
	} {
		if candidate != "" && !sites.IsTrackingImage(candidate) {
			return absolutize(candidate, base)
		}
	}
	return ""
}

// extractBrand: structured data -> site brand mapping -> site name metadata ->
// hostname-derived fallback.
func (e *Extractor) extractBrand(doc *goquery.Document, product productData, article readability.Article, link string) string {
	if product.Brand != "" {
		return product.Brand
	}

	host := hostOf(link)
	label := strings.SplitN(strings.TrimPrefix(host, "www."), ".", 2)[0]
	if brand, ok := e.registry.CanonicalBrand(host, label); ok {
		return brand
	}

	for _, candidate := range []string{
		metaContent(doc, `meta[property="og:site_name"]`),
		article.SiteName,
	} {
		if candidate != "" {
			return candidate
		}
	}

	return cart.BrandFromHost(host)
}

// extractLink: canonical URL -> og:url -> current page URL.
func (e *Extractor) extractLink(doc *goquery.Document, pageURL string) string {
	for _, candidate := range []string{
		firstAttr(doc, `link[rel="canonical"]`, "href"),
		metaContent(doc, `meta[property="og:url"]`),
	} {
		if candidate != "" {
			return absolutize(candidate, pageURL)
		}
	}
	return pageURL
}

// extractID prefers a structured-data SKU/MPN, else falls back to the link.
func (e *Extractor) extractID(product productData, link string) string {
	for _, candidate := range []string{product.SKU, product.MPN, product.ID} {
		if candidate != "" {
			return candidate
		}
	}
	return link
}

func readabilityArticle(html []byte, pageURL string) readability.Article {
	u, err := url.Parse(pageURL)
	if err != nil {
		u = nil
	}
	article, err := readability.FromReader(bytes.NewReader(html), u)
	if err != nil {
		return readability.Article{}
	}
	return article
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func absolutize(link, base string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return link
	}
	return baseURL.ResolveReference(u).String()
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
