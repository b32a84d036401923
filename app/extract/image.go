package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/onecart/onecart/app/sites"
)

// minImageDim is the smallest declared dimension for an on-page image to be
// considered a product shot rather than an icon.
const minImageDim = 180

// imageCandidates walks the image priority chain and returns the first
// candidate that survives the tracking-pixel filter.
func imageFromDOM(doc *goquery.Document, base string) string {
	for _, candidate := range []string{
		bestSrcsetCandidate(doc),
		largestDeclaredImage(doc),
		firstAttr(doc, "img[data-src]", "data-src"),
		firstAttr(doc, "img[data-lazy-src]", "data-lazy-src"),
		firstAttr(doc, "img[data-original]", "data-original"),
		firstAttr(doc, `link[rel="preload"][as="image"]`, "href"),
	} {
		if candidate != "" && !sites.IsTrackingImage(candidate) {
			return absolutize(candidate, base)
		}
	}
	return ""
}

// bestSrcsetCandidate parses every srcset on the page and picks the URL with
// the largest width descriptor.
func bestSrcsetCandidate(doc *goquery.Document) string {
	var bestURL string
	bestWidth := 0

	doc.Find("img[srcset], source[srcset]").Each(func(_ int, s *goquery.Selection) {
		srcset, _ := s.Attr("srcset")
		for _, entry := range strings.Split(srcset, ",") {
			fields := strings.Fields(strings.TrimSpace(entry))
			if len(fields) == 0 {
				continue
			}

			width := 0
			if len(fields) >= 2 && strings.HasSuffix(fields[1], "w") {
				width, _ = strconv.Atoi(strings.TrimSuffix(fields[1], "w"))
			}
			if width > bestWidth && !sites.IsTrackingImage(fields[0]) {
				bestWidth = width
				bestURL = fields[0]
			}
		}
	})

	if bestWidth < minImageDim {
		return ""
	}
	return bestURL
}

// largestDeclaredImage picks the on-page <img> with the largest declared area
// above the minimum dimension threshold.
func largestDeclaredImage(doc *goquery.Document) string {
	var bestURL string
	bestArea := 0

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		width, _ := strconv.Atoi(s.AttrOr("width", "0"))
		height, _ := strconv.Atoi(s.AttrOr("height", "0"))
		if width < minImageDim || height < minImageDim {
			return
		}

		src, _ := s.Attr("src")
		if sites.IsTrackingImage(src) {
			return
		}

		if area := width * height; area > bestArea {
			bestArea = area
			bestURL = src
		}
	})

	return bestURL
}

func firstAttr(doc *goquery.Document, selector, attr string) string {
	value, _ := doc.Find(selector).First().Attr(attr)
	return strings.TrimSpace(value)
}
