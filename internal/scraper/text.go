package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are removed before text extraction.
const noiseSelectors = "script, style, noscript, svg, iframe, nav, footer, header, form, [aria-hidden='true']"

// contentSelectors are tried in order; the first with enough text wins.
var contentSelectors = []string{"main", "article", "[role='main']", "#content", "body"}

var (
	urlPattern        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	noisePattern      = regexp.MustCompile(`[^\p{L}\p{N}\s.,:;()/&+#'%-]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ExtractText returns the cleaned visible text of an HTML document.
func ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find(noiseSelectors).Remove()

	var text string
	for _, sel := range contentSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		// Text() concatenates adjacent blocks; separate them first.
		node.Find("p, div, li, h1, h2, h3, h4, h5, h6, br, tr, section").Each(func(_ int, s *goquery.Selection) {
			s.AppendHtml(" ")
		})
		text = CleanText(node.Text())
		if len(text) >= minContentLength || sel == "body" {
			break
		}
	}
	if text == "" {
		text = CleanText(doc.Text())
	}
	return text, nil
}

// CleanText strips URLs and stray symbols and collapses whitespace.
func CleanText(text string) string {
	text = urlPattern.ReplaceAllString(text, " ")
	text = noisePattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
