// Package jobtext extracts the text and title of job postings, either from the
// static HTML of the page or from a remote crawl for boards that render client-side.
package jobtext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/einantonio/pdf-text-api/internal/extract"
)

// noiseSelector matches elements that never carry posting content.
const noiseSelector = "script, style, nav, footer, header, noscript, form"

// StaticText flattens an HTML page to whitespace-normalized text of at most
// extract.MaxJobTextChars characters.
func StaticText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(noiseSelector).Remove()

	var parts []string
	collectText(doc.Selection, &parts)
	text := extract.CollapseWhitespace(strings.Join(parts, " "))
	return extract.Truncate(text, extract.MaxJobTextChars), nil
}

// collectText appends every text node under s in document order.
func collectText(s *goquery.Selection, parts *[]string) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "#text":
			*parts = append(*parts, child.Text())
		case "#comment":
		default:
			collectText(child, parts)
		}
	})
}
