package jobtext

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/einantonio/pdf-text-api/internal/crawlsvc"
	"github.com/einantonio/pdf-text-api/internal/extract"
)

// labelScanLines bounds how many non-empty lines the label scan reads.
const labelScanLines = 10

var titleLabelPattern = regexp.MustCompile(`(?i)(?:Tipo de puesto|Puesto|Vacante|Cargo)\s*:\s*(.+)`)

var genericTitleSelectors = []string{"h1", "title"}

// titleStrategy maps a site to the selectors that hold its posting title.
type titleStrategy struct {
	site      Site
	selectors []string
}

// TitleResolver picks a posting title from crawl output.
type TitleResolver struct {
	strategies []titleStrategy
}

// NewTitleResolver builds a resolver whose strategy table follows the order of sites.
func NewTitleResolver(sites []Site) *TitleResolver {
	strategies := make([]titleStrategy, 0, len(sites))
	for _, site := range sites {
		if len(site.TitleSelectors) == 0 {
			continue
		}
		strategies = append(strategies, titleStrategy{site: site, selectors: site.TitleSelectors})
	}
	return &TitleResolver{strategies: strategies}
}

// Resolve walks items in order and returns the first title found from the
// item's own title field or from its HTML. Failing that, it scans the leading
// lines of the crawled text for a labeled title, and finally returns
// extract.UnspecifiedTitle.
func (r *TitleResolver) Resolve(requestURL string, items []crawlsvc.DatasetItem) string {
	for _, item := range items {
		if title := item.ExplicitTitle(); title != "" {
			return title
		}
		if item.HTML == "" {
			continue
		}
		pageURL := item.URL
		if pageURL == "" {
			pageURL = requestURL
		}
		if title := selectTitle(item.HTML, r.selectorsFor(pageURL)); title != "" {
			return title
		}
	}
	if title := scanLabeledTitle(items); title != "" {
		return title
	}
	return extract.UnspecifiedTitle
}

func (r *TitleResolver) selectorsFor(rawURL string) []string {
	host := hostOf(rawURL)
	if host != "" {
		for _, s := range r.strategies {
			if s.site.Matches(host) {
				return s.selectors
			}
		}
	}
	return genericTitleSelectors
}

// selectTitle returns the text of the first element matched by the first
// selector that yields non-empty text.
func selectTitle(html string, selectors []string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	for _, selector := range selectors {
		if text := extract.CollapseWhitespace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// scanLabeledTitle looks for "Puesto: ..." style lines in the first non-empty
// lines of the item payloads.
func scanLabeledTitle(items []crawlsvc.DatasetItem) string {
	scanned := 0
	for _, item := range items {
		for _, line := range strings.Split(item.Content(), "\n") {
			line = extract.CollapseWhitespace(line)
			if line == "" {
				continue
			}
			if m := titleLabelPattern.FindStringSubmatch(line); m != nil {
				if title := strings.TrimSpace(m[1]); title != "" {
					return title
				}
			}
			scanned++
			if scanned == labelScanLines {
				return ""
			}
		}
	}
	return ""
}
