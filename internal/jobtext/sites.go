package jobtext

import (
	"net/url"
	"strings"

	"github.com/einantonio/pdf-text-api/internal/crawlsvc"
)

// DefaultActor runs when no site-specific actor is configured.
const DefaultActor = "apify~website-content-crawler"

// Crawler engines understood by the default crawl actor.
const (
	crawlerFirefox  = "playwright:firefox"
	crawlerAdaptive = "playwright:adaptive"
	crawlerCheerio  = "cheerio"
)

// Site is a job board that needs a remote crawl, with the way to start the
// crawl and the elements that hold a posting title.
//
// Host patterns match the host itself or any subdomain. A pattern ending in
// ".*" also accepts one extra trailing label, so "bumeran.com.*" matches
// www.bumeran.com.ar and www.bumeran.com.pe.
type Site struct {
	Name           string
	Hosts          []string
	Crawl          crawlsvc.Target
	TitleSelectors []string
}

// Matches reports whether host belongs to the site.
func (s Site) Matches(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, pattern := range s.Hosts {
		if hostMatches(host, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

func hostMatches(host, pattern string) bool {
	if base, ok := strings.CutSuffix(pattern, ".*"); ok {
		i := strings.LastIndexByte(host, '.')
		if i < 0 {
			return false
		}
		return hostMatches(host[:i], base)
	}
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}

// DefaultSites is the built-in board table. Every entry runs actor.
func DefaultSites(actor string) []Site {
	if actor == "" {
		actor = DefaultActor
	}
	return []Site{
		{
			Name: "navent",
			Hosts: []string{
				"bumeran.com.*",
				"zonajobs.com.ar",
				"konzerta.com",
				"multitrabajos.com",
				"laborum.cl",
			},
			Crawl:          crawlsvc.Target{Actor: actor, CrawlerType: crawlerFirefox, UseProxy: true},
			TitleSelectors: []string{"h1"},
		},
		{
			Name:           "computrabajo",
			Hosts:          []string{"computrabajo.com", "computrabajo.com.*"},
			Crawl:          crawlsvc.Target{Actor: actor, CrawlerType: crawlerAdaptive, UseProxy: true},
			TitleSelectors: []string{"h1", "p.title_offer"},
		},
		{
			Name:           "occ",
			Hosts:          []string{"occ.com.mx"},
			Crawl:          crawlsvc.Target{Actor: actor, CrawlerType: crawlerFirefox, UseProxy: true},
			TitleSelectors: []string{`p[class*="title"]`, "h1"},
		},
		{
			Name:           "getonbrd",
			Hosts:          []string{"getonbrd.com", "getonboard.com"},
			Crawl:          crawlsvc.Target{Actor: actor, CrawlerType: crawlerCheerio},
			TitleSelectors: []string{"h1", "title"},
		},
	}
}

// GenericSite is used for crawl requests on hosts outside the table.
func GenericSite(actor string) Site {
	if actor == "" {
		actor = DefaultActor
	}
	return Site{
		Name:           "generic",
		Crawl:          crawlsvc.Target{Actor: actor, CrawlerType: crawlerFirefox, UseProxy: true},
		TitleSelectors: []string{"h1", "title"},
	}
}

// SiteTable is an ordered list of sites; the first match wins.
type SiteTable []Site

// Lookup returns the site for rawURL's host.
func (t SiteTable) Lookup(rawURL string) (Site, bool) {
	host := hostOf(rawURL)
	if host == "" {
		return Site{}, false
	}
	for _, site := range t {
		if site.Matches(host) {
			return site, true
		}
	}
	return Site{}, false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Hostname()
}
