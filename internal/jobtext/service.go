package jobtext

import (
	"context"

	"go.uber.org/zap"

	"github.com/einantonio/pdf-text-api/internal/crawlsvc"
	"github.com/einantonio/pdf-text-api/internal/extract"
	"github.com/einantonio/pdf-text-api/internal/headless/detector"
	"github.com/einantonio/pdf-text-api/internal/logging"
	"github.com/einantonio/pdf-text-api/internal/metrics"
)

// Crawler runs a remote crawl to completion.
type Crawler interface {
	Crawl(ctx context.Context, target crawlsvc.Target, rawURL string) (crawlsvc.Result, error)
}

// Config selects the crawl table. Zero values fall back to the built-ins.
type Config struct {
	Sites   []Site
	Generic Site
}

// Service routes job posting URLs to static extraction or a remote crawl.
type Service struct {
	fetcher  extract.Fetcher
	crawler  Crawler
	sites    SiteTable
	generic  Site
	titles   *TitleResolver
	detector *detector.Heuristic
	logger   *zap.Logger
}

// NewService wires a Service. A nil heuristic disables the script-rendered warning.
func NewService(fetcher extract.Fetcher, crawler Crawler, cfg Config, heuristic *detector.Heuristic, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	sites := cfg.Sites
	if sites == nil {
		sites = DefaultSites(DefaultActor)
	}
	generic := cfg.Generic
	if generic.Crawl.Actor == "" && generic.Crawl.Task == "" {
		generic = GenericSite(DefaultActor)
	}
	return &Service{
		fetcher:  fetcher,
		crawler:  crawler,
		sites:    SiteTable(sites),
		generic:  generic,
		titles:   NewTitleResolver(sites),
		detector: heuristic,
		logger:   logger,
	}
}

// ExtractJobText crawls boards in the site table and scrapes every other page statically.
func (s *Service) ExtractJobText(ctx context.Context, rawURL string) (extract.JobPostingResult, error) {
	if rawURL == "" {
		return extract.JobPostingResult{}, errMissingURL()
	}
	if site, ok := s.sites.Lookup(rawURL); ok {
		return s.crawl(ctx, site, rawURL)
	}
	return s.scrape(ctx, rawURL)
}

// ExtractWithCrawl always crawls, using the generic site for unknown hosts.
func (s *Service) ExtractWithCrawl(ctx context.Context, rawURL string) (extract.JobPostingResult, error) {
	if rawURL == "" {
		return extract.JobPostingResult{}, errMissingURL()
	}
	site, ok := s.sites.Lookup(rawURL)
	if !ok {
		site = s.generic
	}
	return s.crawl(ctx, site, rawURL)
}

func (s *Service) crawl(ctx context.Context, site Site, rawURL string) (extract.JobPostingResult, error) {
	logger := s.logger.With(zap.String("site", site.Name), logging.URL("url", rawURL))
	res, err := s.crawler.Crawl(ctx, site.Crawl, rawURL)
	if err != nil {
		s.observe(extract.SourceCrawlService, err)
		logger.Warn("crawl extraction failed", zap.Error(err))
		return extract.JobPostingResult{}, err
	}
	title := s.titles.Resolve(rawURL, res.Items)
	s.observe(extract.SourceCrawlService, nil)
	logger.Info("crawl extraction complete", zap.String("title", title), zap.Int("chars", len([]rune(res.Text))))
	return extract.JobPostingResult{
		Source: extract.SourceCrawlService,
		Text:   res.Text,
		Title:  title,
	}, nil
}

func (s *Service) scrape(ctx context.Context, rawURL string) (extract.JobPostingResult, error) {
	content, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.observe(extract.SourceStaticScrape, err)
		return extract.JobPostingResult{}, err
	}
	if s.detector != nil && s.detector.LooksScriptRendered(content) {
		metrics.IncDegradedStatic(rawURL)
		s.logger.Warn("page looks script-rendered; static text may be incomplete", logging.URL("url", rawURL))
	}
	text, err := StaticText(content.Body)
	if err != nil {
		err = extract.NewError(extract.KindUpstream, "static extraction", err)
		s.observe(extract.SourceStaticScrape, err)
		return extract.JobPostingResult{}, err
	}
	s.observe(extract.SourceStaticScrape, nil)
	return extract.JobPostingResult{
		Source: extract.SourceStaticScrape,
		Text:   text,
		Title:  extract.UnspecifiedTitle,
	}, nil
}

func (s *Service) observe(source extract.Source, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(extract.KindOf(err))
	}
	metrics.ObserveJobText(string(source), outcome)
}

func errMissingURL() error {
	return extract.NewError(extract.KindMissingInput, "No URL provided", nil)
}
