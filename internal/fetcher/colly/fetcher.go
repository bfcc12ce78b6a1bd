// Package collyfetcher implements extract.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/einantonio/pdf-text-api/internal/extract"
	"github.com/einantonio/pdf-text-api/internal/logging"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 25 << 20
)

// Config controls collector behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
}

// Fetcher implements extract.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)
	// One byte past the cap lets an oversized body be detected instead of silently cut.
	c.MaxBodySize = cfg.MaxBodyBytes + 1
	c.IgnoreRobotsTxt = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch executes a single HTTP GET bounded by the configured timeout and ctx.
// Network errors and non-2xx responses are reported as extract.KindFetchFailure.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (extract.FetchedContent, error) {
	var (
		result   extract.FetchedContent
		fetchErr error
	)
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	start := time.Now()
	collector := f.baseCollector.Clone()
	collector.Context = ctx
	f.configureCollectorHooks(collector, &result, &fetchErr)

	if err := f.runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		f.logger.Warn("fetch failed", logging.URL("url", rawURL), zap.Error(err))
		return extract.FetchedContent{}, extract.NewError(extract.KindFetchFailure, "fetch "+logging.RedactURL(rawURL), err)
	}
	f.logger.Debug("fetch complete",
		logging.URL("url", rawURL),
		zap.Int("status", result.StatusCode),
		zap.Int("bytes", len(result.Body)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	result *extract.FetchedContent,
	fetchErr *error,
) {
	hooks.OnResponse(func(r *colly.Response) {
		if len(r.Body) > f.cfg.MaxBodyBytes {
			*fetchErr = fmt.Errorf("response body exceeds %d bytes", f.cfg.MaxBodyBytes)
			return
		}
		var contentType string
		if r.Headers != nil {
			contentType = r.Headers.Get("Content-Type")
		}
		*result = extract.FetchedContent{
			Body:        append([]byte(nil), r.Body...),
			ContentType: contentType,
			SourceURL:   r.Request.URL.String(),
			StatusCode:  r.StatusCode,
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
