// Package server builds the application's dependencies and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/einantonio/pdf-text-api/internal/api"
	"github.com/einantonio/pdf-text-api/internal/config"
	"github.com/einantonio/pdf-text-api/internal/crawlsvc"
	"github.com/einantonio/pdf-text-api/internal/document"
	collyfetcher "github.com/einantonio/pdf-text-api/internal/fetcher/colly"
	"github.com/einantonio/pdf-text-api/internal/headless/detector"
	"github.com/einantonio/pdf-text-api/internal/jobtext"
	"github.com/einantonio/pdf-text-api/internal/policy/ratelimit"
)

const defaultShutdownTimeout = 10 * time.Second

// App contains the application's dependencies.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	apiServer *api.Server

	// Documents and JobText are the pipelines behind the HTTP routes.
	Documents *document.Service
	JobText   *jobtext.Service
}

// New wires every component from cfg.
func New(cfg config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Credentials stay out of the log.
	logger.Info("building application",
		zap.Int("port", cfg.Server.Port),
		zap.String("crawl_base_url", cfg.Crawl.BaseURL),
		zap.Bool("crawl_token_set", cfg.Crawl.Token != ""),
		zap.Duration("poll_bound", cfg.PollBound()),
	)
	if cfg.Crawl.Token == "" {
		logger.Warn("crawl service token not configured; crawl extraction will fail")
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      cfg.HTTP.Timeout,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	}, logger.Named("fetcher"))

	docLogger := logger.Named("document")
	docs := document.NewService(fetcher, document.NewExtractor(docLogger), docLogger)

	crawlLogger := logger.Named("crawl")
	limiter := ratelimit.New(ratelimit.Config{RPS: cfg.Crawl.RequestsPerSecond, Burst: 1})
	client := crawlsvc.NewClient(crawlsvc.ClientConfig{
		BaseURL:   cfg.Crawl.BaseURL,
		Token:     cfg.Crawl.Token,
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: cfg.HTTP.UserAgent,
	}, limiter, crawlLogger)
	orchestrator := crawlsvc.NewOrchestrator(client, crawlsvc.Config{
		PollInterval: cfg.Crawl.PollInterval,
		MaxPolls:     cfg.Crawl.MaxPolls,
	}, crawlLogger)

	sites := Sites(cfg.Crawl)
	logger.Info("crawl sites loaded", zap.Int("count", len(sites)), zap.Bool("custom", len(cfg.Crawl.Targets) > 0))
	jobs := jobtext.NewService(
		fetcher,
		orchestrator,
		jobtext.Config{Sites: sites, Generic: jobtext.GenericSite(cfg.Crawl.DefaultActor)},
		detector.NewHeuristic(cfg.Detector.MinHTMLBytes),
		logger.Named("jobtext"),
	)

	return &App{
		cfg:       cfg,
		logger:    logger,
		apiServer: api.NewServer(docs, jobs, cfg, logger.Named("api")),
		Documents: docs,
		JobText:   jobs,
	}
}

// Sites returns the configured crawl sites, or the built-in table when none are configured.
func Sites(cfg config.CrawlConfig) []jobtext.Site {
	if len(cfg.Targets) == 0 {
		return jobtext.DefaultSites(cfg.DefaultActor)
	}
	sites := make([]jobtext.Site, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		sites = append(sites, jobtext.Site{
			Name:  t.Name,
			Hosts: t.Hosts,
			Crawl: crawlsvc.Target{
				Actor:        t.Actor,
				Task:         t.Task,
				CrawlerType:  t.CrawlerType,
				PageLimitKey: t.PageLimitKey,
				UseProxy:     t.UseProxy,
			},
			TitleSelectors: t.TitleSelectors,
		})
	}
	return sites
}

// Handler returns the HTTP handler serving every route.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run listens on the configured port and blocks until ctx is canceled or a
// termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", a.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is done, then drains in-flight requests.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown initiated")
		timeout := a.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if syncErr := a.logger.Sync(); syncErr != nil {
		a.logger.Debug("logger sync failed", zap.Error(syncErr))
	}
	a.logger.Info("shutdown complete")
	return err
}
