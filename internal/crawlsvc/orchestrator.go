package crawlsvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/einantonio/pdf-text-api/internal/extract"
	"github.com/einantonio/pdf-text-api/internal/metrics"
)

// Remote run statuses.
const (
	remoteSucceeded = "SUCCEEDED"
	remoteFailed    = "FAILED"
	remoteAborted   = "ABORTED"
	remoteTimedOut  = "TIMED-OUT"
)

// Default poll schedule: 60 reads 1.5s apart.
const (
	DefaultPollInterval = 1500 * time.Millisecond
	DefaultMaxPolls     = 60
)

// RunStatus is the local lifecycle state of a CrawlJob.
type RunStatus string

// RunStatus values.
const (
	StatusPending   RunStatus = "pending"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
	StatusTimedOut  RunStatus = "timed_out"
)

// CrawlJob tracks one submitted run for the lifetime of a request.
type CrawlJob struct {
	RunID     string
	Status    RunStatus
	DatasetID string
}

// RunService is the subset of the crawl service API the orchestrator needs.
type RunService interface {
	StartRun(ctx context.Context, target Target, startURL string) (Run, error)
	GetRun(ctx context.Context, runID string) (Run, error)
	ListItems(ctx context.Context, datasetID string) ([]DatasetItem, error)
}

// Config controls the poll schedule.
type Config struct {
	PollInterval time.Duration
	MaxPolls     int
}

// PollBound is the longest a run is waited for.
func (c Config) PollBound() time.Duration {
	return c.PollInterval * time.Duration(c.MaxPolls)
}

// Result is a completed crawl: the job, its items in dataset order, and their aggregated text.
type Result struct {
	Job   CrawlJob
	Items []DatasetItem
	Text  string
}

// Orchestrator submits a run, waits for it, and collects its output.
type Orchestrator struct {
	service RunService
	cfg     Config
	logger  *zap.Logger
}

// NewOrchestrator builds an Orchestrator, filling zero config values with defaults.
func NewOrchestrator(service RunService, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = DefaultMaxPolls
	}
	return &Orchestrator{service: service, cfg: cfg, logger: logger}
}

// Crawl runs target against rawURL to completion. It returns early when ctx is done.
func (o *Orchestrator) Crawl(ctx context.Context, target Target, rawURL string) (Result, error) {
	run, err := o.service.StartRun(ctx, target, rawURL)
	if err != nil {
		metrics.ObserveCrawlRun(string(extract.KindSubmissionFailed), 0)
		return Result{}, extract.NewError(extract.KindSubmissionFailed, "crawl submission failed", err)
	}
	if run.ID == "" {
		metrics.ObserveCrawlRun(string(extract.KindSubmissionFailed), 0)
		return Result{}, extract.NewError(extract.KindSubmissionFailed, "crawl service returned no run id", nil)
	}

	job := CrawlJob{RunID: run.ID, Status: StatusPending, DatasetID: run.DatasetID}
	logger := o.logger.With(zap.String("run_id", job.RunID))

	polls, err := o.poll(ctx, logger, &job)
	metrics.ObserveCrawlRun(string(job.Status), polls)
	if err != nil {
		return Result{Job: job}, err
	}

	if job.DatasetID == "" {
		return Result{Job: job}, extract.NewError(extract.KindMissingDataset, "crawl run has no dataset", nil)
	}
	items, err := o.service.ListItems(ctx, job.DatasetID)
	if err != nil {
		return Result{Job: job}, extract.NewError(extract.KindUpstream, "list dataset items", err)
	}
	if len(items) == 0 {
		return Result{Job: job}, extract.NewError(extract.KindEmptyDataset, "crawl dataset is empty", nil)
	}

	logger.Info("crawl run collected", zap.Int("items", len(items)), zap.Int("polls", polls))
	return Result{Job: job, Items: items, Text: Aggregate(items)}, nil
}

// poll reads the run status on every tick until it succeeds, fails, or the
// attempt bound runs out. A failed read uses up an attempt.
func (o *Orchestrator) poll(ctx context.Context, logger *zap.Logger, job *CrawlJob) (int, error) {
	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= o.cfg.MaxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return attempt - 1, fmt.Errorf("poll run %s: %w", job.RunID, ctx.Err())
		case <-ticker.C:
		}

		run, err := o.service.GetRun(ctx, job.RunID)
		if err != nil {
			if ctx.Err() != nil {
				return attempt, fmt.Errorf("poll run %s: %w", job.RunID, ctx.Err())
			}
			logger.Warn("crawl status read failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if run.DatasetID != "" {
			job.DatasetID = run.DatasetID
		}

		switch run.Status {
		case remoteSucceeded:
			job.Status = StatusSucceeded
			logger.Info("crawl run succeeded", zap.Int("attempt", attempt))
			return attempt, nil
		case remoteFailed, remoteAborted, remoteTimedOut:
			job.Status = StatusFailed
			logger.Warn("crawl run ended without success", zap.String("status", run.Status))
			return attempt, extract.NewError(extract.KindCrawlFailed, "crawl run "+strings.ToLower(run.Status), nil)
		default:
			logger.Debug("crawl run pending", zap.Int("attempt", attempt), zap.String("status", run.Status))
		}
	}

	job.Status = StatusTimedOut
	logger.Warn("crawl run timed out", zap.Duration("bound", o.cfg.PollBound()))
	return o.cfg.MaxPolls, extract.NewError(
		extract.KindCrawlTimeout,
		fmt.Sprintf("crawl run did not finish after %d polls", o.cfg.MaxPolls),
		nil,
	)
}

// Aggregate joins item payloads in order with single spaces, collapses
// whitespace, and caps the result at extract.MaxJobTextChars.
func Aggregate(items []DatasetItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Content())
	}
	return extract.Truncate(extract.CollapseWhitespace(strings.Join(parts, " ")), extract.MaxJobTextChars)
}
