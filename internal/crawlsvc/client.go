// Package crawlsvc drives runs on a remote crawling service: start a run for a
// target URL, poll it to completion, and collect its dataset.
package crawlsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/einantonio/pdf-text-api/internal/logging"
	"github.com/einantonio/pdf-text-api/internal/policy/ratelimit"
)

// DefaultBaseURL is the public API root of the crawling service.
const DefaultBaseURL = "https://api.apify.com/v2"

// DefaultPageLimitKey names the run input field that caps crawled pages.
const DefaultPageLimitKey = "maxCrawlPages"

const maxErrorBody = 512

var errMissingToken = errors.New("crawl service token not configured")

// Target describes how to start a run for one family of sites.
// Exactly one of Actor or Task is used; Task wins when both are set.
type Target struct {
	Actor        string
	Task         string
	CrawlerType  string
	PageLimitKey string
	UseProxy     bool
}

// Run is the remote view of a crawl run.
type Run struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	DatasetID string `json:"defaultDatasetId"`
}

// DatasetItem is one record of a run's dataset.
type DatasetItem struct {
	URL      string `json:"url,omitempty"`
	Text     string `json:"text,omitempty"`
	HTML     string `json:"html,omitempty"`
	Markdown string `json:"markdown,omitempty"`
	Title    string `json:"title,omitempty"`
	Metadata struct {
		Title string `json:"title,omitempty"`
	} `json:"metadata"`
}

// Content returns the first non-empty payload in text, html, markdown order.
func (i DatasetItem) Content() string {
	switch {
	case i.Text != "":
		return i.Text
	case i.HTML != "":
		return i.HTML
	default:
		return i.Markdown
	}
}

// ExplicitTitle returns the title the crawler recorded for the item, if any.
func (i DatasetItem) ExplicitTitle() string {
	if t := strings.TrimSpace(i.Title); t != "" {
		return t
	}
	return strings.TrimSpace(i.Metadata.Title)
}

// ClientConfig configures Client.
type ClientConfig struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the crawl service REST API. The token travels as a query parameter.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	logger     *zap.Logger
}

// NewClient builds a Client. A nil limiter disables throttling.
func NewClient(cfg ClientConfig, limiter *ratelimit.Limiter, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.Config{})
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    base,
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger,
	}
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// StartRun starts a run of target against startURL, limited to a single page.
func (c *Client) StartRun(ctx context.Context, target Target, startURL string) (Run, error) {
	if c.token == "" {
		return Run{}, errMissingToken
	}
	path, err := runsPath(target)
	if err != nil {
		return Run{}, err
	}
	payload, err := json.Marshal(runInput(target, startURL))
	if err != nil {
		return Run{}, fmt.Errorf("encode run input: %w", err)
	}

	var out envelope[Run]
	if err := c.do(ctx, http.MethodPost, path, nil, payload, &out); err != nil {
		return Run{}, err
	}
	c.logger.Info("crawl run started",
		zap.String("run_id", out.Data.ID),
		zap.String("status", out.Data.Status),
		logging.URL("url", startURL),
	)
	return out.Data, nil
}

// GetRun reads the current state of a run.
func (c *Client) GetRun(ctx context.Context, runID string) (Run, error) {
	var out envelope[Run]
	if err := c.do(ctx, http.MethodGet, "/actor-runs/"+url.PathEscape(runID), nil, nil, &out); err != nil {
		return Run{}, err
	}
	return out.Data, nil
}

// ListItems returns every item of a dataset in stored order.
func (c *Client) ListItems(ctx context.Context, datasetID string) ([]DatasetItem, error) {
	query := url.Values{}
	query.Set("clean", "true")
	query.Set("format", "json")
	var items []DatasetItem
	if err := c.do(ctx, http.MethodGet, "/datasets/"+url.PathEscape(datasetID)+"/items", query, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	endpoint := c.baseURL + path
	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.token)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint+"?"+query.Encode(), reader)
	if err != nil {
		return fmt.Errorf("new request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The transport error embeds the full URL; keep the token out of it.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func runsPath(target Target) (string, error) {
	switch {
	case target.Task != "":
		return "/actor-tasks/" + url.PathEscape(target.Task) + "/runs", nil
	case target.Actor != "":
		return "/acts/" + url.PathEscape(target.Actor) + "/runs", nil
	default:
		return "", errors.New("crawl target has neither actor nor task")
	}
}

func runInput(target Target, startURL string) map[string]any {
	limitKey := target.PageLimitKey
	if limitKey == "" {
		limitKey = DefaultPageLimitKey
	}
	input := map[string]any{
		"startUrls": []map[string]string{{"url": startURL}},
		limitKey:    1,
	}
	if target.CrawlerType != "" {
		input["crawlerType"] = target.CrawlerType
	}
	if target.UseProxy {
		input["proxyConfiguration"] = map[string]any{"useApifyProxy": true}
	}
	return input
}
