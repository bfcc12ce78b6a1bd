package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APIFY_TOKEN", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 120*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 25<<20, cfg.HTTP.MaxBodyBytes)
	assert.Equal(t, "https://api.apify.com/v2", cfg.Crawl.BaseURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Crawl.PollInterval)
	assert.Equal(t, 60, cfg.Crawl.MaxPolls)
	assert.Equal(t, 90*time.Second, cfg.PollBound())
	assert.Equal(t, 2048, cfg.Detector.MinHTMLBytes)
	assert.False(t, cfg.Logging.Development)
	assert.Empty(t, cfg.Crawl.Targets)
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  request_timeout: 3m
  cors_allowed_origins: ["https://app.example.com"]
http:
  timeout: 10s
  user_agent: test-agent
crawl:
  token: file-token
  poll_interval: 2s
  max_polls: 30
  targets:
    - name: occ
      hosts: ["occ.com.mx"]
      task: occ-posting
      page_limit_key: maxPagesPerCrawl
      use_proxy: true
      title_selectors: ["p.title", "h1"]
logging:
  development: true
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Minute, cfg.Server.RequestTimeout)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "test-agent", cfg.HTTP.UserAgent)
	assert.Equal(t, "file-token", cfg.Crawl.Token)
	assert.Equal(t, 60*time.Second, cfg.PollBound())
	assert.True(t, cfg.Logging.Development)

	require.Len(t, cfg.Crawl.Targets, 1)
	target := cfg.Crawl.Targets[0]
	assert.Equal(t, "occ", target.Name)
	assert.Equal(t, []string{"occ.com.mx"}, target.Hosts)
	assert.Equal(t, "occ-posting", target.Task)
	assert.Equal(t, "maxPagesPerCrawl", target.PageLimitKey)
	assert.True(t, target.UseProxy)
	assert.Equal(t, []string{"p.title", "h1"}, target.TitleSelectors)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("APIFY_TOKEN", "env-token")
	t.Setenv("PDFTEXT_CRAWL_MAX_POLLS", "10")
	t.Setenv("PDFTEXT_LOGGING_DEVELOPMENT", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "env-token", cfg.Crawl.Token)
	assert.Equal(t, 10, cfg.Crawl.MaxPolls)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadPrefixedEnvWinsOverAlias(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("PDFTEXT_SERVER_PORT", "7070")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server: ServerConfig{Port: 5000, RequestTimeout: 120 * time.Second},
		HTTP:   HTTPConfig{Timeout: 30 * time.Second, MaxBodyBytes: 1024},
		Crawl: CrawlConfig{
			BaseURL:      "https://api.example.com",
			PollInterval: 1500 * time.Millisecond,
			MaxPolls:     60,
		},
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 0 }, want: "server.port"},
		{name: "invalid request timeout", mutate: func(c *Config) { c.Server.RequestTimeout = 0 }, want: "server.request_timeout"},
		{name: "invalid fetch timeout", mutate: func(c *Config) { c.HTTP.Timeout = 0 }, want: "http.timeout"},
		{name: "invalid body cap", mutate: func(c *Config) { c.HTTP.MaxBodyBytes = -1 }, want: "http.max_body_bytes"},
		{name: "missing base url", mutate: func(c *Config) { c.Crawl.BaseURL = "" }, want: "crawl.base_url"},
		{name: "invalid poll interval", mutate: func(c *Config) { c.Crawl.PollInterval = 0 }, want: "crawl.poll_interval"},
		{name: "invalid max polls", mutate: func(c *Config) { c.Crawl.MaxPolls = 0 }, want: "crawl.max_polls"},
		{
			name:   "request timeout inside poll bound",
			mutate: func(c *Config) { c.Server.RequestTimeout = 90 * time.Second },
			want:   "poll bound",
		},
		{
			name:   "target without name",
			mutate: func(c *Config) { c.Crawl.Targets = []TargetConfig{{Hosts: []string{"a.com"}, Actor: "x"}} },
			want:   "crawl.targets[0].name",
		},
		{
			name:   "target without hosts",
			mutate: func(c *Config) { c.Crawl.Targets = []TargetConfig{{Name: "a", Actor: "x"}} },
			want:   "hosts",
		},
		{
			name:   "target without actor or task",
			mutate: func(c *Config) { c.Crawl.Targets = []TargetConfig{{Name: "a", Hosts: []string{"a.com"}}} },
			want:   "actor or task",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), "got %v", err)
		})
	}
}
