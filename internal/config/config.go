// Package config loads and validates service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PDFTEXT_SERVER_PORT.
const EnvPrefix = "PDFTEXT"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Detector DetectorConfig `mapstructure:"detector"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

// HTTPConfig configures the document and page fetcher.
type HTTPConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBodyBytes int           `mapstructure:"max_body_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// CrawlConfig configures the remote crawl service and its poll schedule.
type CrawlConfig struct {
	BaseURL           string         `mapstructure:"base_url"`
	Token             string         `mapstructure:"token"`
	PollInterval      time.Duration  `mapstructure:"poll_interval"`
	MaxPolls          int            `mapstructure:"max_polls"`
	RequestsPerSecond float64        `mapstructure:"requests_per_second"`
	DefaultActor      string         `mapstructure:"default_actor"`
	Targets           []TargetConfig `mapstructure:"targets"`
}

// TargetConfig describes one job board that is crawled remotely.
// When any targets are configured they replace the built-in table.
type TargetConfig struct {
	Name           string   `mapstructure:"name"`
	Hosts          []string `mapstructure:"hosts"`
	Actor          string   `mapstructure:"actor"`
	Task           string   `mapstructure:"task"`
	CrawlerType    string   `mapstructure:"crawler_type"`
	PageLimitKey   string   `mapstructure:"page_limit_key"`
	UseProxy       bool     `mapstructure:"use_proxy"`
	TitleSelectors []string `mapstructure:"title_selectors"`
}

// DetectorConfig tunes the script-rendered page heuristic.
type DetectorConfig struct {
	MinHTMLBytes int `mapstructure:"min_html_bytes"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from an optional file, a .env file in the working
// directory, and the environment.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindAliases(v); err != nil {
		return Config{}, err
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// bindAliases lets the conventional PORT and APIFY_TOKEN variables stand in
// for their prefixed forms.
func bindAliases(v *viper.Viper) error {
	aliases := map[string][]string{
		"server.port": {EnvPrefix + "_SERVER_PORT", "PORT"},
		"crawl.token": {EnvPrefix + "_CRAWL_TOKEN", "APIFY_TOKEN"},
	}
	for key, envs := range aliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.request_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.max_body_bytes", 25<<20)
	v.SetDefault("http.user_agent", "pdf-text-api/1.0")
	v.SetDefault("crawl.base_url", "https://api.apify.com/v2")
	v.SetDefault("crawl.token", "")
	v.SetDefault("crawl.poll_interval", 1500*time.Millisecond)
	v.SetDefault("crawl.max_polls", 60)
	v.SetDefault("crawl.requests_per_second", 5.0)
	v.SetDefault("crawl.default_actor", "apify~website-content-crawler")
	v.SetDefault("detector.min_html_bytes", 2048)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be > 0")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be > 0")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be > 0")
	}
	if c.Crawl.BaseURL == "" {
		return fmt.Errorf("crawl.base_url must be set")
	}
	if c.Crawl.PollInterval <= 0 {
		return fmt.Errorf("crawl.poll_interval must be > 0")
	}
	if c.Crawl.MaxPolls <= 0 {
		return fmt.Errorf("crawl.max_polls must be > 0")
	}
	if c.Server.RequestTimeout <= c.PollBound() {
		return fmt.Errorf("server.request_timeout (%s) must exceed the crawl poll bound (%s)",
			c.Server.RequestTimeout, c.PollBound())
	}
	for i, t := range c.Crawl.Targets {
		if t.Name == "" {
			return fmt.Errorf("crawl.targets[%d].name must be set", i)
		}
		if len(t.Hosts) == 0 {
			return fmt.Errorf("crawl.targets[%d] (%s): hosts must not be empty", i, t.Name)
		}
		if t.Actor == "" && t.Task == "" {
			return fmt.Errorf("crawl.targets[%d] (%s): actor or task must be set", i, t.Name)
		}
	}
	return nil
}

// PollBound is the longest a single crawl run is polled.
func (c Config) PollBound() time.Duration {
	return c.Crawl.PollInterval * time.Duration(c.Crawl.MaxPolls)
}
