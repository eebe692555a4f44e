package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GSCRAPE_FETCH_TIMEOUT.
const EnvPrefix = "GSCRAPE"

// Config is the full runtime configuration of the command line tool.
type Config struct {
	Search  SearchConfig  `mapstructure:"search"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Storage StorageConfig `mapstructure:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Harvest HarvestConfig `mapstructure:"harvest"`
	Log     LogConfig     `mapstructure:"log"`
}

type SearchConfig struct {
	// Endpoint is "web" or "ajax".
	Endpoint       string `mapstructure:"endpoint"`
	Host           string `mapstructure:"host"`
	LoadBalance    bool   `mapstructure:"load_balance"`
	Language       string `mapstructure:"language"`
	ResultsPerPage int    `mapstructure:"results_per_page"`
}

type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	Cookies      bool          `mapstructure:"cookies"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	Fingerprint  string        `mapstructure:"fingerprint"`
	// UserAgent is an alias name or a literal User-Agent string. Empty
	// rotates over the default pool.
	UserAgent       string        `mapstructure:"user_agent"`
	RandomUserAgent bool          `mapstructure:"random_user_agent"`
	Proxies         []string      `mapstructure:"proxies"`
	ProxyFile       string        `mapstructure:"proxy_file"`
	ProxyFailures   int           `mapstructure:"proxy_failures"`
	ProxyCooldown   time.Duration `mapstructure:"proxy_cooldown"`
	EnvProxy        bool          `mapstructure:"env_proxy"`
}

type StorageConfig struct {
	// Backend is one of none, sqlite, postgres, json, csv.
	Backend string `mapstructure:"backend"`
	// Path is the file used by the sqlite, json and csv backends.
	Path string `mapstructure:"path"`
	DSN  string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	// Port serves /metrics when non-zero.
	Port int `mapstructure:"port"`
}

type HarvestConfig struct {
	MaxPages        int  `mapstructure:"max_pages"`
	Concurrency     int  `mapstructure:"concurrency"`
	ContinueOnBlock bool `mapstructure:"continue_on_block"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance carrying the defaults and environment
// bindings. Callers bind flags onto it before Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("search.endpoint", "web")
	v.SetDefault("search.host", "")
	v.SetDefault("search.load_balance", false)
	v.SetDefault("search.language", "")
	v.SetDefault("search.results_per_page", 10)

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_redirects", 10)
	v.SetDefault("fetch.cookies", true)
	v.SetDefault("fetch.max_body_bytes", 10<<20)
	v.SetDefault("fetch.fingerprint", "chrome")
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.random_user_agent", false)
	v.SetDefault("fetch.proxies", []string{})
	v.SetDefault("fetch.proxy_file", "")
	v.SetDefault("fetch.proxy_failures", 3)
	v.SetDefault("fetch.proxy_cooldown", 5*time.Minute)
	v.SetDefault("fetch.env_proxy", false)

	v.SetDefault("storage.backend", "none")
	v.SetDefault("storage.path", "gscrape.db")
	v.SetDefault("storage.dsn", "")

	v.SetDefault("metrics.port", 0)

	v.SetDefault("harvest.max_pages", 1)
	v.SetDefault("harvest.concurrency", 3)
	v.SetDefault("harvest.continue_on_block", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file at path into v and decodes the
// merged result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("context: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the tool cannot act on.
func (c *Config) Validate() error {
	var errs []error

	switch c.Search.Endpoint {
	case "web", "ajax":
	default:
		errs = append(errs, fmt.Errorf("search.endpoint: unknown endpoint %q", c.Search.Endpoint))
	}
	if c.Search.ResultsPerPage < 0 {
		errs = append(errs, errors.New("search.results_per_page: must not be negative"))
	}
	if c.Fetch.Timeout < 0 {
		errs = append(errs, errors.New("fetch.timeout: must not be negative"))
	}

	switch c.Storage.Backend {
	case "none", "":
	case "sqlite", "json", "csv":
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("storage.path: required by the %s backend", c.Storage.Backend))
		}
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn: required by the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend))
	}

	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		errs = append(errs, fmt.Errorf("metrics.port: %d out of range", c.Metrics.Port))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Logger builds a slog logger writing to w.
func (c LogConfig) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
