package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/FranksOps/gscrape/internal/config"
	"github.com/FranksOps/gscrape/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	cfgFile string

	v      = config.New()
	cfg    *config.Config
	logger *slog.Logger

	metricsServer *metrics.Server
)

var rootCmd = &cobra.Command{
	Use:   "gscrape",
	Short: "Build, fetch and parse web search result pages",
	Long: `gscrape builds search URLs from structured options, walks result pages
and extracts organic results and sponsored links. Results can be archived to
sqlite, postgres, JSON or CSV and summarised later.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// pflag name -> config key
var persistentBindings = map[string]string{
	"endpoint":     "search.endpoint",
	"host":         "search.host",
	"load-balance": "search.load_balance",
	"language":     "search.language",
	"timeout":      "fetch.timeout",
	"fingerprint":  "fetch.fingerprint",
	"user-agent":   "fetch.user_agent",
	"random-ua":    "fetch.random_user_agent",
	"proxy":        "fetch.proxies",
	"proxy-file":   "fetch.proxy_file",
	"env-proxy":    "fetch.env_proxy",
	"storage":      "storage.backend",
	"storage-path": "storage.path",
	"storage-dsn":  "storage.dsn",
	"metrics-port": "metrics.port",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	f.String("endpoint", "web", "search endpoint: web or ajax")
	f.String("host", "", "search host (default www.google.com)")
	f.Bool("load-balance", false, "pick a random search host per request")
	f.String("language", "", "interface language (default from LANG)")
	f.Duration("timeout", 30*time.Second, "request timeout")
	f.String("fingerprint", "chrome", "TLS fingerprint profile")
	f.String("user-agent", "", "user agent alias or literal string")
	f.Bool("random-ua", false, "pick user agents at random")
	f.StringSlice("proxy", nil, "proxy host[:port], repeatable")
	f.String("proxy-file", "", "file with one proxy per line")
	f.Bool("env-proxy", false, "fall back to HTTP_PROXY when no proxy is set")
	f.String("storage", "none", "archive backend: none, sqlite, postgres, json, csv")
	f.String("storage-path", "gscrape.db", "archive file for sqlite, json and csv")
	f.String("storage-dsn", "", "postgres connection string")
	f.Int("metrics-port", 0, "serve prometheus metrics on this port")
	f.String("log-level", "info", "log level")
	f.String("log-format", "text", "log format: text or json")

	for name, key := range persistentBindings {
		if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	logger, err = cfg.Log.Logger(os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if cfg.Metrics.Port > 0 {
		metricsServer = metrics.Start(cfg.Metrics.Port, logger)
	}
	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	if metricsServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := metricsServer.Stop(ctx)
	metricsServer = nil
	return err
}
