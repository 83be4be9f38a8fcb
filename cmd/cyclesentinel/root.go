package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"CycleSentinel/internal/collector"
	"CycleSentinel/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "cyclesentinel",
	Short: "ATR and spectral cycle monitor for a single instrument",
	Long: `CycleSentinel watches one instrument on one timeframe, keeps a bounded
buffer of completed bars and on every price change recomputes the ATR,
the cash risk of the configured position and a detrend/FFT cycle forecast.

Frames are printed to the console, optionally pushed to Telegram, recorded
to SQLite and exported as Prometheus metrics.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", def, "path to the YAML config (env CONFIG_PATH)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Timeout)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.RelayURL, cfg.DataSource.Timeout)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())
	return fetcher
}

func newHistoryFeed(cfg *config.Config, fetcher collector.Fetcher) *collector.HistoryFeed {
	feed := collector.NewHistoryFeed(fetcher)
	feed.Timeout = cfg.DataSource.ReloadTimeout
	feed.MaxAttempts = cfg.DataSource.Retries
	return feed
}

// staleAfter guesses how long a healthy service may go without a tick.
func staleAfter(pollCron string) time.Duration {
	const every = "@every "
	if len(pollCron) > len(every) && pollCron[:len(every)] == every {
		if d, err := time.ParseDuration(pollCron[len(every):]); err == nil {
			return 10 * d
		}
	}
	return 5 * time.Minute
}
