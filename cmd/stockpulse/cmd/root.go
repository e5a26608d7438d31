package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"StockPulse/internal/collector"
	"StockPulse/internal/config"
	"StockPulse/internal/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "stockpulse",
	Short: "Stock indicator dashboard",
	Long: `StockPulse fetches recent OHLCV history for a list of tickers, decorates
it with SMA, EMA, RSI and MACD columns and serves a browser dashboard.

Examples:
  stockpulse serve
  stockpulse snapshot AAPL MSFT --period 1mo --tail 5
  stockpulse config init -o config.yaml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", def, "path to config file")
}

// loadConfig loads, validates and applies the logging section.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newFetcher picks the data source named by data_source.provider.
func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	ds := cfg.DataSource
	var f collector.Fetcher
	switch ds.Provider {
	case "yahoo":
		f = collector.NewYahooFetcher(cfg.Proxy, ds.Timeout)
	case "rest":
		f = collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy, ds.Timeout)
	case "mock":
		return &collector.MockFetcher{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", config.ErrInvalid, ds.Provider)
	}
	return collector.WithRetry(f, ds.Retries, time.Second), nil
}
