package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"StockPulse/internal/collector"
	"StockPulse/internal/config"
	"StockPulse/internal/dashboard"
	"StockPulse/internal/metrics"
	"StockPulse/internal/recorder"
	"StockPulse/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard and the refresh scheduler",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var serveNoRefresh bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveNoRefresh, "no-refresh", false, "skip the initial refresh on start")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info().Str("config", cfgPath).Msg("StockPulse starting")

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	rec := openRecorder(cfg)
	defer rec.Close()

	m := metrics.New()
	col := collector.NewCollector(fetcher, rec, m)
	store := collector.NewStore()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, col, store, m, scheduler.Job{
		Tickers:  cfg.Dashboard.Tickers,
		Interval: cfg.Dashboard.Interval,
		Period:   cfg.Dashboard.Period,
		Params:   cfg.Indicators,
	})
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		return err
	}
	sched.Start()
	// Stop also waits for the warm-up refresh, and runs before rec.Close.
	defer sched.Stop()
	if !serveNoRefresh {
		sched.Warm()
	}

	h := dashboard.NewHandler(col, store, rec, dashboard.DefaultsFromConfig(cfg))
	srv := dashboard.NewServer(h,
		dashboard.WithAddr(cfg.Server.Host, cfg.Server.Port),
		dashboard.WithMetrics(m),
	)
	srv.Start()

	log.Info().Strs("tickers", cfg.Dashboard.Tickers).Str("addr", srv.Addr()).
		Msg("StockPulse is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dashboard shutdown")
	}
	log.Info().Msg("StockPulse stopped")
	return nil
}

// openRecorder opens the sqlite fetch log, falling back to a noop recorder.
func openRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}
