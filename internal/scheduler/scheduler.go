package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"StockPulse/internal/collector"
	"StockPulse/internal/metrics"
	"StockPulse/internal/model"
)

// Job describes what a refresh cycle collects.
type Job struct {
	Tickers  []string
	Interval string
	Period   string
	Params   model.Params
}

// Scheduler refreshes the dashboard store on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Store     *collector.Store
	Metrics   *metrics.Metrics
	Job       Job
	Ctx       context.Context

	running sync.Mutex
	warming sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, store *collector.Store, m *metrics.Metrics, job Job) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Store:     store,
		Metrics:   m,
		Job:       job,
		Ctx:       ctx,
	}
}

// Register adds the refresh task under a 6-field (seconds first) cron spec.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for any running refresh,
// including one started by Warm.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.warming.Wait()
	log.Info().Msg("scheduler stopped")
}

// Warm runs one refresh in the background. Stop waits for it.
func (s *Scheduler) Warm() {
	s.warming.Add(1)
	go func() {
		defer s.warming.Done()
		s.RefreshNow()
	}()
}

// RefreshNow runs one refresh cycle immediately and returns its snapshots.
func (s *Scheduler) RefreshNow() []*collector.Snapshot {
	s.running.Lock()
	defer s.running.Unlock()

	start := time.Now()
	snaps := s.Collector.CollectAll(s.Ctx, s.Job.Tickers, s.Job.Interval, s.Job.Period, s.Job.Params)
	s.Store.Replace(snaps)
	s.Metrics.IncRefresh()

	empty := 0
	for _, snap := range snaps {
		if snap.Empty() {
			empty++
		}
	}
	log.Info().Int("tickers", len(snaps)).Int("empty", empty).
		Dur("took", time.Since(start)).Msg("dashboard refreshed")
	return snaps
}

func (s *Scheduler) refreshTask() {
	if s.Ctx.Err() != nil {
		return
	}
	s.RefreshNow()
}
