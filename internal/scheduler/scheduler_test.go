package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/collector"
	"StockPulse/internal/metrics"
	"StockPulse/internal/model"
)

func newTestScheduler(ctx context.Context) *Scheduler {
	col := collector.NewCollector(&collector.MockFetcher{Price: 120, Count: 30}, nil, nil)
	return NewScheduler(ctx, col, collector.NewStore(), metrics.New(), Job{
		Tickers:  []string{"AAPL", "MSFT"},
		Interval: "1d",
		Period:   "1mo",
		Params:   model.DefaultParams(),
	})
}

func TestRefreshNow_FillsStore(t *testing.T) {
	s := newTestScheduler(context.Background())

	snaps := s.RefreshNow()
	require.Len(t, snaps, 2)

	got, ok := s.Store.Get("MSFT")
	require.True(t, ok)
	assert.Equal(t, 30, got.Table.Len())
	assert.Equal(t, "1mo", got.Period)
	assert.Len(t, s.Store.All(), 2)
}

func TestRegister(t *testing.T) {
	s := newTestScheduler(context.Background())
	assert.NoError(t, s.Register("0 */5 * * * *"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.Register("not a cron"))

	s.Start()
	s.Stop()
}

type slowFetcher struct {
	collector.MockFetcher
	delay time.Duration
}

func (f *slowFetcher) FetchBars(ctx context.Context, q collector.Query) ([]model.Bar, error) {
	time.Sleep(f.delay)
	return f.MockFetcher.FetchBars(ctx, q)
}

func TestStop_WaitsForWarmRefresh(t *testing.T) {
	col := collector.NewCollector(&slowFetcher{MockFetcher: collector.MockFetcher{Count: 10}, delay: 50 * time.Millisecond}, nil, nil)
	s := NewScheduler(context.Background(), col, collector.NewStore(), nil, Job{
		Tickers:  []string{"AAPL"},
		Interval: "1d",
		Period:   "1mo",
		Params:   model.DefaultParams(),
	})

	s.Start()
	s.Warm()
	s.Stop()

	got, ok := s.Store.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 10, got.Table.Len())
}

func TestRefreshTask_SkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newTestScheduler(ctx)
	cancel()

	s.refreshTask()
	assert.Empty(t, s.Store.All())
}
