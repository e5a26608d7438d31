package collector

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"StockPulse/internal/calculator"
	"StockPulse/internal/id"
	"StockPulse/internal/metrics"
	"StockPulse/internal/model"
	"StockPulse/internal/recorder"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Count int
	Data  map[string][]model.Bar
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, q Query) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Data != nil {
		bars, ok := m.Data[q.Symbol]
		if !ok {
			return nil, ErrNoData
		}
		return bars, nil
	}
	count := m.Count
	if count <= 0 {
		count = 60
	}
	price := m.Price
	if price <= 0 {
		price = 100
	}
	return GenerateMockBars(price, count, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), nil
}

// GenerateMockBars returns count daily bars oscillating around basePrice.
func GenerateMockBars(basePrice float64, count int, start time.Time) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.02*math.Sin(float64(i)/4) + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000 + float64(i%5)*25000,
		}
	}
	return bars
}

// Snapshot is one ticker's fetch-compute result. It is owned by the cycle
// that produced it.
type Snapshot struct {
	ID        string                `json:"id"`
	Symbol    string                `json:"symbol"`
	Interval  string                `json:"interval"`
	Period    string                `json:"period"`
	Params    model.Params          `json:"params"`
	Table     *model.DecoratedTable `json:"table"`
	Summary   calculator.Summary    `json:"summary"`
	Source    string                `json:"source"`
	FetchedAt time.Time             `json:"fetched_at"`
	Status    string                `json:"status"`
	Error     string                `json:"error,omitempty"`
}

// Empty reports whether the snapshot has no bars.
func (s *Snapshot) Empty() bool { return s.Table == nil || s.Table.Empty() }

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher  Fetcher
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
}

// NewCollector creates a new Collector. rec and m may be nil.
func NewCollector(fetcher Fetcher, rec recorder.Recorder, m *metrics.Metrics) *Collector {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Collector{Fetcher: fetcher, Recorder: rec, Metrics: m}
}

// Fetch returns the canonical table for q. Fetch errors are logged and
// recorded, then turned into an empty table.
func (c *Collector) Fetch(ctx context.Context, q Query) (model.Table, *recorder.FetchEvent) {
	start := time.Now()
	evt := &recorder.FetchEvent{
		ID:       id.New(),
		At:       start,
		Symbol:   q.Symbol,
		Interval: q.Interval,
		Period:   q.Period,
		Source:   c.Fetcher.Name(),
	}

	table := model.EmptyTable(q.Symbol, q.Interval, q.Period)
	bars, err := c.Fetcher.FetchBars(ctx, q)
	evt.Duration = time.Since(start)

	switch {
	case err != nil:
		evt.Status = recorder.StatusFailed
		evt.Error = err.Error()
		if errors.Is(err, ErrNoData) {
			evt.Status = recorder.StatusEmpty
		}
		log.Warn().Err(err).Str("symbol", q.Symbol).Str("interval", q.Interval).
			Str("period", q.Period).Str("source", evt.Source).Msg("fetch failed, using empty table")
	case len(bars) == 0:
		evt.Status = recorder.StatusEmpty
	default:
		table.Bars = Normalize(bars)
		evt.Status = recorder.StatusOK
		evt.Bars = table.Len()
	}

	c.Metrics.ObserveFetch(evt.Source, q.Symbol, strings.ToLower(evt.Status), evt.Bars, evt.Duration)
	if rerr := c.Recorder.RecordFetch(evt); rerr != nil {
		log.Error().Err(rerr).Str("symbol", q.Symbol).Msg("record fetch")
	}
	return table, evt
}

// Collect fetches q and decorates the table with the indicators in p.
func (c *Collector) Collect(ctx context.Context, q Query, p model.Params) *Snapshot {
	table, evt := c.Fetch(ctx, q)

	start := time.Now()
	decorated := calculator.ComputeIndicators(table, p)
	c.Metrics.ObserveCompute(time.Since(start))

	log.Debug().Str("symbol", q.Symbol).Int("bars", table.Len()).
		Int("columns", len(decorated.Order)).Msg("indicators computed")

	return &Snapshot{
		ID:        evt.ID,
		Symbol:    q.Symbol,
		Interval:  q.Interval,
		Period:    q.Period,
		Params:    p,
		Table:     decorated,
		Summary:   calculator.Summarize(table),
		Source:    evt.Source,
		FetchedAt: evt.At,
		Status:    evt.Status,
		Error:     evt.Error,
	}
}

// CollectAll runs Collect for every ticker concurrently, one goroutine per
// ticker. Results keep the order of tickers.
func (c *Collector) CollectAll(ctx context.Context, tickers []string, interval, period string, p model.Params) []*Snapshot {
	out := make([]*Snapshot, len(tickers))
	var wg sync.WaitGroup
	for i, symbol := range tickers {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			out[i] = c.Collect(ctx, Query{Symbol: symbol, Interval: interval, Period: period}, p)
		}(i, symbol)
	}
	wg.Wait()
	return out
}
