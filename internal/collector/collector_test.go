package collector

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/model"
	"StockPulse/internal/recorder"
)

const yahooFixture = `{
  "chart": {
    "result": [{
      "timestamp": [1704240000, 1704153600, 1704326400, 1704412800],
      "indicators": {
        "quote": [{
          "open":   [11, 10, null, 13],
          "high":   [12, 11, null, 14],
          "low":    [10,  9, null, 12],
          "close":  [11.5, 10.5, null, null],
          "volume": [200, 100, null, 400]
        }]
      }
    }],
    "error": null
  }
}`

const yahooAdjCloseFixture = `{
  "chart": {
    "result": [{
      "timestamp": [1704153600],
      "indicators": {
        "quote": [{"open": [1], "high": [2], "low": [0.5], "volume": [10]}],
        "adjclose": [{"adjclose": [1.25]}]
      }
    }]
  }
}`

func newYahooServer(t *testing.T, body string, status int) (*httptest.Server, *string) {
	t.Helper()
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &gotPath
}

func TestYahooFetcher_FetchBars(t *testing.T) {
	srv, gotPath := newYahooServer(t, yahooFixture, http.StatusOK)
	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL

	bars, err := f.FetchBars(context.Background(), Query{Symbol: "SPX", Interval: "1d", Period: "7d"})
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/%5EGSPC?interval=1d&range=7d", *gotPath)

	// null bar dropped, rows sorted by time
	require.Len(t, bars, 3)
	assert.Equal(t, 10.5, bars[0].Close)
	assert.Equal(t, 11.5, bars[1].Close)
	assert.True(t, bars[0].Time.Before(bars[1].Time))

	// partially missing row keeps NaN close
	assert.Equal(t, 13.0, bars[2].Open)
	assert.True(t, math.IsNaN(bars[2].Close))
	assert.Equal(t, 400.0, bars[2].Volume)
}

func TestYahooFetcher_AdjCloseFallback(t *testing.T) {
	srv, _ := newYahooServer(t, yahooAdjCloseFixture, http.StatusOK)
	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL

	bars, err := f.FetchBars(context.Background(), Query{Symbol: "AAPL", Interval: "1d", Period: "1d"})
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 1.25, bars[0].Close)
}

func TestYahooFetcher_NotFound(t *testing.T) {
	body := `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`
	srv, _ := newYahooServer(t, body, http.StatusNotFound)
	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL

	_, err := f.FetchBars(context.Background(), Query{Symbol: "NOPE", Interval: "1d", Period: "7d"})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestYahooFetcher_ServerError(t *testing.T) {
	srv, _ := newYahooServer(t, "boom", http.StatusBadGateway)
	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL

	_, err := f.FetchBars(context.Background(), Query{Symbol: "AAPL", Interval: "1d", Period: "7d"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestRESTFetcher_FetchBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars", r.URL.Path)
		assert.Equal(t, "MSFT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "5m", r.URL.Query().Get("interval"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
			{"timestamp": 200, "open": 2, "high": 3, "low": 1, "close": null, "adj_close": 2.5, "volume": 7},
			{"timestamp": 100, "open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": null}
		]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "", time.Second)
	bars, err := f.FetchBars(context.Background(), Query{Symbol: "MSFT", Interval: "5m", Period: "1d"})
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 1.5, bars[0].Close)
	assert.True(t, math.IsNaN(bars[0].Volume))
	assert.Equal(t, 2.5, bars[1].Close)
}

func TestNormalize(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := Normalize([]model.Bar{
		{Time: t0.Add(2 * time.Hour), Close: 3},
		{Time: t0, Close: 1},
		{Close: 99},
		{Time: t0.Add(time.Hour), Close: 2},
		{Time: t0.Add(time.Hour), Close: 2.5},
	})
	require.Len(t, bars, 3)
	assert.Equal(t, []float64{1, 2.5, 3}, []float64{bars[0].Close, bars[1].Close, bars[2].Close})
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i-1].Time.Before(bars[i].Time))
	}
}

type memRecorder struct {
	mu     sync.Mutex
	events []recorder.FetchEvent
}

func (m *memRecorder) RecordFetch(evt *recorder.FetchEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *evt)
	return nil
}

func (m *memRecorder) RecentFetches(int) ([]recorder.FetchEvent, error) { return m.events, nil }
func (m *memRecorder) Close() error                                    { return nil }

func TestCollector_FetchErrorBecomesEmptyTable(t *testing.T) {
	rec := &memRecorder{}
	c := NewCollector(&MockFetcher{Err: errors.New("connection refused")}, rec, nil)

	snap := c.Collect(context.Background(), Query{Symbol: "AAPL", Interval: "1d", Period: "7d"}, model.DefaultParams())
	require.NotNil(t, snap)
	assert.True(t, snap.Empty())
	assert.Empty(t, snap.Table.Columns)
	assert.Equal(t, recorder.StatusFailed, snap.Status)
	assert.Equal(t, "connection refused", snap.Error)

	require.Len(t, rec.events, 1)
	assert.Equal(t, recorder.StatusFailed, rec.events[0].Status)
	assert.NotEmpty(t, rec.events[0].ID)
}

func TestCollector_UnknownSymbolIsEmpty(t *testing.T) {
	c := NewCollector(&MockFetcher{Data: map[string][]model.Bar{}}, nil, nil)
	snap := c.Collect(context.Background(), Query{Symbol: "ZZZZ", Interval: "1d", Period: "7d"}, model.DefaultParams())
	assert.True(t, snap.Empty())
	assert.Equal(t, recorder.StatusEmpty, snap.Status)
}

func TestCollector_Collect(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 50, Count: 40}, nil, nil)
	snap := c.Collect(context.Background(), Query{Symbol: "AAPL", Interval: "1d", Period: "3mo"}, model.DefaultParams())

	assert.Equal(t, recorder.StatusOK, snap.Status)
	assert.Equal(t, 40, snap.Table.Len())
	assert.True(t, snap.Table.Has("rsi_14"))
	assert.True(t, snap.Table.Has("macd_signal"))
	assert.Equal(t, 40, snap.Summary.Bars)
	assert.Equal(t, snap.Table.Bars[39].Close, snap.Summary.Last)
}

func TestCollector_CollectAllKeepsOrder(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	data := map[string][]model.Bar{
		"AAPL":  GenerateMockBars(180, 30, start),
		"MSFT":  GenerateMockBars(400, 20, start),
		"GOOGL": GenerateMockBars(140, 10, start),
	}
	c := NewCollector(&MockFetcher{Data: data}, &memRecorder{}, nil)

	tickers := []string{"MSFT", "NOPE", "AAPL", "GOOGL"}
	snaps := c.CollectAll(context.Background(), tickers, "1d", "1mo", model.DefaultParams())
	require.Len(t, snaps, 4)
	for i, s := range snaps {
		assert.Equal(t, tickers[i], s.Symbol)
	}
	assert.Equal(t, 20, snaps[0].Table.Len())
	assert.True(t, snaps[1].Empty())
	assert.Equal(t, 30, snaps[2].Table.Len())
	assert.Equal(t, 10, snaps[3].Table.Len())
}

func TestValidIntervalAndPeriod(t *testing.T) {
	assert.True(t, ValidInterval("60m"))
	assert.False(t, ValidInterval("1h"))
	assert.True(t, ValidPeriod("1mo"))
	assert.False(t, ValidPeriod("10y"))
}
