package collector

import (
	"context"
	"errors"
	"math"
	"sort"

	"StockPulse/internal/model"
)

// ErrNoData is returned by a Fetcher when the provider has no bars for a query.
var ErrNoData = errors.New("no data returned")

// Query identifies one fetch: a ticker, a sampling interval and a lookback period.
type Query struct {
	Symbol   string
	Interval string
	Period   string
}

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchBars(ctx context.Context, q Query) ([]model.Bar, error)
	Name() string
}

// Intervals and Periods are the sampling choices offered by the dashboard.
var (
	Intervals = []string{"1m", "2m", "5m", "15m", "30m", "60m", "1d"}
	Periods   = []string{"1d", "5d", "7d", "1mo", "3mo", "6mo", "1y"}
)

func ValidInterval(s string) bool { return contains(Intervals, s) }
func ValidPeriod(s string) bool   { return contains(Periods, s) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Normalize orders bars by time and drops zero timestamps. When two bars share
// a timestamp the later one wins, so the result is strictly increasing.
func Normalize(bars []model.Bar) []model.Bar {
	out := make([]model.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Time.IsZero() {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	dedup := out[:0]
	for _, b := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Time.Equal(b.Time) {
			dedup[n-1] = b
			continue
		}
		dedup = append(dedup, b)
	}
	return dedup
}

// floatOrNaN maps a JSON null to NaN.
func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func at(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}
