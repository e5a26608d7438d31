package model

import (
	"encoding/json"
	"math"
	"time"
)

// Bar represents a single candlestick bar. Missing values are NaN.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// MissingBar returns a bar at t with every field set to NaN.
func MissingBar(t time.Time) Bar {
	nan := math.NaN()
	return Bar{Time: t, Open: nan, High: nan, Low: nan, Close: nan, Volume: nan}
}

// Table is the canonical OHLCV table for one ticker: bars ordered by
// strictly increasing time.
type Table struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Period   string `json:"period"`
	Bars     []Bar  `json:"bars"`
}

// EmptyTable returns a zero-row table for the given query.
func EmptyTable(symbol, interval, period string) Table {
	return Table{Symbol: symbol, Interval: interval, Period: period}
}

func (t Table) Len() int { return len(t.Bars) }

func (t Table) Empty() bool { return len(t.Bars) == 0 }

// Closes extracts the close column.
func (t Table) Closes() Series {
	closes := make(Series, len(t.Bars))
	for i, b := range t.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Field extracts one of the base columns by name.
func (t Table) Field(name string) (Series, bool) {
	var get func(Bar) float64
	switch name {
	case "open":
		get = func(b Bar) float64 { return b.Open }
	case "high":
		get = func(b Bar) float64 { return b.High }
	case "low":
		get = func(b Bar) float64 { return b.Low }
	case "close":
		get = func(b Bar) float64 { return b.Close }
	case "volume":
		get = func(b Bar) float64 { return b.Volume }
	default:
		return nil, false
	}
	s := make(Series, len(t.Bars))
	for i, b := range t.Bars {
		s[i] = get(b)
	}
	return s, true
}

// Nullable returns nil for NaN and ±Inf so JSON encodes them as null.
func Nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MarshalJSON writes missing fields as null.
func (b Bar) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Time   time.Time `json:"time"`
		Open   *float64  `json:"open"`
		High   *float64  `json:"high"`
		Low    *float64  `json:"low"`
		Close  *float64  `json:"close"`
		Volume *float64  `json:"volume"`
	}{b.Time, Nullable(b.Open), Nullable(b.High), Nullable(b.Low), Nullable(b.Close), Nullable(b.Volume)})
}
