package dashboard

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"StockPulse/internal/calculator"
	"StockPulse/internal/collector"
	"StockPulse/internal/model"
)

// Options toggles the optional charts.
type Options struct {
	ShowCandles bool `json:"show_candles"`
	ShowRSI     bool `json:"show_rsi"`
	ShowMACD    bool `json:"show_macd"`
}

// KPI is one headline figure above a ticker's charts.
type KPI struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta,omitempty"`
}

// Trace is one plotted series. Candlestick traces fill Open/High/Low/Close
// instead of Y.
type Trace struct {
	Name  string       `json:"name"`
	Y     model.Series `json:"y,omitempty"`
	Open  model.Series `json:"open,omitempty"`
	High  model.Series `json:"high,omitempty"`
	Low   model.Series `json:"low,omitempty"`
	Close model.Series `json:"close,omitempty"`
}

// Chart is a single figure.
type Chart struct {
	Key    string      `json:"key"`
	Kind   string      `json:"kind"` // candlestick, bar or line
	Height int         `json:"height"`
	X      []time.Time `json:"x"`
	Traces []Trace     `json:"traces"`
}

// Panel is everything rendered for one ticker.
type Panel struct {
	Symbol   string              `json:"symbol"`
	Warning  string              `json:"warning,omitempty"`
	KPIs     []KPI               `json:"kpis,omitempty"`
	Charts   []Chart             `json:"charts,omitempty"`
	Snapshot *collector.Snapshot `json:"snapshot,omitempty"`
}

// Page is the whole dashboard.
type Page struct {
	Columns   int       `json:"columns"`
	Interval  string    `json:"interval"`
	Period    string    `json:"period"`
	UpdatedAt time.Time `json:"updated_at"`
	Panels    []Panel   `json:"panels"`
}

// NewPage lays the panels out in min(len(panels), maxColumns) columns.
func NewPage(snaps []*collector.Snapshot, opts Options, maxColumns int) Page {
	p := Page{Columns: Columns(len(snaps), maxColumns), Panels: make([]Panel, 0, len(snaps))}
	for _, s := range snaps {
		if s == nil {
			continue
		}
		p.Panels = append(p.Panels, BuildPanel(s, opts))
		if p.Interval == "" {
			p.Interval, p.Period = s.Interval, s.Period
		}
		if s.FetchedAt.After(p.UpdatedAt) {
			p.UpdatedAt = s.FetchedAt
		}
	}
	return p
}

// Columns returns the grid width for n tickers.
func Columns(n, maxColumns int) int {
	if maxColumns < 1 {
		maxColumns = 3
	}
	if n < 1 {
		return 1
	}
	if n < maxColumns {
		return n
	}
	return maxColumns
}

// BuildPanel turns a snapshot into its KPIs and charts. An empty snapshot
// yields only a warning.
func BuildPanel(s *collector.Snapshot, opts Options) Panel {
	panel := Panel{Symbol: s.Symbol}
	if s.Empty() {
		panel.Warning = fmt.Sprintf("No Data for %s", s.Symbol)
		return panel
	}

	d := s.Table
	sum := s.Summary
	panel.KPIs = []KPI{
		{Label: "Price", Value: formatPrice(sum.Last), Delta: formatDelta(sum.Change)},
		{Label: "High", Value: formatPrice(sum.High)},
		{Label: "Low", Value: formatPrice(sum.Low)},
	}

	x := make([]time.Time, d.Len())
	for i, b := range d.Bars {
		x[i] = b.Time
	}

	price := Chart{Key: "candle_" + s.Symbol, Kind: "candlestick", Height: 420, X: x}
	if opts.ShowCandles {
		open, _ := d.Field("open")
		high, _ := d.Field("high")
		low, _ := d.Field("low")
		price.Traces = append(price.Traces, Trace{Name: s.Symbol, Open: open, High: high, Low: low, Close: d.Closes()})
	}
	for _, name := range d.Order {
		if isOverlay(name) {
			price.Traces = append(price.Traces, Trace{Name: name, Y: d.Columns[name]})
		}
	}
	panel.Charts = append(panel.Charts, price)

	volume, _ := d.Field("volume")
	panel.Charts = append(panel.Charts, Chart{
		Key: "volume_" + s.Symbol, Kind: "bar", Height: 200, X: x,
		Traces: []Trace{{Name: "volume", Y: volume}},
	})

	rsiCol := model.RSIColumn(calculator.DefaultRSIWindow)
	if rsi, ok := d.Column(rsiCol); opts.ShowRSI && ok {
		panel.Charts = append(panel.Charts, Chart{
			Key: "rsi_" + s.Symbol, Kind: "line", Height: 200, X: x,
			Traces: []Trace{{Name: rsiCol, Y: rsi}},
		})
	}

	if opts.ShowMACD {
		macd := Chart{Key: "macd_" + s.Symbol, Kind: "line", Height: 200, X: x}
		for _, name := range []string{model.ColMACD, model.ColMACDSignal} {
			if col, ok := d.Column(name); ok {
				macd.Traces = append(macd.Traces, Trace{Name: name, Y: col})
			}
		}
		panel.Charts = append(panel.Charts, macd)
	}
	return panel
}

// isOverlay reports whether a column is a moving average drawn over price.
func isOverlay(name string) bool {
	return len(name) > 4 && (name[:4] == "sma_" || name[:4] == "ema_")
}

func formatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatDelta(v float64) string {
	s := formatPrice(v)
	if s != "n/a" && v >= 0 {
		return "+" + s
	}
	return s
}
