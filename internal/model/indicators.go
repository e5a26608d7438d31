package model

import (
	"errors"
	"fmt"
)

// Fixed column names produced by the indicator engine.
const (
	ColMACD       = "macd"
	ColMACDSignal = "macd_signal"
	ColMACDHist   = "macd_hist"
)

// ErrInvalidWindow is returned by Params.Validate for a window below 1.
var ErrInvalidWindow = errors.New("window must be >= 1")

func SMAColumn(w int) string { return fmt.Sprintf("sma_%d", w) }
func EMAColumn(w int) string { return fmt.Sprintf("ema_%d", w) }
func RSIColumn(w int) string { return fmt.Sprintf("rsi_%d", w) }

// MACDParams holds the fast, slow and signal spans.
type MACDParams struct {
	Fast   int `json:"fast" yaml:"fast"`
	Slow   int `json:"slow" yaml:"slow"`
	Signal int `json:"signal" yaml:"signal"`
}

// Params selects which indicators are computed.
type Params struct {
	SMAWindows []int      `json:"sma_windows" yaml:"sma_windows"`
	EMAWindows []int      `json:"ema_windows" yaml:"ema_windows"`
	RSIWindow  int        `json:"rsi_window" yaml:"rsi_window"`
	MACD       MACDParams `json:"macd" yaml:"macd"`
}

// DefaultParams returns sma {20,50}, ema {12,26}, rsi 14 and macd (12,26,9).
func DefaultParams() Params {
	return Params{
		SMAWindows: []int{20, 50},
		EMAWindows: []int{12, 26},
		RSIWindow:  14,
		MACD:       MACDParams{Fast: 12, Slow: 26, Signal: 9},
	}
}

// Validate checks that every window is at least 1.
func (p Params) Validate() error {
	for _, w := range p.SMAWindows {
		if w < 1 {
			return fmt.Errorf("sma window %d: %w", w, ErrInvalidWindow)
		}
	}
	for _, w := range p.EMAWindows {
		if w < 1 {
			return fmt.Errorf("ema window %d: %w", w, ErrInvalidWindow)
		}
	}
	if p.RSIWindow < 1 {
		return fmt.Errorf("rsi window %d: %w", p.RSIWindow, ErrInvalidWindow)
	}
	if p.MACD.Fast < 1 || p.MACD.Slow < 1 || p.MACD.Signal < 1 {
		return fmt.Errorf("macd (%d,%d,%d): %w", p.MACD.Fast, p.MACD.Slow, p.MACD.Signal, ErrInvalidWindow)
	}
	return nil
}

// Equal reports whether two parameter sets select the same indicators in the same order.
func (p Params) Equal(o Params) bool {
	return intsEqual(p.SMAWindows, o.SMAWindows) &&
		intsEqual(p.EMAWindows, o.EMAWindows) &&
		p.RSIWindow == o.RSIWindow &&
		p.MACD == o.MACD
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DecoratedTable is the canonical table plus one Series per indicator,
// keyed by column name. Order lists the columns in insertion order.
type DecoratedTable struct {
	Table
	Columns map[string]Series `json:"columns"`
	Order   []string          `json:"order"`
}

// NewDecoratedTable wraps t with no indicator columns.
func NewDecoratedTable(t Table) *DecoratedTable {
	return &DecoratedTable{Table: t, Columns: map[string]Series{}, Order: []string{}}
}

// Set adds or replaces a column. A series whose length differs from the
// table is rejected silently so every column stays aligned.
func (d *DecoratedTable) Set(name string, s Series) {
	if len(s) != d.Len() {
		return
	}
	if _, exists := d.Columns[name]; !exists {
		d.Order = append(d.Order, name)
	}
	d.Columns[name] = s
}

// Column looks up an indicator column by name.
func (d *DecoratedTable) Column(name string) (Series, bool) {
	s, ok := d.Columns[name]
	return s, ok
}

// Has reports whether the named column exists.
func (d *DecoratedTable) Has(name string) bool {
	_, ok := d.Columns[name]
	return ok
}

// Tail returns a table holding only the last n rows. When n <= 0 or n covers
// every row, d itself is returned.
func (d *DecoratedTable) Tail(n int) *DecoratedTable {
	if n <= 0 || n >= d.Len() {
		return d
	}
	t := d.Table
	t.Bars = t.Bars[len(t.Bars)-n:]
	out := NewDecoratedTable(t)
	for _, name := range d.Order {
		out.Set(name, d.Columns[name].Tail(n))
	}
	return out
}
