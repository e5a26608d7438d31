package calculator

import (
	"encoding/json"
	"math"

	"StockPulse/internal/model"
)

// Summary holds the headline figures shown above each chart.
type Summary struct {
	Last   float64 `json:"last"`
	Change float64 `json:"change"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Bars   int     `json:"bars"`
}

// MarshalJSON writes undefined figures as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Last   *float64 `json:"last"`
		Change *float64 `json:"change"`
		High   *float64 `json:"high"`
		Low    *float64 `json:"low"`
		Bars   int      `json:"bars"`
	}{model.Nullable(s.Last), model.Nullable(s.Change), model.Nullable(s.High), model.Nullable(s.Low), s.Bars})
}

// Summarize returns the latest close, its change against the previous bar,
// and the high/low over the whole table. NaN highs and lows are skipped; if
// every one is NaN the result is NaN.
func Summarize(t model.Table) Summary {
	n := len(t.Bars)
	if n == 0 {
		return Summary{}
	}
	s := Summary{Last: t.Bars[n-1].Close, Bars: n}
	if n > 1 {
		s.Change = t.Bars[n-1].Close - t.Bars[n-2].Close
	}
	s.High, s.Low = HighLow(t.Bars)
	return s
}

// HighLow scans the bars for the highest high and lowest low.
func HighLow(bars []model.Bar) (high, low float64) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if !math.IsNaN(b.High) && b.High > high {
			high = b.High
		}
		if !math.IsNaN(b.Low) && b.Low < low {
			low = b.Low
		}
	}
	if math.IsInf(high, -1) {
		high = math.NaN()
	}
	if math.IsInf(low, 1) {
		low = math.NaN()
	}
	return high, low
}
