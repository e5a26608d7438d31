package calculator

import (
	"gonum.org/v1/gonum/floats"

	"StockPulse/internal/model"
)

// SMA computes the trailing simple moving average of s over window w.
// The window shrinks at the start (minimum one observation), so the result
// has no warm-up gap. A NaN inside the window makes that mean NaN.
func SMA(s model.Series, w int) model.Series {
	if w < 1 {
		w = 1
	}
	out := make(model.Series, len(s))
	for i := range s {
		start := i - w + 1
		if start < 0 {
			start = 0
		}
		out[i] = floats.Sum(s[start:i+1]) / float64(i+1-start)
	}
	return out
}

// strictMean is the trailing mean over exactly w values. It is NaN until w
// values exist and whenever one of them is NaN.
func strictMean(s model.Series, w int) model.Series {
	out := model.NewSeries(len(s))
	if w < 1 {
		w = 1
	}
	for i := w - 1; i < len(s); i++ {
		out[i] = floats.Sum(s[i-w+1:i+1]) / float64(w)
	}
	return out
}
