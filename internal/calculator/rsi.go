package calculator

import (
	"math"

	"StockPulse/internal/model"
)

// DefaultRSIWindow is the window used by Compute.
const DefaultRSIWindow = 14

// RSI computes the relative strength index of closes over window w using
// simple trailing means of gains and losses.
//
// Every undefined value is reported as 0: the warm-up (the first w bars,
// since the first delta is undefined), any window touching a NaN close, and
// windows without a single loss. The last case is 0, not 100.
func RSI(closes model.Series, w int) model.Series {
	n := len(closes)
	gain := model.NewSeries(n)
	loss := model.NewSeries(n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if math.IsNaN(delta) {
			continue
		}
		gain[i] = math.Max(delta, 0)
		loss[i] = math.Max(-delta, 0)
	}

	avgGain := strictMean(gain, w)
	avgLoss := strictMean(loss, w)

	out := make(model.Series, n)
	for i := range out {
		if avgLoss[i] == 0 || math.IsNaN(avgLoss[i]) || math.IsNaN(avgGain[i]) {
			out[i] = 0
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
