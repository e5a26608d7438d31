package calculator

import (
	"math"

	"StockPulse/internal/model"
)

// EMA computes the recursive exponential moving average with span w:
//
//	alpha  = 2/(w+1)
//	ema[0] = s[0]
//	ema[i] = alpha*s[i] + (1-alpha)*ema[i-1]
//
// Leading NaNs stay NaN until the first valid value seeds the average. A NaN
// after that repeats the previous value, but the old average keeps decaying
// by (1-alpha) per missing bar, so the next valid value is
// ((1-alpha)^(k+1)*prev + alpha*x) / ((1-alpha)^(k+1) + alpha) after k gaps.
func EMA(s model.Series, w int) model.Series {
	if w < 1 {
		w = 1
	}
	alpha := 2.0 / float64(w+1)
	out := make(model.Series, len(s))
	prev := math.NaN()
	oldWt := 1.0
	for i, x := range s {
		switch {
		case math.IsNaN(prev):
			prev = x
		default:
			oldWt *= 1 - alpha
			if !math.IsNaN(x) {
				prev = (oldWt*prev + alpha*x) / (oldWt + alpha)
				oldWt = 1
			}
		}
		out[i] = prev
	}
	return out
}
