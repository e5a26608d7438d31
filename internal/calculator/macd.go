package calculator

import "StockPulse/internal/model"

// MACD returns the MACD line (fast EMA minus slow EMA), its signal line (an
// EMA of the MACD line) and the histogram (line minus signal).
func MACD(closes model.Series, fast, slow, signal int) (line, signalLine, hist model.Series) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	line = make(model.Series, len(closes))
	for i := range line {
		line[i] = emaFast[i] - emaSlow[i]
	}

	signalLine = EMA(line, signal)

	hist = make(model.Series, len(closes))
	for i := range hist {
		hist[i] = line[i] - signalLine[i]
	}
	return line, signalLine, hist
}
