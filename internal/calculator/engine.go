package calculator

import "StockPulse/internal/model"

// Compute decorates t with sma_<w> and ema_<w> for the given windows plus
// rsi_14 and macd/macd_signal/macd_hist at (12,26,9). A nil window list
// selects the default windows.
func Compute(t model.Table, smaWindows, emaWindows []int) *model.DecoratedTable {
	p := model.DefaultParams()
	if smaWindows != nil {
		p.SMAWindows = smaWindows
	}
	if emaWindows != nil {
		p.EMAWindows = emaWindows
	}
	return ComputeIndicators(t, p)
}

// ComputeIndicators builds the decorated table for t. Only the close column
// is read; bars are copied so the caller's table is never modified. An empty
// table yields an empty decorated table with no columns.
func ComputeIndicators(t model.Table, p model.Params) *model.DecoratedTable {
	bars := make([]model.Bar, len(t.Bars))
	copy(bars, t.Bars)
	t.Bars = bars

	d := model.NewDecoratedTable(t)
	if t.Empty() {
		return d
	}

	closes := t.Closes()
	for _, w := range distinct(p.SMAWindows) {
		d.Set(model.SMAColumn(w), SMA(closes, w))
	}
	for _, w := range distinct(p.EMAWindows) {
		d.Set(model.EMAColumn(w), EMA(closes, w))
	}

	// rsi_14 is always present; another configured window is added next to it.
	d.Set(model.RSIColumn(DefaultRSIWindow), RSI(closes, DefaultRSIWindow))
	if w := p.RSIWindow; w >= 1 && w != DefaultRSIWindow {
		d.Set(model.RSIColumn(w), RSI(closes, w))
	}

	m := p.MACD
	if m.Fast < 1 || m.Slow < 1 || m.Signal < 1 {
		m = model.DefaultParams().MACD
	}
	line, signal, hist := MACD(closes, m.Fast, m.Slow, m.Signal)
	d.Set(model.ColMACD, line)
	d.Set(model.ColMACDSignal, signal)
	d.Set(model.ColMACDHist, hist)
	return d
}

// distinct drops duplicate and non-positive windows, keeping first-seen order.
func distinct(windows []int) []int {
	seen := make(map[int]struct{}, len(windows))
	out := make([]int, 0, len(windows))
	for _, w := range windows {
		if w < 1 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
