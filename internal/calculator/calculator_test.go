package calculator

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/model"
)

func makeTable(closes ...float64) model.Table {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000 + float64(i),
		}
	}
	return model.Table{Symbol: "TEST", Interval: "1d", Period: "1mo", Bars: bars}
}

func wave(n int) model.Series {
	s := make(model.Series, n)
	for i := range s {
		s[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i%7)
	}
	return s
}

func sameBits(t *testing.T, want, got model.Series) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, math.Float64bits(want[i]), math.Float64bits(got[i]), "index %d", i)
	}
}

func TestSMA_ShrinkingWindow(t *testing.T) {
	got := SMA(model.Series{1, 2, 3}, 5)
	assert.Equal(t, model.Series{1, 1.5, 2}, got)
}

func TestSMA_PropagatesNaN(t *testing.T) {
	got := SMA(model.Series{1, math.NaN(), 3, 5}, 2)
	assert.Equal(t, 1.0, got[0])
	assert.True(t, math.IsNaN(got[1]))
	assert.True(t, math.IsNaN(got[2]))
	assert.Equal(t, 4.0, got[3])
}

func TestSMA_NonPositiveWindowActsAsOne(t *testing.T) {
	s := model.Series{4, 8, 15}
	assert.Equal(t, s, SMA(s, 0))
}

func TestSMA_MatchesTalibOnFullWindows(t *testing.T) {
	s := wave(60)
	for _, w := range []int{2, 5, 20} {
		got := SMA(s, w)
		want := talib.Sma(s, w)
		for i := w - 1; i < len(s); i++ {
			assert.InDelta(t, want[i], got[i], 1e-9, "w=%d i=%d", w, i)
		}
	}
}

func TestEMA_Seed(t *testing.T) {
	s := wave(30)
	for _, w := range []int{1, 2, 12, 26, 200} {
		got := EMA(s, w)
		assert.Equal(t, s[0], got[0], "w=%d", w)
		assert.Len(t, got, len(s))
	}
}

func TestEMA_KnownSequence(t *testing.T) {
	// alpha = 2/(3+1) = 0.5
	got := EMA(model.Series{10, 11, 12, 13}, 3)
	assert.Equal(t, model.Series{10, 10.5, 11.25, 12.125}, got)
}

func TestEMA_Recursion(t *testing.T) {
	s := wave(40)
	w := 9
	alpha := 2.0 / float64(w+1)
	got := EMA(s, w)
	for i := 1; i < len(s); i++ {
		want := alpha*s[i] + (1-alpha)*got[i-1]
		assert.InDelta(t, want, got[i], 1e-12, "index %d", i)
	}
}

func TestEMA_NaNHandling(t *testing.T) {
	// alpha = 0.5; the seed decays to 0.25 across the gap:
	// (0.25*2 + 0.5*4) / (0.25 + 0.5) = 10/3
	got := EMA(model.Series{math.NaN(), 2, math.NaN(), 4}, 3)
	assert.True(t, math.IsNaN(got[0]))
	assert.Equal(t, 2.0, got[1])
	assert.Equal(t, 2.0, got[2])
	assert.InDelta(t, 10.0/3.0, got[3], 1e-12)
}

func TestEMA_LongerGapDecaysFurther(t *testing.T) {
	// Two missing bars: (0.125*2 + 0.5*4) / (0.125 + 0.5) = 3.6
	got := EMA(model.Series{2, math.NaN(), math.NaN(), 4, 5}, 3)
	assert.Equal(t, 2.0, got[1])
	assert.Equal(t, 2.0, got[2])
	assert.InDelta(t, 3.6, got[3], 1e-12)
	// No gap afterwards: the plain recursion resumes.
	assert.InDelta(t, 0.5*5+0.5*3.6, got[4], 1e-12)
}

func TestMACD_PropagatesEMAGapWeighting(t *testing.T) {
	s := model.Series{10, 11, math.NaN(), 13, 12, 14}
	line, signal, hist := MACD(s, 2, 4, 3)
	fast, slow := EMA(s, 2), EMA(s, 4)
	for i := range s {
		assert.Equal(t, fast[i]-slow[i], line[i], "index %d", i)
		assert.Equal(t, line[i]-signal[i], hist[i], "index %d", i)
	}
}

func TestRSI_WarmupIsZero(t *testing.T) {
	got := RSI(wave(10), 14)
	require.Len(t, got, 10)
	for i, v := range got {
		assert.Equal(t, 0.0, v, "index %d", i)
	}

	got = RSI(wave(40), 14)
	for i := 0; i < 14; i++ {
		assert.Equal(t, 0.0, got[i], "index %d", i)
	}
}

func TestRSI_ZeroLossIsZero(t *testing.T) {
	closes := make(model.Series, 20)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	got := RSI(closes, 14)
	assert.Equal(t, 0.0, got[13])
	for i, v := range got {
		assert.Equal(t, 0.0, v, "index %d", i)
	}
}

func TestRSI_FlatSeriesIsZero(t *testing.T) {
	got := RSI(model.Series{5, 5, 5, 5, 5, 5}, 3)
	for _, v := range got {
		assert.Equal(t, 0.0, v)
	}
}

func TestRSI_KnownValues(t *testing.T) {
	tests := []struct {
		name   string
		closes model.Series
		w      int
		want   model.Series
	}{
		{"alternating", model.Series{1, 2, 1, 2}, 2, model.Series{0, 0, 50, 50}},
		{"two to one", model.Series{1, 3, 2}, 2, model.Series{0, 0, 100 - 100.0/3}},
		{"all losses", model.Series{5, 4, 3, 2}, 2, model.Series{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RSI(tt.closes, tt.w)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9, "index %d", i)
			}
		})
	}
}

func TestRSI_Bounds(t *testing.T) {
	got := RSI(wave(120), 14)
	for i := 14; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], 0.0)
		assert.LessOrEqual(t, got[i], 100.0)
	}
}

func TestRSI_NaNCloseZeroesItsWindow(t *testing.T) {
	closes := wave(30)
	closes[20] = math.NaN()
	got := RSI(closes, 5)
	// deltas 20 and 21 are NaN; windows covering them read 0
	for i := 20; i <= 25; i++ {
		assert.Equal(t, 0.0, got[i], "index %d", i)
	}
	assert.NotEqual(t, 0.0, got[26])
}

func TestMACD_HistogramIdentity(t *testing.T) {
	s := wave(80)
	line, signal, hist := MACD(s, 12, 26, 9)
	require.Len(t, line, len(s))
	for i := range s {
		assert.Equal(t, line[i]-signal[i], hist[i], "index %d", i)
	}
	assert.Equal(t, 0.0, line[0])
	assert.Equal(t, 0.0, signal[0])
}

func TestMACD_MatchesEMADifference(t *testing.T) {
	s := wave(50)
	line, signal, _ := MACD(s, 3, 6, 4)
	fast, slow := EMA(s, 3), EMA(s, 6)
	for i := range s {
		assert.Equal(t, fast[i]-slow[i], line[i])
	}
	sameBits(t, EMA(line, 4), signal)
}

func TestCompute_EmptyTable(t *testing.T) {
	d := Compute(model.EmptyTable("AAPL", "1d", "7d"), nil, nil)
	require.NotNil(t, d)
	assert.Equal(t, 0, d.Len())
	assert.Empty(t, d.Columns)
	assert.Empty(t, d.Order)
	assert.Equal(t, "AAPL", d.Symbol)
}

func TestCompute_DefaultColumns(t *testing.T) {
	d := Compute(makeTable(wave(60)...), nil, nil)
	assert.Equal(t, []string{
		"sma_20", "sma_50", "ema_12", "ema_26", "rsi_14", "macd", "macd_signal", "macd_hist",
	}, d.Order)
	for _, name := range d.Order {
		s, ok := d.Column(name)
		require.True(t, ok, name)
		assert.Len(t, s, 60, name)
	}
}

func TestCompute_CustomWindows(t *testing.T) {
	d := Compute(makeTable(1, 2, 3), []int{5, 5, 2}, []int{})
	assert.Equal(t, []string{"sma_5", "sma_2", "rsi_14", "macd", "macd_signal", "macd_hist"}, d.Order)

	sma5, _ := d.Column("sma_5")
	assert.Equal(t, 2.0, sma5[2])
	assert.False(t, d.Has("ema_12"))
}

func TestCompute_BasePassThrough(t *testing.T) {
	in := makeTable(wave(30)...)
	orig := make([]model.Bar, len(in.Bars))
	copy(orig, in.Bars)

	d := Compute(in, nil, nil)
	assert.Equal(t, orig, in.Bars)
	assert.Equal(t, orig, d.Bars)

	d.Bars[0].Close = -1
	assert.Equal(t, orig[0].Close, in.Bars[0].Close)
}

func TestCompute_Idempotent(t *testing.T) {
	in := makeTable(wave(90)...)
	in.Bars[40].Close = math.NaN()

	a := Compute(in, []int{5, 20}, []int{12})
	b := Compute(in, []int{5, 20}, []int{12})
	require.Equal(t, a.Order, b.Order)
	for _, name := range a.Order {
		sameBits(t, a.Columns[name], b.Columns[name])
	}
}

func TestComputeIndicators_Params(t *testing.T) {
	p := model.Params{
		SMAWindows: []int{3},
		EMAWindows: []int{4},
		RSIWindow:  5,
		MACD:       model.MACDParams{Fast: 2, Slow: 4, Signal: 3},
	}
	d := ComputeIndicators(makeTable(wave(20)...), p)
	assert.Equal(t, []string{"sma_3", "ema_4", "rsi_14", "rsi_5", "macd", "macd_signal", "macd_hist"}, d.Order)

	line, _, _ := MACD(wave(20), 2, 4, 3)
	got, _ := d.Column(model.ColMACD)
	sameBits(t, line, got)

	rsi5, _ := d.Column("rsi_5")
	sameBits(t, RSI(wave(20), 5), rsi5)
}

func TestComputeIndicators_KeepsRSI14(t *testing.T) {
	p := model.DefaultParams()
	p.RSIWindow = 7
	d := ComputeIndicators(makeTable(wave(30)...), p)

	rsi14, ok := d.Column("rsi_14")
	require.True(t, ok)
	sameBits(t, RSI(wave(30), 14), rsi14)
	_, ok = d.Column("rsi_7")
	assert.True(t, ok)

	p.RSIWindow = 14
	d = ComputeIndicators(makeTable(wave(30)...), p)
	assert.Equal(t, 1, countPrefix(d.Order, "rsi_"))
}

func countPrefix(names []string, prefix string) int {
	n := 0
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			n++
		}
	}
	return n
}

func TestSummarize(t *testing.T) {
	tbl := makeTable(10, 12, 11)
	tbl.Bars[1].High = math.NaN()
	s := Summarize(tbl)
	assert.Equal(t, 11.0, s.Last)
	assert.Equal(t, -1.0, s.Change)
	assert.Equal(t, 12.0, s.High)
	assert.Equal(t, 9.0, s.Low)
	assert.Equal(t, 3, s.Bars)

	single := Summarize(makeTable(7))
	assert.Equal(t, 0.0, single.Change)

	assert.Equal(t, Summary{}, Summarize(model.Table{}))
}
