package notifier

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"CycleSentinel/internal/model"
)

func sampleFrame() *model.Frame {
	dom := model.CycleForecast{
		Bin:        model.FrequencyBin{K: 8, Magnitude: 40},
		Period:     16,
		HalfPeriod: 8,
		Direction:  model.DirectionDown,
		Trend:      model.TrendMixed,
		Countdown:  [4]int{8, 1, 2, 3},
	}
	first := make([]model.CycleForecast, 6)
	for i := range first {
		first[i] = model.CycleForecast{
			Bin:       model.FrequencyBin{K: i + 1},
			Period:    128 / float64(i+1),
			Direction: model.DirectionUp,
			Trend:     model.TrendFalling,
			Countdown: [4]int{1, 2, 3, 4},
		}
	}
	mags := make([]float64, 63)
	mags[7] = 40
	mags[0] = 10
	return &model.Frame{
		Symbol:      "GOLD",
		Timeframe:   "5m",
		Observation: model.Observation{Open: 2010.5, High: 2012, Low: 2009.25, Close: 2011},
		At:          time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Samples:     200,
		WindowSize:  128,
		ATRPeriod:   14,
		ATRReady:    true,
		ATR:         7.5,
		CashRisk:    150,
		Risk:        model.RiskParams{Investment: 1000, Leverage: 1},
		Cycles: &model.CycleAnalysis{
			WindowSize:    128,
			CurrentIndex:  200,
			Top:           []model.CycleForecast{dom, first[0], first[1], first[2], first[3], first[4]},
			First:         first,
			Dominant:      dom,
			DominantTurn:  8,
			Magnitudes:    mags,
			DominantIndex: 7,
		},
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{150, "150.00"},
		{999.999, "1,000.00"},
		{1234.5, "1,234.50"},
		{-1234567.891, "-1,234,567.89"},
		{math.NaN(), "-"},
		{math.Inf(1), "-"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.in), "%v", tt.in)
	}
}

func TestFormatDominantAndBuffering(t *testing.T) {
	f := sampleFrame()
	assert.Equal(t, "Dom cycle: 16.0 bars (turn in 8)", FormatDominant(f.Cycles))
	assert.Equal(t, "Buffering 42/128", FormatBuffering(42, 128))
}

func TestFormatForecast(t *testing.T) {
	f := sampleFrame()
	assert.Equal(t, "#1: 16.0 bars ▼ (8,1,2,3) ■", FormatForecast("#1", f.Cycles.Dominant))
	assert.Equal(t, "k=1: 128.0 bars ▲ (1,2,3,4) ▾", FormatForecast("k=1", f.Cycles.First[0]))
}

func TestLabels(t *testing.T) {
	f := sampleFrame()
	assert.Equal(t, []string{"#1", "#2", "#3", "#4", "#5", "#6"}, TopLabels(f.Cycles.Top))
	assert.Equal(t, []string{"k=1", "k=2", "k=3", "k=4", "k=5", "k=6"}, FirstLabels(f.Cycles.First))
}

func TestSpark(t *testing.T) {
	assert.Equal(t, "▁█▅", string(Spark([]float64{0, 1, 0.5})))
	assert.Equal(t, "▁▁", string(Spark([]float64{0, 0})))
	assert.Empty(t, Spark(nil))
}

func TestFormatATRLine(t *testing.T) {
	f := sampleFrame()
	assert.Equal(t, "ATR(14): 7.5 | Risk: 150.00 (inv 1,000.00 x1)", FormatATRLine(f))

	f.ATRReady = false
	assert.Equal(t, "ATR(14): -- | Risk: --", FormatATRLine(f))
}

func TestATRLabel_UsesConfiguredPeriod(t *testing.T) {
	f := sampleFrame()
	f.ATRPeriod = 21
	assert.Equal(t, "ATR(21)", ATRLabel(f))
	assert.Equal(t, "ATR(21): 7.5 | Risk: 150.00 (inv 1,000.00 x1)", FormatATRLine(f))

	f.ATRPeriod = 0
	assert.Equal(t, "ATR(14)", ATRLabel(f))
}

func TestFormatPanelText(t *testing.T) {
	text := FormatPanelText(sampleFrame())
	assert.Contains(t, text, "GOLD (5M)")
	assert.Contains(t, text, "O: 2010.5 H: 2012 L: 2009.25 C: 2011")
	assert.Contains(t, text, "Samples: 200 | TF: 5M")
	assert.Contains(t, text, "Dom cycle: 16.0 bars (turn in 8)")
	assert.Contains(t, text, "  #6: ")
	assert.Contains(t, text, "  k=6: ")
	assert.Equal(t, 1, strings.Count(text, "█"))
}

func TestFormatPanelText_Buffering(t *testing.T) {
	f := &model.Frame{Symbol: "BTC", Timeframe: "1m", Samples: 3, Status: FormatBuffering(3, 128)}
	text := FormatPanelText(f)
	assert.Contains(t, text, "Buffering 3/128")
	assert.NotContains(t, text, "Dom cycle")
	assert.Contains(t, text, "O: - H: - L: - C: -")
}

func TestFormatStatusAndSummary(t *testing.T) {
	assert.Equal(t, "No data yet.", FormatStatus(nil))
	assert.Contains(t, FormatStatus(sampleFrame()), "<pre>GOLD (5M)")

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Contains(t, FormatSummary(nil, now), "No data received yet.")
	sum := FormatSummary(sampleFrame(), now)
	assert.Contains(t, sum, "GOLD 5M, 200 candles")
	assert.Contains(t, sum, "Dom cycle: 16.0 bars")
}
