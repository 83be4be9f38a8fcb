package notifier

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"CycleSentinel/internal/calculator"
	"CycleSentinel/internal/model"
)

// FormatMoney renders v with two decimals and thousands separators.
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	s := decimal.NewFromFloat(v).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(frac)
	return b.String()
}

// FormatPrice renders an OHLC value; zero means unknown.
func FormatPrice(v float64) string {
	if v == 0 {
		return "-"
	}
	return decimal.NewFromFloat(v).String()
}

// FormatDominant is the one-line dominant cycle summary.
func FormatDominant(c *model.CycleAnalysis) string {
	return fmt.Sprintf("Dom cycle: %.1f bars (turn in %d)", c.Dominant.Period, c.DominantTurn)
}

// FormatBuffering is shown while the spectral window is filling.
func FormatBuffering(samples, window int) string {
	return fmt.Sprintf("Buffering %d/%d", samples, window)
}

// FormatCountdown renders "(v0,v1,v2,v3)".
func FormatCountdown(c [4]int) string {
	return fmt.Sprintf("(%d,%d,%d,%d)", c[0], c[1], c[2], c[3])
}

// trendMarker maps a countdown trend onto a single glyph.
func trendMarker(t model.TrendClass) string {
	switch t {
	case model.TrendFlat:
		return "□"
	case model.TrendRising:
		return "▴"
	case model.TrendFalling:
		return "▾"
	default:
		return "■"
	}
}

// FormatForecast renders one list entry, e.g. "#1: 16.0 bars ▼ (8,1,2,3) ■".
func FormatForecast(label string, f model.CycleForecast) string {
	return fmt.Sprintf("%s: %.1f bars %s %s %s",
		label, f.Period, f.Direction.Arrow(), FormatCountdown(f.Countdown), trendMarker(f.Trend))
}

// TopLabels returns "#1".."#n"; FirstLabels returns "k=1".."k=n".
func TopLabels(list []model.CycleForecast) []string {
	labels := make([]string, len(list))
	for i := range list {
		labels[i] = fmt.Sprintf("#%d", i+1)
	}
	return labels
}

func FirstLabels(list []model.CycleForecast) []string {
	labels := make([]string, len(list))
	for i, f := range list {
		labels[i] = fmt.Sprintf("k=%d", f.Bin.K)
	}
	return labels
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Spark renders magnitudes as one row of block glyphs scaled to the maximum.
func Spark(mags []float64) []rune {
	out := make([]rune, len(mags))
	peak := 0.0
	for _, m := range mags {
		if m > peak {
			peak = m
		}
	}
	for i, m := range mags {
		level := 0
		if peak > 0 {
			level = int(math.Round(m / peak * float64(len(sparkLevels)-1)))
		}
		out[i] = sparkLevels[level]
	}
	return out
}

// ATRLabel names the ATR of f with its period, e.g. "ATR(14)".
func ATRLabel(f *model.Frame) string {
	period := f.ATRPeriod
	if period <= 0 {
		period = calculator.DefaultATRPeriod
	}
	return fmt.Sprintf("ATR(%d)", period)
}

// FormatATRLine renders the ATR and cash risk, or a placeholder while too few candles exist.
func FormatATRLine(f *model.Frame) string {
	if !f.ATRReady {
		return ATRLabel(f) + ": -- | Risk: --"
	}
	return fmt.Sprintf("%s: %s | Risk: %s (inv %s x%s)", ATRLabel(f),
		decimal.NewFromFloat(f.ATR).Round(4).String(),
		FormatMoney(f.CashRisk),
		FormatMoney(f.Risk.Investment),
		decimal.NewFromFloat(f.Risk.Leverage).String())
}

// FormatPanelText renders a frame as plain text lines.
func FormatPanelText(f *model.Frame) string {
	var b strings.Builder
	o := f.Observation
	b.WriteString(fmt.Sprintf("%s (%s)\n", f.Symbol, strings.ToUpper(f.Timeframe)))
	b.WriteString(fmt.Sprintf("O: %s H: %s L: %s C: %s\n",
		FormatPrice(o.Open), FormatPrice(o.High), FormatPrice(o.Low), FormatPrice(o.Close)))
	b.WriteString(FormatATRLine(f) + "\n")
	b.WriteString(fmt.Sprintf("Samples: %d | TF: %s\n", f.Samples, strings.ToUpper(f.Timeframe)))

	if f.Cycles == nil {
		b.WriteString(f.Status + "\n")
		return b.String()
	}
	c := f.Cycles
	b.WriteString(FormatDominant(c) + "\n")
	b.WriteString(string(Spark(c.Magnitudes)) + "\n")
	b.WriteString("Top 6 by power:\n")
	for i, label := range TopLabels(c.Top) {
		b.WriteString("  " + FormatForecast(label, c.Top[i]) + "\n")
	}
	b.WriteString("First 6 (long cycles):\n")
	for i, label := range FirstLabels(c.First) {
		b.WriteString("  " + FormatForecast(label, c.First[i]) + "\n")
	}
	return b.String()
}

// FormatAlert formats a dominant-cycle notification for Telegram.
func FormatAlert(f *model.Frame, reason string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>%s %s</b> | %s\n", f.Symbol, strings.ToUpper(f.Timeframe), reason))
	b.WriteString(fmt.Sprintf("Close: %s\n", FormatPrice(f.Observation.Close)))
	if f.Cycles != nil {
		d := f.Cycles.Dominant
		b.WriteString(FormatDominant(f.Cycles) + "\n")
		b.WriteString(fmt.Sprintf("Direction: %s %s\n", d.Direction.Arrow(), d.Direction))
	}
	b.WriteString(FormatATRLine(f))
	return b.String()
}

// FormatStatus formats the latest frame as a /status reply.
func FormatStatus(f *model.Frame) string {
	if f == nil {
		return "No data yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>CycleSentinel</b> | %s\n\n", f.At.Format("2006-01-02 15:04:05")))
	b.WriteString("<pre>")
	b.WriteString(FormatPanelText(f))
	b.WriteString("</pre>")
	return b.String()
}

// FormatSummary is the periodic digest sent by the summary cron.
func FormatSummary(f *model.Frame, now time.Time) string {
	if f == nil {
		return fmt.Sprintf("📅 <b>Summary</b> | %s\n\nNo data received yet.", now.Format("2006-01-02 15:04"))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Summary</b> | %s\n\n", now.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("%s %s, %d candles\n", f.Symbol, strings.ToUpper(f.Timeframe), f.Samples))
	if f.Cycles != nil {
		b.WriteString(FormatDominant(f.Cycles) + "\n")
	} else {
		b.WriteString(f.Status + "\n")
	}
	b.WriteString(FormatATRLine(f))
	return b.String()
}
