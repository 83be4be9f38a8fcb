package notifier

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"CycleSentinel/internal/model"
)

// ConsoleSink draws the panel as a bordered box on a terminal.
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer

	box    lipgloss.Style
	header lipgloss.Style
	muted  lipgloss.Style
	cycle  lipgloss.Style
	top    lipgloss.Style
	first  lipgloss.Style
	peak   lipgloss.Style
	up     lipgloss.Style
	down   lipgloss.Style
	trends map[model.TrendClass]lipgloss.Style
}

// NewConsoleSink creates a sink writing to out. Colors are enabled only when
// out is a terminal.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	r := lipgloss.NewRenderer(out)
	return &ConsoleSink{
		out:    out,
		box:    r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#AAAAAA")),
		cycle:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00E676")),
		top:    r.NewStyle().Foreground(lipgloss.Color("#4FC3F7")),
		first:  r.NewStyle().Foreground(lipgloss.Color("#FFB74D")),
		peak:   r.NewStyle().Foreground(lipgloss.Color("#00E676")),
		up:     r.NewStyle().Foreground(lipgloss.Color("#00E676")),
		down:   r.NewStyle().Foreground(lipgloss.Color("#FF5252")),
		trends: map[model.TrendClass]lipgloss.Style{
			model.TrendFlat:    r.NewStyle().Foreground(lipgloss.Color("#FFFFFF")),
			model.TrendRising:  r.NewStyle().Foreground(lipgloss.Color("#00E676")),
			model.TrendFalling: r.NewStyle().Foreground(lipgloss.Color("#FF5252")),
			model.TrendMixed:   r.NewStyle().Foreground(lipgloss.Color("#FFEB3B")),
		},
	}
}

func (c *ConsoleSink) Name() string { return "console" }

func (c *ConsoleSink) Render(_ context.Context, f *model.Frame) error {
	if f == nil {
		return nil
	}
	panel := c.box.Render(c.View(f))

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, panel)
	return err
}

// View renders the panel body without the border.
func (c *ConsoleSink) View(f *model.Frame) string {
	o := f.Observation
	lines := []string{
		c.header.Render(fmt.Sprintf("%s Assistant  %s (%s)", ATRLabel(f), f.Symbol, f.Timeframe)),
		FormatATRLine(f),
		c.muted.Render(fmt.Sprintf("Samples: %d candles | TF: %s", f.Samples, strings.ToUpper(f.Timeframe))),
	}

	if f.Cycles == nil {
		lines = append(lines, c.cycle.Render(f.Status))
	} else {
		cy := f.Cycles
		lines = append(lines,
			c.cycle.Render(FormatDominant(cy)),
			c.spark(cy.Magnitudes, cy.DominantIndex),
			c.muted.Render("F: (now, -1, -2, -3)"),
			c.muted.Render("Top 6 by power:"),
		)
		for i, label := range TopLabels(cy.Top) {
			lines = append(lines, c.entry(c.top, label, cy.Top[i]))
		}
		lines = append(lines, c.muted.Render("First 6 (long cycles):"))
		for i, label := range FirstLabels(cy.First) {
			lines = append(lines, c.entry(c.first, label, cy.First[i]))
		}
	}

	lines = append(lines, fmt.Sprintf("O: %s H: %s L: %s C: %s",
		FormatPrice(o.Open), FormatPrice(o.High), FormatPrice(o.Low), FormatPrice(o.Close)))
	return strings.Join(lines, "\n")
}

func (c *ConsoleSink) entry(style lipgloss.Style, label string, f model.CycleForecast) string {
	arrow := c.up.Render(f.Direction.Arrow())
	if f.Direction == model.DirectionDown {
		arrow = c.down.Render(f.Direction.Arrow())
	}
	return fmt.Sprintf("%s: %.1f bars %s %s %s",
		label, f.Period, arrow, style.Render(FormatCountdown(f.Countdown)), c.trends[f.Trend].Render(trendMarker(f.Trend)))
}

// spark draws the magnitude chart with the dominant bin highlighted.
func (c *ConsoleSink) spark(mags []float64, dominant int) string {
	var b strings.Builder
	for i, r := range Spark(mags) {
		if i == dominant {
			b.WriteString(c.peak.Render(string(r)))
			continue
		}
		b.WriteString(c.muted.Render(string(r)))
	}
	return b.String()
}
