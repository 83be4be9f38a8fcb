// Package metrics exports panel state and pipeline health to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"CycleSentinel/internal/model"
)

// Tick results used as the "result" label of TicksTotal.
const (
	TickFrame     = "frame"
	TickUnchanged = "unchanged"
	TickNoClose   = "no_close"
	TickSkipped   = "skipped"
	TickError     = "error"
)

// Reload outcomes used as the "outcome" label of ReloadsTotal.
const (
	ReloadApplied    = "applied"
	ReloadSuperseded = "superseded"
	ReloadFailed     = "failed"
)

// Metrics holds all Prometheus metrics for the monitor. A nil *Metrics is a
// valid no-op sink.
type Metrics struct {
	TicksTotal      *prometheus.CounterVec // labels: result
	CandlesAppended prometheus.Counter
	ResetsTotal     prometheus.Counter
	BufferLen       prometheus.Gauge

	// History reloads
	ReloadsTotal   *prometheus.CounterVec // labels: outcome
	ReloadDuration prometheus.Histogram

	// Panel values
	ATR              prometheus.Gauge
	CashRisk         prometheus.Gauge
	DominantPeriod   prometheus.Gauge
	DominantTurn     prometheus.Gauge
	AnalysisDuration prometheus.Histogram

	SinkErrors *prometheus.CounterVec // labels: sink
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cyclesentinel_ticks_total",
			Help: "Observations processed, by result",
		}, []string{"result"}),
		CandlesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cyclesentinel_candles_appended_total",
			Help: "Live bars appended by the bar clock",
		}),
		ResetsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cyclesentinel_resets_total",
			Help: "Buffer resets caused by an instrument or timeframe change",
		}),
		BufferLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyclesentinel_buffer_candles",
			Help: "Candles currently held in the buffer",
		}),

		ReloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cyclesentinel_history_reloads_total",
			Help: "History reloads, by outcome",
		}, []string{"outcome"}),
		ReloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cyclesentinel_history_reload_duration_seconds",
			Help:    "Time spent loading history after a reset",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		ATR: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyclesentinel_atr",
			Help: "Current 14-period average true range",
		}),
		CashRisk: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyclesentinel_cash_risk",
			Help: "Current one-ATR move in account currency",
		}),
		DominantPeriod: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyclesentinel_dominant_period_bars",
			Help: "Period of the strongest spectral cycle",
		}),
		DominantTurn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyclesentinel_dominant_turn_bars",
			Help: "Bars until the dominant cycle's next half-cycle turn",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cyclesentinel_analysis_duration_seconds",
			Help:    "ATR and spectral pipeline latency per tick",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),

		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cyclesentinel_sink_errors_total",
			Help: "Render or record failures, by sink",
		}, []string{"sink"}),
	}

	reg.MustRegister(
		m.TicksTotal,
		m.CandlesAppended,
		m.ResetsTotal,
		m.BufferLen,
		m.ReloadsTotal,
		m.ReloadDuration,
		m.ATR,
		m.CashRisk,
		m.DominantPeriod,
		m.DominantTurn,
		m.AnalysisDuration,
		m.SinkErrors,
	)
	return m
}

func (m *Metrics) Tick(result string) {
	if m == nil {
		return
	}
	m.TicksTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) CandleAppended() {
	if m == nil {
		return
	}
	m.CandlesAppended.Inc()
}

func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.ResetsTotal.Inc()
	m.BufferLen.Set(0)
}

func (m *Metrics) Reload(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.ReloadsTotal.WithLabelValues(outcome).Inc()
	m.ReloadDuration.Observe(took.Seconds())
}

func (m *Metrics) SinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrors.WithLabelValues(sink).Inc()
}

// ObserveFrame publishes the panel values of a frame.
func (m *Metrics) ObserveFrame(f *model.Frame, took time.Duration) {
	if m == nil || f == nil {
		return
	}
	m.BufferLen.Set(float64(f.Samples))
	m.AnalysisDuration.Observe(took.Seconds())
	if f.ATRReady {
		m.ATR.Set(f.ATR)
		m.CashRisk.Set(f.CashRisk)
	}
	if f.Cycles != nil {
		m.DominantPeriod.Set(f.Cycles.Dominant.Period)
		m.DominantTurn.Set(float64(f.Cycles.DominantTurn))
	}
}
