// Package monitor runs the per-tick pipeline: bar clock, ATR, cash risk and
// spectral cycle analysis over the candle buffer of the watched instrument.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"CycleSentinel/internal/calculator"
	"CycleSentinel/internal/candle"
	"CycleSentinel/internal/collector"
	"CycleSentinel/internal/metrics"
	"CycleSentinel/internal/model"
	"CycleSentinel/internal/notifier"
	"CycleSentinel/internal/recorder"
)

// ErrTickInProgress is returned when Tick is called while another tick is running.
var ErrTickInProgress = errors.New("tick already in progress")

const DefaultReloadTimeout = 30 * time.Second

// HistorySource loads the initial series after an instrument change.
type HistorySource interface {
	Fetch(ctx context.Context, symbol, timeframe string) collector.LoadResult
}

// RiskSource supplies the current investment and leverage.
type RiskSource interface {
	Get() model.RiskParams
}

// Config sizes the pipeline. Zero values fall back to the package defaults.
type Config struct {
	WindowSize     int
	ATRPeriod      int
	BufferCapacity int
	ReloadTimeout  time.Duration
}

func (c *Config) applyDefaults() {
	if c.WindowSize <= 0 {
		c.WindowSize = calculator.DefaultWindowSize
	}
	if c.ATRPeriod <= 0 {
		c.ATRPeriod = calculator.DefaultATRPeriod
	}
	if c.BufferCapacity <= 0 {
		c.BufferCapacity = candle.DefaultCapacity
	}
	if c.ReloadTimeout <= 0 {
		c.ReloadTimeout = DefaultReloadTimeout
	}
}

// Monitor owns the candle buffer of the watched instrument and turns
// observations into frames.
type Monitor struct {
	ctx      context.Context
	cfg      Config
	history  HistorySource
	risk     RiskSource
	sinks    []notifier.Sink
	recorder recorder.Recorder
	metrics  *metrics.Metrics

	running atomic.Bool
	reloads sync.WaitGroup

	mu           sync.Mutex
	buffer       *candle.Buffer
	clock        *candle.Clock
	analyzer     *calculator.SpectralAnalyzer
	symbol       string
	timeframe    string
	lastClose    float64
	hasClose     bool
	sessionID    string
	generation   uint64
	cancelReload context.CancelFunc
	reloading    bool
	lastFrame    *model.Frame
}

// New creates a Monitor. Reloads run under ctx; cancelling it aborts them.
func New(ctx context.Context, cfg Config, history HistorySource, risk RiskSource,
	sinks []notifier.Sink, rec recorder.Recorder, m *metrics.Metrics) (*Monitor, error) {
	cfg.applyDefaults()
	analyzer, err := calculator.NewSpectralAnalyzer(cfg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("spectral analyzer: %w", err)
	}
	if cfg.BufferCapacity < cfg.WindowSize {
		return nil, fmt.Errorf("buffer capacity %d is smaller than the window %d", cfg.BufferCapacity, cfg.WindowSize)
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}

	buf := candle.NewBuffer(cfg.BufferCapacity)
	return &Monitor{
		ctx:      ctx,
		cfg:      cfg,
		history:  history,
		risk:     risk,
		sinks:    sinks,
		recorder: rec,
		metrics:  m,
		buffer:   buf,
		clock:    candle.NewClock(buf),
		analyzer: analyzer,
	}, nil
}

// Tick processes one observation taken at now. It returns the new frame, or
// nil when the observation changed nothing. Failures of the feed, the
// calculators and the sinks are logged and never returned.
func (m *Monitor) Tick(ctx context.Context, obs model.Observation, now time.Time) (*model.Frame, error) {
	if !m.running.CompareAndSwap(false, true) {
		m.metrics.Tick(metrics.TickSkipped)
		return nil, ErrTickInProgress
	}
	defer m.running.Store(false)

	if obs.Symbol == "" {
		return nil, nil
	}

	m.mu.Lock()
	if obs.Symbol != m.symbol || obs.Timeframe != m.timeframe {
		m.resetLocked(obs.Symbol, obs.Timeframe)
	}
	if !obs.HasClose() {
		m.mu.Unlock()
		m.metrics.Tick(metrics.TickNoClose)
		return nil, nil
	}
	if m.hasClose && obs.Close == m.lastClose {
		m.mu.Unlock()
		m.metrics.Tick(metrics.TickUnchanged)
		return nil, nil
	}
	m.lastClose, m.hasClose = obs.Close, true

	start := time.Now()
	if _, ok := m.clock.Observe(obs, obs.Timeframe, now); ok {
		m.metrics.CandleAppended()
	}
	frame := m.frameLocked(obs, now)
	m.lastFrame = frame
	m.mu.Unlock()

	m.metrics.ObserveFrame(frame, time.Since(start))
	m.metrics.Tick(metrics.TickFrame)
	m.publish(ctx, frame)
	return frame, nil
}

// frameLocked computes ATR, cash risk and the cycle analysis for the current buffer.
func (m *Monitor) frameLocked(obs model.Observation, now time.Time) *model.Frame {
	n := m.cfg.WindowSize
	frame := &model.Frame{
		SessionID:   m.sessionID,
		Symbol:      obs.Symbol,
		Timeframe:   obs.Timeframe,
		Observation: obs,
		At:          now,
		Samples:     m.buffer.Len(),
		WindowSize:  n,
		ATRPeriod:   m.cfg.ATRPeriod,
	}
	if m.risk != nil {
		frame.Risk = m.risk.Get()
	}

	period := m.cfg.ATRPeriod
	if atr, err := calculator.CalculateATR(m.buffer.Tail(period+1), period); err == nil {
		frame.ATRReady = true
		frame.ATR = atr
		frame.CashRisk = calculator.CashRisk(frame.Risk.Investment, frame.Risk.Leverage, obs.Close, atr)
	}

	if m.buffer.Len() < n {
		frame.Status = notifier.FormatBuffering(m.buffer.Len(), n)
		return frame
	}
	analysis, err := m.analyzer.Analyze(m.buffer.Closes(n), m.buffer.Total())
	if err != nil {
		log.Printf("[WARN] cycle analysis %s %s: %v", obs.Symbol, obs.Timeframe, err)
		frame.Status = fmt.Sprintf("Analysis unavailable: %v", err)
		return frame
	}
	frame.Cycles = analysis
	frame.Status = notifier.FormatDominant(analysis)
	return frame
}

func (m *Monitor) publish(ctx context.Context, frame *model.Frame) {
	for _, s := range m.sinks {
		if err := s.Render(ctx, frame); err != nil {
			log.Printf("[WARN] sink %s: %v", s.Name(), err)
			m.metrics.SinkError(s.Name())
		}
	}
	if err := m.recorder.RecordFrame(frame); err != nil {
		log.Printf("[WARN] record frame: %v", err)
		m.metrics.SinkError("recorder")
	}
}

// resetLocked switches to a new instrument: the buffer and clock start over
// and a history reload replaces any one still in flight.
func (m *Monitor) resetLocked(symbol, timeframe string) {
	log.Printf("[INFO] watching %s %s (was %q %q), reloading history", symbol, timeframe, m.symbol, m.timeframe)

	m.symbol, m.timeframe = symbol, timeframe
	m.buffer.Reset()
	m.clock.Reset()
	m.hasClose = false
	m.lastFrame = nil
	m.sessionID = uuid.NewString()
	m.metrics.Reset()

	if m.cancelReload != nil {
		m.cancelReload()
	}
	m.generation++
	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.ReloadTimeout)
	m.cancelReload = cancel
	m.reloading = true

	m.reloads.Add(1)
	go m.reload(ctx, cancel, m.generation, m.sessionID, symbol, timeframe)
}

func (m *Monitor) reload(ctx context.Context, cancel context.CancelFunc, gen uint64, session, symbol, timeframe string) {
	defer m.reloads.Done()
	defer cancel()

	res := m.history.Fetch(ctx, symbol, timeframe)
	applied := m.install(gen, res)

	outcome := metrics.ReloadApplied
	switch {
	case !applied:
		outcome = metrics.ReloadSuperseded
		log.Printf("[INFO] discarding %s %s history, a newer reload superseded it", symbol, timeframe)
	case res.Err != nil || len(res.Candles) == 0:
		outcome = metrics.ReloadFailed
	}
	m.metrics.Reload(outcome, res.Duration)

	evt := &recorder.ReloadEvent{
		SessionID: session,
		Symbol:    symbol,
		Timeframe: timeframe,
		Interval:  res.Interval,
		Range:     res.Range,
		Candles:   len(res.Candles),
		Attempts:  res.Attempts,
		Duration:  res.Duration,
		Applied:   applied,
	}
	if res.Err != nil {
		evt.Error = res.Err.Error()
	}
	if err := m.recorder.RecordReload(evt); err != nil {
		log.Printf("[WARN] record reload: %v", err)
	}
}

// install replaces the buffer with history if gen is still the current
// generation. An empty history keeps the live bars gathered meanwhile.
// The last history candle stands for the bar in progress, so the next tick
// does not append a second candle for the same slot.
func (m *Monitor) install(gen uint64, res collector.LoadResult) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		return false
	}
	m.reloading = false
	m.cancelReload = nil
	if len(res.Candles) == 0 {
		log.Printf("[WARN] no history for %s %s, continuing with %d live bars", m.symbol, m.timeframe, m.buffer.Len())
		return true
	}
	m.buffer.Replace(res.Candles)
	m.clock.Hold()
	m.hasClose = false
	log.Printf("[INFO] installed %d candles for %s %s", m.buffer.Len(), m.symbol, m.timeframe)
	return true
}

// Reloading reports whether a history reload is pending.
func (m *Monitor) Reloading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reloading
}

// Samples returns the number of candles held.
func (m *Monitor) Samples() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffer.Len()
}

// Candles returns a copy of the buffer.
func (m *Monitor) Candles() []model.Candle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffer.Snapshot()
}

// LastFrame returns the frame of the last processed tick, nil before the first one.
func (m *Monitor) LastFrame() *model.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFrame
}

// Watching returns the instrument of the current session.
func (m *Monitor) Watching() (symbol, timeframe, session string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.symbol, m.timeframe, m.sessionID
}

// Close cancels a pending reload and waits for it to finish.
func (m *Monitor) Close() {
	m.mu.Lock()
	if m.cancelReload != nil {
		m.cancelReload()
	}
	m.mu.Unlock()
	m.reloads.Wait()
}
