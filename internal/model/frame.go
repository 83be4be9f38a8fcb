package model

import "time"

// Frame is the per-tick payload handed to render sinks and the recorder.
type Frame struct {
	SessionID   string
	Symbol      string
	Timeframe   string
	Observation Observation
	At          time.Time

	Samples    int // candles in the buffer
	WindowSize int

	ATRPeriod int
	ATRReady  bool
	ATR       float64
	CashRisk  float64
	Risk      RiskParams

	// Cycles is nil while the buffer holds fewer than WindowSize candles.
	Cycles *CycleAnalysis
	Status string
}

// Buffering reports whether the spectral window is still filling.
func (f *Frame) Buffering() bool {
	return f.Cycles == nil
}
