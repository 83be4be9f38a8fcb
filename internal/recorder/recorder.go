package recorder

import (
	"time"

	"CycleSentinel/internal/model"
)

// ReloadEvent records one history load triggered by an instrument change.
type ReloadEvent struct {
	SessionID string
	Symbol    string
	Timeframe string
	Interval  string
	Range     string
	Candles   int
	Attempts  int
	Duration  time.Duration
	Applied   bool   // false when a newer reload superseded this one
	Error     string // empty on success
}

// Recorder persists panel history for later analysis.
type Recorder interface {
	RecordFrame(frame *model.Frame) error
	RecordReload(evt *ReloadEvent) error
	Close() error
}
