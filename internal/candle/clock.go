package candle

import (
	"math"
	"time"

	"CycleSentinel/internal/model"
)

// never is the slot of a clock that has not appended anything yet.
const never = math.MinInt64

// Clock decides when a live observation starts a new bar and appends it to a Buffer.
type Clock struct {
	buffer   *Buffer
	lastSlot int64 // unix millis of the last appended bar slot
	held     bool
}

// NewClock returns a clock that feeds buf.
func NewClock(buf *Buffer) *Clock {
	return &Clock{buffer: buf, lastSlot: never}
}

// Slot returns the start of the bar containing now, in unix milliseconds.
func Slot(now time.Time, timeframe string) int64 {
	d := model.BarDuration(timeframe).Milliseconds()
	ms := now.UnixMilli()
	slot := ms / d * d
	if ms < 0 && ms%d != 0 {
		slot -= d
	}
	return slot
}

// Observe appends the observation as a new candle when now falls in a later bar slot than
// the last appended one. It returns the candle and whether it was appended.
func (c *Clock) Observe(obs model.Observation, timeframe string, now time.Time) (model.Candle, bool) {
	slot := Slot(now, timeframe)
	if c.held {
		c.held = false
		c.lastSlot = slot
		return model.Candle{}, false
	}
	if slot <= c.lastSlot {
		return model.Candle{}, false
	}
	candle := obs.Candle()
	c.buffer.Append(candle)
	c.lastSlot = slot
	return candle, true
}

// Reset forgets the last slot so the next observation always appends.
func (c *Clock) Reset() {
	c.lastSlot = never
	c.held = false
}

// Hold is used after installing history whose last candle is the bar in
// progress: the next observation claims its slot without appending, and
// appending resumes with the following slot.
func (c *Clock) Hold() {
	c.lastSlot = never
	c.held = true
}
