// Package candle turns a stream of OHLC snapshots into a bounded series of completed bars.
package candle

import "CycleSentinel/internal/model"

// DefaultCapacity is the number of bars kept before the oldest are evicted.
const DefaultCapacity = 500

// Buffer is a FIFO-bounded, chronologically ordered sequence of candles.
// It is not safe for concurrent use; the monitor serialises access.
type Buffer struct {
	capacity int
	candles  []model.Candle
	total    int
}

// NewBuffer creates an empty buffer. A non-positive capacity falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		candles:  make([]model.Candle, 0, capacity),
	}
}

// Append adds c as the newest candle, evicting from the front when over capacity.
func (b *Buffer) Append(c model.Candle) {
	b.candles = append(b.candles, c)
	b.total++
	b.evict()
}

// Replace discards the contents and loads history, oldest first.
// Only the newest Cap() candles are kept.
func (b *Buffer) Replace(history []model.Candle) {
	b.candles = b.candles[:0]
	b.total = 0
	for _, c := range history {
		b.candles = append(b.candles, c)
		b.total++
	}
	b.evict()
}

// Reset empties the buffer and restarts the bar count.
func (b *Buffer) Reset() {
	b.candles = b.candles[:0]
	b.total = 0
}

func (b *Buffer) evict() {
	if over := len(b.candles) - b.capacity; over > 0 {
		kept := copy(b.candles, b.candles[over:])
		b.candles = b.candles[:kept]
	}
}

// Len returns the number of candles held.
func (b *Buffer) Len() int { return len(b.candles) }

// Cap returns the eviction threshold.
func (b *Buffer) Cap() int { return b.capacity }

// Total returns how many candles were appended since the last reset, evicted ones included.
// It is the bar number of the newest candle, counted from 1.
func (b *Buffer) Total() int { return b.total }

// Last returns the newest candle.
func (b *Buffer) Last() (model.Candle, bool) {
	if len(b.candles) == 0 {
		return model.Candle{}, false
	}
	return b.candles[len(b.candles)-1], true
}

// Tail returns a copy of the newest n candles, or all of them if fewer are held.
func (b *Buffer) Tail(n int) []model.Candle {
	if n <= 0 {
		return nil
	}
	if n > len(b.candles) {
		n = len(b.candles)
	}
	out := make([]model.Candle, n)
	copy(out, b.candles[len(b.candles)-n:])
	return out
}

// Closes returns the closes of the newest n candles, oldest first.
func (b *Buffer) Closes(n int) []float64 {
	tail := b.Tail(n)
	closes := make([]float64, len(tail))
	for i, c := range tail {
		closes[i] = c.Close
	}
	return closes
}

// Snapshot returns a copy of every candle held.
func (b *Buffer) Snapshot() []model.Candle {
	return b.Tail(len(b.candles))
}
