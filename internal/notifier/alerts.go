package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"CycleSentinel/internal/model"
)

var ErrQueueFull = errors.New("notification queue full")

// TelegramSink turns frames into Telegram alerts. It alerts when the dominant
// cycle changes and when the dominant turn is one bar away. Messages are sent
// from Run so a slow API never blocks the tick.
type TelegramSink struct {
	notifier   *TelegramNotifier
	queue      chan string
	maxRetries int

	mu           sync.Mutex
	symbol       string
	timeframe    string
	lastK        int
	alertedIndex int
}

// NewTelegramSink creates a sink with a bounded send queue.
func NewTelegramSink(n *TelegramNotifier, queueSize, maxRetries int) *TelegramSink {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &TelegramSink{
		notifier:     n,
		queue:        make(chan string, queueSize),
		maxRetries:   maxRetries,
		alertedIndex: -1,
	}
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Render(_ context.Context, f *model.Frame) error {
	reason := s.decide(f)
	if reason == "" {
		return nil
	}
	select {
	case s.queue <- FormatAlert(f, reason):
		return nil
	default:
		return ErrQueueFull
	}
}

// decide returns why f deserves an alert, or "" when it does not.
func (s *TelegramSink) decide(f *model.Frame) string {
	if f == nil || f.Cycles == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.Symbol != s.symbol || f.Timeframe != s.timeframe {
		s.symbol, s.timeframe = f.Symbol, f.Timeframe
		s.lastK, s.alertedIndex = 0, -1
	}

	c := f.Cycles
	k := c.Dominant.Bin.K
	prev := s.lastK
	s.lastK = k

	switch {
	case prev != 0 && k != prev:
		return fmt.Sprintf("dominant cycle now %.1f bars", c.Dominant.Period)
	case c.DominantTurn == 1 && c.CurrentIndex != s.alertedIndex:
		s.alertedIndex = c.CurrentIndex
		return "dominant turn next bar"
	}
	return ""
}

// Run delivers queued alerts until ctx is cancelled.
func (s *TelegramSink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.queue:
			if err := s.notifier.SendWithRetry(ctx, msg, s.maxRetries); err != nil {
				log.Printf("[ERROR] telegram alert: %v", err)
			}
		}
	}
}
