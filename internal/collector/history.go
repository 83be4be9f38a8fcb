package collector

import (
	"context"
	"log"
	"time"

	"github.com/jpillora/backoff"

	"CycleSentinel/internal/model"
)

const (
	DefaultHistoryTimeout = 30 * time.Second
	DefaultMaxAttempts    = 3
)

// LoadResult describes one history load, successful or not.
type LoadResult struct {
	Symbol    string
	Timeframe string
	Interval  string
	Range     string
	Candles   []model.Candle
	Attempts  int
	Duration  time.Duration
	Err       error
}

// HistoryFeed loads the initial candle series for an instrument. It remaps
// chart names to provider values and retries transient failures.
type HistoryFeed struct {
	Fetcher     Fetcher
	Timeout     time.Duration
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
}

// NewHistoryFeed creates a feed with the default timeout and retry budget.
func NewHistoryFeed(fetcher Fetcher) *HistoryFeed {
	return &HistoryFeed{
		Fetcher:     fetcher,
		Timeout:     DefaultHistoryTimeout,
		MaxAttempts: DefaultMaxAttempts,
		MinBackoff:  500 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
	}
}

// Load returns the history of symbol on timeframe, oldest first. Any failure
// yields an empty series; the caller keeps running on live bars only.
func (h *HistoryFeed) Load(ctx context.Context, symbol, timeframe string) []model.Candle {
	return h.Fetch(ctx, symbol, timeframe).Candles
}

// Fetch is Load with the attempt bookkeeping exposed.
func (h *HistoryFeed) Fetch(ctx context.Context, symbol, timeframe string) LoadResult {
	res := LoadResult{
		Symbol:    symbol,
		Timeframe: timeframe,
		Interval:  ProviderInterval(timeframe),
		Range:     HistoryRange(timeframe),
	}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	maxAttempts := h.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	b := &backoff.Backoff{Min: h.MinBackoff, Max: h.MaxBackoff, Factor: 2, Jitter: true}
	providerSymbol := ProviderSymbol(symbol)

	for res.Attempts < maxAttempts {
		res.Attempts++
		candles, err := h.Fetcher.FetchHistory(ctx, providerSymbol, res.Interval, res.Range)
		if err == nil {
			res.Candles, res.Err = candles, nil
			log.Printf("[INFO] history %s %s: %d candles from %s (attempt %d)",
				symbol, timeframe, len(candles), h.Fetcher.Name(), res.Attempts)
			return res
		}
		res.Err = err
		if ctx.Err() != nil || res.Attempts >= maxAttempts {
			break
		}
		wait := b.Duration()
		log.Printf("[WARN] history %s %s attempt %d failed: %v, retrying in %v",
			symbol, timeframe, res.Attempts, err, wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			break
		}
	}

	log.Printf("[ERROR] history %s %s failed after %d attempt(s): %v", symbol, timeframe, res.Attempts, res.Err)
	res.Candles = []model.Candle{}
	return res
}
