package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"CycleSentinel/internal/model"
)

// Target is the instrument currently being watched. It can be changed at
// runtime while the poll loop reads it.
type Target struct {
	mu        sync.RWMutex
	symbol    string
	timeframe string
}

// NewTarget creates a target for symbol on timeframe.
func NewTarget(symbol, timeframe string) *Target {
	t := &Target{}
	t.Set(symbol, timeframe)
	return t
}

// Get returns the current symbol and timeframe.
func (t *Target) Get() (string, string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.symbol, t.timeframe
}

// Set switches the watched instrument. Symbols are upper-cased.
func (t *Target) Set(symbol, timeframe string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.symbol = strings.ToUpper(strings.TrimSpace(symbol))
	t.timeframe = strings.TrimSpace(timeframe)
}

// QuoteSource polls the provider for the newest bar of the current target.
type QuoteSource struct {
	Fetcher Fetcher
	Target  *Target
}

// NewQuoteSource creates a source reading target through fetcher.
func NewQuoteSource(fetcher Fetcher, target *Target) *QuoteSource {
	return &QuoteSource{Fetcher: fetcher, Target: target}
}

// Observe returns the current observation. The symbol and timeframe are the
// chart names, not the provider ones.
func (s *QuoteSource) Observe(ctx context.Context) (model.Observation, error) {
	symbol, timeframe := s.Target.Get()
	if symbol == "" {
		return model.Observation{}, nil
	}
	obs, err := s.Fetcher.FetchLatest(ctx, ProviderSymbol(symbol), ProviderInterval(timeframe))
	if err != nil {
		return model.Observation{Symbol: symbol, Timeframe: timeframe}, fmt.Errorf("observe %s: %w", symbol, err)
	}
	obs.Symbol, obs.Timeframe = symbol, timeframe
	return obs, nil
}
