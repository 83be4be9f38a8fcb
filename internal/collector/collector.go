package collector

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"CycleSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price   float64
	History []model.Candle
	Latest  *model.Observation
	Err     error

	// FailFirst makes the first n history calls fail before any succeeds.
	FailFirst int

	// Delay blocks each history call until it elapses or the context ends.
	Delay time.Duration

	mu           sync.Mutex
	historyCalls int
	latestCalls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(ctx context.Context, _, _, _ string) ([]model.Candle, error) {
	m.mu.Lock()
	m.historyCalls++
	call := m.historyCalls
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if call <= m.FailFirst {
		return nil, fmt.Errorf("mock: planned failure %d/%d", call, m.FailFirst)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.History != nil {
		out := make([]model.Candle, len(m.History))
		copy(out, m.History)
		return out, nil
	}
	return GenerateCandles(m.Price, 300), nil
}

func (m *MockFetcher) FetchLatest(_ context.Context, _, _ string) (model.Observation, error) {
	m.mu.Lock()
	m.latestCalls++
	m.mu.Unlock()

	if m.Err != nil {
		return model.Observation{}, m.Err
	}
	if m.Latest != nil {
		return *m.Latest, nil
	}
	return model.Observation{Open: m.Price, High: m.Price, Low: m.Price, Close: m.Price}, nil
}

// HistoryCalls reports how many times FetchHistory was invoked.
func (m *MockFetcher) HistoryCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.historyCalls
}

// LatestCalls reports how many times FetchLatest was invoked.
func (m *MockFetcher) LatestCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latestCalls
}

// GenerateCandles builds count bars around basePrice: a slow drift plus a 32-bar cycle.
func GenerateCandles(basePrice float64, count int) []model.Candle {
	if basePrice <= 0 {
		basePrice = 100
	}
	candles := make([]model.Candle, count)
	for i := 0; i < count; i++ {
		p := basePrice*(1+float64(i-count/2)*0.001) + basePrice*0.01*math.Sin(2*math.Pi*float64(i)/32)
		candles[i] = model.Candle{
			High:  p * 1.002,
			Low:   p * 0.998,
			Close: p,
		}
	}
	return candles
}
