package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleSentinel/internal/model"
)

type latestRecorder struct {
	MockFetcher
	symbol, interval string
}

func (l *latestRecorder) FetchLatest(ctx context.Context, symbol, interval string) (model.Observation, error) {
	l.symbol, l.interval = symbol, interval
	return l.MockFetcher.FetchLatest(ctx, symbol, interval)
}

func TestQuoteSource_Observe(t *testing.T) {
	lr := &latestRecorder{MockFetcher: MockFetcher{Latest: &model.Observation{Open: 1, High: 3, Low: 0.5, Close: 2}}}
	src := NewQuoteSource(lr, NewTarget("gold", "4h"))

	obs, err := src.Observe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "GOLD", obs.Symbol)
	assert.Equal(t, "4h", obs.Timeframe)
	assert.Equal(t, 2.0, obs.Close)
	assert.Equal(t, "GC=F", lr.symbol)
	assert.Equal(t, "240m", lr.interval)
}

func TestQuoteSource_TargetSwitch(t *testing.T) {
	target := NewTarget("GOLD", "1m")
	src := NewQuoteSource(&MockFetcher{Price: 5}, target)

	target.Set("eth ", "15m")
	obs, err := src.Observe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ETH", obs.Symbol)
	assert.Equal(t, "15m", obs.Timeframe)
}

func TestQuoteSource_EmptySymbol(t *testing.T) {
	mf := &MockFetcher{Price: 5}
	obs, err := NewQuoteSource(mf, NewTarget("", "1m")).Observe(context.Background())
	require.NoError(t, err)
	assert.False(t, obs.HasClose())
	assert.Equal(t, 0, mf.LatestCalls())
}

func TestQuoteSource_Error(t *testing.T) {
	src := NewQuoteSource(&MockFetcher{Err: errors.New("offline")}, NewTarget("BTC", "1m"))
	obs, err := src.Observe(context.Background())
	require.Error(t, err)
	assert.Equal(t, "BTC", obs.Symbol)
	assert.False(t, obs.HasClose())
}
