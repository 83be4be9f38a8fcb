package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleSentinel/internal/model"
)

// recordingFetcher remembers the provider arguments it was called with.
type recordingFetcher struct {
	MockFetcher
	symbol, interval, rng string
}

func (r *recordingFetcher) FetchHistory(ctx context.Context, symbol, interval, rng string) ([]model.Candle, error) {
	r.symbol, r.interval, r.rng = symbol, interval, rng
	return r.MockFetcher.FetchHistory(ctx, symbol, interval, rng)
}

func fastFeed(f Fetcher, attempts int) *HistoryFeed {
	feed := NewHistoryFeed(f)
	feed.MaxAttempts = attempts
	feed.MinBackoff = time.Millisecond
	feed.MaxBackoff = 2 * time.Millisecond
	return feed
}

func TestHistoryFeed_RemapsSymbolAndInterval(t *testing.T) {
	rf := &recordingFetcher{MockFetcher: MockFetcher{Price: 2000}}
	candles := fastFeed(rf, 1).Load(context.Background(), "GOLD", "1h")

	assert.Len(t, candles, 300)
	assert.Equal(t, "GC=F", rf.symbol)
	assert.Equal(t, "60m", rf.interval)
	assert.Equal(t, "60d", rf.rng)
}

func TestHistoryFeed_UnmappedPassThrough(t *testing.T) {
	rf := &recordingFetcher{MockFetcher: MockFetcher{Price: 10}}
	fastFeed(rf, 1).Load(context.Background(), "AAPL", "2m")

	assert.Equal(t, "AAPL", rf.symbol)
	assert.Equal(t, "2m", rf.interval)
	assert.Equal(t, defaultRange, rf.rng)
}

func TestHistoryFeed_RetriesThenSucceeds(t *testing.T) {
	mf := &MockFetcher{Price: 100, FailFirst: 2}
	res := fastFeed(mf, 3).Fetch(context.Background(), "BTC", "1m")

	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, mf.HistoryCalls())
	assert.Len(t, res.Candles, 300)
}

func TestHistoryFeed_FailureYieldsEmpty(t *testing.T) {
	mf := &MockFetcher{Err: errors.New("upstream down")}
	res := fastFeed(mf, 2).Fetch(context.Background(), "ETH", "5m")

	require.Error(t, res.Err)
	assert.Equal(t, 2, res.Attempts)
	assert.NotNil(t, res.Candles)
	assert.Empty(t, res.Candles)
}

func TestHistoryFeed_Timeout(t *testing.T) {
	mf := &MockFetcher{Price: 100, Delay: time.Second}
	feed := fastFeed(mf, 3)
	feed.Timeout = 20 * time.Millisecond

	start := time.Now()
	candles := feed.Load(context.Background(), "GOLD", "1m")
	assert.Empty(t, candles)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 1, mf.HistoryCalls())
}

func TestHistoryFeed_CancelledByCaller(t *testing.T) {
	mf := &MockFetcher{Price: 100, Delay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := fastFeed(mf, 3).Fetch(ctx, "GOLD", "1m")
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, res.Candles)
}
