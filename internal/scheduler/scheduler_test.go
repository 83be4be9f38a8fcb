package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleSentinel/internal/collector"
	"CycleSentinel/internal/metrics"
	"CycleSentinel/internal/model"
	"CycleSentinel/internal/monitor"
	"CycleSentinel/internal/prefs"
)

func newTestScheduler(t *testing.T, fetcher *collector.MockFetcher) *Scheduler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	feed := collector.NewHistoryFeed(fetcher)
	feed.MaxAttempts = 1
	risk, err := prefs.NewStore("", 1000, 1)
	require.NoError(t, err)
	m := metrics.NewMetrics(prometheus.NewRegistry())

	mon, err := monitor.New(ctx, monitor.Config{}, feed, risk, nil, nil, m)
	require.NoError(t, err)
	t.Cleanup(mon.Close)

	target := collector.NewTarget("GOLD", "1m")
	s := NewScheduler(ctx, collector.NewQuoteSource(fetcher, target), target, mon, risk, nil,
		metrics.NewHealthStatus(time.Minute), m)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestPollNow_ProducesFrame(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Price:  2000,
		Latest: &model.Observation{Open: 2000, High: 2003, Low: 1998, Close: 2001},
	}
	s := newTestScheduler(t, fetcher)

	f := s.PollNow()
	require.NotNil(t, f)
	assert.Equal(t, "GOLD", f.Symbol)
	assert.Equal(t, 2001.0, f.Observation.Close)

	require.Eventually(t, func() bool { return !s.Monitor.Reloading() }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 300, s.Monitor.Samples())
	assert.Equal(t, 1, fetcher.HistoryCalls())

	assert.Equal(t, "GOLD", s.Health.Symbol)
	assert.False(t, s.Health.LastTickTime.IsZero())
}

func TestPollNow_UnchangedQuote(t *testing.T) {
	fetcher := &collector.MockFetcher{Price: 10, Latest: &model.Observation{High: 11, Low: 9, Close: 10}}
	s := newTestScheduler(t, fetcher)

	require.NotNil(t, s.PollNow())
	require.Eventually(t, func() bool { return !s.Monitor.Reloading() }, 2*time.Second, 5*time.Millisecond)
	require.NotNil(t, s.PollNow(), "first quote after the history install")
	assert.Nil(t, s.PollNow(), "close did not change")
}

func TestHandleCommand_Watch(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{Price: 10})

	reply := s.HandleCommand("/watch btc 4H")
	assert.Contains(t, reply, "Watching BTC 4h")
	symbol, tf := s.Target.Get()
	assert.Equal(t, "BTC", symbol)
	assert.Equal(t, "4h", tf)

	assert.Contains(t, s.HandleCommand("/watch ETH 2m"), "Unknown timeframe")
	assert.Contains(t, s.HandleCommand("/watch ETH"), "Usage")
	symbol, _ = s.Target.Get()
	assert.Equal(t, "BTC", symbol)
}

func TestHandleCommand_Risk(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{Price: 10})

	assert.Equal(t, "✅ Risk updated: investment 2,500.00, leverage x10", s.HandleCommand("/risk 2,500 10"))
	assert.Equal(t, 2500.0, s.Risk.Get().Investment)

	assert.Contains(t, s.HandleCommand("/risk abc 10"), "❌")
	assert.Contains(t, s.HandleCommand("/risk"), "Current: investment 2,500.00, leverage x10")
}

func TestHandleCommand_StatusAndHelp(t *testing.T) {
	fetcher := &collector.MockFetcher{Price: 10, Latest: &model.Observation{High: 11, Low: 9, Close: 10}}
	s := newTestScheduler(t, fetcher)

	assert.Equal(t, "No data yet.", s.HandleCommand("/status"))
	s.PollNow()
	assert.Contains(t, s.HandleCommand("/status"), "<pre>GOLD (1M)")
	assert.Contains(t, s.HandleCommand("/summary"), "GOLD 1M")
	assert.Equal(t, helpText, s.HandleCommand("hello"))
	assert.Equal(t, helpText, s.HandleCommand("   "))
}

func TestRegisterAll(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{Price: 10})
	require.NoError(t, s.RegisterAll("@every 2s", "0 0 9 * * *"))
	assert.Len(t, s.Cron.Entries(), 2)

	s = newTestScheduler(t, &collector.MockFetcher{Price: 10})
	require.NoError(t, s.RegisterAll("@every 2s", ""))
	assert.Len(t, s.Cron.Entries(), 1)

	assert.Error(t, s.RegisterAll("not a cron", ""))
}
