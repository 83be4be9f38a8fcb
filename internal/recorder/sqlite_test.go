package recorder

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleSentinel/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "panel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_RecordFrame(t *testing.T) {
	r := openTestRecorder(t)

	dom := model.CycleForecast{
		Bin:       model.FrequencyBin{K: 8, Magnitude: 40},
		Period:    16,
		Direction: model.DirectionDown,
		Trend:     model.TrendMixed,
	}
	frame := &model.Frame{
		SessionID:   "s-1",
		Symbol:      "GOLD",
		Timeframe:   "5m",
		Observation: model.Observation{Open: 1, High: 3, Low: 0.5, Close: 2},
		At:          time.Unix(1700000000, 0),
		Samples:     200,
		ATRReady:    true,
		ATR:         1.25,
		CashRisk:    12.5,
		Risk:        model.RiskParams{Investment: 1000, Leverage: 1},
		Cycles: &model.CycleAnalysis{
			Top:          []model.CycleForecast{dom, {Bin: model.FrequencyBin{K: 1}}},
			Dominant:     dom,
			DominantTurn: 3,
		},
	}
	require.NoError(t, r.RecordFrame(frame))
	require.NoError(t, r.RecordFrame(&model.Frame{Symbol: "GOLD", Timeframe: "5m", Samples: 3, Status: "Buffering 3/128"}))
	require.NoError(t, r.RecordFrame(nil))

	var (
		count int
		domK  int
		bins  string
		atr   float64
	)
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM panel_snapshots`).Scan(&count))
	assert.Equal(t, 2, count)

	require.NoError(t, r.db.QueryRow(
		`SELECT dom_k, top_bins, atr FROM panel_snapshots WHERE session_id = 's-1'`).Scan(&domK, &bins, &atr))
	assert.Equal(t, 8, domK)
	assert.Equal(t, "8,1", bins)
	assert.Equal(t, 1.25, atr)

	var nullK sql.NullInt64
	var status string
	require.NoError(t, r.db.QueryRow(
		`SELECT dom_k, status FROM panel_snapshots WHERE samples = 3`).Scan(&nullK, &status))
	assert.False(t, nullK.Valid)
	assert.Equal(t, "Buffering 3/128", status)
}

func TestSQLiteRecorder_RecordReload(t *testing.T) {
	r := openTestRecorder(t)

	require.NoError(t, r.RecordReload(&ReloadEvent{
		SessionID: "s-2",
		Symbol:    "BTC",
		Timeframe: "1h",
		Interval:  "60m",
		Range:     "60d",
		Candles:   500,
		Attempts:  2,
		Duration:  1500 * time.Millisecond,
		Applied:   true,
	}))

	var (
		interval string
		candles  int
		ms       int64
		applied  bool
	)
	require.NoError(t, r.db.QueryRow(
		`SELECT interval_id, candles, duration_ms, applied FROM history_loads`).Scan(&interval, &candles, &ms, &applied))
	assert.Equal(t, "60m", interval)
	assert.Equal(t, 500, candles)
	assert.Equal(t, int64(1500), ms)
	assert.True(t, applied)
}

func TestSQLiteRecorder_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.RecordReload(&ReloadEvent{Symbol: "ETH"}))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r.Close()

	var count int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM history_loads`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLiteRecorder_CreatesDatabaseDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "panel.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.RecordReload(&ReloadEvent{Symbol: "GOLD"}))
	assert.FileExists(t, path)
}
