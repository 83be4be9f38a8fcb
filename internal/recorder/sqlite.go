package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"CycleSentinel/internal/model"
)

// SQLiteRecorder persists panel history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the monitor writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS panel_snapshots (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			session_id    TEXT,
			symbol        TEXT,
			timeframe     TEXT,
			open          REAL,
			high          REAL,
			low           REAL,
			close         REAL,
			samples       INTEGER,
			atr           REAL,
			cash_risk     REAL,
			investment    REAL,
			leverage      REAL,
			dom_k         INTEGER,
			dom_period    REAL,
			dom_turn      INTEGER,
			dom_direction TEXT,
			dom_trend     TEXT,
			top_bins      TEXT,
			status        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_panel_ts ON panel_snapshots(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_panel_symbol ON panel_snapshots(symbol, timeframe)`,

		`CREATE TABLE IF NOT EXISTS history_loads (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			session_id  TEXT,
			symbol      TEXT,
			timeframe   TEXT,
			interval_id TEXT,
			lookback    TEXT,
			candles     INTEGER,
			attempts    INTEGER,
			duration_ms INTEGER,
			applied     INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loads_ts ON history_loads(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// topBins renders the bin numbers of the ranked list as "9,1,2".
func topBins(c *model.CycleAnalysis) string {
	parts := make([]string, len(c.Top))
	for i, f := range c.Top {
		parts[i] = strconv.Itoa(f.Bin.K)
	}
	return strings.Join(parts, ",")
}

func (r *SQLiteRecorder) RecordFrame(frame *model.Frame) error {
	if frame == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		domK      sql.NullInt64
		domPeriod sql.NullFloat64
		domTurn   sql.NullInt64
		domDir    sql.NullString
		domTrend  sql.NullString
		bins      sql.NullString
	)
	if c := frame.Cycles; c != nil {
		domK = sql.NullInt64{Int64: int64(c.Dominant.Bin.K), Valid: true}
		domPeriod = sql.NullFloat64{Float64: c.Dominant.Period, Valid: true}
		domTurn = sql.NullInt64{Int64: int64(c.DominantTurn), Valid: true}
		domDir = sql.NullString{String: string(c.Dominant.Direction), Valid: true}
		domTrend = sql.NullString{String: string(c.Dominant.Trend), Valid: true}
		bins = sql.NullString{String: topBins(c), Valid: true}
	}
	var atr, risk sql.NullFloat64
	if frame.ATRReady {
		atr = sql.NullFloat64{Float64: frame.ATR, Valid: true}
		risk = sql.NullFloat64{Float64: frame.CashRisk, Valid: true}
	}

	obs := frame.Observation
	_, err := r.db.Exec(`INSERT INTO panel_snapshots
		(timestamp, session_id, symbol, timeframe, open, high, low, close, samples,
		 atr, cash_risk, investment, leverage,
		 dom_k, dom_period, dom_turn, dom_direction, dom_trend, top_bins, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		frame.At.Unix(), frame.SessionID, frame.Symbol, frame.Timeframe,
		obs.Open, obs.High, obs.Low, obs.Close, frame.Samples,
		atr, risk, frame.Risk.Investment, frame.Risk.Leverage,
		domK, domPeriod, domTurn, domDir, domTrend, bins, frame.Status,
	)
	return err
}

func (r *SQLiteRecorder) RecordReload(evt *ReloadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO history_loads
		(timestamp, session_id, symbol, timeframe, interval_id, lookback,
		 candles, attempts, duration_ms, applied, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.SessionID, evt.Symbol, evt.Timeframe, evt.Interval, evt.Range,
		evt.Candles, evt.Attempts, evt.Duration.Milliseconds(), evt.Applied, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
