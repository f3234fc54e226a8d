package store

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"IVCrush/internal/model"
)

// SQLiteCache persists fetched series to a SQLite database.
type SQLiteCache struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteCache opens (or creates) the SQLite database and runs migrations.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite cache opened: %s", dbPath)
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fetch_log (
			kind       TEXT    NOT NULL,
			symbol     TEXT    NOT NULL,
			start_ts   INTEGER NOT NULL,
			end_ts     INTEGER NOT NULL,
			run_id     TEXT,
			bar_count  INTEGER,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (kind, symbol, start_ts, end_ts)
		)`,

		`CREATE TABLE IF NOT EXISTS bars (
			kind   TEXT    NOT NULL,
			symbol TEXT    NOT NULL,
			ts     INTEGER NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL,
			volume REAL,
			PRIMARY KEY (kind, symbol, ts)
		)`,
	}

	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (c *SQLiteCache) LoadSeries(kind model.SeriesKind, symbol string, start, end time.Time) ([]model.OHLCV, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var count int
	err := c.db.QueryRow(`SELECT bar_count FROM fetch_log
		WHERE kind = ? AND symbol = ? AND start_ts = ? AND end_ts = ?`,
		string(kind), symbol, start.Unix(), end.Unix(),
	).Scan(&count)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query fetch log: %w", err)
	}

	rows, err := c.db.Query(`SELECT ts, open, high, low, close, volume FROM bars
		WHERE kind = ? AND symbol = ? AND ts BETWEEN ? AND ?
		ORDER BY ts`,
		string(kind), symbol, start.Unix(), end.Unix(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	bars := make([]model.OHLCV, 0, count)
	for rows.Next() {
		var ts int64
		var b model.OHLCV
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, false, fmt.Errorf("scan bar: %w", err)
		}
		b.Time = time.Unix(ts, 0).UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate bars: %w", err)
	}
	return bars, true, nil
}

func (c *SQLiteCache) SaveSeries(runID string, kind model.SeriesKind, symbol string, start, end time.Time, bars []model.OHLCV) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, b := range bars {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO bars
			(kind, symbol, ts, open, high, low, close, volume)
			VALUES (?,?,?,?,?,?,?,?)`,
			string(kind), symbol, b.Time.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			return fmt.Errorf("insert bar: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO fetch_log
		(kind, symbol, start_ts, end_ts, run_id, bar_count, fetched_at)
		VALUES (?,?,?,?,?,?,?)`,
		string(kind), symbol, start.Unix(), end.Unix(), runID, len(bars), time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("insert fetch log: %w", err)
	}
	return tx.Commit()
}

func (c *SQLiteCache) Close() error {
	log.Println("[INFO] closing sqlite cache")
	return c.db.Close()
}
