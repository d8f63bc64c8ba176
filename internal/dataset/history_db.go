// Package dataset loads historical candle data and precomputes the
// indicator frame shared read-only by every evaluation worker.
package dataset

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantflow/hypertune/internal/database"
	"github.com/quantflow/hypertune/internal/utils"
)

// Candle is one OHLCV bar. Time is a Unix timestamp in seconds.
type Candle struct {
	Time   int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Open opens (or creates) a candle history database.
func Open(path string) (*sql.DB, error) {
	return database.Open(path)
}

// InitSchema creates the candles table if it does not exist.
func InitSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS candles (
			pair   TEXT NOT NULL,
			time   INTEGER NOT NULL,
			open   REAL NOT NULL,
			high   REAL NOT NULL,
			low    REAL NOT NULL,
			close  REAL NOT NULL,
			volume REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (pair, time)
		)
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create candles schema: %w", err)
	}
	return nil
}

// HistoryDB provides access to historical candle data.
type HistoryDB struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryDB creates a new history database accessor.
func NewHistoryDB(db *sql.DB, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		db:  db,
		log: log.With().Str("component", "history_db").Logger(),
	}
}

// Candles fetches candles for a pair within [from, to], ordered by time
// ascending. Zero from/to bounds are open-ended.
func (h *HistoryDB) Candles(pair string, from, to int64) ([]Candle, error) {
	if to == 0 {
		to = 1<<63 - 1
	}

	query := `
		SELECT time, open, high, low, close, volume
		FROM candles
		WHERE pair = ? AND time >= ? AND time <= ?
		ORDER BY time ASC
	`

	measure := utils.MeasureDBQuery("candles_select", h.log)
	rows, err := h.db.Query(query, pair, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []Candle
	for rows.Next() {
		var c Candle
		if err := rows.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candles: %w", err)
	}
	measure(int64(len(candles)))

	h.log.Debug().Str("pair", pair).Int("count", len(candles)).Msg("Loaded candles")
	return candles, nil
}

// InsertCandles writes candles for a pair, replacing duplicates.
func (h *HistoryDB) InsertCandles(pair string, candles []Candle) error {
	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles (pair, time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare candle insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.Exec(pair, c.Time, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert candle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit candles: %w", err)
	}
	return nil
}
