package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "options-engine/internal/errors"
	"options-engine/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the journal database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Recommendation journal. Indexed columns cover the common
	-- filters; the full recommendation travels as JSON payload.
	CREATE TABLE IF NOT EXISTS recommendations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		symbol TEXT NOT NULL,
		outcome TEXT NOT NULL,
		strategy TEXT,
		lots INTEGER,
		capital_at_risk REAL,
		vol_regime TEXT,
		trend TEXT,
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_recommendations_symbol_time
		ON recommendations(symbol, timestamp);
	CREATE INDEX IF NOT EXISTS idx_recommendations_outcome
		ON recommendations(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRecommendation appends one recommendation to the journal.
func (s *SQLiteStore) SaveRecommendation(ctx context.Context, rec *models.Recommendation) (int64, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return 0, apperrors.Wrap(err, "marshaling recommendation")
	}

	var strategy string
	var lots int
	var capitalAtRisk float64
	if rec.Strategy != nil {
		strategy = rec.Strategy.Name
	}
	if rec.Sizing != nil {
		lots = rec.Sizing.Lots
		capitalAtRisk = rec.Sizing.CapitalAtRisk
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO recommendations
			(timestamp, symbol, outcome, strategy, lots, capital_at_risk, vol_regime, trend, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.Symbol, string(rec.Outcome), strategy, lots, capitalAtRisk,
		string(rec.Regime.VolRegime), string(rec.Regime.Trend), string(payload),
	)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
	}
	return res.LastInsertId()
}

// ListRecommendations returns journal entries matching the filter,
// newest first.
func (s *SQLiteStore) ListRecommendations(ctx context.Context, filter JournalFilter) ([]JournalEntry, error) {
	var conds []string
	var args []interface{}

	if filter.Symbol != "" {
		conds = append(conds, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if filter.Outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if !filter.From.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		conds = append(conds, "timestamp <= ?")
		args = append(args, filter.To)
	}

	query := "SELECT id, payload FROM recommendations"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var entry JournalEntry
		var payload string
		if err := rows.Scan(&entry.ID, &payload); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
		}
		if err := json.Unmarshal([]byte(payload), &entry.Recommendation); err != nil {
			return nil, apperrors.Wrap(err, "unmarshaling recommendation")
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetRecommendation returns one journal entry by ID.
func (s *SQLiteStore) GetRecommendation(ctx context.Context, id int64) (*JournalEntry, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM recommendations WHERE id = ?", id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrDataNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
	}

	entry := &JournalEntry{ID: id}
	if err := json.Unmarshal([]byte(payload), &entry.Recommendation); err != nil {
		return nil, apperrors.Wrap(err, "unmarshaling recommendation")
	}
	return entry, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
