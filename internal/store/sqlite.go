// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	meta map[string]string
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:   db,
		meta: make(map[string]string),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One row per trade. Indexed columns mirror fields of the JSON document
	-- so filters do not need to decode it.
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		journal TEXT NOT NULL,
		pair TEXT NOT NULL,
		direction TEXT NOT NULL,
		status TEXT NOT NULL,
		strategy_id TEXT,
		open_time DATETIME NOT NULL,
		close_time DATETIME,
		pl REAL NOT NULL DEFAULT 0,
		score INTEGER NOT NULL DEFAULT 0,
		data TEXT NOT NULL,
		deleted_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_journal ON trades(journal, deleted_at);
	CREATE INDEX IF NOT EXISTS idx_trades_open_time ON trades(open_time);
	CREATE INDEX IF NOT EXISTS idx_trades_pair ON trades(pair);
	CREATE INDEX IF NOT EXISTS idx_trades_deleted ON trades(deleted_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const upsertTrade = `
	INSERT INTO trades (id, journal, pair, direction, status, strategy_id, open_time, close_time, pl, score, data, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		journal = excluded.journal,
		pair = excluded.pair,
		direction = excluded.direction,
		status = excluded.status,
		strategy_id = excluded.strategy_id,
		open_time = excluded.open_time,
		close_time = excluded.close_time,
		pl = excluded.pl,
		score = excluded.score,
		data = excluded.data,
		updated_at = excluded.updated_at
`

func writeTrade(ctx context.Context, ex execer, trade *models.Trade) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("encoding trade %s: %w", trade.ID, err)
	}

	status := models.StatusClosed
	var closeTime interface{}
	if trade.IsOpen() {
		status = models.StatusOpen
	} else if !trade.CloseTime.IsZero() {
		closeTime = trade.CloseTime.UTC()
	}

	_, err = ex.ExecContext(ctx, upsertTrade,
		trade.ID, trade.Journal, models.NormalizePair(trade.Pair), string(trade.Direction), string(status),
		trade.StrategyID, trade.OpenTime.UTC(), closeTime, trade.Auto.PL, trade.Auto.Score,
		string(data), time.Now().UTC())
	return err
}

// SaveTrade inserts or replaces a trade.
func (s *SQLiteStore) SaveTrade(ctx context.Context, trade *models.Trade) error {
	if err := writeTrade(ctx, s.db, trade); err != nil {
		return apperrors.NewStoreError("save trade", err)
	}
	return nil
}

// SaveTrades writes a batch of trades in one transaction.
func (s *SQLiteStore) SaveTrades(ctx context.Context, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreError("begin batch", err)
	}
	defer tx.Rollback()

	for i := range trades {
		if err := writeTrade(ctx, tx, &trades[i]); err != nil {
			return apperrors.NewStoreError("save trades", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreError("commit batch", err)
	}
	return nil
}

// GetTrade retrieves one live trade by ID.
func (s *SQLiteStore) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	var data string
	var deletedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `SELECT data, deleted_at FROM trades WHERE id = ?`, id).Scan(&data, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewTradeError(id, "get", apperrors.ErrTradeNotFound)
	}
	if err != nil {
		return nil, apperrors.NewStoreError("get trade", err)
	}
	if deletedAt.Valid {
		return nil, apperrors.NewTradeError(id, "get", apperrors.ErrTradeDeleted)
	}

	var t models.Trade
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, apperrors.NewStoreError("decode trade", err)
	}
	return &t, nil
}

// GetTrades retrieves live trades, oldest first.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := "SELECT data FROM trades WHERE deleted_at IS NULL"
	args := []interface{}{}

	if filter.Journal != "" {
		query += " AND journal = ?"
		args = append(args, filter.Journal)
	}
	if filter.Pair != "" {
		query += " AND pair = ?"
		args = append(args, models.NormalizePair(filter.Pair))
	}
	if filter.Direction != "" {
		query += " AND direction = ?"
		args = append(args, string(filter.Direction))
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.StrategyID != "" {
		query += " AND strategy_id = ?"
		args = append(args, filter.StrategyID)
	}
	if !filter.StartDate.IsZero() {
		query += " AND open_time >= ?"
		args = append(args, filter.StartDate.UTC())
	}
	if !filter.EndDate.IsZero() {
		query += " AND open_time <= ?"
		args = append(args, filter.EndDate.UTC())
	}

	query += " ORDER BY open_time ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("query trades", err)
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, apperrors.NewStoreError("scan trade", err)
		}
		var t models.Trade
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, apperrors.NewStoreError("decode trade", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("query trades", err)
	}
	return trades, nil
}

// ListJournals returns the names of journals that hold live trades.
func (s *SQLiteStore) ListJournals(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT journal FROM trades WHERE deleted_at IS NULL ORDER BY journal`)
	if err != nil {
		return nil, apperrors.NewStoreError("list journals", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.NewStoreError("scan journal", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteTrade moves a trade to the trash.
func (s *SQLiteStore) DeleteTrade(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE trades SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL
	`, at.UTC(), time.Now().UTC(), id)
	if err != nil {
		return apperrors.NewStoreError("delete trade", err)
	}
	return s.expectRow(ctx, result, id, "delete", false)
}

// RestoreTrade takes a trade back out of the trash.
func (s *SQLiteStore) RestoreTrade(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE trades SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL
	`, time.Now().UTC(), id)
	if err != nil {
		return apperrors.NewStoreError("restore trade", err)
	}
	return s.expectRow(ctx, result, id, "restore", true)
}

// expectRow turns a zero-row update into the matching trade error.
func (s *SQLiteStore) expectRow(ctx context.Context, result sql.Result, id, operation string, wantDeleted bool) error {
	n, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewStoreError(operation+" trade", err)
	}
	if n > 0 {
		return nil
	}

	var deletedAt sql.NullTime
	err = s.db.QueryRowContext(ctx, `SELECT deleted_at FROM trades WHERE id = ?`, id).Scan(&deletedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperrors.NewTradeError(id, operation, apperrors.ErrTradeNotFound)
	case err != nil:
		return apperrors.NewStoreError(operation+" trade", err)
	case deletedAt.Valid && !wantDeleted:
		return apperrors.NewTradeError(id, operation, apperrors.ErrTradeDeleted)
	default:
		// Restoring a live trade: nothing is in the trash under this ID.
		return apperrors.NewTradeError(id, operation, apperrors.ErrTradeNotFound)
	}
}

// GetTrash lists trashed trades of a journal, most recently deleted first.
// An empty journal lists every journal's trash.
func (s *SQLiteStore) GetTrash(ctx context.Context, journal string) ([]TrashedTrade, error) {
	query := "SELECT data, deleted_at FROM trades WHERE deleted_at IS NOT NULL"
	args := []interface{}{}
	if journal != "" {
		query += " AND journal = ?"
		args = append(args, journal)
	}
	query += " ORDER BY deleted_at DESC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("query trash", err)
	}
	defer rows.Close()

	trash := []TrashedTrade{}
	for rows.Next() {
		var data string
		var deletedAt time.Time
		if err := rows.Scan(&data, &deletedAt); err != nil {
			return nil, apperrors.NewStoreError("scan trash", err)
		}
		var item TrashedTrade
		if err := json.Unmarshal([]byte(data), &item.Trade); err != nil {
			return nil, apperrors.NewStoreError("decode trade", err)
		}
		item.DeletedAt = deletedAt
		trash = append(trash, item)
	}
	return trash, rows.Err()
}

// PurgeTrash permanently removes trades deleted before the cutoff.
func (s *SQLiteStore) PurgeTrash(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM trades WHERE deleted_at IS NOT NULL AND deleted_at < ?
	`, before.UTC())
	if err != nil {
		return 0, apperrors.NewStoreError("purge trash", err)
	}
	return result.RowsAffected()
}

// GetMeta returns a metadata value, "" when unset.
func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	if v, ok := s.meta[key]; ok {
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.NewStoreError("get meta", err)
	}

	s.mu.Lock()
	s.meta[key] = value
	s.mu.Unlock()

	return value, nil
}

// SetMeta stores a metadata value.
func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO meta (key, value, updated_at)
		VALUES (?, ?, ?)
	`, key, value, time.Now().UTC())
	if err != nil {
		return apperrors.NewStoreError("set meta", err)
	}

	s.mu.Lock()
	s.meta[key] = value
	s.mu.Unlock()

	return nil
}
