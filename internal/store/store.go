// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"trade-journal/internal/models"
)

// DataStore defines the interface for journal persistence. Trades are
// stored with their cached Auto fields; the cache is always recomputable.
type DataStore interface {
	// Trades
	SaveTrade(ctx context.Context, trade *models.Trade) error
	SaveTrades(ctx context.Context, trades []models.Trade) error
	GetTrade(ctx context.Context, id string) (*models.Trade, error)
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	ListJournals(ctx context.Context) ([]string, error)

	// Trash
	DeleteTrade(ctx context.Context, id string, at time.Time) error
	RestoreTrade(ctx context.Context, id string) error
	GetTrash(ctx context.Context, journal string) ([]TrashedTrade, error)
	PurgeTrash(ctx context.Context, before time.Time) (int64, error)

	// Metadata
	GetMeta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}

// TradeFilter represents filters for querying trades. Zero values match
// everything.
type TradeFilter struct {
	Journal    string
	Pair       string
	Direction  models.Direction
	Status     models.Status
	StrategyID string
	StartDate  time.Time // on open time, inclusive
	EndDate    time.Time // on open time, inclusive
	Limit      int
}

// TrashedTrade is a soft-deleted trade awaiting restore or purge.
type TrashedTrade struct {
	Trade     models.Trade `json:"trade"`
	DeletedAt time.Time    `json:"deleted_at"`
}

// Metadata keys.
const (
	MetaSettingsFingerprint = "settings_fingerprint"
	MetaLastRecompute       = "last_recompute"
)
