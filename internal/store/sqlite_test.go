package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTrade(id, journal, pair string, open time.Time, closed bool) models.Trade {
	t := models.Trade{
		ID:         id,
		Journal:    journal,
		Pair:       pair,
		Direction:  models.Buy,
		LotSize:    1,
		EntryPrice: 1.1,
		StopLoss:   1.095,
		OpenTime:   open,
		Tags:       []string{"breakout"},
		CustomFields: map[string]models.FieldValue{
			"quality": {Options: []string{"A"}},
			"day":     {Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	if closed {
		t.ClosePrice = 1.105
		t.CloseTime = open.Add(2 * time.Hour)
		t.Auto = models.AutoCalculated{Status: models.StatusClosed, PL: 500, Score: 90, Outcome: models.Win}
	}
	return t
}

func TestSaveAndGetTrade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	open := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

	tr := sampleTrade("a", "main", "EURUSD", open, true)
	if err := s.SaveTrade(ctx, &tr); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTrade(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if !got.OpenTime.Equal(open) || got.Auto.PL != 500 || got.CustomFields["quality"].Options[0] != "A" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.CustomFields["day"].Date.Equal(tr.CustomFields["day"].Date) {
		t.Errorf("date field = %v", got.CustomFields["day"].Date)
	}

	// Saving again replaces the row.
	tr.Notes = "updated"
	if err := s.SaveTrade(ctx, &tr); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetTrade(ctx, "a")
	if got.Notes != "updated" {
		t.Errorf("Notes = %q", got.Notes)
	}

	_, err = s.GetTrade(ctx, "missing")
	if !errors.Is(err, apperrors.ErrTradeNotFound) {
		t.Errorf("missing trade error = %v", err)
	}
}

func TestGetTradesFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	trades := []models.Trade{
		sampleTrade("t1", "main", "EURUSD", base, true),
		sampleTrade("t2", "main", "gbp/usd", base.Add(24*time.Hour), true),
		sampleTrade("t3", "main", "EURUSD", base.Add(48*time.Hour), false),
		sampleTrade("t4", "swing", "EURUSD", base.Add(time.Hour), true),
	}
	trades[1].Direction = models.Sell
	trades[3].StrategyID = "breakout"
	if err := s.SaveTrades(ctx, trades); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter TradeFilter
		want   []string
	}{
		{"all", TradeFilter{}, []string{"t1", "t4", "t2", "t3"}},
		{"journal", TradeFilter{Journal: "main"}, []string{"t1", "t2", "t3"}},
		{"pair normalized", TradeFilter{Pair: "GBPUSD"}, []string{"t2"}},
		{"direction", TradeFilter{Direction: models.Sell}, []string{"t2"}},
		{"open", TradeFilter{Status: models.StatusOpen}, []string{"t3"}},
		{"strategy", TradeFilter{StrategyID: "breakout"}, []string{"t4"}},
		{"date range", TradeFilter{StartDate: base.Add(time.Hour), EndDate: base.Add(24 * time.Hour)}, []string{"t4", "t2"}},
		{"limit", TradeFilter{Journal: "main", Limit: 2}, []string{"t1", "t2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetTrades(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d trades, want %v", len(got), tt.want)
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("position %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}

	journals, err := s.ListJournals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(journals) != 2 || journals[0] != "main" || journals[1] != "swing" {
		t.Errorf("journals = %v", journals)
	}
}

func TestTrashLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	a := sampleTrade("a", "main", "EURUSD", base, true)
	b := sampleTrade("b", "main", "EURUSD", base.Add(time.Hour), true)
	if err := s.SaveTrades(ctx, []models.Trade{a, b}); err != nil {
		t.Fatal(err)
	}

	deletedAt := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	if err := s.DeleteTrade(ctx, "a", deletedAt); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTrade(ctx, "a", deletedAt); !errors.Is(err, apperrors.ErrTradeDeleted) {
		t.Errorf("second delete = %v", err)
	}
	if _, err := s.GetTrade(ctx, "a"); !errors.Is(err, apperrors.ErrTradeDeleted) {
		t.Errorf("get deleted = %v", err)
	}

	live, _ := s.GetTrades(ctx, TradeFilter{Journal: "main"})
	if len(live) != 1 || live[0].ID != "b" {
		t.Errorf("live trades = %v", live)
	}

	trash, err := s.GetTrash(ctx, "main")
	if err != nil {
		t.Fatal(err)
	}
	if len(trash) != 1 || trash[0].Trade.ID != "a" || !trash[0].DeletedAt.Equal(deletedAt) {
		t.Fatalf("trash = %+v", trash)
	}

	if err := s.RestoreTrade(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.RestoreTrade(ctx, "a"); !errors.Is(err, apperrors.ErrTradeNotFound) {
		t.Errorf("restore live trade = %v", err)
	}
	if err := s.DeleteTrade(ctx, "nope", deletedAt); !errors.Is(err, apperrors.ErrTradeNotFound) {
		t.Errorf("delete missing = %v", err)
	}

	// Purge only removes trades deleted before the cutoff.
	_ = s.DeleteTrade(ctx, "a", deletedAt)
	_ = s.DeleteTrade(ctx, "b", deletedAt.Add(48*time.Hour))
	n, err := s.PurgeTrash(ctx, deletedAt.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
	trash, _ = s.GetTrash(ctx, "")
	if len(trash) != 1 || trash[0].Trade.ID != "b" {
		t.Errorf("trash after purge = %+v", trash)
	}
}

func TestMeta(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.GetMeta(ctx, MetaSettingsFingerprint)
	if err != nil || v != "" {
		t.Fatalf("unset meta = %q, %v", v, err)
	}
	if err := s.SetMeta(ctx, MetaSettingsFingerprint, "abc"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMeta(ctx, MetaSettingsFingerprint, "def"); err != nil {
		t.Fatal(err)
	}

	// A fresh handle reads from disk rather than the cache.
	s.mu.Lock()
	s.meta = map[string]string{}
	s.mu.Unlock()
	if v, _ := s.GetMeta(ctx, MetaSettingsFingerprint); v != "def" {
		t.Errorf("meta = %q", v)
	}
}
