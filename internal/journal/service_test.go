package journal

import (
	"bytes"
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"trade-journal/internal/analysis/stats"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func testSettings() models.AppSettings {
	quality, _ := models.NewFieldControl(models.FieldButton, []string{"A", "B"}, false, 0, 0)
	return models.AppSettings{
		Pairs: map[string]models.PairConfig{
			"EURUSD":         {PipSize: 0.0001, PipValue: 10},
			"USDJPY":         {PipSize: 0.01, PipValue: 6.5},
			models.OtherPair: {PipSize: 0.0001, PipValue: 10},
		},
		Plan: models.TradingPlan{AccountSize: 10000, MaxRiskPercent: 5, MinRiskReward: 1, DailyLossLimit: 100},
		Keywords: models.NewKeywordEffects(map[string]models.Impact{
			"fomo": models.ImpactMostNegative,
		}),
		Weights: models.ScoringWeights{RiskTolerance: 0.1, RiskExceeded: 20, BelowMinRR: 15, StopNotHonored: 25,
			ProfitLeft: 10, NegativeTag: 5, MostNegativeTag: 10, MissingRules: 10},
		Strategies: []models.Strategy{{
			ID:    "breakout",
			Name:  "Breakout",
			Rules: []string{"Wait for close", "Volume confirms"},
			Setups: []models.Setup{{
				Name:       "A breakout",
				Conditions: map[string][]string{"quality": {"A"}},
			}},
		}},
		CustomFields:       []models.FieldDefinition{{ID: "quality", Name: "Quality", Control: quality}},
		TrashRetentionDays: 30,
	}
}

func newTestService(t *testing.T) (*Service, *clock) {
	t.Helper()
	ds, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	c := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(ds, testSettings(), Options{Workers: 2, BatchSize: 10, Now: c.Now})
	t.Cleanup(func() {
		svc.Close()
		ds.Close()
	})
	return svc, c
}

func winningTrade(open time.Time) models.Trade {
	return models.Trade{
		Pair:       "eur/usd",
		Direction:  models.Buy,
		LotSize:    1,
		EntryPrice: 1.1000,
		ClosePrice: 1.1050,
		StopLoss:   1.0950,
		TakeProfit: 1.1050,
		OpenTime:   open,
		CloseTime:  open.Add(90 * time.Minute),
	}
}

func TestAddTradeComputesAndStores(t *testing.T) {
	svc, c := newTestService(t)
	ctx := context.Background()

	tr := winningTrade(time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC))
	tr.StrategyID = "breakout"
	tr.RulesFollowed = []string{"Wait for close"}
	tr.CustomFields = map[string]models.FieldValue{"quality": {Options: []string{"A"}}}

	saved, err := svc.AddTrade(ctx, tr)
	if err != nil {
		t.Fatalf("AddTrade: %v", err)
	}
	if saved.ID == "" || saved.Journal != "main" || saved.Pair != "EURUSD" {
		t.Errorf("saved = %+v", saved)
	}
	if !saved.CreatedAt.Equal(c.now) {
		t.Errorf("CreatedAt = %v", saved.CreatedAt)
	}

	got, err := svc.Trade(ctx, saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	a := got.Auto
	if a.Pips != 50 || a.PL != 500 || a.RMultiple != 1 || a.Result != models.ResultTP || a.Outcome != models.Win {
		t.Errorf("auto = %+v", a)
	}
	if a.Score != 100 || a.Remark != "Excellent discipline!" {
		t.Errorf("score = %d %q", a.Score, a.Remark)
	}
	if len(a.MatchedSetups) != 1 || a.MatchedSetups[0] != "A breakout" {
		t.Errorf("setups = %v", a.MatchedSetups)
	}
	if a.HoldingTime != "1h 30m" {
		t.Errorf("holding = %q", a.HoldingTime)
	}
}

func TestValidateTrade(t *testing.T) {
	settings := testSettings()
	open := time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*models.Trade)
		target error
	}{
		{"nan entry", func(tr *models.Trade) { tr.EntryPrice = math.NaN() }, apperrors.ErrInputValidation},
		{"zero lot", func(tr *models.Trade) { tr.LotSize = 0 }, apperrors.ErrInputValidation},
		{"bad direction", func(tr *models.Trade) { tr.Direction = "Up" }, apperrors.ErrInputValidation},
		{"close before open", func(tr *models.Trade) { tr.CloseTime = open.Add(-time.Hour) }, apperrors.ErrInputValidation},
		{"closed without time", func(tr *models.Trade) { tr.CloseTime = time.Time{} }, apperrors.ErrInputValidation},
		{"unknown strategy", func(tr *models.Trade) { tr.StrategyID = "scalp" }, apperrors.ErrInputValidation},
		{"foreign rule", func(tr *models.Trade) {
			tr.StrategyID = "breakout"
			tr.RulesFollowed = []string{"Pray"}
		}, apperrors.ErrInputValidation},
		{"unknown field", func(tr *models.Trade) {
			tr.CustomFields = map[string]models.FieldValue{"mood": {Number: 3}}
		}, apperrors.ErrUnknownField},
		{"bad option", func(tr *models.Trade) {
			tr.CustomFields = map[string]models.FieldValue{"quality": {Options: []string{"Z"}}}
		}, apperrors.ErrInputValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := winningTrade(open)
			tt.mutate(&tr)
			err := ValidateTrade(tr, settings)
			if !errors.Is(err, apperrors.ErrInvalidTrade) {
				t.Fatalf("err = %v, want ErrInvalidTrade", err)
			}
			if !errors.Is(err, tt.target) {
				t.Errorf("err = %v, want %v", err, tt.target)
			}
		})
	}

	if err := ValidateTrade(winningTrade(open), settings); err != nil {
		t.Errorf("valid trade rejected: %v", err)
	}
	openTrade := winningTrade(open)
	openTrade.ClosePrice, openTrade.CloseTime = 0, time.Time{}
	if err := ValidateTrade(openTrade, settings); err != nil {
		t.Errorf("open trade rejected: %v", err)
	}
}

func TestCloseTrade(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	open := time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)

	tr := winningTrade(open)
	tr.ClosePrice, tr.CloseTime = 0, time.Time{}
	saved, err := svc.AddTrade(ctx, tr)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Auto.Status != models.StatusOpen || saved.Auto.Result != models.ResultRunning {
		t.Errorf("open auto = %+v", saved.Auto)
	}

	closed, err := svc.CloseTrade(ctx, saved.ID, 1.0950, open.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if closed.Auto.PL != -500 || closed.Auto.Result != models.ResultSL || closed.Auto.Outcome != models.Loss {
		t.Errorf("closed auto = %+v", closed.Auto)
	}
	if !closed.CreatedAt.Equal(saved.CreatedAt) {
		t.Error("CreatedAt changed on close")
	}

	if _, err := svc.CloseTrade(ctx, saved.ID, 1.1, time.Time{}); !errors.Is(err, apperrors.ErrInvalidTrade) {
		t.Errorf("second close = %v", err)
	}
	if _, err := svc.CloseTrade(ctx, "missing", 1.1, time.Time{}); !errors.Is(err, apperrors.ErrTradeNotFound) {
		t.Errorf("close missing = %v", err)
	}
}

func TestTrashAndPurge(t *testing.T) {
	svc, c := newTestService(t)
	ctx := context.Background()

	saved, err := svc.AddTrade(ctx, winningTrade(time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteTrade(ctx, saved.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Trade(ctx, saved.ID); !errors.Is(err, apperrors.ErrTradeDeleted) {
		t.Errorf("get deleted = %v", err)
	}
	if _, err := svc.UpdateTrade(ctx, *saved); !errors.Is(err, apperrors.ErrTradeDeleted) {
		t.Errorf("update deleted = %v", err)
	}

	trash, err := svc.Trash(ctx, "")
	if err != nil || len(trash) != 1 {
		t.Fatalf("trash = %v, %v", trash, err)
	}

	restored, err := svc.RestoreTrade(ctx, saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Auto.PL != 500 {
		t.Errorf("restored auto = %+v", restored.Auto)
	}

	if err := svc.DeleteTrade(ctx, saved.ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := svc.PurgeExpired(ctx); n != 0 {
		t.Errorf("purged %d inside retention", n)
	}
	c.now = c.now.AddDate(0, 0, 31)
	if n, err := svc.PurgeExpired(ctx); err != nil || n != 1 {
		t.Errorf("purged %d, %v; want 1", n, err)
	}
	if _, err := svc.Trade(ctx, saved.ID); !errors.Is(err, apperrors.ErrTradeNotFound) {
		t.Errorf("after purge = %v", err)
	}
}

func TestTrashEventsCarryTradeID(t *testing.T) {
	ds, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	svc := NewService(ds, testSettings(), Options{Workers: 1, Logger: zerolog.New(&buf)})
	t.Cleanup(func() {
		svc.Close()
		ds.Close()
	})
	ctx := context.Background()

	saved, err := svc.AddTrade(ctx, winningTrade(time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteTrade(ctx, saved.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RestoreTrade(ctx, saved.ID); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, msg := range []string{"Trade moved to trash", "Trade restored"} {
		if !strings.Contains(out, msg) {
			t.Errorf("log missing %q:\n%s", msg, out)
		}
	}
	if !strings.Contains(out, `"trade_id":"`+saved.ID+`"`) {
		t.Errorf("log missing trade_id:\n%s", out)
	}
}

func TestUpdateSettingsRecomputes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		if _, err := svc.AddTrade(ctx, winningTrade(base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}

	ran, err := svc.SyncSettings(ctx)
	if err != nil || !ran {
		t.Fatalf("first sync = %v, %v", ran, err)
	}
	ran, err = svc.SyncSettings(ctx)
	if err != nil || ran {
		t.Fatalf("second sync = %v, %v", ran, err)
	}

	settings := testSettings()
	settings.Pairs["EURUSD"] = models.PairConfig{PipSize: 0.0001, PipValue: 5}
	n, err := svc.UpdateSettings(ctx, settings)
	if err != nil {
		t.Fatal(err)
	}
	if n != 25 {
		t.Errorf("recomputed %d, want 25", n)
	}

	trades, err := svc.Trades(ctx, store.TradeFilter{})
	if err != nil {
		t.Fatal(err)
	}
	for _, tr := range trades {
		if tr.Auto.PL != 250 {
			t.Fatalf("trade %s PL = %v after settings change", tr.ID, tr.Auto.PL)
		}
	}
	if ran, _ := svc.SyncSettings(ctx); ran {
		t.Error("sync ran again after UpdateSettings")
	}
}

func TestReportsAndLimits(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	day := time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)

	win := winningTrade(day)
	loss := winningTrade(day.Add(3 * time.Hour))
	loss.ClosePrice = 1.0950
	jpy := models.Trade{
		Pair: "USDJPY", Direction: models.Sell, LotSize: 1, EntryPrice: 150.00, ClosePrice: 149.60,
		OpenTime: day.Add(24 * time.Hour), CloseTime: day.Add(26 * time.Hour),
	}
	for _, tr := range []models.Trade{win, loss, jpy} {
		if _, err := svc.AddTrade(ctx, tr); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := svc.Summary(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if summary.Overall.Trades != 3 || summary.Overall.Wins != 2 || summary.Overall.TotalPL != 260 {
		t.Errorf("overall = %+v", summary.Overall)
	}
	if len(summary.Daily) != 2 {
		t.Errorf("daily = %+v", summary.Daily)
	}

	groups, err := svc.Groups(ctx, "", stats.Grouping{Key: stats.ByPair})
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %+v", groups)
	}
	if _, err := svc.Groups(ctx, "", stats.Grouping{Key: "planet"}); !errors.Is(err, apperrors.ErrUnknownGroupKey) {
		t.Errorf("unknown key = %v", err)
	}

	state, err := svc.Progress(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if !state.HasAchievement("First Steps") || state.UserEntry.Trades != 3 {
		t.Errorf("progress = %+v", state)
	}

	// Day one nets 0 so far; a further 150 loss breaches the 100 limit.
	extra := winningTrade(day.Add(5 * time.Hour))
	extra.ClosePrice = 1.0985
	if _, err := svc.AddTrade(ctx, extra); err != nil {
		t.Fatal(err)
	}
	err = svc.CheckLimits(ctx, "")
	var le *apperrors.LimitError
	if !errors.As(err, &le) {
		t.Fatalf("CheckLimits = %v", err)
	}
	if le.Rule != stats.RuleDailyLossLimit || le.Period != "2024-04-02" || le.Current != 150 {
		t.Errorf("limit error = %+v", le)
	}
}
