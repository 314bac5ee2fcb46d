package stats

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

var start = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC) // a Monday

// closedTrade builds an annotated closed trade with the given P/L, closing i
// hours after start.
func closedTrade(id string, i int, pl float64) models.Trade {
	outcome := models.Neutral
	switch {
	case pl > 0:
		outcome = models.Win
	case pl < 0:
		outcome = models.Loss
	}
	open := start.Add(time.Duration(i) * time.Hour)
	return models.Trade{
		ID:         id,
		Pair:       "EURUSD",
		Direction:  models.Buy,
		LotSize:    1,
		EntryPrice: 1.1,
		ClosePrice: 1.1,
		OpenTime:   open,
		CloseTime:  open.Add(30 * time.Minute),
		Auto: models.AutoCalculated{
			Status:         models.StatusClosed,
			PL:             pl,
			Outcome:        outcome,
			RMultiple:      pl / 100,
			Score:          80,
			HoldingMinutes: 30,
		},
	}
}

func plTrades(pls ...float64) []models.Trade {
	out := make([]models.Trade, len(pls))
	for i, pl := range pls {
		out[i] = closedTrade(string(rune('a'+i)), i, pl)
	}
	return out
}

func TestAggregateMixed(t *testing.T) {
	m := Aggregate(plTrades(100, -50, -30), 10000)

	if m.Trades != 3 || m.Wins != 1 || m.Losses != 2 {
		t.Errorf("counts = %d/%d/%d", m.Trades, m.Wins, m.Losses)
	}
	if m.WinRate != 33.33 {
		t.Errorf("WinRate = %v, want 33.33", m.WinRate)
	}
	if m.GrossProfit != 100 || m.GrossLoss != 80 {
		t.Errorf("gross = %v / %v, want 100 / 80", m.GrossProfit, m.GrossLoss)
	}
	if m.ProfitFactor != 1.25 {
		t.Errorf("ProfitFactor = %v, want 1.25", m.ProfitFactor)
	}
	if m.TotalPL != 20 {
		t.Errorf("TotalPL = %v, want 20", m.TotalPL)
	}
	if m.AvgWin != 100 || m.AvgLoss != 40 {
		t.Errorf("AvgWin = %v AvgLoss = %v", m.AvgWin, m.AvgLoss)
	}
	// 1/3*100 - 2/3*40
	if m.Expectancy != 6.67 {
		t.Errorf("Expectancy = %v, want 6.67", m.Expectancy)
	}
	if m.LargestWin != 100 || m.LargestLoss != -50 {
		t.Errorf("largest = %v / %v", m.LargestWin, m.LargestLoss)
	}
	if m.MaxWinStreak != 1 || m.MaxLossStreak != 2 {
		t.Errorf("streaks = %d / %d", m.MaxWinStreak, m.MaxLossStreak)
	}
	if m.ReturnPercent != 0.2 {
		t.Errorf("ReturnPercent = %v, want 0.2", m.ReturnPercent)
	}
	if m.AvgDurationMinutes != 30 || m.AvgScore != 80 {
		t.Errorf("averages = %v / %v", m.AvgDurationMinutes, m.AvgScore)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil, 10000); !reflect.DeepEqual(got, models.GroupMetrics{}) {
		t.Errorf("Aggregate(nil) = %+v, want zero", got)
	}
	if got := Aggregate([]models.Trade{}, 0); !reflect.DeepEqual(got, models.GroupMetrics{}) {
		t.Errorf("Aggregate([]) = %+v, want zero", got)
	}
}

func TestAggregateCountsOpenTradesOnly(t *testing.T) {
	open := closedTrade("o", 0, 0)
	open.ClosePrice = 0
	m := Aggregate([]models.Trade{open, closedTrade("c", 1, 50)}, 0)
	if m.Open != 1 || m.Trades != 1 || m.TotalPL != 50 {
		t.Errorf("got %+v", m)
	}
}

func TestProfitFactor(t *testing.T) {
	tests := []struct {
		profit, loss, want float64
	}{
		{100, 80, 1.25},
		{100, 0, ProfitFactorSentinel},
		{0, 0, 1},
		{0, 50, 0},
	}
	for _, tt := range tests {
		if got := ProfitFactor(tt.profit, tt.loss); got != tt.want {
			t.Errorf("ProfitFactor(%v, %v) = %v, want %v", tt.profit, tt.loss, got, tt.want)
		}
	}
}

func TestStreaksChronological(t *testing.T) {
	// Input out of order; Aggregate sorts by close time before scanning.
	trades := plTrades(10, 20, -5, 30, 40, 50, 0, -1, -2)
	shuffled := []models.Trade{trades[4], trades[0], trades[8], trades[2], trades[6], trades[1], trades[3], trades[7], trades[5]}

	m := Aggregate(shuffled, 0)
	if m.MaxWinStreak != 3 || m.MaxLossStreak != 2 {
		t.Errorf("streaks = %d / %d, want 3 / 2", m.MaxWinStreak, m.MaxLossStreak)
	}
	if m.BreakEven != 1 {
		t.Errorf("BreakEven = %d", m.BreakEven)
	}
}

func TestGroupByUnknownKeys(t *testing.T) {
	_, err := GroupBy(nil, Grouping{Key: "planet"}, models.AppSettings{})
	if !apperrors.Is(err, apperrors.ErrUnknownGroupKey) {
		t.Errorf("err = %v, want ErrUnknownGroupKey", err)
	}
	_, err = GroupBy(nil, Grouping{Key: ByCustomField, FieldID: "nope"}, models.AppSettings{})
	if !apperrors.Is(err, apperrors.ErrUnknownField) {
		t.Errorf("err = %v, want ErrUnknownField", err)
	}
	_, err = GroupBy(nil, Grouping{Key: ByCategory, Category: "nope"}, models.AppSettings{})
	if !apperrors.Is(err, apperrors.ErrUnknownCategory) {
		t.Errorf("err = %v, want ErrUnknownCategory", err)
	}
}

// Property: aggregates are finite and the profit factor is never infinite,
// whatever mix of wins, losses and break-evens goes in.
func TestProperty_AggregateFinite(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("metrics stay finite", prop.ForAll(
		func(pls []float64) bool {
			m := Aggregate(plTrades(pls...), 5000)
			for _, v := range []float64{m.WinRate, m.ProfitFactor, m.Expectancy, m.AvgPL, m.AvgR, m.AvgWin, m.AvgLoss, m.ReturnPercent} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return false
				}
			}
			return m.WinRate >= 0 && m.WinRate <= 100
		},
		gen.SliceOf(gen.OneGenOf(gen.Float64Range(-500, 500), gen.Const(0.0))),
	))

	properties.Property("wins + losses + break-even = trades", prop.ForAll(
		func(pls []float64) bool {
			m := Aggregate(plTrades(pls...), 0)
			return m.Wins+m.Losses+m.BreakEven == m.Trades && m.Trades == len(pls)
		},
		gen.SliceOf(gen.Float64Range(-500, 500)),
	))

	properties.TestingRun(t)
}
