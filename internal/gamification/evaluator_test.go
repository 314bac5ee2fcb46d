package gamification

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"trade-journal/internal/models"
)

func scoredTrade(i int, pl float64, score int) models.Trade {
	open := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour)
	outcome := models.Neutral
	switch {
	case pl > 0:
		outcome = models.Win
	case pl < 0:
		outcome = models.Loss
	}
	return models.Trade{
		ID:         fmt.Sprintf("t%d", i),
		Pair:       "EURUSD",
		EntryPrice: 1.1,
		ClosePrice: 1.1,
		OpenTime:   open,
		CloseTime:  open.Add(30 * time.Minute),
		Auto:       models.AutoCalculated{PL: pl, Outcome: outcome, Score: score},
	}
}

func journalOf(trades ...models.Trade) models.Journal {
	return models.Journal{Name: "main", Trades: trades}
}

func TestEvaluateEmptyJournal(t *testing.T) {
	state := Evaluate(journalOf(), models.AppSettings{})

	if state.CurrentLevel.Name != "Novice" {
		t.Errorf("CurrentLevel = %+v", state.CurrentLevel)
	}
	if state.NextLevel == nil || state.NextLevel.Name != "Apprentice" {
		t.Errorf("NextLevel = %+v", state.NextLevel)
	}
	if state.XP != 0 || len(state.UnlockedAchievements) != 0 || len(state.UnlockedBadges) != 0 {
		t.Errorf("state = %+v", state)
	}
	if len(state.Leaderboard) != len(BotNames)+1 {
		t.Fatalf("leaderboard has %d entries", len(state.Leaderboard))
	}
	if !state.UserEntry.IsUser || state.UserEntry.Rank == 0 {
		t.Errorf("UserEntry = %+v", state.UserEntry)
	}
}

func TestEvaluatePerfectRun(t *testing.T) {
	var trades []models.Trade
	for i := 0; i < 12; i++ {
		tr := scoredTrade(i, 100, 100)
		tr.Notes = "followed plan"
		tr.StopLoss = 1.09
		trades = append(trades, tr)
	}
	state := Evaluate(journalOf(trades...), models.AppSettings{})

	if state.CurrentLevel.Name != "Apprentice" {
		t.Errorf("CurrentLevel = %s, want Apprentice", state.CurrentLevel.Name)
	}
	if state.XP != 12*(XPPerTrade+10+XPWinBonus) {
		t.Errorf("XP = %d", state.XP)
	}
	for _, name := range []string{"First Steps", "Hot Hand", "Zen Master", "Green Month"} {
		if !state.HasAchievement(name) {
			t.Errorf("%s not unlocked: %v / %v", name, state.UnlockedAchievements, state.UnlockedBadges)
		}
	}
	for _, name := range []string{"Seasoned", "Journaler", "Protected", "Consistent Quarter"} {
		if state.HasAchievement(name) {
			t.Errorf("%s unlocked too early", name)
		}
	}
	if p := state.Progress["Journaler"]; p.Value != 12 || p.Target != 20 {
		t.Errorf("Journaler progress = %+v", p)
	}
	if p := state.Progress[ProgressNextLevelTrades]; p.Value != 12 || p.Target != 25 {
		t.Errorf("next level progress = %+v", p)
	}
}

func TestLevelNeedsBothThresholds(t *testing.T) {
	levels := DefaultLevels()
	if got := levels[LevelIndex(levels, 30, 55)].Name; got != "Apprentice" {
		t.Errorf("30 trades avg 55 -> %s, want Apprentice", got)
	}
	if got := levels[LevelIndex(levels, 5, 99)].Name; got != "Novice" {
		t.Errorf("5 trades avg 99 -> %s, want Novice", got)
	}
	if got := LevelIndex(nil, 100, 100); got != -1 {
		t.Errorf("empty ladder -> %d", got)
	}
}

func TestSessionsCoveredAndBadges(t *testing.T) {
	settings := models.AppSettings{
		Sessions: []models.Session{
			{Name: "Asia", StartHour: 0, EndHour: 8},
			{Name: "Europe", StartHour: 8, EndHour: 16},
			{Name: "US", StartHour: 16, EndHour: 24},
		},
	}
	month := func(m time.Month, hour int, pl float64) models.Trade {
		tr := scoredTrade(0, pl, 80)
		tr.ID = m.String()
		tr.OpenTime = time.Date(2024, m, 10, hour, 0, 0, 0, time.UTC)
		tr.CloseTime = tr.OpenTime.Add(time.Hour)
		tr.RulesFollowed = []string{"waited for close"}
		return tr
	}
	trades := []models.Trade{
		month(time.January, 3, 50),
		month(time.February, 10, 20),
		month(time.March, 18, 10),
	}
	state := Evaluate(journalOf(trades...), settings)
	if !state.HasAchievement("Globetrotter") {
		t.Errorf("Globetrotter locked, progress %+v", state.Progress["Globetrotter"])
	}
	if !state.HasAchievement("Consistent Quarter") {
		t.Errorf("Consistent Quarter locked, progress %+v", state.Progress["Consistent Quarter"])
	}
	if p := state.Progress["Rule Keeper"]; p.Value != 3 {
		t.Errorf("Rule Keeper progress = %+v", p)
	}
}

func TestProfitableMonthRunBreaksOnGap(t *testing.T) {
	mk := func(m time.Month, pl float64) models.Trade {
		tr := scoredTrade(0, pl, 80)
		tr.ID = m.String()
		tr.CloseTime = time.Date(2024, m, 15, 12, 0, 0, 0, time.UTC)
		return tr
	}
	closed := []models.Trade{mk(time.January, 10), mk(time.February, 10), mk(time.April, 10), mk(time.May, -5), mk(time.June, 1)}
	if got := profitableMonthRun(closed, models.AppSettings{}); got != 2 {
		t.Errorf("run = %d, want 2", got)
	}
}

func TestLeaderboardDeterministic(t *testing.T) {
	levels := DefaultLevels()
	user := models.LeaderboardEntry{Name: UserName, Trades: 40, XP: 900, IsUser: true}

	a := Leaderboard(user, levels, 2)
	b := Leaderboard(user, levels, 2)
	if !reflect.DeepEqual(a, b) {
		t.Error("leaderboard differs between calls")
	}
	for i, e := range a {
		if e.Rank != i+1 {
			t.Errorf("entry %d has rank %d", i, e.Rank)
		}
		if i > 0 && a[i-1].XP < e.XP {
			t.Errorf("not sorted by XP at %d", i)
		}
	}

	bot := Bot("Echo", levels, 2, 40)
	if bot.Trades < 20 || bot.Trades > 70 {
		t.Errorf("bot trades %d outside expected range", bot.Trades)
	}
	found := false
	for _, l := range levels[1:4] {
		if l.Name == bot.Level {
			found = true
		}
	}
	if !found {
		t.Errorf("bot level %s not within one rung of Disciplined", bot.Level)
	}
}

// Property: evaluation is a pure function of the journal and settings.
func TestProperty_EvaluateIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	properties.Property("same input, same state", prop.ForAll(
		func(scores []int) bool {
			trades := make([]models.Trade, len(scores))
			for i, s := range scores {
				trades[i] = scoredTrade(i, float64(s-50), s)
			}
			j := journalOf(trades...)
			first := Evaluate(j, models.AppSettings{})
			second := Evaluate(j, models.AppSettings{})
			return reflect.DeepEqual(first, second) && first.XP >= 0
		},
		gen.SliceOf(gen.IntRange(0, 100)),
	))
	properties.TestingRun(t)
}
