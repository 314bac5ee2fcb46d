package stats

import (
	"testing"
	"time"

	"trade-journal/internal/models"
)

func groupSettings() models.AppSettings {
	return models.AppSettings{
		Plan: models.TradingPlan{AccountSize: 10000},
		Sessions: []models.Session{
			{Name: "Sydney", StartHour: 21, EndHour: 6},
			{Name: "Tokyo", StartHour: 0, EndHour: 9},
			{Name: "London", StartHour: 7, EndHour: 16},
			{Name: "New York", StartHour: 12, EndHour: 21},
		},
		Strategies: []models.Strategy{{ID: "brk", Name: "Breakout"}},
		CustomFields: []models.FieldDefinition{
			{ID: "tf", Name: "Timeframe", Control: models.ListControl{Options: []string{"M15", "H1", "H4"}, Multiple: true}},
			{ID: "conf", Name: "Confidence", Control: models.NumericControl{Min: 1, Max: 10}},
		},
		AnalysisCategories: []models.AnalysisCategory{{
			Name:    "Horizon",
			FieldID: "tf",
			SubCategories: []models.SubCategory{
				{Name: "Intraday", Options: []string{"M15", "H1"}},
				{Name: "Swing", Options: []string{"H4"}},
			},
		}},
	}
}

func keys(groups []models.GroupMetrics) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Key
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func tradeAt(id string, open time.Time, pl float64) models.Trade {
	t := closedTrade(id, 0, pl)
	t.OpenTime = open
	t.CloseTime = open.Add(time.Hour)
	return t
}

func TestGroupBySessionMultiValued(t *testing.T) {
	trades := []models.Trade{
		tradeAt("a", time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), 100),  // Tokyo + London
		tradeAt("b", time.Date(2024, 3, 4, 13, 0, 0, 0, time.UTC), -50), // London + New York
		tradeAt("c", time.Date(2024, 3, 4, 22, 0, 0, 0, time.UTC), 20),  // Sydney
	}
	groups, err := GroupBy(trades, Grouping{Key: BySession}, groupSettings())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Sydney", "Tokyo", "London", "New York"}
	if !equalStrings(keys(groups), want) {
		t.Fatalf("keys = %v, want %v", keys(groups), want)
	}
	london := groups[2]
	if london.Trades != 2 || london.TotalPL != 50 || london.WinRate != 50 {
		t.Errorf("London = %+v", london)
	}
}

func TestGroupByNaturalOrder(t *testing.T) {
	trades := []models.Trade{
		tradeAt("a", time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC), 10), // Sunday, week 2
		tradeAt("b", time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC), 10),   // Thursday, week 1
		tradeAt("c", time.Date(2024, 2, 26, 23, 0, 0, 0, time.UTC), 10), // Monday, week 4
	}
	tests := []struct {
		key  GroupKey
		want []string
	}{
		{ByHour, []string{"09:00", "15:00", "23:00"}},
		{ByWeekday, []string{"Monday", "Thursday", "Sunday"}},
		{ByWeekOfMonth, []string{"Week 1", "Week 2", "Week 4"}},
		{ByDayOfMonth, []string{"4", "10", "26"}},
		{ByMonth, []string{"January", "February", "March"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			groups, err := GroupBy(trades, Grouping{Key: tt.key}, groupSettings())
			if err != nil {
				t.Fatal(err)
			}
			if !equalStrings(keys(groups), tt.want) {
				t.Errorf("keys = %v, want %v", keys(groups), tt.want)
			}
		})
	}
}

func TestGroupByTimezone(t *testing.T) {
	settings := groupSettings()
	settings.Location = time.FixedZone("UTC+3", 3*3600)
	trades := []models.Trade{tradeAt("a", time.Date(2024, 3, 4, 22, 30, 0, 0, time.UTC), 10)}

	groups, err := GroupBy(trades, Grouping{Key: ByHour}, settings)
	if err != nil {
		t.Fatal(err)
	}
	if groups[0].Key != "01:00" {
		t.Errorf("hour = %s, want 01:00", groups[0].Key)
	}
}

func TestGroupByStrategyTagsAndBuckets(t *testing.T) {
	a := closedTrade("a", 0, 100)
	a.StrategyID = "brk"
	a.Tags = []string{"news", "trend", "news"}
	a.LotSize = 0.05
	a.Auto.HoldingMinutes = 10

	b := closedTrade("b", 1, -40)
	b.LotSize = 2
	b.Auto.HoldingMinutes = 300

	trades := []models.Trade{a, b}
	tests := []struct {
		key  GroupKey
		want []string
	}{
		{ByStrategy, []string{"Breakout", NoStrategy}},
		{ByTag, []string{"news", "trend", Untagged}},
		{ByLotSize, []string{"< 0.1", "1 - 5"}},
		{ByDuration, []string{"< 15m", "4h - 1d"}},
		{ByDirection, []string{"Buy"}},
		{ByOutcome, []string{"Win", "Loss"}},
		{ByPair, []string{"EURUSD"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			groups, err := GroupBy(trades, Grouping{Key: tt.key}, groupSettings())
			if err != nil {
				t.Fatal(err)
			}
			if !equalStrings(keys(groups), tt.want) {
				t.Errorf("keys = %v, want %v", keys(groups), tt.want)
			}
		})
	}

	groups, _ := GroupBy(trades, Grouping{Key: ByTag}, groupSettings())
	if groups[0].Trades != 1 {
		t.Errorf("duplicate tag counted twice: %+v", groups[0])
	}
}

func TestGroupByCustomFieldAndCategory(t *testing.T) {
	a := closedTrade("a", 0, 100)
	a.CustomFields = map[string]models.FieldValue{"tf": {Options: []string{"H4", "M15"}}, "conf": {Number: 7}}
	b := closedTrade("b", 1, -50)
	b.CustomFields = map[string]models.FieldValue{"tf": {Options: []string{"H1"}}}
	c := closedTrade("c", 2, 30)

	trades := []models.Trade{a, b, c}
	settings := groupSettings()

	groups, err := GroupBy(trades, Grouping{Key: ByCustomField, FieldID: "tf"}, settings)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"M15", "H1", "H4", NoValue}; !equalStrings(keys(groups), want) {
		t.Errorf("tf keys = %v, want %v", keys(groups), want)
	}

	groups, err = GroupBy(trades, Grouping{Key: ByCustomField, FieldID: "conf"}, settings)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"7", NoValue}; !equalStrings(keys(groups), want) {
		t.Errorf("conf keys = %v, want %v", keys(groups), want)
	}

	groups, err = GroupBy(trades, Grouping{Key: ByCategory, Category: "horizon"}, settings)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Intraday", "Swing"}; !equalStrings(keys(groups), want) {
		t.Fatalf("category keys = %v, want %v", keys(groups), want)
	}
	if groups[0].Trades != 2 || groups[0].TotalPL != 50 {
		t.Errorf("Intraday = %+v", groups[0])
	}
	if groups[1].Trades != 1 || groups[1].TotalPL != 100 {
		t.Errorf("Swing = %+v", groups[1])
	}
}

func TestBucketBoundaries(t *testing.T) {
	if l, _ := DurationBucket(15); l != "15m - 1h" {
		t.Errorf("15m -> %s", l)
	}
	if l, _ := DurationBucket(7 * 24 * 60); l != "> 1w" {
		t.Errorf("1w -> %s", l)
	}
	if l, _ := LotBucket(0.1); l != "0.1 - 0.5" {
		t.Errorf("0.1 -> %s", l)
	}
	if l, _ := LotBucket(5); l != ">= 5" {
		t.Errorf("5 -> %s", l)
	}
	for day, want := range map[int]int{1: 1, 7: 1, 8: 2, 28: 4, 29: 5, 31: 5} {
		if got := WeekOfMonth(day); got != want {
			t.Errorf("WeekOfMonth(%d) = %d, want %d", day, got, want)
		}
	}
}
