package stats

import (
	"fmt"
	"sort"
	"time"

	"trade-journal/internal/analysis"
	"trade-journal/internal/models"
)

// DayLayout keys daily series.
const DayLayout = "2006-01-02"

// Loss limit rule names.
const (
	RuleDailyLossLimit  = "daily_loss_limit"
	RuleWeeklyLossLimit = "weekly_loss_limit"
)

// PeriodPL is the realized P/L of one calendar period.
type PeriodPL struct {
	Period     string  `json:"period"`
	Trades     int     `json:"trades"`
	PL         float64 `json:"pl"`
	Cumulative float64 `json:"cumulative"`
}

// LimitBreach is a period whose losses exceeded a plan limit.
type LimitBreach struct {
	Rule   string  `json:"rule"`
	Period string  `json:"period"`
	Lost   float64 `json:"lost"`
	Limit  float64 `json:"limit"`
}

// Summary is the overall view of a trade list.
type Summary struct {
	Overall     models.GroupMetrics `json:"overall"`
	Daily       []PeriodPL          `json:"daily"`
	Weekly      []PeriodPL          `json:"weekly"`
	MaxDrawdown float64             `json:"max_drawdown"`
	Breaches    []LimitBreach       `json:"breaches,omitempty"`
}

// Summarize aggregates trades overall, per day and per ISO week, and checks
// the plan's loss limits. Periods use close times in the settings timezone.
func Summarize(trades []models.Trade, settings models.AppSettings) Summary {
	loc := settings.Loc()
	daily := PeriodSeries(trades, func(t time.Time) string { return t.In(loc).Format(DayLayout) })
	weekly := PeriodSeries(trades, func(t time.Time) string { return WeekKey(t.In(loc)) })

	s := Summary{
		Overall:     Aggregate(trades, settings.Plan.AccountSize),
		Daily:       daily,
		Weekly:      weekly,
		MaxDrawdown: MaxDrawdown(daily),
	}
	s.Breaches = append(s.Breaches, LossLimitBreaches(daily, RuleDailyLossLimit, settings.Plan.DailyLossLimit)...)
	s.Breaches = append(s.Breaches, LossLimitBreaches(weekly, RuleWeeklyLossLimit, settings.Plan.WeeklyLossLimit)...)
	return s
}

// PeriodSeries sums closed-trade P/L per period key, ordered by key, with a
// running cumulative total.
func PeriodSeries(trades []models.Trade, key func(time.Time) string) []PeriodPL {
	byKey := make(map[string]*PeriodPL)
	for _, t := range models.ClosedTrades(trades) {
		k := key(t.CloseTime)
		p, ok := byKey[k]
		if !ok {
			p = &PeriodPL{Period: k}
			byKey[k] = p
		}
		p.Trades++
		p.PL += t.Auto.PL
	}

	out := make([]PeriodPL, 0, len(byKey))
	for _, p := range byKey {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })

	var running float64
	for i := range out {
		running += out[i].PL
		out[i].PL = analysis.RoundMoney(out[i].PL)
		out[i].Cumulative = analysis.RoundMoney(running)
	}
	return out
}

// WeekKey formats the ISO week of t, e.g. "2024-W09".
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MaxDrawdown is the largest fall of the cumulative P/L from its running
// peak, as a positive amount. The peak starts at zero.
func MaxDrawdown(series []PeriodPL) float64 {
	var peak, maxDD float64
	for _, p := range series {
		if p.Cumulative > peak {
			peak = p.Cumulative
		}
		if dd := peak - p.Cumulative; dd > maxDD {
			maxDD = dd
		}
	}
	return analysis.RoundMoney(maxDD)
}

// LossLimitBreaches returns the periods whose net loss exceeds limit. A
// limit <= 0 disables the check.
func LossLimitBreaches(series []PeriodPL, rule string, limit float64) []LimitBreach {
	if limit <= 0 {
		return nil
	}
	var out []LimitBreach
	for _, p := range series {
		if -p.PL > limit {
			out = append(out, LimitBreach{Rule: rule, Period: p.Period, Lost: -p.PL, Limit: limit})
		}
	}
	return out
}
