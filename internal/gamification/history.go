package gamification

import (
	"strings"
	"time"

	"trade-journal/internal/analysis/stats"
	"trade-journal/internal/models"
)

// historyMetrics computes every achievement metric from the full trade list.
func historyMetrics(trades []models.Trade, settings models.AppSettings) map[models.AchievementMetric]float64 {
	closed := stats.Chronological(models.ClosedTrades(trades))
	winStreak, _ := stats.Streaks(closed)

	pairs := make(map[string]bool)
	sessions := make(map[string]bool)
	var withStop, journaled, ruleChecked int
	loc := settings.Loc()
	for _, t := range trades {
		pairs[models.NormalizePair(t.Pair)] = true
		hour := t.OpenTime.In(loc).Hour()
		for _, s := range settings.Sessions {
			if s.Contains(hour) {
				sessions[s.Name] = true
			}
		}
		if t.HasStopLoss() {
			withStop++
		}
		if strings.TrimSpace(t.Notes) != "" {
			journaled++
		}
		if len(t.RulesFollowed) > 0 {
			ruleChecked++
		}
	}

	return map[models.AchievementMetric]float64{
		models.MetricClosedTrades:      float64(len(closed)),
		models.MetricWinStreak:         float64(winStreak),
		models.MetricDistinctPairs:     float64(len(pairs)),
		models.MetricSessionsCovered:   float64(len(sessions)),
		models.MetricPerfectStreak:     float64(perfectStreak(closed)),
		models.MetricTradesWithStop:    float64(withStop),
		models.MetricProfitableMonths:  float64(profitableMonthRun(closed, settings)),
		models.MetricJournaledTrades:   float64(journaled),
		models.MetricRuleCheckedTrades: float64(ruleChecked),
	}
}

// perfectStreak is the longest run of consecutive perfect scores.
func perfectStreak(closed []models.Trade) int {
	var run, best int
	for _, t := range closed {
		if t.Auto.Score >= PerfectScore {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

// profitableMonthRun is the longest run of consecutive calendar months with
// positive realized P/L. A month without trades breaks the run.
func profitableMonthRun(closed []models.Trade, settings models.AppSettings) int {
	loc := settings.Loc()
	monthly := stats.PeriodSeries(closed, func(t time.Time) string {
		return t.In(loc).Format("2006-01")
	})

	var run, best int
	var prev time.Time
	for _, p := range monthly {
		month, err := time.Parse("2006-01", p.Period)
		if err != nil {
			continue
		}
		switch {
		case p.PL <= 0:
			run = 0
		case run > 0 && month.Equal(prev.AddDate(0, 1, 0)):
			run++
		default:
			run = 1
		}
		prev = month
		if run > best {
			best = run
		}
	}
	return best
}

// target resolves an achievement's target; sessions_covered with target 0
// means every configured session.
func target(def models.AchievementDef, settings models.AppSettings) float64 {
	if def.Metric == models.MetricSessionsCovered && def.Target <= 0 {
		return float64(len(settings.Sessions))
	}
	return def.Target
}
