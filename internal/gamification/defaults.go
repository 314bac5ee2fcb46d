package gamification

import "trade-journal/internal/models"

// XP awarded per closed trade.
const (
	XPPerTrade     = 10
	XPScoreDivisor = 10 // score/XPScoreDivisor is added per trade
	XPWinBonus     = 5
)

// PerfectScore is the discipline score counted by the perfect_streak metric.
const PerfectScore = 100

// DefaultLevels is the progression ladder, lowest first.
func DefaultLevels() []models.Level {
	return []models.Level{
		{Name: "Novice", MinTrades: 0, MinAvgScore: 0},
		{Name: "Apprentice", MinTrades: 10, MinAvgScore: 50},
		{Name: "Disciplined", MinTrades: 25, MinAvgScore: 60},
		{Name: "Skilled", MinTrades: 50, MinAvgScore: 70},
		{Name: "Expert", MinTrades: 100, MinAvgScore: 75},
		{Name: "Master", MinTrades: 250, MinAvgScore: 80},
		{Name: "Legend", MinTrades: 500, MinAvgScore: 85},
	}
}

// DefaultAchievements returns the built-in achievements followed by the
// built-in badges.
func DefaultAchievements() []models.AchievementDef {
	return []models.AchievementDef{
		{Name: "First Steps", Description: "Close your first trade", Metric: models.MetricClosedTrades, Target: 1},
		{Name: "Seasoned", Description: "Close 100 trades", Metric: models.MetricClosedTrades, Target: 100},
		{Name: "Hot Hand", Description: "Win 10 trades in a row", Metric: models.MetricWinStreak, Target: 10},
		{Name: "Globetrotter", Description: "Trade in every session", Metric: models.MetricSessionsCovered, Target: 0},
		{Name: "Diversified", Description: "Trade 5 different pairs", Metric: models.MetricDistinctPairs, Target: 5},
		{Name: "Zen Master", Description: "10 perfect discipline scores in a row", Metric: models.MetricPerfectStreak, Target: 10},
		{Name: "Protected", Description: "Place a stop-loss on 50 trades", Metric: models.MetricTradesWithStop, Target: 50},

		{Name: "Green Month", Description: "Finish a month in profit", Metric: models.MetricProfitableMonths, Target: 1, Badge: true},
		{Name: "Consistent Quarter", Description: "Three profitable months in a row", Metric: models.MetricProfitableMonths, Target: 3, Badge: true},
		{Name: "Journaler", Description: "Write notes on 20 trades", Metric: models.MetricJournaledTrades, Target: 20, Badge: true},
		{Name: "Rule Keeper", Description: "Tick the strategy checklist on 25 trades", Metric: models.MetricRuleCheckedTrades, Target: 25, Badge: true},
	}
}
