// Package gamification derives levels, XP, achievements, badges and the
// leaderboard from a journal's trades. Nothing is cached between calls; each
// evaluation starts from the full history.
package gamification

import (
	"trade-journal/internal/analysis"
	"trade-journal/internal/models"
)

// Progress keys for the next level.
const (
	ProgressNextLevelTrades = "next_level_trades"
	ProgressNextLevelScore  = "next_level_score"
)

// Evaluate computes the gamification state of a journal whose trades are
// already annotated. Empty level or achievement tables in settings fall
// back to the defaults.
func Evaluate(journal models.Journal, settings models.AppSettings) models.GamificationState {
	levels := settings.Levels
	if len(levels) == 0 {
		levels = DefaultLevels()
	}
	achievements := settings.Achievements
	if len(achievements) == 0 {
		achievements = DefaultAchievements()
	}

	closed := models.ClosedTrades(journal.Trades)
	avgScore := averageScore(closed)
	levelIdx := LevelIndex(levels, len(closed), avgScore)

	state := models.GamificationState{
		XP:                   XP(closed),
		UnlockedAchievements: []string{},
		UnlockedBadges:       []string{},
		Progress:             make(map[string]models.Progress),
	}
	if levelIdx >= 0 {
		state.CurrentLevel = levels[levelIdx]
	}
	if levelIdx+1 < len(levels) {
		next := levels[levelIdx+1]
		state.NextLevel = &next
		state.Progress[ProgressNextLevelTrades] = models.Progress{Value: float64(len(closed)), Target: float64(next.MinTrades)}
		state.Progress[ProgressNextLevelScore] = models.Progress{Value: avgScore, Target: next.MinAvgScore}
	}

	metrics := historyMetrics(journal.Trades, settings)
	for _, def := range achievements {
		value := metrics[def.Metric]
		goal := target(def, settings)
		state.Progress[def.Name] = models.Progress{Value: value, Target: goal}
		if goal <= 0 || value < goal {
			continue
		}
		if def.Badge {
			state.UnlockedBadges = append(state.UnlockedBadges, def.Name)
		} else {
			state.UnlockedAchievements = append(state.UnlockedAchievements, def.Name)
		}
	}

	state.UserEntry = userEntry(closed, state.CurrentLevel.Name, avgScore, state.XP)
	state.Leaderboard = Leaderboard(state.UserEntry, levels, levelIdx)
	for _, e := range state.Leaderboard {
		if e.IsUser {
			state.UserEntry = e
		}
	}
	return state
}

// LevelIndex returns the index of the highest level whose trade count and
// average score thresholds are both met, or -1 when none is.
func LevelIndex(levels []models.Level, closedTrades int, avgScore float64) int {
	idx := -1
	for i, l := range levels {
		if closedTrades >= l.MinTrades && avgScore >= l.MinAvgScore {
			idx = i
		}
	}
	return idx
}

// XP sums the experience of closed trades.
func XP(closed []models.Trade) int {
	var xp int
	for _, t := range closed {
		xp += XPPerTrade + t.Auto.Score/XPScoreDivisor
		if t.Auto.Outcome == models.Win {
			xp += XPWinBonus
		}
	}
	return xp
}

func averageScore(closed []models.Trade) float64 {
	if len(closed) == 0 {
		return 0
	}
	var total int
	for _, t := range closed {
		total += t.Auto.Score
	}
	return analysis.Round(float64(total)/float64(len(closed)), 1)
}

func userEntry(closed []models.Trade, level string, avgScore float64, xp int) models.LeaderboardEntry {
	var wins int
	for _, t := range closed {
		if t.Auto.Outcome == models.Win {
			wins++
		}
	}
	return models.LeaderboardEntry{
		Name:     UserName,
		Level:    level,
		Trades:   len(closed),
		WinRate:  analysis.RoundPercent(analysis.Percent(float64(wins), float64(len(closed)))),
		AvgScore: avgScore,
		XP:       xp,
		IsUser:   true,
	}
}
