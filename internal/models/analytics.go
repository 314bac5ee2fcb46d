package models

// GroupMetrics is the aggregate of one bucket of trades. It is recomputed
// on every query and never stored.
type GroupMetrics struct {
	Key                string  `json:"key"`
	Trades             int     `json:"trades"`
	Open               int     `json:"open"`
	Wins               int     `json:"wins"`
	Losses             int     `json:"losses"`
	BreakEven          int     `json:"break_even"`
	WinRate            float64 `json:"win_rate"`
	GrossProfit        float64 `json:"gross_profit"`
	GrossLoss          float64 `json:"gross_loss"`
	TotalPL            float64 `json:"total_pl"`
	AvgPL              float64 `json:"avg_pl"`
	AvgWin             float64 `json:"avg_win"`
	AvgLoss            float64 `json:"avg_loss"`
	LargestWin         float64 `json:"largest_win"`
	LargestLoss        float64 `json:"largest_loss"`
	TotalR             float64 `json:"total_r"`
	AvgR               float64 `json:"avg_r"`
	ProfitFactor       float64 `json:"profit_factor"`
	Expectancy         float64 `json:"expectancy"`
	MaxWinStreak       int     `json:"max_win_streak"`
	MaxLossStreak      int     `json:"max_loss_streak"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
	AvgScore           float64 `json:"avg_score"`
	ReturnPercent      float64 `json:"return_percent"`
}

// Progress is a value measured against a target.
type Progress struct {
	Value  float64 `json:"value"`
	Target float64 `json:"target"`
}

// LeaderboardEntry is one row of the comparison table.
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	Name     string  `json:"name"`
	Level    string  `json:"level"`
	Trades   int     `json:"trades"`
	WinRate  float64 `json:"win_rate"`
	AvgScore float64 `json:"avg_score"`
	XP       int     `json:"xp"`
	IsUser   bool    `json:"is_user"`
}

// GamificationState is derived from the trade list and the level and
// achievement tables. It is not a source of truth.
type GamificationState struct {
	CurrentLevel         Level               `json:"current_level"`
	NextLevel            *Level              `json:"next_level,omitempty"`
	XP                   int                 `json:"xp"`
	UnlockedAchievements []string            `json:"unlocked_achievements"`
	UnlockedBadges       []string            `json:"unlocked_badges"`
	Progress             map[string]Progress `json:"progress"`
	Leaderboard          []LeaderboardEntry  `json:"leaderboard"`
	UserEntry            LeaderboardEntry    `json:"user_entry"`
}

// HasAchievement reports whether an achievement or badge is unlocked.
func (g GamificationState) HasAchievement(name string) bool {
	return containsString(g.UnlockedAchievements, name) || containsString(g.UnlockedBadges, name)
}
