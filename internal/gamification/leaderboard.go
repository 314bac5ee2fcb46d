package gamification

import (
	"hash/fnv"
	"math"
	"sort"

	"trade-journal/internal/analysis"
	"trade-journal/internal/models"
)

// UserName labels the real user on the leaderboard.
const UserName = "You"

// BotNames are the synthetic competitors.
var BotNames = []string{"Aurora", "Blaze", "Cipher", "Drift", "Echo", "Flux", "Granite", "Harbor", "Ion"}

// Leaderboard ranks the user against the bots by XP, then name. Bots are a
// pure function of their name, the user's level and the user's trade count.
func Leaderboard(user models.LeaderboardEntry, levels []models.Level, userLevel int) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(BotNames)+1)
	for _, name := range BotNames {
		entries = append(entries, Bot(name, levels, userLevel, user.Trades))
	}
	entries = append(entries, user)

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].XP != entries[j].XP {
			return entries[i].XP > entries[j].XP
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Bot builds a synthetic competitor close to the user's level. Its level is
// within one rung of the user's and its trade count within 50-150% of theirs.
func Bot(name string, levels []models.Level, userLevel, userTrades int) models.LeaderboardEntry {
	h := hashName(name)

	levelIdx := userLevel + int(h%3) - 1
	if levelIdx >= len(levels) {
		levelIdx = len(levels) - 1
	}
	if levelIdx < 0 {
		levelIdx = 0
	}
	var level models.Level
	if len(levels) > 0 {
		level = levels[levelIdx]
	}

	scale := 0.5 + float64((h>>4)%101)/100
	trades := int(math.Round(float64(userTrades)*scale)) + int((h>>12)%10)
	if trades < level.MinTrades {
		trades = level.MinTrades
	}
	winRate := 35 + float64((h>>16)%31)
	avgScore := math.Min(100, math.Max(level.MinAvgScore, 55)+float64((h>>20)%15))

	wins := int(math.Round(float64(trades) * winRate / 100))
	xp := trades*XPPerTrade + int(float64(trades)*avgScore)/XPScoreDivisor + wins*XPWinBonus

	return models.LeaderboardEntry{
		Name:     name,
		Level:    level.Name,
		Trades:   trades,
		WinRate:  analysis.RoundPercent(winRate),
		AvgScore: analysis.Round(avgScore, 1),
		XP:       xp,
	}
}

func hashName(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}
