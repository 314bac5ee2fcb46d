// Package stats aggregates annotated trades into group metrics: win rate,
// profit factor, expectancy, streaks and averages, overall or per bucket.
package stats

import (
	"math"
	"sort"

	"trade-journal/internal/analysis"
	"trade-journal/internal/models"
)

// ProfitFactorSentinel stands in for an infinite profit factor (profits with
// no losses) so results stay finite and serializable.
const ProfitFactorSentinel = 1000

// Aggregate reduces trades to one GroupMetrics. Open trades are only
// counted; every other figure uses closed trades. capital scales
// ReturnPercent and may be zero. An input without closed trades yields zero
// metrics.
func Aggregate(trades []models.Trade, capital float64) models.GroupMetrics {
	closed := Chronological(models.ClosedTrades(trades))
	m := models.GroupMetrics{Open: len(trades) - len(closed)}
	n := len(closed)
	if n == 0 {
		return m
	}

	var totalR, totalScore float64
	var totalMinutes int
	largestWin, largestLoss := math.Inf(-1), math.Inf(1)

	for _, t := range closed {
		pl := t.Auto.PL
		switch t.Auto.Outcome {
		case models.Win:
			m.Wins++
		case models.Loss:
			m.Losses++
		default:
			m.BreakEven++
		}
		if pl > 0 {
			m.GrossProfit += pl
		} else {
			m.GrossLoss += -pl
		}
		m.TotalPL += pl
		largestWin = math.Max(largestWin, pl)
		largestLoss = math.Min(largestLoss, pl)
		totalR += t.Auto.RMultiple
		totalScore += float64(t.Auto.Score)
		totalMinutes += t.Auto.HoldingMinutes
	}

	m.Trades = n
	winRate := float64(m.Wins) / float64(n)
	lossRate := float64(m.Losses) / float64(n)

	avgWin := analysis.Ratio(m.GrossProfit, float64(m.Wins))
	avgLoss := analysis.Ratio(m.GrossLoss, float64(m.Losses))

	m.WinRate = analysis.RoundPercent(winRate * 100)
	m.AvgWin = analysis.RoundMoney(avgWin)
	m.AvgLoss = analysis.RoundMoney(avgLoss)
	m.AvgPL = analysis.RoundMoney(m.TotalPL / float64(n))
	if largestWin > 0 {
		m.LargestWin = analysis.RoundMoney(largestWin)
	}
	if largestLoss < 0 {
		m.LargestLoss = analysis.RoundMoney(largestLoss)
	}
	m.TotalR = analysis.RoundRatio(totalR)
	m.AvgR = analysis.RoundRatio(totalR / float64(n))
	m.ProfitFactor = ProfitFactor(m.GrossProfit, m.GrossLoss)
	m.Expectancy = analysis.RoundMoney(winRate*avgWin - lossRate*avgLoss)
	m.MaxWinStreak, m.MaxLossStreak = Streaks(closed)
	m.AvgDurationMinutes = analysis.Round(float64(totalMinutes)/float64(n), 1)
	m.AvgScore = analysis.Round(totalScore/float64(n), 1)
	m.ReturnPercent = analysis.RoundPercent(analysis.Percent(m.TotalPL, capital))

	m.GrossProfit = analysis.RoundMoney(m.GrossProfit)
	m.GrossLoss = analysis.RoundMoney(m.GrossLoss)
	m.TotalPL = analysis.RoundMoney(m.TotalPL)
	return m
}

// ProfitFactor is grossProfit/grossLoss, ProfitFactorSentinel when there
// are profits but no losses, and 1 when both are zero.
func ProfitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return ProfitFactorSentinel
		}
		return 1
	}
	return analysis.RoundRatio(grossProfit / grossLoss)
}

// Streaks returns the longest runs of consecutive wins and losses. trades
// must already be in chronological order. A break-even trade ends both runs.
func Streaks(trades []models.Trade) (maxWin, maxLoss int) {
	var win, loss int
	for _, t := range trades {
		switch t.Auto.Outcome {
		case models.Win:
			win++
			loss = 0
		case models.Loss:
			loss++
			win = 0
		default:
			win, loss = 0, 0
		}
		if win > maxWin {
			maxWin = win
		}
		if loss > maxLoss {
			maxLoss = loss
		}
	}
	return maxWin, maxLoss
}

// Chronological returns a copy of trades sorted by close time, then open
// time, then ID, so equal timestamps still order deterministically.
func Chronological(trades []models.Trade) []models.Trade {
	out := make([]models.Trade, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CloseTime.Equal(b.CloseTime) {
			return a.CloseTime.Before(b.CloseTime)
		}
		if !a.OpenTime.Equal(b.OpenTime) {
			return a.OpenTime.Before(b.OpenTime)
		}
		return a.ID < b.ID
	})
	return out
}
