// Package metrics derives a trade's computed fields from its user input and
// the active settings. Every function here is pure: the same trade and
// settings always produce the same AutoCalculated value.
package metrics

import (
	"github.com/shopspring/decimal"
	"trade-journal/internal/analysis"
	"trade-journal/internal/analysis/scoring"
	"trade-journal/internal/models"
)

// PriceTolerancePips is how close the close price must be to a target or
// stop for the trade to count as having reached it. Also the break-even band.
const PriceTolerancePips = 1

// Options carries the settings the calculator needs beyond the pair and plan.
type Options struct {
	Effects  models.KeywordEffects
	Weights  models.ScoringWeights
	Strategy *models.Strategy
	Fields   []models.FieldDefinition
}

// Compute derives every AutoCalculated field of t. An invalid pair config is
// replaced by models.DefaultPairConfig.
func Compute(t models.Trade, pair models.PairConfig, plan models.TradingPlan, opts Options) models.AutoCalculated {
	if !pair.Valid() {
		pair = models.DefaultPairConfig
	}
	p := newPriceMath(t, pair)

	auto := models.AutoCalculated{
		Status:     models.StatusOpen,
		Outcome:    models.Neutral,
		Result:     models.ResultRunning,
		RiskPips:   analysis.Round(p.riskPips().InexactFloat64(), analysis.PipPlaces),
		RewardPips: analysis.Round(p.rewardPips().InexactFloat64(), analysis.PipPlaces),
	}

	riskAmount := p.money(p.riskPips())
	auto.RiskAmount = analysis.RoundMoney(riskAmount)
	auto.RiskPercent = analysis.RoundPercent(analysis.Percent(riskAmount, plan.AccountSize))
	if !p.riskPips().IsZero() {
		auto.PlannedRR = analysis.RoundRatio(p.rewardPips().Div(p.riskPips()).InexactFloat64())
	}

	if !t.IsOpen() {
		pips := p.pips()
		gross := p.money(pips)
		net := gross - t.Commission - t.Swap - p.money(decimal.NewFromFloat(t.SpreadPips))

		auto.Status = models.StatusClosed
		auto.Pips = analysis.Round(pips.InexactFloat64(), analysis.PipPlaces)
		auto.GrossPL = analysis.RoundMoney(gross)
		auto.PL = analysis.RoundMoney(net)
		auto.Outcome = outcomeOf(auto.PL)
		auto.Result = p.result(pips)
		if riskAmount > 0 {
			auto.RMultiple = analysis.RoundRatio(auto.PL / riskAmount)
		}
		auto.GainPercent = analysis.RoundPercent(analysis.Percent(auto.PL, plan.AccountSize))
		auto.HoldingMinutes = HoldingMinutes(t.OpenTime, t.CloseTime)
		auto.HoldingTime = FormatHolding(auto.HoldingMinutes)
	}

	applyExcursions(&auto, t, p)
	auto.MatchedSetups = MatchSetups(t, opts.Strategy, opts.Fields)

	score := scoring.NewScorer(opts.Weights).Score(scoring.Input{
		Trade:   t,
		Auto:    auto,
		Plan:    plan,
		Effects: opts.Effects,
	})
	auto.Score = score.Value
	auto.Remark = score.Remark
	auto.Breaches = score.Breaches

	return auto
}

func outcomeOf(pl float64) models.Outcome {
	switch {
	case pl > 0:
		return models.Win
	case pl < 0:
		return models.Loss
	default:
		return models.Neutral
	}
}

func applyExcursions(auto *models.AutoCalculated, t models.Trade, p priceMath) {
	if t.MFEPrice > 0 {
		mfe := p.distancePips(t.MFEPrice)
		auto.MFEPips = analysis.Round(mfe.InexactFloat64(), analysis.PipPlaces)
		if !p.riskPips().IsZero() {
			auto.MFERMultiple = analysis.RoundRatio(mfe.Div(p.riskPips()).InexactFloat64())
		}
		if !t.IsOpen() && !mfe.IsZero() {
			auto.CaptureEfficiency = analysis.RoundPercent(p.pips().Div(mfe).Mul(decimal.NewFromInt(100)).InexactFloat64())
		}
	}
	if t.MAEPrice > 0 {
		auto.MAEPips = analysis.Round(p.distancePips(t.MAEPrice).InexactFloat64(), analysis.PipPlaces)
	}
}

// priceMath does the price-to-pip conversions in decimal so quotes like
// 1.1050 - 1.1000 give exactly 50 pips.
type priceMath struct {
	trade    models.Trade
	entry    decimal.Decimal
	pipSize  decimal.Decimal
	pipValue decimal.Decimal
	lot      decimal.Decimal
}

func newPriceMath(t models.Trade, pair models.PairConfig) priceMath {
	return priceMath{
		trade:    t,
		entry:    decimal.NewFromFloat(t.EntryPrice),
		pipSize:  decimal.NewFromFloat(pair.PipSize),
		pipValue: decimal.NewFromFloat(pair.PipValue),
		lot:      decimal.NewFromFloat(t.LotSize),
	}
}

// pips is the signed pip result of the trade, positive when in profit.
func (p priceMath) pips() decimal.Decimal {
	move := decimal.NewFromFloat(p.trade.ClosePrice).Sub(p.entry)
	if p.trade.Direction == models.Sell {
		move = move.Neg()
	}
	return move.Div(p.pipSize)
}

func (p priceMath) distancePips(price float64) decimal.Decimal {
	return decimal.NewFromFloat(price).Sub(p.entry).Abs().Div(p.pipSize)
}

func (p priceMath) riskPips() decimal.Decimal {
	if !p.trade.HasStopLoss() {
		return decimal.Zero
	}
	return p.distancePips(p.trade.StopLoss)
}

func (p priceMath) rewardPips() decimal.Decimal {
	if !p.trade.HasTakeProfit() {
		return decimal.Zero
	}
	return p.distancePips(p.trade.TakeProfit)
}

// money converts a pip count to account currency for the trade's lot size.
func (p priceMath) money(pips decimal.Decimal) float64 {
	return pips.Mul(p.pipValue).Mul(p.lot).InexactFloat64()
}

// result tags a closed trade: TP, then SL, then break-even, else a manual stop.
func (p priceMath) result(pips decimal.Decimal) models.Result {
	tolerance := p.pipSize.Mul(decimal.NewFromInt(PriceTolerancePips))
	closePrice := decimal.NewFromFloat(p.trade.ClosePrice)
	buy := p.trade.Direction != models.Sell

	if p.trade.HasTakeProfit() {
		tp := decimal.NewFromFloat(p.trade.TakeProfit)
		if (buy && closePrice.GreaterThanOrEqual(tp.Sub(tolerance))) ||
			(!buy && closePrice.LessThanOrEqual(tp.Add(tolerance))) {
			return models.ResultTP
		}
	}
	if p.trade.HasStopLoss() {
		sl := decimal.NewFromFloat(p.trade.StopLoss)
		if (buy && closePrice.LessThanOrEqual(sl.Add(tolerance))) ||
			(!buy && closePrice.GreaterThanOrEqual(sl.Sub(tolerance))) {
			return models.ResultSL
		}
	}
	if pips.Abs().LessThanOrEqual(decimal.NewFromInt(PriceTolerancePips)) {
		return models.ResultBE
	}
	return models.ResultStop
}

// Calculator binds Compute to a settings snapshot.
type Calculator struct {
	settings models.AppSettings
}

// NewCalculator creates a calculator for the given settings.
func NewCalculator(settings models.AppSettings) *Calculator {
	return &Calculator{settings: settings}
}

// Settings returns the snapshot the calculator was built with.
func (c *Calculator) Settings() models.AppSettings {
	return c.settings
}

// Compute derives the trade's fields using the pair, plan, keywords,
// weights and strategy from the settings.
func (c *Calculator) Compute(t models.Trade) models.AutoCalculated {
	opts := Options{
		Effects: c.settings.Keywords,
		Weights: c.settings.Weights,
		Fields:  c.settings.CustomFields,
	}
	if st, ok := c.settings.Strategy(t.StrategyID); ok {
		opts.Strategy = &st
	}
	return Compute(t, c.settings.ResolvePair(t.Pair), c.settings.Plan, opts)
}

// Annotate returns a copy of trades with Auto recomputed on each.
func (c *Calculator) Annotate(trades []models.Trade) []models.Trade {
	out := make([]models.Trade, len(trades))
	for i, t := range trades {
		t.Auto = c.Compute(t)
		out[i] = t
	}
	return out
}
