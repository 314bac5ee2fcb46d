package scoring

import (
	"fmt"
	"strings"

	"trade-journal/internal/models"
)

// Rule names, stable identifiers stored on breaches.
const (
	RuleRiskExceeded      = "risk_exceeded"
	RuleBelowMinRR        = "below_min_rr"
	RuleStopNotHonored    = "stop_not_honored"
	RuleProfitLeft        = "profit_left"
	RuleNegativeSentiment = "negative_sentiment"
	RuleMissingRules      = "missing_rules"
)

// Rule is one entry of the discipline rule table. Check returns the
// deduction and remark when the rule is breached.
type Rule struct {
	Name  string
	Check func(in Input, w models.ScoringWeights) (penalty int, remark string, breached bool)
}

// DefaultRules returns the rule table in evaluation order. Remarks are
// emitted in this order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleRiskExceeded, Check: checkRiskExceeded},
		{Name: RuleBelowMinRR, Check: checkBelowMinRR},
		{Name: RuleStopNotHonored, Check: checkStopNotHonored},
		{Name: RuleProfitLeft, Check: checkProfitLeft},
		{Name: RuleNegativeSentiment, Check: checkNegativeSentiment},
		{Name: RuleMissingRules, Check: checkMissingRules},
	}
}

func checkRiskExceeded(in Input, w models.ScoringWeights) (int, string, bool) {
	planned := in.Plan.MaxRiskPercent
	if planned <= 0 || in.Auto.RiskPercent <= 0 {
		return 0, "", false
	}
	if in.Auto.RiskPercent <= planned*(1+w.RiskTolerance) {
		return 0, "", false
	}
	return w.RiskExceeded, fmt.Sprintf("Risked %.2f%% vs planned %.2f%%", in.Auto.RiskPercent, planned), true
}

// checkBelowMinRR only judges winners. A loss always realizes a negative R,
// and the stop rules already score how it was closed.
func checkBelowMinRR(in Input, w models.ScoringWeights) (int, string, bool) {
	minRR := in.Plan.MinRiskReward
	if minRR <= 0 || in.Auto.Outcome != models.Win || in.Auto.RiskAmount <= 0 {
		return 0, "", false
	}
	if in.Auto.RMultiple >= minRR {
		return 0, "", false
	}
	return w.BelowMinRR, fmt.Sprintf("R:R %.2f below planned minimum %.2f", in.Auto.RMultiple, minRR), true
}

func checkStopNotHonored(in Input, w models.ScoringWeights) (int, string, bool) {
	if in.Auto.Outcome != models.Loss || in.Auto.Result == models.ResultSL {
		return 0, "", false
	}
	return w.StopNotHonored, "Didn't honor stop loss", true
}

func checkProfitLeft(in Input, w models.ScoringWeights) (int, string, bool) {
	if in.Auto.Outcome != models.Win || in.Auto.Result == models.ResultTP || !in.Trade.HasTakeProfit() {
		return 0, "", false
	}
	return w.ProfitLeft, "Left profit on the table", true
}

func checkNegativeSentiment(in Input, w models.ScoringWeights) (int, string, bool) {
	var penalty int
	var tags []string
	for _, tag := range in.Trade.Sentiments {
		switch in.Effects.Lookup(tag) {
		case models.ImpactNegative:
			penalty += w.NegativeTag
		case models.ImpactMostNegative:
			penalty += w.MostNegativeTag
		default:
			continue
		}
		tags = append(tags, strings.TrimSpace(tag))
	}
	if len(tags) == 0 {
		return 0, "", false
	}
	return penalty, "Negative sentiment: " + strings.Join(tags, ", "), true
}

func checkMissingRules(in Input, w models.ScoringWeights) (int, string, bool) {
	if in.Trade.StrategyID == "" || len(in.Trade.RulesFollowed) > 0 {
		return 0, "", false
	}
	return w.MissingRules, "No strategy rules followed", true
}
