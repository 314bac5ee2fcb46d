// Package scoring provides the trade discipline score: a base of 100 minus
// the deductions of an ordered rule table, with a remark per breach.
package scoring

import (
	"strings"

	"trade-journal/internal/models"
)

// Input is what the rules inspect. Auto must already carry every derived
// field except the score itself.
type Input struct {
	Trade   models.Trade
	Auto    models.AutoCalculated
	Plan    models.TradingPlan
	Effects models.KeywordEffects
}

// Result is a discipline score and its explanation.
type Result struct {
	Value    int
	Remark   string
	Breaches []models.Breach
}

// Scorer evaluates a rule table with a set of weights.
type Scorer struct {
	rules   []Rule
	weights models.ScoringWeights
}

// NewScorer creates a scorer over the default rule table.
func NewScorer(weights models.ScoringWeights) *Scorer {
	return NewScorerWithRules(DefaultRules(), weights)
}

// NewScorerWithRules creates a scorer over a custom rule table.
func NewScorerWithRules(rules []Rule, weights models.ScoringWeights) *Scorer {
	return &Scorer{
		rules:   rules,
		weights: weights,
	}
}

// Score runs every rule in order. A rule whose configured deduction is zero
// is disabled and contributes neither points nor a remark.
func (s *Scorer) Score(in Input) Result {
	value := BaseScore
	var breaches []models.Breach
	var remarks []string

	for _, rule := range s.rules {
		penalty, remark, breached := rule.Check(in, s.weights)
		if !breached || penalty <= 0 {
			continue
		}
		value -= penalty
		breaches = append(breaches, models.Breach{Rule: rule.Name, Penalty: penalty, Remark: remark})
		remarks = append(remarks, remark)
	}

	res := Result{
		Value:    clamp(value, MinScore, MaxScore),
		Remark:   ExcellentRemark,
		Breaches: breaches,
	}
	if len(remarks) > 0 {
		res.Remark = strings.Join(remarks, RemarkSeparator)
	}
	return res
}

// Score is a convenience wrapper using the default rules.
func Score(in Input, weights models.ScoringWeights) Result {
	return NewScorer(weights).Score(in)
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
