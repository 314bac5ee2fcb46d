package scoring

import "trade-journal/internal/models"

// Named thresholds of the discipline rules. Values are part of the scoring
// contract; change them through configuration, not here.
const (
	BaseScore       = 100
	MinScore        = 0
	MaxScore        = 100
	ExcellentRemark = "Excellent discipline!"
	RemarkSeparator = ". "

	DefaultRiskTolerance   = 0.10
	DefaultRiskExceeded    = 20
	DefaultBelowMinRR      = 15
	DefaultStopNotHonored  = 25
	DefaultProfitLeft      = 10
	DefaultNegativeTag     = 5
	DefaultMostNegativeTag = 10
	DefaultMissingRules    = 10
)

// DefaultWeights returns the default rule deductions.
func DefaultWeights() models.ScoringWeights {
	return models.ScoringWeights{
		RiskTolerance:   DefaultRiskTolerance,
		RiskExceeded:    DefaultRiskExceeded,
		BelowMinRR:      DefaultBelowMinRR,
		StopNotHonored:  DefaultStopNotHonored,
		ProfitLeft:      DefaultProfitLeft,
		NegativeTag:     DefaultNegativeTag,
		MostNegativeTag: DefaultMostNegativeTag,
		MissingRules:    DefaultMissingRules,
	}
}
