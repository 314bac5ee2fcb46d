package models

import (
	"sort"
	"strings"
	"time"
)

// OtherPair is the pair-table key used for any instrument without its own entry.
const OtherPair = "Other"

// DefaultPairConfig is used when neither the pair nor Other resolve to a
// usable entry. Standard FX lot on a 4-digit quote.
var DefaultPairConfig = PairConfig{PipSize: 0.0001, PipValue: 10}

// PairConfig holds per-instrument constants.
type PairConfig struct {
	PipSize  float64 `json:"pip_size"`
	PipValue float64 `json:"pip_value"` // account currency per pip per standard lot
}

// Valid reports whether both constants are positive.
func (p PairConfig) Valid() bool {
	return p.PipSize > 0 && p.PipValue > 0
}

// TradingPlan is the user's declared plan. The engine only reads it.
type TradingPlan struct {
	AccountSize     float64  `json:"account_size"`
	MaxRiskPercent  float64  `json:"max_risk_percent"`
	MinRiskReward   float64  `json:"min_risk_reward"`
	AllowedPairs    []string `json:"allowed_pairs,omitempty"`
	AllowedSessions []string `json:"allowed_sessions,omitempty"`
	DailyLossLimit  float64  `json:"daily_loss_limit"`
	WeeklyLossLimit float64  `json:"weekly_loss_limit"`
}

// ScoringWeights are the point deductions of the discipline rules.
type ScoringWeights struct {
	RiskTolerance   float64 `json:"risk_tolerance"` // fraction above planned risk that is still accepted
	RiskExceeded    int     `json:"risk_exceeded"`
	BelowMinRR      int     `json:"below_min_rr"`
	StopNotHonored  int     `json:"stop_not_honored"`
	ProfitLeft      int     `json:"profit_left"`
	NegativeTag     int     `json:"negative_tag"`
	MostNegativeTag int     `json:"most_negative_tag"`
	MissingRules    int     `json:"missing_rules"`
}

// Setup is a named combination of custom-field options within a strategy.
type Setup struct {
	Name       string              `json:"name"`
	Conditions map[string][]string `json:"conditions"` // field ID -> any of these options
}

// Strategy is a trading strategy with its rule checklist.
type Strategy struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Rules  []string `json:"rules"`
	Setups []Setup  `json:"setups,omitempty"`
}

// Session is a time-of-day window. EndHour may be below StartHour for
// sessions that wrap past midnight.
type Session struct {
	Name      string `json:"name"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

// Contains reports whether an hour (0-23) falls inside the session.
func (s Session) Contains(hour int) bool {
	if s.StartHour <= s.EndHour {
		return hour >= s.StartHour && hour < s.EndHour
	}
	return hour >= s.StartHour || hour < s.EndHour
}

// SubCategory is a named subset of a custom field's options.
type SubCategory struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// AnalysisCategory partitions trades by a custom field into sub-categories.
type AnalysisCategory struct {
	Name          string        `json:"name"`
	FieldID       string        `json:"field_id"`
	SubCategories []SubCategory `json:"sub_categories"`
}

// Level is one rung of the progression ladder.
type Level struct {
	Name        string  `json:"name"`
	MinTrades   int     `json:"min_trades"`
	MinAvgScore float64 `json:"min_avg_score"`
}

// AchievementMetric names a history statistic an achievement is measured on.
type AchievementMetric string

const (
	MetricClosedTrades      AchievementMetric = "closed_trades"
	MetricWinStreak         AchievementMetric = "win_streak"
	MetricDistinctPairs     AchievementMetric = "distinct_pairs"
	MetricSessionsCovered   AchievementMetric = "sessions_covered"
	MetricPerfectStreak     AchievementMetric = "perfect_streak"
	MetricTradesWithStop    AchievementMetric = "trades_with_stop"
	MetricProfitableMonths  AchievementMetric = "profitable_months"
	MetricJournaledTrades   AchievementMetric = "journaled_trades"
	MetricRuleCheckedTrades AchievementMetric = "rule_checked_trades"
)

// AchievementDef is a threshold on a history metric. Badges are
// achievements shown in a separate shelf.
type AchievementDef struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Metric      AchievementMetric `json:"metric"`
	Target      float64           `json:"target"` // 0 for sessions_covered means "all sessions"
	Badge       bool              `json:"badge"`
}

// AppSettings is everything the engine needs besides the trades themselves.
type AppSettings struct {
	Pairs              map[string]PairConfig
	Plan               TradingPlan
	Keywords           KeywordEffects
	Weights            ScoringWeights
	Strategies         []Strategy
	CustomFields       []FieldDefinition
	Sessions           []Session
	AnalysisCategories []AnalysisCategory
	Levels             []Level
	Achievements       []AchievementDef
	Location           *time.Location
	DisplayCurrency    string
	DisplayRate        float64
	Locale             string
	TrashRetentionDays int
}

// ResolvePair returns the config for a pair symbol, falling back to Other
// and then to DefaultPairConfig so pip math never divides by zero.
func (s AppSettings) ResolvePair(symbol string) PairConfig {
	if cfg, ok := s.lookupPair(symbol); ok && cfg.Valid() {
		return cfg
	}
	if cfg, ok := s.Pairs[OtherPair]; ok && cfg.Valid() {
		return cfg
	}
	return DefaultPairConfig
}

func (s AppSettings) lookupPair(symbol string) (PairConfig, bool) {
	if cfg, ok := s.Pairs[symbol]; ok {
		return cfg, true
	}
	norm := NormalizePair(symbol)
	if cfg, ok := s.Pairs[norm]; ok {
		return cfg, true
	}
	// Colliding spellings ("EUR/USD", "eur-usd") resolve to the first key in sorted order.
	keys := make([]string, 0, len(s.Pairs))
	for k := range s.Pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if NormalizePair(k) == norm {
			return s.Pairs[k], true
		}
	}
	return PairConfig{}, false
}

// NormalizePair upper-cases a symbol and strips separators ("eur/usd" -> "EURUSD").
func NormalizePair(symbol string) string {
	return strings.ToUpper(strings.NewReplacer("/", "", "-", "", "_", "", " ", "").Replace(symbol))
}

// Strategy returns the strategy with the given ID.
func (s AppSettings) Strategy(id string) (Strategy, bool) {
	for _, st := range s.Strategies {
		if st.ID == id {
			return st, true
		}
	}
	return Strategy{}, false
}

// Field returns the custom field definition with the given ID.
func (s AppSettings) Field(id string) (FieldDefinition, bool) {
	for _, f := range s.CustomFields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// Loc returns the configured timezone, UTC when unset.
func (s AppSettings) Loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}
