// Package models provides domain models for the trading journal.
package models

import (
	"fmt"
	"strings"
)

// Direction is the side of a trade.
type Direction string

const (
	Buy  Direction = "Buy"
	Sell Direction = "Sell"
)

// ParseDirection accepts buy/sell/long/short in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "long":
		return Buy, nil
	case "sell", "short":
		return Sell, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Outcome classifies a trade by the sign of its P/L.
type Outcome string

const (
	Win     Outcome = "Win"
	Loss    Outcome = "Loss"
	Neutral Outcome = "Neutral"
)

// Result describes how a trade was closed.
type Result string

const (
	ResultTP      Result = "TP"
	ResultSL      Result = "SL"
	ResultBE      Result = "BE"
	ResultStop    Result = "Stop"
	ResultRunning Result = "Running"
)

// Status is the lifecycle state of a trade.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

// Impact is the scoring effect of a sentiment or keyword tag.
type Impact int

const (
	ImpactNeutral Impact = iota
	ImpactMostPositive
	ImpactPositive
	ImpactNegative
	ImpactMostNegative
)

var impactNames = map[Impact]string{
	ImpactNeutral:      "Neutral",
	ImpactMostPositive: "Most Positive",
	ImpactPositive:     "Positive",
	ImpactNegative:     "Negative",
	ImpactMostNegative: "Most Negative",
}

func (i Impact) String() string {
	if name, ok := impactNames[i]; ok {
		return name
	}
	return fmt.Sprintf("Impact(%d)", int(i))
}

// ParseImpact parses the configuration spelling of an impact, e.g. "Most Negative".
func ParseImpact(s string) (Impact, error) {
	norm := strings.ToLower(strings.Join(strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(s)), " "))
	for impact, name := range impactNames {
		if strings.ToLower(name) == norm {
			return impact, nil
		}
	}
	return ImpactNeutral, fmt.Errorf("unknown impact %q", s)
}

// KeywordEffects maps sentiment/keyword tags to their impact. Keys are
// stored lower-cased; use Lookup rather than indexing directly.
type KeywordEffects map[string]Impact

// NewKeywordEffects builds a lookup table from tag -> impact pairs.
func NewKeywordEffects(src map[string]Impact) KeywordEffects {
	effects := make(KeywordEffects, len(src))
	for k, v := range src {
		effects[normalizeKeyword(k)] = v
	}
	return effects
}

// Lookup returns the impact of a tag, ImpactNeutral when unknown.
func (k KeywordEffects) Lookup(tag string) Impact {
	if impact, ok := k[normalizeKeyword(tag)]; ok {
		return impact
	}
	return ImpactNeutral
}

func normalizeKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
