package journal

import (
	"errors"
	"fmt"
	"math"
	"strings"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// ValidateTrade checks the user-entered fields of a trade before it reaches
// the calculator. Every problem is reported; the result matches
// ErrInvalidTrade and ErrInputValidation.
func ValidateTrade(t models.Trade, settings models.AppSettings) error {
	var problems []error
	add := func(field string, value interface{}, msg string) {
		problems = append(problems, apperrors.NewValidationError(field, value, msg))
	}

	if strings.TrimSpace(t.Pair) == "" {
		add("pair", t.Pair, "is required")
	}
	if t.Direction != models.Buy && t.Direction != models.Sell {
		add("direction", t.Direction, "must be Buy or Sell")
	}

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"lot_size", t.LotSize},
		{"entry_price", t.EntryPrice},
		{"close_price", t.ClosePrice},
		{"stop_loss", t.StopLoss},
		{"take_profit", t.TakeProfit},
		{"commission", t.Commission},
		{"swap", t.Swap},
		{"spread_pips", t.SpreadPips},
		{"mfe_price", t.MFEPrice},
		{"mae_price", t.MAEPrice},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			add(f.name, f.value, "must be a finite number")
		}
	}

	if t.LotSize <= 0 {
		add("lot_size", t.LotSize, "must be positive")
	}
	if t.EntryPrice <= 0 {
		add("entry_price", t.EntryPrice, "must be positive")
	}
	if t.ClosePrice < 0 || t.StopLoss < 0 || t.TakeProfit < 0 || t.MFEPrice < 0 || t.MAEPrice < 0 {
		add("prices", nil, "must not be negative")
	}
	if t.SpreadPips < 0 {
		add("spread_pips", t.SpreadPips, "must not be negative")
	}

	if t.OpenTime.IsZero() {
		add("open_time", t.OpenTime, "is required")
	}
	if !t.IsOpen() {
		if t.CloseTime.IsZero() {
			add("close_time", t.CloseTime, "is required once the trade is closed")
		} else if t.CloseTime.Before(t.OpenTime) {
			add("close_time", t.CloseTime, "is before open_time")
		}
	}

	if t.StrategyID != "" {
		strategy, ok := settings.Strategy(t.StrategyID)
		if !ok {
			add("strategy_id", t.StrategyID, "unknown strategy")
		} else {
			for _, rule := range t.RulesFollowed {
				if !contains(strategy.Rules, rule) {
					add("rules_followed", rule, "not a rule of "+strategy.Name)
				}
			}
		}
	} else if len(t.RulesFollowed) > 0 {
		add("rules_followed", t.RulesFollowed, "requires a strategy")
	}

	for id, v := range t.CustomFields {
		def, ok := settings.Field(id)
		if !ok {
			problems = append(problems, fmt.Errorf("%w: %s", apperrors.ErrUnknownField, id))
			continue
		}
		if err := def.Validate(v); err != nil {
			add("custom_fields."+id, v, err.Error())
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", apperrors.ErrInvalidTrade, errors.Join(problems...))
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
