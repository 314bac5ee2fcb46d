package errors

import (
	"database/sql"
	"fmt"
	"testing"
)

func TestTypedErrorsUnwrap(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"validation", NewValidationError("lot_size", -1, "must be positive"), ErrInputValidation},
		{"config", NewConfigError("pairs.toml", "pairs.EURUSD.pip_size", "must be > 0"), ErrConfigInvalid},
		{"store sentinel", NewStoreError("get trade", sql.ErrConnDone), ErrDatabaseError},
		{"store cause", NewStoreError("get trade", sql.ErrConnDone), sql.ErrConnDone},
		{"trade", NewTradeError("abc", "close", ErrTradeNotFound), ErrTradeNotFound},
		{"assistant", NewAssistantError("parse image", ErrAssistantUnavailable), ErrAssistantUnavailable},
		{"wrapped twice", Wrapf(Wrap(NewTradeError("x", "update", ErrTradeDeleted), "journal"), "cli %s", "update"), ErrTradeDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !Is(tt.err, tt.target) {
				t.Errorf("Is(%v, %v) = false", tt.err, tt.target)
			}
		})
	}
}

func TestAsTradeError(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewTradeError("t-1", "delete", ErrTradeNotFound))
	var te *TradeError
	if !As(err, &te) {
		t.Fatal("As did not find TradeError")
	}
	if te.TradeID != "t-1" || te.Operation != "delete" {
		t.Errorf("got %+v", te)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "x") != nil || Wrapf(nil, "x %d", 1) != nil {
		t.Error("wrapping nil should stay nil")
	}
}

func TestLimitErrorMessage(t *testing.T) {
	err := NewLimitError("daily_loss_limit", "2024-03-04", 250, 200)
	want := "loss limit [daily_loss_limit] 2024-03-04: lost 250.00, limit 200.00"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
