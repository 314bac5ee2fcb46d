// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrTradeNotFound        = errors.New("trade not found")
	ErrTradeDeleted         = errors.New("trade is in trash")
	ErrInvalidTrade         = errors.New("invalid trade")
	ErrConfigInvalid        = errors.New("invalid configuration")
	ErrUnknownGroupKey      = errors.New("unknown group key")
	ErrUnknownField         = errors.New("unknown custom field")
	ErrUnknownCategory      = errors.New("unknown analysis category")
	ErrDatabaseError        = errors.New("database error")
	ErrAssistantUnavailable = errors.New("assistant unavailable")
	ErrInputValidation      = errors.New("input validation failed")
	ErrTimeout              = errors.New("operation timed out")
)

// ValidationError represents a validation error on one trade field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets callers match any validation failure with ErrInputValidation.
func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// TradeError represents a failed operation on a single trade.
type TradeError struct {
	TradeID   string
	Operation string
	Err       error
}

func (e *TradeError) Error() string {
	return fmt.Sprintf("trade error [%s] %s: %v", e.TradeID, e.Operation, e.Err)
}

func (e *TradeError) Unwrap() error {
	return e.Err
}

// NewTradeError creates a new TradeError.
func NewTradeError(tradeID, operation string, err error) *TradeError {
	return &TradeError{
		TradeID:   tradeID,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	File    string
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("config error [%s] %s: %s", e.File, e.Key, e.Message)
	}
	return fmt.Sprintf("config error %s: %s", e.Key, e.Message)
}

// Unwrap matches ErrConfigInvalid.
func (e *ConfigError) Unwrap() error {
	return ErrConfigInvalid
}

// NewConfigError creates a new ConfigError.
func NewConfigError(file, key, message string) *ConfigError {
	return &ConfigError{
		File:    file,
		Key:     key,
		Message: message,
	}
}

// StoreError represents a persistence failure.
type StoreError struct {
	Operation string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error [%s]: %v", e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches ErrDatabaseError in addition to the wrapped error.
func (e *StoreError) Is(target error) bool {
	return target == ErrDatabaseError
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		Err:       err,
	}
}

// AssistantError represents an error from the AI assistant.
type AssistantError struct {
	Operation string
	Err       error
}

func (e *AssistantError) Error() string {
	return fmt.Sprintf("assistant error [%s]: %v", e.Operation, e.Err)
}

func (e *AssistantError) Unwrap() error {
	return e.Err
}

// NewAssistantError creates a new AssistantError.
func NewAssistantError(operation string, err error) *AssistantError {
	return &AssistantError{
		Operation: operation,
		Err:       err,
	}
}

// LimitError represents a trading-plan loss limit that was exceeded.
type LimitError struct {
	Rule    string
	Period  string
	Current float64
	Limit   float64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("loss limit [%s] %s: lost %.2f, limit %.2f", e.Rule, e.Period, e.Current, e.Limit)
}

// NewLimitError creates a new LimitError.
func NewLimitError(rule, period string, current, limit float64) *LimitError {
	return &LimitError{
		Rule:    rule,
		Period:  period,
		Current: current,
		Limit:   limit,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
