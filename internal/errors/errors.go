// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard sentinel errors
var (
	ErrNoViableStrategy      = errors.New("no viable strategy for current regime")
	ErrPositionTooLarge      = errors.New("position exceeds risk budget at minimum size")
	ErrRecommendationTimeout = errors.New("recommendation timed out")
	ErrEmptyChain            = errors.New("option chain is empty")
	ErrConfigInvalid         = errors.New("invalid configuration")
	ErrDataNotFound          = errors.New("data not found")
	ErrNotAuthenticated      = errors.New("not authenticated")
	ErrDatabaseError         = errors.New("database error")
)

// ValidationError represents a per-quote validation failure. It
// quarantines the offending quote and never aborts the snapshot.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IVConvergenceError indicates the implied volatility solver hit its
// iteration cap before reaching the price tolerance.
type IVConvergenceError struct {
	Strike     float64
	Type       string
	Premium    float64
	Iterations int
}

func (e *IVConvergenceError) Error() string {
	return fmt.Sprintf("iv solver did not converge [%s %.2f]: premium %.2f after %d iterations",
		e.Type, e.Strike, e.Premium, e.Iterations)
}

// InvalidPremiumError indicates a quoted premium below intrinsic value
// (an arbitrage-violating quote) for which no IV exists.
type InvalidPremiumError struct {
	Strike    float64
	Type      string
	Premium   float64
	Intrinsic float64
}

func (e *InvalidPremiumError) Error() string {
	return fmt.Sprintf("invalid premium [%s %.2f]: %.2f below intrinsic %.2f",
		e.Type, e.Strike, e.Premium, e.Intrinsic)
}

// NoViableStrategyError carries the reason no template produced a
// candidate. Returned as a terminal, non-fatal outcome.
type NoViableStrategyError struct {
	Reason string
}

func (e *NoViableStrategyError) Error() string {
	return fmt.Sprintf("no viable strategy: %s", e.Reason)
}

func (e *NoViableStrategyError) Unwrap() error {
	return ErrNoViableStrategy
}

// PositionTooLargeError indicates one lot of the candidate already
// exceeds the available risk budget.
type PositionTooLargeError struct {
	LossPerLot float64
	Budget     float64
}

func (e *PositionTooLargeError) Error() string {
	return fmt.Sprintf("position too large: one lot risks %.2f against budget %.2f",
		e.LossPerLot, e.Budget)
}

func (e *PositionTooLargeError) Unwrap() error {
	return ErrPositionTooLarge
}

// TimeoutError indicates the caller-supplied deadline elapsed before
// the pipeline completed. Fatal to that request only.
type TimeoutError struct {
	Symbol  string
	Elapsed time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("recommendation timeout [%s] after %s: %v", e.Symbol, e.Elapsed, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return ErrRecommendationTimeout
}

// RiskError represents a risk limit violation.
type RiskError struct {
	Rule    string
	Current float64
	Limit   float64
	Message string
}

func (e *RiskError) Error() string {
	return fmt.Sprintf("risk violation [%s]: %s (current: %.2f, limit: %.2f)", e.Rule, e.Message, e.Current, e.Limit)
}

// NewRiskError creates a new RiskError.
func NewRiskError(rule string, current, limit float64, message string) *RiskError {
	return &RiskError{
		Rule:    rule,
		Current: current,
		Limit:   limit,
		Message: message,
	}
}

// DataError represents a market-data error from a feed collaborator.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
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
