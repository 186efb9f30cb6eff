package models

import "time"

// Outcome is the terminal result variant of a recommendation cycle.
// NoViableStrategy and PositionTooLarge are results, not faults: the
// pipeline completed and concluded no trade should be taken.
type Outcome string

const (
	OutcomeSelected         Outcome = "SELECTED"
	OutcomeNoViableStrategy Outcome = "NO_VIABLE_STRATEGY"
	OutcomePositionTooLarge Outcome = "POSITION_TOO_LARGE"
)

// Recommendation is the structured result returned to the caller.
type Recommendation struct {
	Symbol    string
	Timestamp time.Time
	Regime    MarketRegime
	Outcome   Outcome
	// Reason explains NO_VIABLE_STRATEGY / POSITION_TOO_LARGE outcomes.
	Reason string
	// Strategy and Sizing are set only when Outcome is SELECTED
	// (Strategy is also set for POSITION_TOO_LARGE so the caller can
	// see what was rejected).
	Strategy  *StrategyCandidate
	Sizing    *Sizing
	Checklist []string
	// QuarantinedQuotes counts quotes excluded from aggregates.
	QuarantinedQuotes int
}
