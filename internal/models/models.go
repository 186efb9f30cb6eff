// Package models provides domain models for the options engine.
package models

import (
	"time"
)

// OptionType represents the option contract type (NSE convention).
type OptionType string

const (
	Call OptionType = "CE"
	Put  OptionType = "PE"
)

// LegAction represents the direction of a strategy leg.
type LegAction string

const (
	ActionBuy  LegAction = "BUY"
	ActionSell LegAction = "SELL"
)

// Quote is an immutable snapshot of one option contract's market data.
// A newer Quote for the same (symbol, expiry, strike, type) supersedes it;
// quotes are never mutated in place.
type Quote struct {
	Symbol    string
	Expiry    time.Time
	Strike    float64
	Type      OptionType
	LTP       float64
	Bid       float64
	Ask       float64
	Volume    int64
	OI        int64
	LotSize   int
	Timestamp time.Time
}

// Mid returns the bid-ask midpoint, falling back to LTP when either
// side of the book is empty.
func (q Quote) Mid() float64 {
	if q.Bid > 0 && q.Ask > 0 {
		return (q.Bid + q.Ask) / 2
	}
	return q.LTP
}

// Greeks holds option sensitivities. Theta is value decay per calendar
// day, vega is per 1% IV change, rho is per 1% rate change.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
	IV    float64
}

// Moneyness classifies a contract relative to spot.
type Moneyness string

const (
	DeepITM Moneyness = "DEEP_ITM"
	ITM     Moneyness = "ITM"
	ATM     Moneyness = "ATM"
	OTM     Moneyness = "OTM"
	DeepOTM Moneyness = "DEEP_OTM"
)

// ChainEntry pairs a Quote with its derived Greeks inside a snapshot.
// Quarantined entries failed validation: they are retained for display
// but excluded from aggregate statistics. Entries with nil Greeks had
// no computable IV (arbitrage-violating premium) and are likewise
// excluded from aggregates.
type ChainEntry struct {
	Quote            Quote
	Greeks           *Greeks
	Moneyness        Moneyness
	TimeValue        float64
	Quarantined      bool
	QuarantineReason string
}

// Eligible reports whether the entry participates in aggregate
// statistics (PCR, max pain).
func (e ChainEntry) Eligible() bool {
	return !e.Quarantined && e.Greeks != nil
}

// ChainSnapshot is an ordered-by-strike view of one (symbol, expiry)
// option chain, valued against a single spot price and timestamp.
type ChainSnapshot struct {
	Symbol    string
	Expiry    time.Time
	SpotPrice float64
	Timestamp time.Time
	Entries   []ChainEntry
}

// Entry returns the entry for (strike, type), or nil if absent.
func (s *ChainSnapshot) Entry(strike float64, typ OptionType) *ChainEntry {
	for i := range s.Entries {
		if s.Entries[i].Quote.Strike == strike && s.Entries[i].Quote.Type == typ {
			return &s.Entries[i]
		}
	}
	return nil
}

// Strikes returns the distinct strikes present in the snapshot, in
// ascending order.
func (s *ChainSnapshot) Strikes() []float64 {
	var strikes []float64
	for _, e := range s.Entries {
		if len(strikes) == 0 || strikes[len(strikes)-1] != e.Quote.Strike {
			strikes = append(strikes, e.Quote.Strike)
		}
	}
	return strikes
}

// LotSize returns the lot size of the chain's contracts (NSE publishes
// one lot size per underlying/expiry). Zero when the snapshot is empty.
func (s *ChainSnapshot) LotSize() int {
	for _, e := range s.Entries {
		if e.Quote.LotSize > 0 {
			return e.Quote.LotSize
		}
	}
	return 0
}
