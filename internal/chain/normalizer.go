// Package chain normalizes raw option quotes into a validated,
// strike-ordered snapshot with Greeks attached.
package chain

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	apperrors "options-engine/internal/errors"
	"options-engine/internal/logging"
	"options-engine/internal/models"
	"options-engine/internal/pricing"
)

// Normalizer converts raw quotes into ChainSnapshots. Per-quote
// failures quarantine the quote; they never abort the snapshot.
type Normalizer struct {
	model      pricing.Model
	defaultVol float64
	logger     zerolog.Logger
}

// NewNormalizer creates a Normalizer. defaultVol is used for Greeks
// when the IV solver does not converge for a quote.
func NewNormalizer(model pricing.Model, defaultVol float64, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		model:      model,
		defaultVol: defaultVol,
		logger:     logger,
	}
}

// Normalize builds a snapshot for one (symbol, expiry) chain valued
// against a single spot price. Quotes for a different symbol or expiry
// are quarantined, not silently dropped.
func (n *Normalizer) Normalize(symbol string, expiry time.Time, spot float64, asOf time.Time, quotes []models.Quote) (*models.ChainSnapshot, error) {
	if spot <= 0 {
		return nil, apperrors.NewValidationError("spot", spot, "must be positive")
	}
	if len(quotes) == 0 {
		return nil, apperrors.ErrEmptyChain
	}

	tte := expiry.Sub(asOf).Hours() / 24 / 365
	if tte < 0 {
		tte = 0
	}

	entries := make([]models.ChainEntry, 0, len(quotes))
	for _, q := range quotes {
		entry := models.ChainEntry{Quote: q}

		if reason := validateQuote(q, symbol, expiry); reason != "" {
			entry.Quarantined = true
			entry.QuarantineReason = reason
			logging.LogQuarantine(n.logger, q.Symbol, q.Strike, string(q.Type), reason)
			entries = append(entries, entry)
			continue
		}

		entry.Moneyness = pricing.ClassifyMoneyness(spot, q.Strike, q.Type)
		entry.TimeValue = pricing.TimeValue(q.Mid(), spot, q.Strike, q.Type)
		entry.Greeks = n.computeGreeks(q, spot, tte)

		entries = append(entries, entry)
	}

	// Ascending by strike; calls before puts within a strike.
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Quote, entries[j].Quote
		if a.Strike != b.Strike {
			return a.Strike < b.Strike
		}
		return a.Type == models.Call && b.Type == models.Put
	})

	return &models.ChainSnapshot{
		Symbol:    symbol,
		Expiry:    expiry,
		SpotPrice: spot,
		Timestamp: asOf,
		Entries:   entries,
	}, nil
}

// computeGreeks attaches Greeks to an entry. A premium below intrinsic
// admits no volatility: such entries get nil Greeks and drop out of
// aggregates. A non-converging solve falls back to the configured
// default volatility.
func (n *Normalizer) computeGreeks(q models.Quote, spot, tte float64) *models.Greeks {
	if tte == 0 {
		_, g, err := n.model.Evaluate(spot, q.Strike, 0, 0, q.Type)
		if err != nil {
			return nil
		}
		return &g
	}

	sigma, err := n.model.ImpliedVol(q.Mid(), spot, q.Strike, tte, q.Type)
	if err != nil {
		var convErr *apperrors.IVConvergenceError
		if !apperrors.As(err, &convErr) {
			return nil
		}
		n.logger.Debug().
			Str("symbol", q.Symbol).
			Float64("strike", q.Strike).
			Str("type", string(q.Type)).
			Float64("fallback_vol", n.defaultVol).
			Msg("IV solver did not converge, using default volatility")
		sigma = n.defaultVol
	}

	_, g, err := n.model.Evaluate(spot, q.Strike, tte, sigma, q.Type)
	if err != nil {
		return nil
	}
	return &g
}

func validateQuote(q models.Quote, symbol string, expiry time.Time) string {
	if q.Symbol != symbol {
		return fmt.Sprintf("symbol mismatch: %s", q.Symbol)
	}
	if !q.Expiry.Equal(expiry) {
		return fmt.Sprintf("expiry mismatch: %s", q.Expiry.Format("2006-01-02"))
	}
	if q.Strike <= 0 {
		return "non-positive strike"
	}
	if q.LTP <= 0 {
		return "non-positive last traded price"
	}
	if q.Volume < 0 {
		return "negative volume"
	}
	if q.OI < 0 {
		return "negative open interest"
	}
	if q.Bid > 0 && q.Ask > 0 {
		if q.Bid > q.Ask {
			return "crossed book: bid above ask"
		}
		if q.LTP < q.Bid || q.LTP > q.Ask {
			return "last traded price outside bid-ask"
		}
	}
	return ""
}
