package pricing

import (
	"math"

	apperrors "options-engine/internal/errors"
	"options-engine/internal/models"
)

const (
	// Volatility search domain. NSE index options never trade near the
	// upper bound; it exists to keep the solver's bracket finite.
	ivMin = 1e-4
	ivMax = 5.0

	// Convergence is judged in price space, not vol space.
	ivPriceTolerance = 0.01
	ivMaxIterations  = 50
)

// ImpliedVol solves for the volatility that reproduces the observed
// premium. Newton-Raphson with a bisection fallback when vega is too
// flat to make progress or an iterate escapes the bracket.
func (m Model) ImpliedVol(premium, spot, strike, timeToExpiry float64, typ models.OptionType) (float64, error) {
	if premium <= 0 {
		return 0, apperrors.NewValidationError("premium", premium, "must be positive")
	}
	if timeToExpiry <= 0 {
		return 0, apperrors.NewValidationError("time_to_expiry", timeToExpiry, "must be positive")
	}

	intrinsic := Intrinsic(spot, strike, typ)
	if premium < intrinsic {
		return 0, &apperrors.InvalidPremiumError{
			Strike:    strike,
			Type:      string(typ),
			Premium:   premium,
			Intrinsic: intrinsic,
		}
	}

	// Brenner-Subrahmanyam seed, clamped into the search domain.
	sigma := premium / spot * math.Sqrt(2*math.Pi/timeToExpiry)
	sigma = math.Min(math.Max(sigma, 0.05), 2.0)

	lo, hi := ivMin, ivMax

	for i := 0; i < ivMaxIterations; i++ {
		price, greeks, err := m.Evaluate(spot, strike, timeToExpiry, sigma, typ)
		if err != nil {
			return 0, err
		}

		diff := price - premium
		if math.Abs(diff) < ivPriceTolerance {
			return sigma, nil
		}

		// Black-Scholes price is monotone in sigma; tighten the bracket.
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}

		// Vega here is per 1% vol; rescale for the Newton step.
		vega := greeks.Vega * 100
		if vega > 1e-8 {
			next := sigma - diff/vega
			if next > lo && next < hi {
				sigma = next
				continue
			}
		}
		sigma = (lo + hi) / 2
	}

	return 0, &apperrors.IVConvergenceError{
		Strike:     strike,
		Type:       string(typ),
		Premium:    premium,
		Iterations: ivMaxIterations,
	}
}
