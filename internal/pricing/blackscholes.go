// Package pricing implements the Black-Scholes pricing kernel for
// European index options and the implied volatility solver.
package pricing

import (
	"math"

	apperrors "options-engine/internal/errors"
	"options-engine/internal/models"
)

// Model is the pricing kernel. Stateless; safe for concurrent use.
type Model struct {
	// RiskFreeRate is the annualized continuously-compounded rate.
	RiskFreeRate float64
}

// NewModel creates a pricing kernel with the given risk-free rate.
func NewModel(riskFreeRate float64) Model {
	return Model{RiskFreeRate: riskFreeRate}
}

// Evaluate returns the theoretical price and Greeks of a European
// option. timeToExpiry is in years. Theta is per calendar day, vega per
// 1% volatility change, rho per 1% rate change.
func (m Model) Evaluate(spot, strike, timeToExpiry, sigma float64, typ models.OptionType) (float64, models.Greeks, error) {
	if spot <= 0 {
		return 0, models.Greeks{}, apperrors.NewValidationError("spot", spot, "must be positive")
	}
	if strike <= 0 {
		return 0, models.Greeks{}, apperrors.NewValidationError("strike", strike, "must be positive")
	}
	if timeToExpiry < 0 {
		return 0, models.Greeks{}, apperrors.NewValidationError("time_to_expiry", timeToExpiry, "must be non-negative")
	}
	if sigma < 0 {
		return 0, models.Greeks{}, apperrors.NewValidationError("sigma", sigma, "must be non-negative")
	}

	// Degenerate cases collapse to intrinsic value with terminal Greeks.
	if timeToExpiry == 0 || sigma == 0 {
		price := Intrinsic(spot, strike, typ)
		g := models.Greeks{IV: sigma}
		if typ == models.Call && spot > strike {
			g.Delta = 1
		} else if typ == models.Put && spot < strike {
			g.Delta = -1
		}
		return price, g, nil
	}

	sqrtT := math.Sqrt(timeToExpiry)
	d1 := (math.Log(spot/strike) + (m.RiskFreeRate+0.5*sigma*sigma)*timeToExpiry) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	discount := math.Exp(-m.RiskFreeRate * timeToExpiry)

	var price, delta, thetaAnnual, rho float64
	switch typ {
	case models.Call:
		price = spot*normCDF(d1) - strike*discount*normCDF(d2)
		delta = normCDF(d1)
		thetaAnnual = -spot*normPDF(d1)*sigma/(2*sqrtT) - m.RiskFreeRate*strike*discount*normCDF(d2)
		rho = strike * timeToExpiry * discount * normCDF(d2)
	case models.Put:
		price = strike*discount*normCDF(-d2) - spot*normCDF(-d1)
		delta = normCDF(d1) - 1
		thetaAnnual = -spot*normPDF(d1)*sigma/(2*sqrtT) + m.RiskFreeRate*strike*discount*normCDF(-d2)
		rho = -strike * timeToExpiry * discount * normCDF(-d2)
	default:
		return 0, models.Greeks{}, apperrors.NewValidationError("type", typ, "must be CE or PE")
	}

	g := models.Greeks{
		Delta: delta,
		Gamma: normPDF(d1) / (spot * sigma * sqrtT),
		Theta: thetaAnnual / 365.0,
		Vega:  spot * normPDF(d1) * sqrtT / 100.0,
		Rho:   rho / 100.0,
		IV:    sigma,
	}
	return price, g, nil
}

// Intrinsic returns the exercise value of the option at the given spot.
func Intrinsic(spot, strike float64, typ models.OptionType) float64 {
	if typ == models.Call {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}

// TimeValue returns the extrinsic component of a premium, floored at
// zero for arbitrage-violating quotes.
func TimeValue(premium, spot, strike float64, typ models.OptionType) float64 {
	tv := premium - Intrinsic(spot, strike, typ)
	if tv < 0 {
		return 0
	}
	return tv
}

// normCDF is the standard normal CDF. Erfc keeps full precision in the
// tails where the naive 0.5*(1+erf) form loses digits.
func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
