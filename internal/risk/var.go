package risk

import (
	"math"

	"options-engine/internal/models"
)

// One-sided normal quantiles for the standard confidence levels.
const (
	z95 = 1.645
	z99 = 2.326
)

// tradingDaysPerYear converts annualized volatility to a one-day move.
const tradingDaysPerYear = 252

// VaR is the one-day parametric value-at-risk of the portfolio's
// delta-equivalent exposure, in rupees.
type VaR struct {
	OneDay95 float64
	OneDay99 float64
}

// PortfolioVaR computes delta-normal VaR from net Greeks, spot and the
// prevailing annualized volatility. Gamma and vega terms are ignored;
// this is a first-order estimate for sizing sanity, not a margin model.
func PortfolioVaR(net models.Greeks, spot, annualVol float64) VaR {
	exposure := DeltaEquivalentExposure(net.Delta, spot)
	dailyVol := annualVol / math.Sqrt(tradingDaysPerYear)
	return VaR{
		OneDay95: exposure * dailyVol * z95,
		OneDay99: exposure * dailyVol * z99,
	}
}
