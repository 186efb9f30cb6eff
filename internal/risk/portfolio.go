package risk

import (
	"math"

	"options-engine/internal/models"
)

// RiskLevel buckets the portfolio's directional exposure relative to
// capital.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
)

// Exposure-to-capital ratios separating the risk levels.
const (
	moderateExposureRatio = 0.5
	highExposureRatio     = 1.0
)

// AggregateGreeks adds a candidate's per-share Greeks, scaled by the
// number of contracted units, onto the portfolio's net Greeks. IV is
// not additive and stays zero on the aggregate.
func AggregateGreeks(base, cand models.Greeks, units float64) models.Greeks {
	return models.Greeks{
		Delta: base.Delta + cand.Delta*units,
		Gamma: base.Gamma + cand.Gamma*units,
		Theta: base.Theta + cand.Theta*units,
		Vega:  base.Vega + cand.Vega*units,
		Rho:   base.Rho + cand.Rho*units,
	}
}

// DeltaEquivalentExposure is the rupee notional of the portfolio's net
// delta at the given spot.
func DeltaEquivalentExposure(netDelta, spot float64) float64 {
	return math.Abs(netDelta) * spot
}

// ClassifyExposure buckets directional exposure against capital.
func ClassifyExposure(netDelta, spot, capital float64) RiskLevel {
	if capital <= 0 {
		return RiskHigh
	}
	ratio := DeltaEquivalentExposure(netDelta, spot) / capital
	switch {
	case ratio < moderateExposureRatio:
		return RiskLow
	case ratio < highExposureRatio:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// Risk-factor thresholds relative to capital.
const (
	gammaFactorRatio = 0.02
	thetaFactorRatio = 0.01
	vegaFactorRatio  = 0.02
)

// BuildExposureReport summarizes the post-trade portfolio's standard
// sensitivities. annualVol is the prevailing annualized volatility
// (India VIX / 100) and feeds the VaR estimate.
func BuildExposureReport(net models.Greeks, spot, capital, annualVol float64) *models.ExposureReport {
	move := spot * 0.01
	v := PortfolioVaR(net, spot, annualVol)

	rep := &models.ExposureReport{
		DeltaExposure:  DeltaEquivalentExposure(net.Delta, spot),
		OnePctMovePnL:  net.Delta * move,
		GammaRisk:      0.5 * net.Gamma * move * move,
		WeeklyTheta:    net.Theta * 7,
		VegaImpact5Pct: net.Vega * 5,
		RiskLevel:      string(ClassifyExposure(net.Delta, spot, capital)),
		VaR95:          v.OneDay95,
		VaR99:          v.OneDay99,
	}

	if capital > 0 {
		if rep.DeltaExposure/capital >= highExposureRatio {
			rep.RiskFactors = append(rep.RiskFactors, "high directional exposure")
		}
		if math.Abs(rep.GammaRisk)/capital >= gammaFactorRatio {
			rep.RiskFactors = append(rep.RiskFactors, "elevated gamma risk on a 1% move")
		}
		if math.Abs(rep.WeeklyTheta)/capital >= thetaFactorRatio {
			rep.RiskFactors = append(rep.RiskFactors, "heavy weekly time decay")
		}
		if math.Abs(rep.VegaImpact5Pct)/capital >= vegaFactorRatio {
			rep.RiskFactors = append(rep.RiskFactors, "large vega exposure to an IV shift")
		}
	}
	return rep
}
