package pricing

import (
	"math"

	"options-engine/internal/models"
)

// Moneyness band thresholds as a fraction of spot.
const (
	atmBand  = 0.01
	deepBand = 0.05
)

// ClassifyMoneyness buckets a contract by the distance of its strike
// from spot. Contracts within 1% of spot are ATM on both sides; beyond
// 5% they are deep.
func ClassifyMoneyness(spot, strike float64, typ models.OptionType) models.Moneyness {
	dist := (spot - strike) / spot
	if typ == models.Put {
		dist = -dist
	}

	switch {
	case math.Abs(dist) <= atmBand:
		return models.ATM
	case dist > deepBand:
		return models.DeepITM
	case dist > 0:
		return models.ITM
	case dist < -deepBand:
		return models.DeepOTM
	default:
		return models.OTM
	}
}
