package models

// VolRegime labels the prevailing volatility environment.
type VolRegime string

const (
	VolLow    VolRegime = "LOW"
	VolMedium VolRegime = "MEDIUM"
	VolHigh   VolRegime = "HIGH"
)

// TrendLabel labels the prevailing directional bias.
type TrendLabel string

const (
	TrendBullish TrendLabel = "BULLISH"
	TrendBearish TrendLabel = "BEARISH"
	TrendNeutral TrendLabel = "NEUTRAL"
)

// MarketRegime is the classified market environment for one snapshot.
// Computed fresh per recommendation request, never persisted.
type MarketRegime struct {
	VolPercentile float64
	VolRegime     VolRegime
	Trend         TrendLabel
	// PCR is nil when total call open interest is zero (undefined,
	// not zero and not an error).
	PCR           *float64
	MaxPainStrike float64
	DaysToExpiry  int
	// Confidence in [0,1]: how decisively the inputs sit inside the
	// classified regime rather than at its boundaries.
	Confidence float64
}
