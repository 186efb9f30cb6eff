// Package regime classifies the market environment of a chain
// snapshot: volatility regime, put-call ratio, max pain and trend.
package regime

import (
	"math"

	"options-engine/internal/models"
)

// Volatility percentile thresholds separating LOW/MEDIUM/HIGH.
const (
	volLowCut  = 33.0
	volHighCut = 66.0
)

// Trend score thresholds separating BEARISH/NEUTRAL/BULLISH.
const (
	trendBearCut = 40.0
	trendBullCut = 60.0
)

// Classifier derives a MarketRegime from a snapshot. Stateless; the
// regime is computed fresh per request and never persisted.
type Classifier struct {
	// VIX values mapping to percentile 0 and 100.
	LowAnchor  float64
	HighAnchor float64
}

// NewClassifier creates a Classifier with the given VIX anchors.
func NewClassifier(lowAnchor, highAnchor float64) *Classifier {
	return &Classifier{LowAnchor: lowAnchor, HighAnchor: highAnchor}
}

// Inputs are the external signals feeding classification. Trend, when
// set, overrides any derived trend; TrendScore (0-100) is used
// otherwise. With neither, the trend is NEUTRAL.
type Inputs struct {
	VIX        float64
	Trend      *models.TrendLabel
	TrendScore *float64
}

// Classify computes the regime for a snapshot. Only eligible entries
// contribute to open-interest aggregates.
func (c *Classifier) Classify(snap *models.ChainSnapshot, in Inputs) models.MarketRegime {
	pct := c.VolPercentile(in.VIX)

	regime := models.MarketRegime{
		VolPercentile: pct,
		VolRegime:     volLabel(pct),
		PCR:           putCallRatio(snap),
		MaxPainStrike: maxPain(snap),
		DaysToExpiry:  daysToExpiry(snap),
	}

	regime.Trend, regime.Confidence = resolveTrend(in, pct)
	return regime
}

// VolPercentile maps a VIX level linearly between the anchors,
// clamped to [0, 100].
func (c *Classifier) VolPercentile(vix float64) float64 {
	pct := (vix - c.LowAnchor) / (c.HighAnchor - c.LowAnchor) * 100
	return math.Min(math.Max(pct, 0), 100)
}

func volLabel(pct float64) models.VolRegime {
	switch {
	case pct < volLowCut:
		return models.VolLow
	case pct <= volHighCut:
		return models.VolMedium
	default:
		return models.VolHigh
	}
}

// putCallRatio returns total put OI over total call OI across eligible
// entries. Nil when call OI is zero: the ratio is undefined, which is
// neither zero nor an error.
func putCallRatio(snap *models.ChainSnapshot) *float64 {
	var callOI, putOI int64
	for _, e := range snap.Entries {
		if !e.Eligible() {
			continue
		}
		if e.Quote.Type == models.Call {
			callOI += e.Quote.OI
		} else {
			putOI += e.Quote.OI
		}
	}
	if callOI == 0 {
		return nil
	}
	pcr := float64(putOI) / float64(callOI)
	return &pcr
}

// maxPain returns the expiry strike minimizing the aggregate payout to
// option holders. Ties resolve to the strike closest to spot.
func maxPain(snap *models.ChainSnapshot) float64 {
	var eligible []models.ChainEntry
	for _, e := range snap.Entries {
		if e.Eligible() {
			eligible = append(eligible, e)
		}
	}
	if len(eligible) == 0 {
		return 0
	}

	seen := make(map[float64]bool)
	var strikes []float64
	for _, e := range eligible {
		if !seen[e.Quote.Strike] {
			seen[e.Quote.Strike] = true
			strikes = append(strikes, e.Quote.Strike)
		}
	}

	best := strikes[0]
	bestPain := math.Inf(1)
	for _, k := range strikes {
		pain := painAt(eligible, k)
		switch {
		case pain < bestPain:
			best, bestPain = k, pain
		case pain == bestPain:
			if math.Abs(k-snap.SpotPrice) < math.Abs(best-snap.SpotPrice) {
				best = k
			}
		}
	}
	return best
}

func painAt(entries []models.ChainEntry, settle float64) float64 {
	var pain float64
	for _, e := range entries {
		oi := float64(e.Quote.OI)
		switch e.Quote.Type {
		case models.Call:
			if settle > e.Quote.Strike {
				pain += (settle - e.Quote.Strike) * oi
			}
		case models.Put:
			if settle < e.Quote.Strike {
				pain += (e.Quote.Strike - settle) * oi
			}
		}
	}
	return pain
}

func daysToExpiry(snap *models.ChainSnapshot) int {
	d := snap.Expiry.Sub(snap.Timestamp).Hours() / 24
	if d < 0 {
		return 0
	}
	return int(math.Round(d))
}

// resolveTrend picks the trend label and the overall regime confidence.
// Confidence blends how far the vol percentile and trend score sit
// from their classification boundaries.
func resolveTrend(in Inputs, volPct float64) (models.TrendLabel, float64) {
	volConf := boundaryDistance(volPct, volLowCut, volHighCut, 16.5)

	if in.Trend != nil {
		return *in.Trend, clamp01(0.5*volConf + 0.5)
	}

	if in.TrendScore == nil {
		return models.TrendNeutral, clamp01(0.5*volConf + 0.25)
	}

	score := *in.TrendScore
	var label models.TrendLabel
	switch {
	case score > trendBullCut:
		label = models.TrendBullish
	case score < trendBearCut:
		label = models.TrendBearish
	default:
		label = models.TrendNeutral
	}

	trendConf := boundaryDistance(score, trendBearCut, trendBullCut, 20)
	return label, clamp01(0.5*volConf + 0.5*trendConf)
}

// boundaryDistance normalizes the distance from the nearest
// classification cut to [0,1] using the given half-band scale.
func boundaryDistance(v, lowCut, highCut, scale float64) float64 {
	d := math.Min(math.Abs(v-lowCut), math.Abs(v-highCut))
	return clamp01(d / scale)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
