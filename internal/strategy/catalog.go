// Package strategy defines the strategy template catalog and the
// selector that instantiates and scores candidates against a chain
// snapshot.
package strategy

import (
	"math"
	"sort"

	"options-engine/internal/models"
)

// Template is one parameterized strategy shape. Implementations are
// stateless; Build instantiates concrete legs from a snapshot.
type Template interface {
	// Name identifies the strategy.
	Name() string
	// DefinedRisk reports whether the maximum loss is bounded.
	DefinedRisk() bool
	// Applicable reports whether the regime suits the strategy.
	Applicable(r models.MarketRegime) bool
	// Build instantiates legs against the snapshot. Returns an error
	// when no legs satisfying the limits exist; that is a per-template
	// outcome, not a pipeline failure.
	Build(snap *models.ChainSnapshot, r models.MarketRegime, limits models.RiskLimits) (*models.StrategyCandidate, error)
}

// DefaultCatalog returns the built-in strategy templates.
func DefaultCatalog() []Template {
	return []Template{
		BullCallSpread{},
		BearPutSpread{},
		BullPutCredit{},
		BearCallCredit{},
		IronCondor{},
		ShortStrangle{},
		LongStraddle{},
	}
}

// Target short-leg deltas used when scanning for legs. Scans accept
// any leg inside the configured delta window, preferring the closest.
const (
	targetLongDelta  = 0.60
	targetShortDelta = 0.35
	targetWingDelta  = 0.25
)

// eligibleByType returns the eligible entries of one type, ascending
// by strike.
func eligibleByType(snap *models.ChainSnapshot, typ models.OptionType) []*models.ChainEntry {
	var out []*models.ChainEntry
	for i := range snap.Entries {
		e := &snap.Entries[i]
		if e.Quote.Type == typ && e.Eligible() {
			out = append(out, e)
		}
	}
	return out
}

// withinWindow reports whether a leg's absolute delta sits inside the
// configured window.
func withinWindow(e *models.ChainEntry, limits models.RiskLimits) bool {
	d := math.Abs(e.Greeks.Delta)
	return d >= limits.MinLegDelta && d <= limits.MaxLegDelta
}

// byDeltaCloseness returns window-eligible entries ordered by how
// close their absolute delta is to target.
func byDeltaCloseness(entries []*models.ChainEntry, target float64, limits models.RiskLimits) []*models.ChainEntry {
	var out []*models.ChainEntry
	for _, e := range entries {
		if withinWindow(e, limits) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di := math.Abs(math.Abs(out[i].Greeks.Delta) - target)
		dj := math.Abs(math.Abs(out[j].Greeks.Delta) - target)
		return di < dj
	})
	return out
}

// adjacent returns the window-eligible entry at the strike immediately
// beyond fromStrike in the given direction (+1 higher, -1 lower).
func adjacent(entries []*models.ChainEntry, fromStrike float64, dir int, limits models.RiskLimits) *models.ChainEntry {
	var best *models.ChainEntry
	for _, e := range entries {
		k := e.Quote.Strike
		if dir > 0 && k <= fromStrike {
			continue
		}
		if dir < 0 && k >= fromStrike {
			continue
		}
		if !withinWindow(e, limits) {
			continue
		}
		if best == nil ||
			(dir > 0 && k < best.Quote.Strike) ||
			(dir < 0 && k > best.Quote.Strike) {
			best = e
		}
	}
	return best
}

// atmEntry returns the window-eligible entry of the given type whose
// strike is closest to spot.
func atmEntry(snap *models.ChainSnapshot, typ models.OptionType, limits models.RiskLimits) *models.ChainEntry {
	var best *models.ChainEntry
	for _, e := range eligibleByType(snap, typ) {
		if !withinWindow(e, limits) {
			continue
		}
		if best == nil || math.Abs(e.Quote.Strike-snap.SpotPrice) < math.Abs(best.Quote.Strike-snap.SpotPrice) {
			best = e
		}
	}
	return best
}

func leg(e *models.ChainEntry, action models.LegAction) models.StrategyLeg {
	return models.StrategyLeg{
		Strike:  e.Quote.Strike,
		Type:    e.Quote.Type,
		Action:  action,
		Premium: e.Quote.Mid(),
		Delta:   e.Greeks.Delta,
	}
}

// netCredit is positive when premium received exceeds premium paid.
func netCredit(legs []models.StrategyLeg) float64 {
	var net float64
	for _, l := range legs {
		if l.Action == models.ActionSell {
			net += l.Premium
		} else {
			net -= l.Premium
		}
	}
	return net
}

// probAbove estimates P(spot settles above level) from the delta of
// the eligible call struck nearest to level. Falls back to the put at
// that strike, then to an uninformative 0.5.
func probAbove(snap *models.ChainSnapshot, level float64) float64 {
	if c := nearestEligible(snap, models.Call, level); c != nil {
		return clampProb(c.Greeks.Delta)
	}
	if p := nearestEligible(snap, models.Put, level); p != nil {
		return clampProb(1 + p.Greeks.Delta)
	}
	return 0.5
}

func nearestEligible(snap *models.ChainSnapshot, typ models.OptionType, level float64) *models.ChainEntry {
	var best *models.ChainEntry
	for _, e := range eligibleByType(snap, typ) {
		if best == nil || math.Abs(e.Quote.Strike-level) < math.Abs(best.Quote.Strike-level) {
			best = e
		}
	}
	return best
}

func clampProb(p float64) float64 {
	return math.Min(math.Max(p, 0), 1)
}
