package strategy

import (
	"errors"
	"math"

	"options-engine/internal/models"
)

// errNoLegs signals a template could not place legs inside the delta
// window. The selector skips the template and moves on.
var errNoLegs = errors.New("no legs within delta window")

// adverseMovePct is the spot move used to estimate exposure on
// strategies whose loss or profit is not strike-bounded.
const adverseMovePct = 0.05

// BullCallSpread buys a call near the money and sells a further OTM
// call. Debit, defined risk, directional.
type BullCallSpread struct{}

func (BullCallSpread) Name() string      { return "BULL_CALL_SPREAD" }
func (BullCallSpread) DefinedRisk() bool { return true }

func (BullCallSpread) Applicable(r models.MarketRegime) bool {
	return r.Trend == models.TrendBullish
}

func (BullCallSpread) Build(snap *models.ChainSnapshot, r models.MarketRegime, limits models.RiskLimits) (*models.StrategyCandidate, error) {
	calls := eligibleByType(snap, models.Call)
	for _, long := range byDeltaCloseness(calls, targetLongDelta, limits) {
		short := adjacent(calls, long.Quote.Strike, +1, limits)
		if short == nil {
			continue
		}
		debit := long.Quote.Mid() - short.Quote.Mid()
		if debit <= 0 {
			continue
		}
		width := short.Quote.Strike - long.Quote.Strike
		be := long.Quote.Strike + debit
		return &models.StrategyCandidate{
			Name:        "BULL_CALL_SPREAD",
			Legs:        []models.StrategyLeg{leg(long, models.ActionBuy), leg(short, models.ActionSell)},
			NetCredit:   -debit,
			MaxProfit:   width - debit,
			MaxLoss:     debit,
			Breakevens:  []float64{be},
			ProbProfit:  probAbove(snap, be),
			Confidence:  r.Confidence,
			DefinedRisk: true,
			LotSize:     snap.LotSize(),
		}, nil
	}
	return nil, errNoLegs
}

// BearPutSpread buys a put near the money and sells a further OTM put.
// Debit, defined risk, directional.
type BearPutSpread struct{}

func (BearPutSpread) Name() string      { return "BEAR_PUT_SPREAD" }
func (BearPutSpread) DefinedRisk() bool { return true }

func (BearPutSpread) Applicable(r models.MarketRegime) bool {
	return r.Trend == models.TrendBearish
}

func (BearPutSpread) Build(snap *models.ChainSnapshot, r models.MarketRegime, limits models.RiskLimits) (*models.StrategyCandidate, error) {
	puts := eligibleByType(snap, models.Put)
	for _, long := range byDeltaCloseness(puts, targetLongDelta, limits) {
		short := adjacent(puts, long.Quote.Strike, -1, limits)
		if short == nil {
			continue
		}
		debit := long.Quote.Mid() - short.Quote.Mid()
		if debit <= 0 {
			continue
		}
		width := long.Quote.Strike - short.Quote.Strike
		be := long.Quote.Strike - debit
		return &models.StrategyCandidate{
			Name:        "BEAR_PUT_SPREAD",
			Legs:        []models.StrategyLeg{leg(long, models.ActionBuy), leg(short, models.ActionSell)},
			NetCredit:   -debit,
			MaxProfit:   width - debit,
			MaxLoss:     debit,
			Breakevens:  []float64{be},
			ProbProfit:  1 - probAbove(snap, be),
			Confidence:  r.Confidence,
			DefinedRisk: true,
			LotSize:     snap.LotSize(),
		}, nil
	}
	return nil, errNoLegs
}

// BullPutCredit sells a put and buys a lower-strike put for
// protection. Credit, defined risk, profits when spot holds above the
// short strike.
type BullPutCredit struct{}

func (BullPutCredit) Name() string      { return "BULL_PUT_CREDIT_SPREAD" }
func (BullPutCredit) DefinedRisk() bool { return true }

func (BullPutCredit) Applicable(r models.MarketRegime) bool {
	return r.Trend == models.TrendNeutral && r.VolRegime == models.VolLow
}

func (BullPutCredit) Build(snap *models.ChainSnapshot, r models.MarketRegime, limits models.RiskLimits) (*models.StrategyCandidate, error) {
	puts := eligibleByType(snap, models.Put)
	for _, short := range byDeltaCloseness(puts, targetShortDelta, limits) {
		wing := adjacent(puts, short.Quote.Strike, -1, limits)
		if wing == nil {
			continue
		}
		credit := short.Quote.Mid() - wing.Quote.Mid()
		if credit <= 0 {
			continue
		}
		width := short.Quote.Strike - wing.Quote.Strike
		be := short.Quote.Strike - credit
		return &models.StrategyCandidate{
			Name:        "BULL_PUT_CREDIT_SPREAD",
			Legs:        []models.StrategyLeg{leg(short, models.ActionSell), leg(wing, models.ActionBuy)},
			NetCredit:   credit,
			MaxProfit:   credit,
			MaxLoss:     width - credit,
			Breakevens:  []float64{be},
			ProbProfit:  probAbove(snap, be),
			Confidence:  r.Confidence,
			DefinedRisk: true,
			LotSize:     snap.LotSize(),
		}, nil
	}
	return nil, errNoLegs
}

// BearCallCredit sells a call and buys a higher-strike call for
// protection. Credit, defined risk, profits when spot holds below the
// short strike.
type BearCallCredit struct{}

func (BearCallCredit) Name() string      { return "BEAR_CALL_CREDIT_SPREAD" }
func (BearCallCredit) DefinedRisk() bool { return true }

func (BearCallCredit) Applicable(r models.MarketRegime) bool {
	return r.Trend == models.TrendNeutral && r.VolRegime == models.VolLow
}

func (BearCallCredit) Build(snap *models.ChainSnapshot, r models.MarketRegime, limits models.RiskLimits) (*models.StrategyCandidate, error) {
	calls := eligibleByType(snap, models.Call)
	for _, short := range byDeltaCloseness(calls, targetShortDelta, limits) {
		wing := adjacent(calls, short.Quote.Strike, +1, limits)
		if wing == nil {
			continue
		}
		credit := short.Quote.Mid() - wing.Quote.Mid()
		if credit <= 0 {
			continue
		}
		width := wing.Quote.Strike - short.Quote.Strike
		be := short.Quote.Strike + credit
		return &models.StrategyCandidate{
			Name:        "BEAR_CALL_CREDIT_SPREAD",
			Legs:        []models.StrategyLeg{leg(short, models.ActionSell), leg(wing, models.ActionBuy)},
			NetCredit:   credit,
			MaxProfit:   credit,
			MaxLoss:     width - credit,
			Breakevens:  []float64{be},
			ProbProfit:  1 - probAbove(snap, be),
			Confidence:  r.Confidence,
			DefinedRisk: true,
			LotSize:     snap.LotSize(),
		}, nil
	}
	return nil, errNoLegs
}

// IronCondor sells an OTM put spread and an OTM call spread. Credit,
// defined risk, profits while spot stays between the short strikes.
type IronCondor struct{}

func (IronCondor) Name() string      { return "IRON_CONDOR" }
func (IronCondor) DefinedRisk() bool { return true }

func (IronCondor) Applicable(r models.MarketRegime) bool {
	return r.Trend == models.TrendNeutral && r.VolRegime != models.VolLow
}

func (IronCondor) Build(snap *models.ChainSnapshot, r models.MarketRegime, limits models.RiskLimits) (*models.StrategyCandidate, error) {
	puts := eligibleByType(snap, models.Put)
	calls := eligibleByType(snap, models.Call)

	for _, shortPut := range byDeltaCloseness(puts, targetWingDelta, limits) {
		putWing := adjacent(puts, shortPut.Quote.Strike, -1, limits)
		if putWing == nil {
			continue
		}
		for _, shortCall := range byDeltaCloseness(calls, targetWingDelta, limits) {
			if shortCall.Quote.Strike <= shortPut.Quote.Strike {
				continue
			}
			callWing := adjacent(calls, shortCall.Quote.Strike, +1, limits)
			if callWing == nil {
				continue
			}

			legs := []models.StrategyLeg{
				leg(shortPut, models.ActionSell), leg(putWing, models.ActionBuy),
				leg(shortCall, models.ActionSell), leg(callWing, models.ActionBuy),
			}
			credit := netCredit(legs)
			if credit <= 0 {
				continue
			}
			putWidth := shortPut.Quote.Strike - putWing.Quote.Strike
			callWidth := callWing.Quote.Strike - shortCall.Quote.Strike
			lowBE := shortPut.Quote.Strike - credit
			highBE := shortCall.Quote.Strike + credit
			return &models.StrategyCandidate{
				Name:        "IRON_CONDOR",
				Legs:        legs,
				NetCredit:   credit,
				MaxProfit:   credit,
				MaxLoss:     math.Max(putWidth, callWidth) - credit,
				Breakevens:  []float64{lowBE, highBE},
				ProbProfit:  clampProb(probAbove(snap, lowBE) - probAbove(snap, highBE)),
				Confidence:  r.Confidence,
				DefinedRisk: true,
				LotSize:     snap.LotSize(),
			}, nil
		}
	}
	return nil, errNoLegs
}

// ShortStrangle sells an OTM put and an OTM call with no wings.
// Credit, undefined risk; exposure is reported at a 5% adverse move.
type ShortStrangle struct{}

func (ShortStrangle) Name() string      { return "SHORT_STRANGLE" }
func (ShortStrangle) DefinedRisk() bool { return false }

func (ShortStrangle) Applicable(r models.MarketRegime) bool {
	return r.Trend == models.TrendNeutral && r.VolRegime == models.VolHigh
}

func (ShortStrangle) Build(snap *models.ChainSnapshot, r models.MarketRegime, limits models.RiskLimits) (*models.StrategyCandidate, error) {
	puts := byDeltaCloseness(eligibleByType(snap, models.Put), targetWingDelta, limits)
	calls := byDeltaCloseness(eligibleByType(snap, models.Call), targetWingDelta, limits)

	for _, shortPut := range puts {
		for _, shortCall := range calls {
			if shortCall.Quote.Strike <= shortPut.Quote.Strike {
				continue
			}
			legs := []models.StrategyLeg{
				leg(shortPut, models.ActionSell),
				leg(shortCall, models.ActionSell),
			}
			credit := netCredit(legs)
			if credit <= 0 {
				continue
			}

			upMove := snap.SpotPrice * (1 + adverseMovePct)
			downMove := snap.SpotPrice * (1 - adverseMovePct)
			lossUp := math.Max(upMove-shortCall.Quote.Strike, 0) - credit
			lossDown := math.Max(shortPut.Quote.Strike-downMove, 0) - credit
			maxLoss := math.Max(math.Max(lossUp, lossDown), credit)

			lowBE := shortPut.Quote.Strike - credit
			highBE := shortCall.Quote.Strike + credit
			return &models.StrategyCandidate{
				Name:        "SHORT_STRANGLE",
				Legs:        legs,
				NetCredit:   credit,
				MaxProfit:   credit,
				MaxLoss:     maxLoss,
				Breakevens:  []float64{lowBE, highBE},
				ProbProfit:  clampProb(probAbove(snap, lowBE) - probAbove(snap, highBE)),
				Confidence:  r.Confidence,
				DefinedRisk: false,
				LotSize:     snap.LotSize(),
			}, nil
		}
	}
	return nil, errNoLegs
}

// LongStraddle buys the ATM call and put at the same strike. Debit,
// loss bounded by the debit, profits on a large move either way.
type LongStraddle struct{}

func (LongStraddle) Name() string      { return "LONG_STRADDLE" }
func (LongStraddle) DefinedRisk() bool { return true }

func (LongStraddle) Applicable(r models.MarketRegime) bool {
	return r.Trend == models.TrendNeutral && r.VolRegime != models.VolLow
}

func (LongStraddle) Build(snap *models.ChainSnapshot, r models.MarketRegime, limits models.RiskLimits) (*models.StrategyCandidate, error) {
	call := atmEntry(snap, models.Call, limits)
	put := atmEntry(snap, models.Put, limits)
	if call == nil || put == nil || call.Quote.Strike != put.Quote.Strike {
		return nil, errNoLegs
	}

	debit := call.Quote.Mid() + put.Quote.Mid()
	if debit <= 0 {
		return nil, errNoLegs
	}
	k := call.Quote.Strike
	lowBE := k - debit
	highBE := k + debit

	// Profit potential is open-ended; report it at a 5% move.
	up := snap.SpotPrice*(1+adverseMovePct) - k - debit
	down := k - snap.SpotPrice*(1-adverseMovePct) - debit
	maxProfit := math.Max(math.Max(up, down), 0)

	return &models.StrategyCandidate{
		Name:        "LONG_STRADDLE",
		Legs:        []models.StrategyLeg{leg(call, models.ActionBuy), leg(put, models.ActionBuy)},
		NetCredit:   -debit,
		MaxProfit:   maxProfit,
		MaxLoss:     debit,
		Breakevens:  []float64{lowBE, highBE},
		ProbProfit:  clampProb(1 - (probAbove(snap, lowBE) - probAbove(snap, highBE))),
		Confidence:  r.Confidence,
		DefinedRisk: true,
		LotSize:     snap.LotSize(),
	}, nil
}
