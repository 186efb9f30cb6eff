package models

// StrategyLeg is one concrete leg of an instantiated strategy.
// Premium is the per-share price the leg trades at (bid-ask mid).
type StrategyLeg struct {
	Strike  float64
	Type    OptionType
	Action  LegAction
	Premium float64
	Delta   float64
}

// StrategyCandidate is a strategy template instantiated against a
// chain snapshot. All money amounts are per share; multiply by lot
// size and lot count for rupee exposure.
type StrategyCandidate struct {
	Name string
	Legs []StrategyLeg
	// NetCredit is positive for credit strategies and negative for
	// debit strategies (the net debit paid).
	NetCredit   float64
	MaxProfit   float64
	MaxLoss     float64
	Breakevens  []float64
	ProbProfit  float64
	Confidence  float64
	Score       float64
	DefinedRisk bool
	LotSize     int
}

// NetGreeks returns the candidate's per-share Greeks, signed by leg
// action, using the supplied per-leg Greeks lookup.
func (c *StrategyCandidate) NetGreeks(lookup func(strike float64, typ OptionType) *Greeks) Greeks {
	var net Greeks
	for _, leg := range c.Legs {
		g := lookup(leg.Strike, leg.Type)
		if g == nil {
			continue
		}
		sign := 1.0
		if leg.Action == ActionSell {
			sign = -1.0
		}
		net.Delta += sign * g.Delta
		net.Gamma += sign * g.Gamma
		net.Theta += sign * g.Theta
		net.Vega += sign * g.Vega
		net.Rho += sign * g.Rho
	}
	return net
}
