package models

// Position is one open multi-leg options position. Owned by the
// portfolio collaborator; the engine only reads it.
type Position struct {
	Symbol     string
	Legs       []StrategyLeg
	Lots       int
	LotSize    int
	EntryPrice float64
	Greeks     Greeks
	// RiskCommitted is the max-loss rupee amount reserved against
	// the portfolio risk budget when the position was opened.
	RiskCommitted float64
}

// PortfolioState is a read-only view of the account. Sizing decisions
// are returned as recommendations, never applied to it.
type PortfolioState struct {
	Positions []Position
	NetGreeks Greeks
	Capital   float64
}

// CommittedRisk returns the rupee risk already reserved by open
// positions.
func (p PortfolioState) CommittedRisk() float64 {
	var total float64
	for _, pos := range p.Positions {
		total += pos.RiskCommitted
	}
	return total
}

// RiskLimits is per-request configuration. Immutable for the duration
// of one recommendation cycle; pass by value, never share mutably.
type RiskLimits struct {
	MaxRiskPerTradePct  float64
	MaxPortfolioRiskPct float64
	MinLegDelta         float64
	MaxLegDelta         float64
	MinDaysToExpiry     int
	MaxDaysToExpiry     int
	MaxLots             int
	DeltaWarnThreshold  float64
	VegaWarnThreshold   float64
}

// Sizing is the position-size decision for a selected candidate.
type Sizing struct {
	Lots            int
	CapitalAtRisk   float64
	PortfolioGreeks Greeks
	Exposure        *ExposureReport
	Warnings        []string
}

// ExposureReport summarizes the post-trade portfolio's sensitivity to
// standard market moves. All rupee amounts.
type ExposureReport struct {
	DeltaExposure float64
	// OnePctMovePnL is the P&L of a 1% spot move in the delta's favor.
	OnePctMovePnL float64
	// GammaRisk is the second-order P&L of the same 1% move.
	GammaRisk float64
	// WeeklyTheta is seven days of decay at the current rate.
	WeeklyTheta float64
	// VegaImpact5Pct is the P&L of a 5-point IV change.
	VegaImpact5Pct float64
	RiskLevel      string
	RiskFactors    []string
	VaR95          float64
	VaR99          float64
}
