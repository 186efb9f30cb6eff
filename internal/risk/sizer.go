// Package risk sizes selected strategies against per-trade and
// portfolio risk budgets and aggregates portfolio exposure.
package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	apperrors "options-engine/internal/errors"
	"options-engine/internal/logging"
	"options-engine/internal/models"
)

// Sizer converts a strategy candidate into a lot count under the
// configured risk limits. Breaching a budget blocks the trade;
// breaching a Greek threshold only warns.
type Sizer struct {
	limits models.RiskLimits
	logger zerolog.Logger
}

// NewSizer creates a Sizer with the given limits.
func NewSizer(limits models.RiskLimits, logger zerolog.Logger) *Sizer {
	return &Sizer{limits: limits, logger: logger}
}

// Size returns the lot count for a candidate given the current
// portfolio. The candidate's net Greeks are supplied by the caller so
// the sizer stays independent of chain internals.
func (s *Sizer) Size(c *models.StrategyCandidate, pf models.PortfolioState, candGreeks models.Greeks) (*models.Sizing, error) {
	if c.MaxLoss <= 0 {
		return nil, apperrors.NewValidationError("max_loss", c.MaxLoss, "must be positive")
	}
	if c.LotSize <= 0 {
		return nil, apperrors.NewValidationError("lot_size", c.LotSize, "must be positive")
	}

	lossPerLot := c.MaxLoss * float64(c.LotSize)

	perTrade := s.limits.MaxRiskPerTradePct / 100 * pf.Capital
	headroom := s.limits.MaxPortfolioRiskPct/100*pf.Capital - pf.CommittedRisk()
	budget := math.Min(perTrade, headroom)

	lots := int(math.Floor(budget / lossPerLot))
	if lots < 1 {
		return nil, &apperrors.PositionTooLargeError{
			LossPerLot: lossPerLot,
			Budget:     budget,
		}
	}
	if s.limits.MaxLots > 0 && lots > s.limits.MaxLots {
		lots = s.limits.MaxLots
	}

	units := float64(lots * c.LotSize)
	net := AggregateGreeks(pf.NetGreeks, candGreeks, units)

	sizing := &models.Sizing{
		Lots:            lots,
		CapitalAtRisk:   float64(lots) * lossPerLot,
		PortfolioGreeks: net,
	}

	if s.limits.DeltaWarnThreshold > 0 && math.Abs(net.Delta) > s.limits.DeltaWarnThreshold {
		sizing.Warnings = append(sizing.Warnings,
			fmt.Sprintf("net delta %.1f exceeds threshold %.1f", net.Delta, s.limits.DeltaWarnThreshold))
		logging.LogRiskWarning(s.logger, c.Name, "net_delta", net.Delta, s.limits.DeltaWarnThreshold)
	}
	if s.limits.VegaWarnThreshold > 0 && math.Abs(net.Vega) > s.limits.VegaWarnThreshold {
		sizing.Warnings = append(sizing.Warnings,
			fmt.Sprintf("net vega %.1f exceeds threshold %.1f", net.Vega, s.limits.VegaWarnThreshold))
		logging.LogRiskWarning(s.logger, c.Name, "net_vega", net.Vega, s.limits.VegaWarnThreshold)
	}

	return sizing, nil
}
