package risk

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "options-engine/internal/errors"
	"options-engine/internal/models"
)

func testLimits() models.RiskLimits {
	return models.RiskLimits{
		MaxRiskPerTradePct:  2.0,
		MaxPortfolioRiskPct: 10.0,
		MaxLots:             20,
		DeltaWarnThreshold:  100,
		VegaWarnThreshold:   2000,
	}
}

func candidate(maxLoss float64) *models.StrategyCandidate {
	return &models.StrategyCandidate{
		Name:        "BULL_PUT_CREDIT_SPREAD",
		MaxProfit:   50,
		MaxLoss:     maxLoss,
		DefinedRisk: true,
		LotSize:     75,
	}
}

func TestSizeWithinBudget(t *testing.T) {
	s := NewSizer(testLimits(), zerolog.Nop())
	pf := models.PortfolioState{Capital: 500000}

	// 2% of 5,00,000 is 10,000; one lot risks 50*75 = 3,750.
	sz, err := s.Size(candidate(50), pf, models.Greeks{})
	require.NoError(t, err)
	assert.Equal(t, 2, sz.Lots)
	assert.Equal(t, 7500.0, sz.CapitalAtRisk)
	assert.Empty(t, sz.Warnings)
}

func TestSizePositionTooLarge(t *testing.T) {
	s := NewSizer(testLimits(), zerolog.Nop())
	pf := models.PortfolioState{Capital: 500000}

	// One lot risks 200*75 = 15,000 against a 10,000 budget.
	_, err := s.Size(candidate(200), pf, models.Greeks{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPositionTooLarge)

	var tooLarge *apperrors.PositionTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, 15000.0, tooLarge.LossPerLot)
	assert.Equal(t, 10000.0, tooLarge.Budget)
}

func TestSizeRespectsPortfolioHeadroom(t *testing.T) {
	s := NewSizer(testLimits(), zerolog.Nop())

	// 10% of capital is 50,000 but 48,000 is already committed, so
	// the binding budget is the 2,000 headroom, not the 10,000
	// per-trade cap.
	pf := models.PortfolioState{
		Capital: 500000,
		Positions: []models.Position{
			{RiskCommitted: 48000},
		},
	}

	_, err := s.Size(candidate(50), pf, models.Greeks{})
	require.Error(t, err)

	var tooLarge *apperrors.PositionTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, 2000.0, tooLarge.Budget)
}

func TestSizeCapsLots(t *testing.T) {
	limits := testLimits()
	limits.MaxLots = 2
	s := NewSizer(limits, zerolog.Nop())
	pf := models.PortfolioState{Capital: 5000000}

	sz, err := s.Size(candidate(50), pf, models.Greeks{})
	require.NoError(t, err)
	assert.Equal(t, 2, sz.Lots)
}

func TestSizeWarnsOnGreekThresholds(t *testing.T) {
	s := NewSizer(testLimits(), zerolog.Nop())
	pf := models.PortfolioState{Capital: 500000}

	// Two lots of 75 units at -0.9 delta per share nets -135.
	sz, err := s.Size(candidate(50), pf, models.Greeks{Delta: -0.9, Vega: 20})
	require.NoError(t, err)
	require.Len(t, sz.Warnings, 2)
	assert.Contains(t, sz.Warnings[0], "delta")
	assert.Contains(t, sz.Warnings[1], "vega")
}

func TestClassifyExposure(t *testing.T) {
	assert.Equal(t, RiskLow, ClassifyExposure(5, 24750, 500000))
	assert.Equal(t, RiskModerate, ClassifyExposure(15, 24750, 500000))
	assert.Equal(t, RiskHigh, ClassifyExposure(100, 24750, 500000))
	assert.Equal(t, RiskHigh, ClassifyExposure(1, 24750, 0))
}

func TestBuildExposureReport(t *testing.T) {
	net := models.Greeks{Delta: 10, Gamma: 0.02, Theta: -500, Vega: 800}
	rep := BuildExposureReport(net, 24750, 500000, 0.13)
	require.NotNil(t, rep)

	assert.InDelta(t, 247500.0, rep.DeltaExposure, 1e-9)
	assert.InDelta(t, 2475.0, rep.OnePctMovePnL, 1e-9)
	// 0.5 * 0.02 * 247.5^2
	assert.InDelta(t, 612.5625, rep.GammaRisk, 1e-6)
	assert.InDelta(t, -3500.0, rep.WeeklyTheta, 1e-9)
	assert.InDelta(t, 4000.0, rep.VegaImpact5Pct, 1e-9)
	assert.Equal(t, string(RiskLow), rep.RiskLevel)
	assert.Greater(t, rep.VaR99, rep.VaR95)

	// Weekly decay is 0.7% of capital, under the 1% factor cutoff.
	assert.Empty(t, rep.RiskFactors)
}

func TestBuildExposureReportFlagsRiskFactors(t *testing.T) {
	net := models.Greeks{Delta: 25, Theta: -1000, Vega: 2500}
	rep := BuildExposureReport(net, 24750, 500000, 0.13)

	assert.Equal(t, string(RiskHigh), rep.RiskLevel)
	require.Len(t, rep.RiskFactors, 3)
	assert.Contains(t, rep.RiskFactors[0], "directional")
	assert.Contains(t, rep.RiskFactors[1], "time decay")
	assert.Contains(t, rep.RiskFactors[2], "vega")
}

func TestPortfolioVaR(t *testing.T) {
	v := PortfolioVaR(models.Greeks{Delta: 10}, 24750, 0.15)

	assert.Greater(t, v.OneDay95, 0.0)
	assert.Greater(t, v.OneDay99, v.OneDay95)
}

func TestSizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	s := NewSizer(testLimits(), zerolog.Nop())

	properties.Property("capital at risk never exceeds either budget", prop.ForAll(
		func(maxLoss, capital, committed float64) bool {
			pf := models.PortfolioState{
				Capital:   capital,
				Positions: []models.Position{{RiskCommitted: committed}},
			}
			sz, err := s.Size(candidate(maxLoss), pf, models.Greeks{})
			if err != nil {
				return apperrors.Is(err, apperrors.ErrPositionTooLarge)
			}
			perTrade := 0.02 * capital
			headroom := 0.10*capital - committed
			return sz.Lots >= 1 &&
				sz.CapitalAtRisk <= perTrade+1e-9 &&
				sz.CapitalAtRisk <= headroom+1e-9
		},
		gen.Float64Range(1, 500),
		gen.Float64Range(100000, 10000000),
		gen.Float64Range(0, 200000),
	))

	properties.TestingRun(t)
}
