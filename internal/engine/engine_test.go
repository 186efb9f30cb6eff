package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-engine/internal/config"
	apperrors "options-engine/internal/errors"
	"options-engine/internal/models"
)

var (
	testExpiry = time.Date(2025, 9, 30, 15, 30, 0, 0, time.UTC)
	testAsOf   = testExpiry.AddDate(0, 0, -7)
)

func testConfig() *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{
			RiskFreeRate:      0.065,
			DefaultVolatility: 0.18,
			VolLowAnchor:      12,
			VolHighAnchor:     30,
		},
		Risk: config.RiskConfig{
			MaxRiskPerTradePct:  2.0,
			MaxPortfolioRiskPct: 10.0,
			MinLegDelta:         0.15,
			MaxLegDelta:         0.85,
			MinDaysToExpiry:     1,
			MaxDaysToExpiry:     45,
			MaxLots:             20,
			DeltaWarnThreshold:  100,
			VegaWarnThreshold:   2000,
		},
		Selector: config.SelectorConfig{
			WeightProbProfit: 0.5,
			WeightRiskReward: 0.3,
			WeightConfidence: 0.2,
		},
	}
}

func newTestEngine() *Engine {
	return New(testConfig(), zerolog.Nop())
}

func quote(strike float64, typ models.OptionType, ltp float64) models.Quote {
	return models.Quote{
		Symbol:    "NIFTY",
		Expiry:    testExpiry,
		Strike:    strike,
		Type:      typ,
		LTP:       ltp,
		Bid:       ltp - 1,
		Ask:       ltp + 1,
		Volume:    5000,
		OI:        100000,
		LotSize:   75,
		Timestamp: testAsOf,
	}
}

// Premia consistent with roughly 14% implied vol at 7 days out.
func twoStrikeQuotes() []models.Quote {
	return []models.Quote{
		quote(24700, models.Call, 233),
		quote(24700, models.Put, 153),
		quote(24800, models.Call, 184),
		quote(24800, models.Put, 203),
	}
}

func TestRecommendLowVolNeutral(t *testing.T) {
	e := newTestEngine()

	rec, err := e.Recommend(context.Background(), Request{
		Symbol:    "NIFTY",
		Expiry:    testExpiry,
		Spot:      24750,
		VIX:       13,
		AsOf:      testAsOf,
		Quotes:    twoStrikeQuotes(),
		Portfolio: models.PortfolioState{Capital: 500000},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeSelected, rec.Outcome)
	assert.Equal(t, models.VolLow, rec.Regime.VolRegime)
	assert.Equal(t, models.TrendNeutral, rec.Regime.Trend)
	assert.Equal(t, 7, rec.Regime.DaysToExpiry)

	require.NotNil(t, rec.Strategy)
	assert.True(t, rec.Strategy.DefinedRisk)
	assert.Greater(t, rec.Strategy.NetCredit, 0.0)

	require.NotNil(t, rec.Sizing)
	assert.GreaterOrEqual(t, rec.Sizing.Lots, 1)
	assert.LessOrEqual(t, rec.Sizing.CapitalAtRisk, 0.02*500000+1e-9)

	require.NotNil(t, rec.Sizing.Exposure)
	assert.NotEmpty(t, rec.Sizing.Exposure.RiskLevel)
	assert.Greater(t, rec.Sizing.Exposure.VaR99, rec.Sizing.Exposure.VaR95)

	assert.NotEmpty(t, rec.Checklist)
	assert.Zero(t, rec.QuarantinedQuotes)
}

func TestRecommendNoViableStrategy(t *testing.T) {
	e := newTestEngine()

	// Bullish regime wants a call spread, but the only calls sit far
	// outside the leg delta window.
	bullish := models.TrendBullish
	quotes := []models.Quote{
		{Symbol: "NIFTY", Expiry: testExpiry, Strike: 23000, Type: models.Call, LTP: 1760, LotSize: 75, Timestamp: testAsOf},
		{Symbol: "NIFTY", Expiry: testExpiry, Strike: 26500, Type: models.Call, LTP: 2, LotSize: 75, Timestamp: testAsOf},
	}

	rec, err := e.Recommend(context.Background(), Request{
		Symbol:    "NIFTY",
		Expiry:    testExpiry,
		Spot:      24750,
		VIX:       28,
		AsOf:      testAsOf,
		Trend:     &bullish,
		Quotes:    quotes,
		Portfolio: models.PortfolioState{Capital: 500000},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeNoViableStrategy, rec.Outcome)
	assert.NotEmpty(t, rec.Reason)
	assert.Nil(t, rec.Strategy)
	assert.Nil(t, rec.Sizing)
}

func TestRecommendPositionTooLarge(t *testing.T) {
	e := newTestEngine()

	// 2% of 1,00,000 is 2,000 but one lot of the 50-point-wide credit
	// spread risks about 3,750.
	rec, err := e.Recommend(context.Background(), Request{
		Symbol:    "NIFTY",
		Expiry:    testExpiry,
		Spot:      24750,
		VIX:       13,
		AsOf:      testAsOf,
		Quotes:    twoStrikeQuotes(),
		Portfolio: models.PortfolioState{Capital: 100000},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OutcomePositionTooLarge, rec.Outcome)
	assert.NotEmpty(t, rec.Reason)
	// The rejected candidate is reported so the caller can see what
	// was considered.
	assert.NotNil(t, rec.Strategy)
	assert.Nil(t, rec.Sizing)
}

func TestRecommendTimeout(t *testing.T) {
	e := newTestEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Recommend(ctx, Request{
		Symbol:    "NIFTY",
		Expiry:    testExpiry,
		Spot:      24750,
		VIX:       13,
		AsOf:      testAsOf,
		Quotes:    twoStrikeQuotes(),
		Portfolio: models.PortfolioState{Capital: 500000},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRecommendationTimeout)

	var terr *apperrors.TimeoutError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "NIFTY", terr.Symbol)
}

func TestRecommendEmptyChain(t *testing.T) {
	e := newTestEngine()

	_, err := e.Recommend(context.Background(), Request{
		Symbol:    "NIFTY",
		Expiry:    testExpiry,
		Spot:      24750,
		VIX:       13,
		AsOf:      testAsOf,
		Portfolio: models.PortfolioState{Capital: 500000},
	})
	assert.ErrorIs(t, err, apperrors.ErrEmptyChain)
}

func TestRecommendRejectsUnknownSymbol(t *testing.T) {
	e := newTestEngine()

	_, err := e.Recommend(context.Background(), Request{
		Symbol:    "RELIANCE",
		Expiry:    testExpiry,
		Spot:      3000,
		AsOf:      testAsOf,
		Quotes:    twoStrikeQuotes(),
		Portfolio: models.PortfolioState{Capital: 500000},
	})

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "symbol", verr.Field)
}

func TestRecommendCountsQuarantinedQuotes(t *testing.T) {
	e := newTestEngine()

	quotes := append(twoStrikeQuotes(), models.Quote{
		Symbol: "NIFTY", Expiry: testExpiry, Strike: 24900, Type: models.Call,
		LTP: 50, Bid: 60, Ask: 55, LotSize: 75, Timestamp: testAsOf, // crossed book
	})

	rec, err := e.Recommend(context.Background(), Request{
		Symbol:    "NIFTY",
		Expiry:    testExpiry,
		Spot:      24750,
		VIX:       13,
		AsOf:      testAsOf,
		Quotes:    quotes,
		Portfolio: models.PortfolioState{Capital: 500000},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.QuarantinedQuotes)
}
