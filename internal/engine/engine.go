// Package engine runs the recommendation pipeline: normalize the
// chain, classify the regime, select a strategy and size it.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"options-engine/internal/chain"
	"options-engine/internal/config"
	apperrors "options-engine/internal/errors"
	"options-engine/internal/logging"
	"options-engine/internal/models"
	"options-engine/internal/pricing"
	"options-engine/internal/regime"
	"options-engine/internal/risk"
	"options-engine/internal/strategy"
)

// Supported index underlyings.
var supportedSymbols = map[string]bool{
	"NIFTY":     true,
	"BANKNIFTY": true,
}

// Request carries everything one recommendation cycle needs. The
// engine holds no market state between requests.
type Request struct {
	Symbol string
	Expiry time.Time
	Spot   float64
	VIX    float64
	AsOf   time.Time
	Quotes []models.Quote
	// Trend, when set, overrides any score-derived trend.
	Trend      *models.TrendLabel
	TrendScore *float64
	Portfolio  models.PortfolioState
}

// Engine is the recommendation pipeline. Stateless across requests;
// safe for concurrent use.
type Engine struct {
	normalizer *chain.Normalizer
	classifier *regime.Classifier
	selector   *strategy.Selector
	sizer      *risk.Sizer
	limits     models.RiskLimits
	logger     zerolog.Logger
}

// New wires an Engine from configuration.
func New(cfg *config.Config, logger zerolog.Logger) *Engine {
	model := pricing.NewModel(cfg.Engine.RiskFreeRate)
	limits := models.RiskLimits{
		MaxRiskPerTradePct:  cfg.Risk.MaxRiskPerTradePct,
		MaxPortfolioRiskPct: cfg.Risk.MaxPortfolioRiskPct,
		MinLegDelta:         cfg.Risk.MinLegDelta,
		MaxLegDelta:         cfg.Risk.MaxLegDelta,
		MinDaysToExpiry:     cfg.Risk.MinDaysToExpiry,
		MaxDaysToExpiry:     cfg.Risk.MaxDaysToExpiry,
		MaxLots:             cfg.Risk.MaxLots,
		DeltaWarnThreshold:  cfg.Risk.DeltaWarnThreshold,
		VegaWarnThreshold:   cfg.Risk.VegaWarnThreshold,
	}
	weights := strategy.Weights{
		ProbProfit: cfg.Selector.WeightProbProfit,
		RiskReward: cfg.Selector.WeightRiskReward,
		Confidence: cfg.Selector.WeightConfidence,
	}
	return &Engine{
		normalizer: chain.NewNormalizer(model, cfg.Engine.DefaultVolatility, logger),
		classifier: regime.NewClassifier(cfg.Engine.VolLowAnchor, cfg.Engine.VolHighAnchor),
		selector:   strategy.NewSelector(strategy.DefaultCatalog(), weights, logger),
		sizer:      risk.NewSizer(limits, logger),
		limits:     limits,
		logger:     logger,
	}
}

// Recommend runs one cycle. The context deadline bounds the whole
// pipeline; on expiry a TimeoutError is returned and the in-flight
// work is abandoned.
func (e *Engine) Recommend(ctx context.Context, req Request) (*models.Recommendation, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	type result struct {
		rec *models.Recommendation
		err error
	}
	done := make(chan result, 1)

	go func() {
		rec, err := e.run(req)
		done <- result{rec, err}
	}()

	select {
	case <-ctx.Done():
		return nil, &apperrors.TimeoutError{
			Symbol:  req.Symbol,
			Elapsed: time.Since(start),
			Err:     ctx.Err(),
		}
	case r := <-done:
		return r.rec, r.err
	}
}

func (e *Engine) run(req Request) (*models.Recommendation, error) {
	logger := logging.WithSymbol(e.logger, req.Symbol)

	snap, err := e.normalizer.Normalize(req.Symbol, req.Expiry, req.Spot, req.AsOf, req.Quotes)
	if err != nil {
		return nil, err
	}

	quarantined := 0
	for _, entry := range snap.Entries {
		if entry.Quarantined {
			quarantined++
		}
	}

	mr := e.classifier.Classify(snap, regime.Inputs{
		VIX:        req.VIX,
		Trend:      req.Trend,
		TrendScore: req.TrendScore,
	})
	logger.Debug().
		Str("vol_regime", string(mr.VolRegime)).
		Str("trend", string(mr.Trend)).
		Float64("vol_percentile", mr.VolPercentile).
		Int("days_to_expiry", mr.DaysToExpiry).
		Msg("Regime classified")

	rec := &models.Recommendation{
		Symbol:            req.Symbol,
		Timestamp:         req.AsOf,
		Regime:            mr,
		QuarantinedQuotes: quarantined,
	}

	candidate, err := e.selector.Select(snap, mr, e.limits)
	if err != nil {
		var nvErr *apperrors.NoViableStrategyError
		if apperrors.As(err, &nvErr) {
			rec.Outcome = models.OutcomeNoViableStrategy
			rec.Reason = nvErr.Reason
			logging.LogRecommendation(logger, req.Symbol, string(rec.Outcome), "", 0, 0)
			return rec, nil
		}
		return nil, err
	}

	candGreeks := candidate.NetGreeks(func(strike float64, typ models.OptionType) *models.Greeks {
		if entry := snap.Entry(strike, typ); entry != nil {
			return entry.Greeks
		}
		return nil
	})

	sizing, err := e.sizer.Size(candidate, req.Portfolio, candGreeks)
	if err != nil {
		var tooLarge *apperrors.PositionTooLargeError
		if apperrors.As(err, &tooLarge) {
			rec.Outcome = models.OutcomePositionTooLarge
			rec.Reason = tooLarge.Error()
			rec.Strategy = candidate
			logging.LogRecommendation(logger, req.Symbol, string(rec.Outcome), candidate.Name, 0, 0)
			return rec, nil
		}
		return nil, err
	}

	sizing.Exposure = risk.BuildExposureReport(
		sizing.PortfolioGreeks, req.Spot, req.Portfolio.Capital, req.VIX/100)

	rec.Outcome = models.OutcomeSelected
	rec.Strategy = candidate
	rec.Sizing = sizing
	rec.Checklist = buildChecklist(candidate, sizing)

	logging.LogRecommendation(logger, req.Symbol, string(rec.Outcome), candidate.Name, sizing.Lots, sizing.CapitalAtRisk)
	return rec, nil
}

func validateRequest(req Request) error {
	if !supportedSymbols[req.Symbol] {
		return apperrors.NewValidationError("symbol", req.Symbol, "must be NIFTY or BANKNIFTY")
	}
	if req.Spot <= 0 {
		return apperrors.NewValidationError("spot", req.Spot, "must be positive")
	}
	if req.Portfolio.Capital <= 0 {
		return apperrors.NewValidationError("capital", req.Portfolio.Capital, "must be positive")
	}
	return nil
}
