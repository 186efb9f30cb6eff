package strategy

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	apperrors "options-engine/internal/errors"
	"options-engine/internal/models"
)

// Weights controls candidate scoring. They need not sum to one; the
// score is normalized by their sum.
type Weights struct {
	ProbProfit float64
	RiskReward float64
	Confidence float64
}

// DefaultWeights favors probability of profit over payoff shape.
func DefaultWeights() Weights {
	return Weights{ProbProfit: 0.5, RiskReward: 0.3, Confidence: 0.2}
}

// Selector filters the catalog by regime, instantiates candidates and
// ranks them.
type Selector struct {
	catalog []Template
	weights Weights
	logger  zerolog.Logger
}

// NewSelector creates a Selector over the given catalog.
func NewSelector(catalog []Template, weights Weights, logger zerolog.Logger) *Selector {
	return &Selector{catalog: catalog, weights: weights, logger: logger}
}

// Select returns the highest-scoring candidate for the regime, or a
// NoViableStrategyError when nothing qualifies. Defined-risk
// candidates win score ties.
func (s *Selector) Select(snap *models.ChainSnapshot, r models.MarketRegime, limits models.RiskLimits) (*models.StrategyCandidate, error) {
	if r.DaysToExpiry < limits.MinDaysToExpiry || r.DaysToExpiry > limits.MaxDaysToExpiry {
		return nil, &apperrors.NoViableStrategyError{
			Reason: fmt.Sprintf("%d days to expiry outside tradable window [%d, %d]",
				r.DaysToExpiry, limits.MinDaysToExpiry, limits.MaxDaysToExpiry),
		}
	}

	var candidates []*models.StrategyCandidate
	applicable := 0
	for _, tmpl := range s.catalog {
		if !tmpl.Applicable(r) {
			continue
		}
		applicable++
		c, err := tmpl.Build(snap, r, limits)
		if err != nil {
			s.logger.Debug().
				Str("strategy", tmpl.Name()).
				Err(err).
				Msg("Template produced no candidate")
			continue
		}
		c.Score = s.score(c)
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		reason := "no template applicable to regime"
		if applicable > 0 {
			reason = "no legs available within delta and expiry limits"
		}
		return nil, &apperrors.NoViableStrategyError{Reason: reason}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].DefinedRisk && !candidates[j].DefinedRisk
	})

	best := candidates[0]
	s.logger.Info().
		Str("strategy", best.Name).
		Float64("score", best.Score).
		Int("candidates", len(candidates)).
		Msg("Strategy selected")
	return best, nil
}

// score blends probability of profit, risk-reward shape and regime
// confidence into [0,1].
func (s *Selector) score(c *models.StrategyCandidate) float64 {
	total := s.weights.ProbProfit + s.weights.RiskReward + s.weights.Confidence
	if total == 0 {
		return 0
	}

	// Map the profit/loss ratio into [0,1); 1:1 scores 0.5.
	var rr float64
	if c.MaxLoss > 0 {
		ratio := c.MaxProfit / c.MaxLoss
		rr = ratio / (1 + ratio)
	}

	raw := s.weights.ProbProfit*c.ProbProfit +
		s.weights.RiskReward*rr +
		s.weights.Confidence*c.Confidence
	return math.Min(math.Max(raw/total, 0), 1)
}
