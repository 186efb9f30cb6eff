package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "options-engine/internal/errors"
	"options-engine/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecommendation(symbol string, outcome models.Outcome, ts time.Time) *models.Recommendation {
	rec := &models.Recommendation{
		Symbol:    symbol,
		Timestamp: ts,
		Outcome:   outcome,
		Regime: models.MarketRegime{
			VolRegime:    models.VolLow,
			Trend:        models.TrendNeutral,
			DaysToExpiry: 7,
		},
	}
	if outcome == models.OutcomeSelected {
		rec.Strategy = &models.StrategyCandidate{
			Name:        "BULL_PUT_CREDIT_SPREAD",
			MaxProfit:   50,
			MaxLoss:     50,
			DefinedRisk: true,
			LotSize:     75,
		}
		rec.Sizing = &models.Sizing{Lots: 2, CapitalAtRisk: 7500}
	}
	return rec
}

func TestSaveAndGetRecommendation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2025, 9, 23, 10, 15, 0, 0, time.UTC)
	id, err := s.SaveRecommendation(ctx, sampleRecommendation("NIFTY", models.OutcomeSelected, ts))
	require.NoError(t, err)
	assert.Positive(t, id)

	entry, err := s.GetRecommendation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "NIFTY", entry.Recommendation.Symbol)
	assert.Equal(t, models.OutcomeSelected, entry.Recommendation.Outcome)
	require.NotNil(t, entry.Recommendation.Strategy)
	assert.Equal(t, "BULL_PUT_CREDIT_SPREAD", entry.Recommendation.Strategy.Name)
	require.NotNil(t, entry.Recommendation.Sizing)
	assert.Equal(t, 2, entry.Recommendation.Sizing.Lots)
}

func TestGetRecommendationNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRecommendation(context.Background(), 9999)
	assert.ErrorIs(t, err, apperrors.ErrDataNotFound)
}

func TestListRecommendationsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 9, 23, 10, 0, 0, 0, time.UTC)
	_, err := s.SaveRecommendation(ctx, sampleRecommendation("NIFTY", models.OutcomeSelected, base))
	require.NoError(t, err)
	_, err = s.SaveRecommendation(ctx, sampleRecommendation("NIFTY", models.OutcomeNoViableStrategy, base.Add(time.Hour)))
	require.NoError(t, err)
	_, err = s.SaveRecommendation(ctx, sampleRecommendation("BANKNIFTY", models.OutcomeSelected, base.Add(2*time.Hour)))
	require.NoError(t, err)

	all, err := s.ListRecommendations(ctx, JournalFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "BANKNIFTY", all[0].Recommendation.Symbol)

	nifty, err := s.ListRecommendations(ctx, JournalFilter{Symbol: "NIFTY"})
	require.NoError(t, err)
	assert.Len(t, nifty, 2)

	selected, err := s.ListRecommendations(ctx, JournalFilter{Outcome: models.OutcomeSelected})
	require.NoError(t, err)
	assert.Len(t, selected, 2)

	limited, err := s.ListRecommendations(ctx, JournalFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
