package pricing

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "options-engine/internal/errors"
	"options-engine/internal/models"
)

func TestImpliedVolRecovers(t *testing.T) {
	m := NewModel(0.065)

	price, _, err := m.Evaluate(24750, 24700, 7.0/365, 0.14, models.Call)
	require.NoError(t, err)

	iv, err := m.ImpliedVol(price, 24750, 24700, 7.0/365, models.Call)
	require.NoError(t, err)
	assert.InDelta(t, 0.14, iv, 1e-3)
}

func TestImpliedVolRejectsPremiumBelowIntrinsic(t *testing.T) {
	m := NewModel(0.065)

	// Intrinsic is 300; a 250 premium admits no volatility.
	_, err := m.ImpliedVol(250, 25000, 24700, 7.0/365, models.Call)

	var perr *apperrors.InvalidPremiumError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 300.0, perr.Intrinsic)
}

func TestImpliedVolRejectsBadInputs(t *testing.T) {
	m := NewModel(0.065)

	var verr *apperrors.ValidationError

	_, err := m.ImpliedVol(0, 24750, 24700, 7.0/365, models.Call)
	require.ErrorAs(t, err, &verr)

	_, err = m.ImpliedVol(120, 24750, 24700, 0, models.Call)
	require.ErrorAs(t, err, &verr)
}

func TestImpliedVolProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	m := NewModel(0.065)

	genSpot := gen.Float64Range(20000, 26000)
	genStrikeOffset := gen.Float64Range(-0.04, 0.04)
	genTime := gen.Float64Range(3.0/365, 45.0/365)
	genSigma := gen.Float64Range(0.10, 0.50)

	properties.Property("solver round-trips a synthetic premium", prop.ForAll(
		func(spot, offset, tte, sigma float64) bool {
			strike := spot * (1 + offset)
			for _, typ := range []models.OptionType{models.Call, models.Put} {
				price, _, err := m.Evaluate(spot, strike, tte, sigma, typ)
				if err != nil {
					return false
				}
				if price < 0.05 {
					continue // premium too small to carry vol information
				}
				iv, err := m.ImpliedVol(price, spot, strike, tte, typ)
				if err != nil {
					return false
				}
				reprice, _, err := m.Evaluate(spot, strike, tte, iv, typ)
				if err != nil {
					return false
				}
				if math.Abs(reprice-price) > ivPriceTolerance {
					return false
				}
			}
			return true
		},
		genSpot, genStrikeOffset, genTime, genSigma,
	))

	properties.TestingRun(t)
}
