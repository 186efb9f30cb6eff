package chain

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "options-engine/internal/errors"
	"options-engine/internal/models"
	"options-engine/internal/pricing"
)

var (
	testExpiry = time.Date(2025, 9, 30, 15, 30, 0, 0, time.UTC)
	testAsOf   = testExpiry.AddDate(0, 0, -7)
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(pricing.NewModel(0.065), 0.18, zerolog.Nop())
}

func quote(strike float64, typ models.OptionType, ltp, bid, ask float64) models.Quote {
	return models.Quote{
		Symbol:    "NIFTY",
		Expiry:    testExpiry,
		Strike:    strike,
		Type:      typ,
		LTP:       ltp,
		Bid:       bid,
		Ask:       ask,
		Volume:    1000,
		OI:        50000,
		LotSize:   75,
		Timestamp: testAsOf,
	}
}

func TestNormalizeEmptyChain(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.Normalize("NIFTY", testExpiry, 24750, testAsOf, nil)
	assert.ErrorIs(t, err, apperrors.ErrEmptyChain)
}

func TestNormalizeSortsByStrike(t *testing.T) {
	n := newTestNormalizer()

	quotes := []models.Quote{
		quote(24800, models.Put, 145, 144, 146),
		quote(24700, models.Put, 95, 94, 96),
		quote(24800, models.Call, 85, 84, 86),
		quote(24700, models.Call, 140, 139, 141),
	}

	snap, err := n.Normalize("NIFTY", testExpiry, 24750, testAsOf, quotes)
	require.NoError(t, err)
	require.Len(t, snap.Entries, 4)

	assert.Equal(t, 24700.0, snap.Entries[0].Quote.Strike)
	assert.Equal(t, models.Call, snap.Entries[0].Quote.Type)
	assert.Equal(t, 24700.0, snap.Entries[1].Quote.Strike)
	assert.Equal(t, models.Put, snap.Entries[1].Quote.Type)
	assert.Equal(t, 24800.0, snap.Entries[2].Quote.Strike)
	assert.Equal(t, models.Call, snap.Entries[2].Quote.Type)

	assert.Equal(t, []float64{24700, 24800}, snap.Strikes())
}

func TestNormalizeQuarantineIsolation(t *testing.T) {
	n := newTestNormalizer()

	bad := quote(24700, models.Call, 140, 150, 141) // crossed book
	good := quote(24800, models.Call, 85, 84, 86)

	snap, err := n.Normalize("NIFTY", testExpiry, 24750, testAsOf, []models.Quote{bad, good})
	require.NoError(t, err)
	require.Len(t, snap.Entries, 2)

	q := snap.Entry(24700, models.Call)
	require.NotNil(t, q)
	assert.True(t, q.Quarantined)
	assert.NotEmpty(t, q.QuarantineReason)
	assert.False(t, q.Eligible())

	g := snap.Entry(24800, models.Call)
	require.NotNil(t, g)
	assert.False(t, g.Quarantined)
	assert.True(t, g.Eligible())
	require.NotNil(t, g.Greeks)
	assert.Greater(t, g.Greeks.IV, 0.0)
}

func TestNormalizeQuarantineReasons(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name string
		q    models.Quote
	}{
		{"wrong symbol", func() models.Quote {
			q := quote(24700, models.Call, 140, 139, 141)
			q.Symbol = "BANKNIFTY"
			return q
		}()},
		{"wrong expiry", func() models.Quote {
			q := quote(24700, models.Call, 140, 139, 141)
			q.Expiry = testExpiry.AddDate(0, 0, 7)
			return q
		}()},
		{"zero strike", quote(0, models.Call, 140, 139, 141)},
		{"negative volume", func() models.Quote {
			q := quote(24700, models.Call, 140, 139, 141)
			q.Volume = -1
			return q
		}()},
		{"negative oi", func() models.Quote {
			q := quote(24700, models.Call, 140, 139, 141)
			q.OI = -5
			return q
		}()},
		{"ltp outside book", quote(24700, models.Call, 150, 139, 141)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := n.Normalize("NIFTY", testExpiry, 24750, testAsOf, []models.Quote{tt.q})
			require.NoError(t, err)
			require.Len(t, snap.Entries, 1)
			assert.True(t, snap.Entries[0].Quarantined)
		})
	}
}

func TestNormalizeBelowIntrinsicExcludedNotQuarantined(t *testing.T) {
	n := newTestNormalizer()

	// Deep ITM call with premium below its 750 intrinsic. No sided
	// book so the bid-ask check does not fire first.
	q := quote(24000, models.Call, 700, 0, 0)

	snap, err := n.Normalize("NIFTY", testExpiry, 24750, testAsOf, []models.Quote{q})
	require.NoError(t, err)
	require.Len(t, snap.Entries, 1)

	e := snap.Entries[0]
	assert.False(t, e.Quarantined)
	assert.Nil(t, e.Greeks)
	assert.False(t, e.Eligible())
}

func TestNormalizeOrderingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	n := newTestNormalizer()

	properties.Property("entries sort ascending by strike, calls before puts", prop.ForAll(
		func(strikes []float64) bool {
			// Puts first so the output order cannot come from the input.
			var quotes []models.Quote
			for _, k := range strikes {
				quotes = append(quotes, quote(k, models.Put, 100, 99, 101))
			}
			for _, k := range strikes {
				quotes = append(quotes, quote(k, models.Call, 100, 99, 101))
			}

			snap, err := n.Normalize("NIFTY", testExpiry, 24750, testAsOf, quotes)
			if err != nil {
				return false
			}
			for i := 1; i < len(snap.Entries); i++ {
				a, b := snap.Entries[i-1].Quote, snap.Entries[i].Quote
				if a.Strike > b.Strike {
					return false
				}
				if a.Strike == b.Strike && a.Type == models.Put && b.Type == models.Call {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, gen.Float64Range(20000, 30000)),
	))

	properties.TestingRun(t)
}

func TestNormalizeComputesMoneynessAndTimeValue(t *testing.T) {
	n := newTestNormalizer()

	q := quote(24700, models.Call, 140, 139, 141)
	snap, err := n.Normalize("NIFTY", testExpiry, 24750, testAsOf, []models.Quote{q})
	require.NoError(t, err)

	e := snap.Entries[0]
	assert.Equal(t, models.ATM, e.Moneyness)
	assert.InDelta(t, 90.0, e.TimeValue, 0.01) // mid 140 minus 50 intrinsic
}
