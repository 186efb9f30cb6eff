package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-engine/internal/models"
)

const sampleCSV = `symbol,expiry,strike,type,ltp,bid,ask,volume,oi,lot_size
NIFTY,2025-09-30,24700,CE,233,232,234,5000,100000,75
NIFTY,2025-09-30,24700,PE,153,152,154,4000,90000,75
NIFTY,2025-10-28,24700,CE,380,378,382,1000,20000,75
BANKNIFTY,2025-09-30,51000,CE,420,418,422,2000,40000,35
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chain.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))
	return path
}

func TestLoadQuotesCSV(t *testing.T) {
	quotes, err := LoadQuotesCSV(writeSample(t))
	require.NoError(t, err)
	require.Len(t, quotes, 4)

	q := quotes[0]
	assert.Equal(t, "NIFTY", q.Symbol)
	assert.Equal(t, 24700.0, q.Strike)
	assert.Equal(t, models.Call, q.Type)
	assert.Equal(t, 233.0, q.LTP)
	assert.Equal(t, int64(100000), q.OI)
	assert.Equal(t, 75, q.LotSize)
	assert.Equal(t, 2025, q.Expiry.Year())
}

func TestCSVFeedFiltersSymbolAndExpiry(t *testing.T) {
	expiry := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
	f := &CSVFeed{Path: writeSample(t), Spot: 24750, VIX: 13}

	data, err := f.Chain(context.Background(), "NIFTY", expiry)
	require.NoError(t, err)

	assert.Equal(t, 24750.0, data.Spot)
	assert.Equal(t, 13.0, data.VIX)
	require.Len(t, data.Quotes, 2)
	for _, q := range data.Quotes {
		assert.Equal(t, "NIFTY", q.Symbol)
	}
}

func TestLoadQuotesCSVMissingFile(t *testing.T) {
	_, err := LoadQuotesCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
