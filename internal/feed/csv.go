package feed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "options-engine/internal/errors"
	"options-engine/internal/models"
)

// csvQuote is one row of a chain export.
type csvQuote struct {
	Symbol  string  `csv:"symbol"`
	Expiry  string  `csv:"expiry"`
	Strike  float64 `csv:"strike"`
	Type    string  `csv:"type"`
	LTP     float64 `csv:"ltp"`
	Bid     float64 `csv:"bid"`
	Ask     float64 `csv:"ask"`
	Volume  int64   `csv:"volume"`
	OI      int64   `csv:"oi"`
	LotSize int     `csv:"lot_size"`
}

const csvExpiryLayout = "2006-01-02"

// CSVFeed reads a chain from a CSV export. Spot and VIX come from the
// caller since exports rarely carry them.
type CSVFeed struct {
	Path string
	Spot float64
	VIX  float64
	AsOf time.Time
}

// Chain loads and filters the export for the requested underlying and
// expiry.
func (f *CSVFeed) Chain(ctx context.Context, symbol string, expiry time.Time) (*ChainData, error) {
	quotes, err := LoadQuotesCSV(f.Path)
	if err != nil {
		return nil, err
	}

	asOf := f.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	var filtered []models.Quote
	for _, q := range quotes {
		if q.Symbol != symbol || !sameDay(q.Expiry, expiry) {
			continue
		}
		q.Timestamp = asOf
		filtered = append(filtered, q)
	}

	return &ChainData{
		Symbol: symbol,
		Expiry: expiry,
		Spot:   f.Spot,
		VIX:    f.VIX,
		AsOf:   asOf,
		Quotes: filtered,
	}, nil
}

// LoadQuotesCSV parses a chain export into quotes.
func LoadQuotesCSV(path string) ([]models.Quote, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewDataError("csv", path, "opening chain export", err)
	}
	defer file.Close()

	var rows []csvQuote
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, apperrors.NewDataError("csv", path, "parsing chain export", err)
	}

	quotes := make([]models.Quote, 0, len(rows))
	for i, row := range rows {
		expiry, err := time.Parse(csvExpiryLayout, row.Expiry)
		if err != nil {
			return nil, apperrors.NewDataError("csv", path,
				fmt.Sprintf("row %d: bad expiry %q", i+1, row.Expiry), err)
		}
		quotes = append(quotes, models.Quote{
			Symbol:  row.Symbol,
			Expiry:  expiry,
			Strike:  row.Strike,
			Type:    models.OptionType(row.Type),
			LTP:     row.LTP,
			Bid:     row.Bid,
			Ask:     row.Ask,
			Volume:  row.Volume,
			OI:      row.OI,
			LotSize: row.LotSize,
		})
	}
	return quotes, nil
}
