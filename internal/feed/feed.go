// Package feed supplies raw market data to the engine. Feeds only
// read; validation and quarantine happen downstream in the chain
// normalizer.
package feed

import (
	"context"
	"time"

	"options-engine/internal/models"
)

// ChainData is one raw capture of an option chain and its context.
type ChainData struct {
	Symbol string
	Expiry time.Time
	Spot   float64
	VIX    float64
	AsOf   time.Time
	Quotes []models.Quote
}

// Feed fetches chain data for an underlying and expiry.
type Feed interface {
	Chain(ctx context.Context, symbol string, expiry time.Time) (*ChainData, error)
}
