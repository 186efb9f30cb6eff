// Package store persists the recommendation journal.
package store

import (
	"context"
	"time"

	"options-engine/internal/models"
)

// JournalFilter narrows journal queries. Zero values mean no filter.
type JournalFilter struct {
	Symbol  string
	Outcome models.Outcome
	From    time.Time
	To      time.Time
	Limit   int
}

// JournalEntry is one persisted recommendation with its storage ID.
type JournalEntry struct {
	ID             int64
	Recommendation models.Recommendation
}

// Store is the recommendation journal.
type Store interface {
	// SaveRecommendation appends a recommendation and returns its ID.
	SaveRecommendation(ctx context.Context, rec *models.Recommendation) (int64, error)
	// ListRecommendations returns entries matching the filter, newest
	// first.
	ListRecommendations(ctx context.Context, filter JournalFilter) ([]JournalEntry, error)
	// GetRecommendation returns one entry by ID.
	GetRecommendation(ctx context.Context, id int64) (*JournalEntry, error)
	// Close releases the underlying resources.
	Close() error
}
