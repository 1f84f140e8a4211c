package domain

import (
	"context"

	"github.com/google/uuid"
)

// AuctionRepository is the event store boundary of the auction module.
type AuctionRepository interface {
	// NextAuctionID issues the id of a new auction stream
	NextAuctionID() uuid.UUID
	// LoadEvents returns the stream ordered by event id, ErrAuctionNotFound when it does not exist
	LoadEvents(ctx context.Context, id uuid.UUID) ([]AuctionEvent, error)
	// CommitChanges appends the pending events of agg atomically, expecting the stored
	// stream to still be at agg.OriginalVersion(). It fails with *ConcurrencyConflictError otherwise
	// and marks the aggregate committed on success.
	CommitChanges(ctx context.Context, agg *Aggregate) error
}
