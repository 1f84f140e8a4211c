package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bid represents one offer on an auction.
// Increment stays nil until the aggregate computes it, right before the rule chain runs
type Bid struct {
	ID        uuid.UUID `json:"id"`
	BidderID  uuid.UUID `json:"bidder_id"`
	Price     Price     `json:"price"`
	Increment *int64    `json:"increment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBid creates a new Bid instance
func NewBid(id, bidderID uuid.UUID, price Price, createdAt time.Time) Bid {
	return Bid{
		ID:        id,
		BidderID:  bidderID,
		Price:     price,
		CreatedAt: createdAt,
	}
}

// withIncrement returns a copy of the bid carrying the given increment.
func (b Bid) withIncrement(increment int64) Bid {
	b.Increment = &increment
	return b
}

// IncrementValue returns the computed increment and whether it was set.
func (b Bid) IncrementValue() (int64, bool) {
	if b.Increment == nil {
		return 0, false
	}
	return *b.Increment, true
}

// clone copies the bid so the stored history never shares the increment pointer with a caller.
func (b Bid) clone() Bid {
	if b.Increment != nil {
		inc := *b.Increment
		b.Increment = &inc
	}
	return b
}
