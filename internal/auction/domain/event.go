package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType is the closed set of auction facts
type EventType string

const (
	EventAuctionCreated EventType = "auction.created"
	EventAuctionStarted EventType = "auction.started"
	EventBidOffered     EventType = "auction.bid_offered"
	// EventAuctionClosed is an owner initiated close
	EventAuctionClosed EventType = "auction.closed"
	// EventAuctionEnded records the deadline being reached
	EventAuctionEnded EventType = "auction.ended"
)

// Valid reports whether the type belongs to the known event set.
func (t EventType) Valid() bool {
	switch t {
	case EventAuctionCreated, EventAuctionStarted, EventBidOffered, EventAuctionClosed, EventAuctionEnded:
		return true
	}
	return false
}

// AuctionEvent is an immutable fact of one auction stream.
// EventID starts at 1 and grows by one per event within the stream.
type AuctionEvent struct {
	EventID    uint64
	Type       EventType
	AuctionID  uuid.UUID
	OccurredAt time.Time
	// Terms is set on AuctionCreated only
	Terms *AuctionTerms
	// Bid is set on BidOffered only
	Bid *Bid
}
