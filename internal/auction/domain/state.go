package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Phase is the auction lifecycle position
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseCreated       Phase = "created"
	PhaseStarted       Phase = "started"
	PhaseClosed        Phase = "closed"
	PhaseEnded         Phase = "ended"
)

// Terminal reports whether the phase absorbs every further command.
func (p Phase) Terminal() bool {
	return p == PhaseClosed || p == PhaseEnded
}

// AuctionState is the projection of one auction stream.
// The only way to change it is Apply, so state always reflects a recorded event.
type AuctionState struct {
	ID    uuid.UUID
	Phase Phase
	Terms AuctionTerms
	// Bids holds accepted bids in acceptance order
	Bids []Bid
}

// NewAuctionState returns the empty state replay starts from.
func NewAuctionState() AuctionState {
	return AuctionState{Phase: PhaseUninitialized}
}

// HighBid returns the last accepted bid.
func (s AuctionState) HighBid() (Bid, bool) {
	if len(s.Bids) == 0 {
		return Bid{}, false
	}
	return s.Bids[len(s.Bids)-1], true
}

// OpeningPrice is the price the first bid must reach.
func (s AuctionState) OpeningPrice() Price {
	return s.Terms.OpeningPrice
}

// CurrentPrice is the high bid price, or the opening price while no bid was accepted.
func (s AuctionState) CurrentPrice() Price {
	if high, ok := s.HighBid(); ok {
		return high.Price
	}
	return s.Terms.OpeningPrice
}

// CeilingReached reports whether the high bid sits exactly on the ceiling, no further bid can pass.
func (s AuctionState) CeilingReached() bool {
	high, ok := s.HighBid()
	return ok && s.Terms.Ceiling != nil && high.Price.Amount >= *s.Terms.Ceiling
}

// Apply folds one event into the state and returns the next state, s itself is left untouched.
// It fails when the event is not a legal transition from the current phase.
func (s AuctionState) Apply(evt AuctionEvent) (AuctionState, error) {
	malformed := func(format string, args ...any) (AuctionState, error) {
		return s, &MalformedHistoryError{AuctionID: evt.AuctionID, EventID: evt.EventID, Reason: fmt.Sprintf(format, args...)}
	}

	next := s
	switch evt.Type {
	case EventAuctionCreated:
		if s.Phase != PhaseUninitialized {
			return malformed("%s in phase %s", evt.Type, s.Phase)
		}
		if evt.Terms == nil {
			return malformed("%s without terms", evt.Type)
		}
		next.ID = evt.AuctionID
		next.Terms = evt.Terms.normalized()
		next.Phase = PhaseCreated
	case EventAuctionStarted:
		if s.Phase != PhaseCreated {
			return malformed("%s in phase %s", evt.Type, s.Phase)
		}
		next.Phase = PhaseStarted
	case EventAuctionClosed:
		if s.Phase != PhaseCreated && s.Phase != PhaseStarted {
			return malformed("%s in phase %s", evt.Type, s.Phase)
		}
		next.Phase = PhaseClosed
	case EventAuctionEnded:
		if s.Phase != PhaseStarted {
			return malformed("%s in phase %s", evt.Type, s.Phase)
		}
		next.Phase = PhaseEnded
	case EventBidOffered:
		if s.Phase != PhaseStarted {
			return malformed("%s in phase %s", evt.Type, s.Phase)
		}
		if evt.Bid == nil {
			return malformed("%s without bid", evt.Type)
		}
		if evt.Bid.Increment == nil {
			return malformed("%s bid without increment", evt.Type)
		}
		if !evt.Bid.Price.InRange() {
			return malformed("%s bid amount %d out of range", evt.Type, evt.Bid.Price.Amount)
		}
		bids := make([]Bid, len(s.Bids), len(s.Bids)+1)
		copy(bids, s.Bids)
		next.Bids = append(bids, evt.Bid.clone())
	default:
		return malformed("unknown event type %q", evt.Type)
	}
	return next, nil
}

// clone deep copies the state for callers outside the aggregate.
func (s AuctionState) clone() AuctionState {
	out := s
	if s.Terms.Ceiling != nil {
		c := *s.Terms.Ceiling
		out.Terms.Ceiling = &c
	}
	if s.Bids != nil {
		out.Bids = make([]Bid, len(s.Bids))
		for i, b := range s.Bids {
			out.Bids[i] = b.clone()
		}
	}
	return out
}
