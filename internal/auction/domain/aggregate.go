package domain

import (
	"fmt"
	"time"

	"github.com/cristianortiz/eventauction/internal/shared/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Aggregate is the consistency boundary of one auction: it replays the stream into
// AuctionState, runs commands against it and records the resulting events.
// It is single writer, callers serialize access to one instance.
type Aggregate struct {
	id              uuid.UUID
	state           AuctionState
	rules           RuleChain
	version         uint64
	originalVersion uint64
	pending         []AuctionEvent
	now             func() time.Time
}

// Option configures an Aggregate
type Option func(*Aggregate)

// WithClock replaces the wall clock used to stamp new events and unstamped bids.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregate) {
		a.now = now
	}
}

// NewAggregate rebuilds the auction id from its ordered event history.
// An empty history yields an uninitialized auction ready for CreateAuction.
func NewAggregate(id uuid.UUID, events []AuctionEvent, opts ...Option) (*Aggregate, error) {
	a := &Aggregate{
		id:    id,
		state: NewAuctionState(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, evt := range events {
		if evt.AuctionID != id {
			return nil, &MalformedHistoryError{
				AuctionID: id,
				EventID:   evt.EventID,
				Reason:    fmt.Sprintf("event belongs to auction %s", evt.AuctionID),
			}
		}
		if evt.EventID != a.version+1 {
			return nil, &MalformedHistoryError{
				AuctionID: id,
				EventID:   evt.EventID,
				Reason:    fmt.Sprintf("expected event id %d", a.version+1),
			}
		}
		if err := a.apply(evt); err != nil {
			return nil, err
		}
	}
	a.originalVersion = a.version
	return a, nil
}

// ID returns the auction stream id.
func (a *Aggregate) ID() uuid.UUID { return a.id }

// Version is the id of the last event applied, committed or not.
func (a *Aggregate) Version() uint64 { return a.version }

// OriginalVersion is the version the aggregate was loaded at, the expected
// stream version for an optimistic commit.
func (a *Aggregate) OriginalVersion() uint64 { return a.originalVersion }

// State returns a copy of the current projection.
func (a *Aggregate) State() AuctionState { return a.state.clone() }

// Rules returns the rule chain built from the auction terms.
func (a *Aggregate) Rules() RuleChain {
	return append(RuleChain(nil), a.rules...)
}

// PendingEvents returns the events produced since load or the last commit.
func (a *Aggregate) PendingEvents() []AuctionEvent {
	return append([]AuctionEvent(nil), a.pending...)
}

// MarkCommitted is called by the repository once the pending events are durable.
func (a *Aggregate) MarkCommitted() {
	a.pending = nil
	a.originalVersion = a.version
}

// Execute dispatches cmd. On success exactly one event is recorded as pending and
// folded into the state; on failure nothing changes.
func (a *Aggregate) Execute(cmd Command) (AuctionEvent, error) {
	var (
		evt AuctionEvent
		err error
	)
	switch c := cmd.(type) {
	case CreateAuction:
		evt, err = a.createAuction(c)
	case StartAuction:
		evt, err = a.transition(c, EventAuctionStarted, PhaseCreated)
	case CloseAuction:
		evt, err = a.transition(c, EventAuctionClosed, PhaseCreated, PhaseStarted)
	case EndAuction:
		evt, err = a.transition(c, EventAuctionEnded, PhaseStarted)
	case MakeBidOffer:
		evt, err = a.offerBid(c)
	default:
		return AuctionEvent{}, &UnsupportedCommandError{Command: fmt.Sprintf("%T", cmd)}
	}
	if err != nil {
		log.Debug("Auction command rejected",
			zap.String("auctionID", a.id.String()),
			zap.String("command", CommandName(cmd)),
			zap.String("phase", string(a.state.Phase)),
			zap.Error(err),
		)
		return AuctionEvent{}, err
	}

	if err := a.apply(evt); err != nil {
		return AuctionEvent{}, err
	}
	a.pending = append(a.pending, evt)
	return evt, nil
}

func (a *Aggregate) apply(evt AuctionEvent) error {
	next, err := a.state.Apply(evt)
	if err != nil {
		return err
	}
	a.state = next
	a.version = evt.EventID
	if evt.Type == EventAuctionCreated {
		a.rules = NewRuleChain(next.Terms)
	}
	return nil
}

func (a *Aggregate) newEvent(t EventType) AuctionEvent {
	return AuctionEvent{
		EventID:    a.version + 1,
		Type:       t,
		AuctionID:  a.id,
		OccurredAt: a.timestamp(),
	}
}

// timestamp is truncated to microseconds, the precision every event store keeps.
func (a *Aggregate) timestamp() time.Time {
	return a.now().UTC().Truncate(time.Microsecond)
}

func (a *Aggregate) requirePhase(cmd Command, allowed ...Phase) error {
	for _, p := range allowed {
		if a.state.Phase == p {
			return nil
		}
	}
	return &LifecycleError{Command: CommandName(cmd), Expected: allowed, Actual: a.state.Phase}
}

func (a *Aggregate) createAuction(cmd CreateAuction) (AuctionEvent, error) {
	if err := a.requirePhase(cmd, PhaseUninitialized); err != nil {
		return AuctionEvent{}, err
	}
	if err := cmd.Terms.Validate(); err != nil {
		return AuctionEvent{}, err
	}
	terms := cmd.Terms.normalized()
	evt := a.newEvent(EventAuctionCreated)
	evt.Terms = &terms
	return evt, nil
}

func (a *Aggregate) transition(cmd Command, t EventType, allowed ...Phase) (AuctionEvent, error) {
	if err := a.requirePhase(cmd, allowed...); err != nil {
		return AuctionEvent{}, err
	}
	return a.newEvent(t), nil
}

// offerBid runs the bid acceptance algorithm. The increment is always assigned
// here, before any rule sees the bid.
func (a *Aggregate) offerBid(cmd MakeBidOffer) (AuctionEvent, error) {
	if err := a.requirePhase(cmd, PhaseStarted); err != nil {
		return AuctionEvent{}, err
	}

	if !cmd.Bid.Price.InRange() {
		return AuctionEvent{}, &AmountRangeError{Field: "bid amount", Amount: cmd.Bid.Price.Amount}
	}

	bid := cmd.Bid.clone()
	bid.Increment = nil
	if bid.CreatedAt.IsZero() {
		bid.CreatedAt = a.timestamp()
	} else {
		bid.CreatedAt = bid.CreatedAt.UTC().Truncate(time.Microsecond)
	}

	high, hasHigh := a.state.HighBid()
	if !hasHigh {
		// first bid: the increment is the whole amount
		bid = bid.withIncrement(incrementBetween(0, bid.Price.Amount))
		opening := a.state.OpeningPrice()
		if bid.Price.SameCurrency(opening) && bid.Price.Amount < opening.Amount {
			return AuctionEvent{}, rejectBid(ReasonBelowOpeningPrice, bid, "amount %d, opening price %d", bid.Price.Amount, opening.Amount)
		}
	} else {
		bid = bid.withIncrement(incrementBetween(high.Price.Amount, bid.Price.Amount))
	}

	if err := a.rules.Evaluate(bid); err != nil {
		return AuctionEvent{}, err
	}

	evt := a.newEvent(EventBidOffered)
	evt.Bid = &bid
	return evt, nil
}
