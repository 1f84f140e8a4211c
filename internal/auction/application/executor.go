package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/cristianortiz/eventauction/internal/shared/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

var (
	// ErrUnknownBidder is returned when the bidder directory has no such user
	ErrUnknownBidder = errors.New("unknown bidder")
	// ErrInvalidInput marks DTO values rejected before reaching the aggregate
	ErrInvalidInput = errors.New("invalid input")
)

// DefaultMaxRetries bounds the reload-and-retry loop on concurrency conflicts
const DefaultMaxRetries = 3

// CommandExecutor runs commands against freshly loaded aggregates: load, execute, commit, publish.
// A stale commit reloads the stream and executes the command again, so rules are always
// evaluated against the state the events are appended to.
type CommandExecutor struct {
	repo       domain.AuctionRepository
	publisher  EventPublisher
	maxRetries int
	opts       []domain.Option
}

// NewCommandExecutor creates a new CommandExecutor. publisher may be nil.
func NewCommandExecutor(repo domain.AuctionRepository, publisher EventPublisher, maxRetries int, opts ...domain.Option) *CommandExecutor {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &CommandExecutor{
		repo:       repo,
		publisher:  publisher,
		maxRetries: maxRetries,
		opts:       opts,
	}
}

// Load replays the stream of auction id into an aggregate.
func (e *CommandExecutor) Load(ctx context.Context, id uuid.UUID) (*domain.Aggregate, error) {
	events, err := e.repo.LoadEvents(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrAuctionNotFound) {
			log.Error("Failed to load auction events", zap.String("auctionID", id.String()), zap.Error(err))
		}
		return nil, fmt.Errorf("load auction %s: %w", id, err)
	}
	agg, err := domain.NewAggregate(id, events, e.opts...)
	if err != nil {
		log.Error("Auction history cannot be replayed", zap.String("auctionID", id.String()), zap.Error(err))
		return nil, err
	}
	return agg, nil
}

// Create executes cmd on a brand new stream.
func (e *CommandExecutor) Create(ctx context.Context, cmd domain.Command) (*domain.Aggregate, error) {
	id := e.repo.NextAuctionID()
	agg, err := domain.NewAggregate(id, nil, e.opts...)
	if err != nil {
		return nil, err
	}
	if _, err := agg.Execute(cmd); err != nil {
		return nil, err
	}
	if err := e.commit(ctx, agg); err != nil {
		return nil, err
	}
	return agg, nil
}

// Execute runs cmd on the existing auction id and returns the aggregate after commit.
func (e *CommandExecutor) Execute(ctx context.Context, id uuid.UUID, cmd domain.Command) (*domain.Aggregate, domain.AuctionEvent, error) {
	for attempt := 0; ; attempt++ {
		agg, err := e.Load(ctx, id)
		if err != nil {
			return nil, domain.AuctionEvent{}, err
		}

		evt, err := agg.Execute(cmd)
		if err != nil {
			return nil, domain.AuctionEvent{}, err
		}

		err = e.commit(ctx, agg)
		if err == nil {
			return agg, evt, nil
		}
		if !errors.Is(err, domain.ErrConcurrencyConflict) || attempt >= e.maxRetries {
			return nil, domain.AuctionEvent{}, err
		}
		log.Warn("Concurrent write on auction, retrying command",
			zap.String("auctionID", id.String()),
			zap.String("command", domain.CommandName(cmd)),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, domain.AuctionEvent{}, ctxErr
		}
	}
}

// commit stores the pending events and publishes them. Publishing errors are logged only,
// the events are already part of the stream at that point.
func (e *CommandExecutor) commit(ctx context.Context, agg *domain.Aggregate) error {
	pending := agg.PendingEvents()
	if err := e.repo.CommitChanges(ctx, agg); err != nil {
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			log.Error("Failed to commit auction events",
				zap.String("auctionID", agg.ID().String()),
				zap.Int("events", len(pending)),
				zap.Error(err),
			)
		}
		return err
	}

	if e.publisher != nil && len(pending) > 0 {
		if err := e.publisher.Publish(ctx, pending); err != nil {
			log.Error("Failed to publish committed events",
				zap.String("auctionID", agg.ID().String()),
				zap.Uint64("version", agg.Version()),
				zap.Error(err),
			)
		}
	}
	return nil
}
