// Package cache keeps recently used auction streams in memory in front of an event store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/cristianortiz/eventauction/internal/shared/logger"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// CachedRepository decorates a domain.AuctionRepository with an LRU of event streams.
// The store stays the source of truth: a stream is only extended after a successful
// commit and dropped on any failed one.
type CachedRepository struct {
	inner  domain.AuctionRepository
	mu     sync.Mutex
	events *lru.Cache[uuid.UUID, []domain.AuctionEvent]
}

func NewCachedRepository(inner domain.AuctionRepository, size int) (*CachedRepository, error) {
	events, err := lru.New[uuid.UUID, []domain.AuctionEvent](size)
	if err != nil {
		return nil, fmt.Errorf("create stream cache: %w", err)
	}
	return &CachedRepository{inner: inner, events: events}, nil
}

func (r *CachedRepository) NextAuctionID() uuid.UUID {
	return r.inner.NextAuctionID()
}

func (r *CachedRepository) LoadEvents(ctx context.Context, id uuid.UUID) ([]domain.AuctionEvent, error) {
	if events, ok := r.events.Get(id); ok {
		return copyEvents(events), nil
	}

	events, err := r.inner.LoadEvents(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	// a commit may have extended the entry while the store was read
	if cached, ok := r.events.Peek(id); !ok || len(cached) < len(events) {
		r.events.Add(id, copyEvents(events))
	}
	r.mu.Unlock()
	return events, nil
}

func (r *CachedRepository) CommitChanges(ctx context.Context, agg *domain.Aggregate) error {
	pending := agg.PendingEvents()
	original := agg.OriginalVersion()

	if err := r.inner.CommitChanges(ctx, agg); err != nil {
		r.events.Remove(agg.ID())
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			log.Debug("Evicted stale auction stream", zap.String("auction_id", agg.ID().String()))
		}
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cached, ok := r.events.Peek(agg.ID())
	switch {
	case ok && uint64(len(cached)) == original:
		r.events.Add(agg.ID(), append(copyEvents(cached), pending...))
	case !ok && original == 0:
		r.events.Add(agg.ID(), copyEvents(pending))
	default:
		r.events.Remove(agg.ID())
	}
	return nil
}

// Len returns the number of cached streams.
func (r *CachedRepository) Len() int {
	return r.events.Len()
}

func copyEvents(events []domain.AuctionEvent) []domain.AuctionEvent {
	out := make([]domain.AuctionEvent, len(events))
	copy(out, events)
	return out
}
