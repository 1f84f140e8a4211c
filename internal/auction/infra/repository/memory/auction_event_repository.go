// Package memory is a process local event store, used for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/google/uuid"
)

type AuctionEventRepository struct {
	mu      sync.RWMutex
	streams map[uuid.UUID][]domain.AuctionEvent
	loads   int
}

func NewAuctionEventRepository() *AuctionEventRepository {
	return &AuctionEventRepository{streams: make(map[uuid.UUID][]domain.AuctionEvent)}
}

func (r *AuctionEventRepository) NextAuctionID() uuid.UUID {
	return uuid.New()
}

func (r *AuctionEventRepository) LoadEvents(_ context.Context, id uuid.UUID) ([]domain.AuctionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++

	stream, ok := r.streams[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	out := make([]domain.AuctionEvent, len(stream))
	copy(out, stream)
	return out, nil
}

func (r *AuctionEventRepository) CommitChanges(_ context.Context, agg *domain.Aggregate) error {
	pending := agg.PendingEvents()
	if len(pending) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stream := r.streams[agg.ID()]
	if current := uint64(len(stream)); current != agg.OriginalVersion() {
		return &domain.ConcurrencyConflictError{AuctionID: agg.ID(), Expected: agg.OriginalVersion(), Actual: current}
	}
	r.streams[agg.ID()] = append(stream, pending...)
	agg.MarkCommitted()
	return nil
}

// Append writes events as they are, bypassing the version check. Tests use it to seed streams.
func (r *AuctionEventRepository) Append(id uuid.UUID, events ...domain.AuctionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[id] = append(r.streams[id], events...)
}

// Loads reports how many times LoadEvents was called.
func (r *AuctionEventRepository) Loads() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loads
}
