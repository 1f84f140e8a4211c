package application

import (
	"context"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"go.uber.org/multierr"
)

// EventPublisher receives events right after they are committed, in stream order
type EventPublisher interface {
	Publish(ctx context.Context, events []domain.AuctionEvent) error
}

// MultiPublisher publishes to every publisher, one failing does not stop the others
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, events []domain.AuctionEvent) error {
	var err error
	for _, p := range m {
		if p == nil {
			continue
		}
		err = multierr.Append(err, p.Publish(ctx, events))
	}
	return err
}
