package redispub

import (
	"context"
	"fmt"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/cristianortiz/eventauction/internal/auction/infra/eventcodec"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Publisher fans committed auction events out on redis pub/sub, one channel per auction
type Publisher struct {
	client *redis.Client
	prefix string
}

func NewPublisher(client *redis.Client, prefix string) *Publisher {
	return &Publisher{client: client, prefix: prefix}
}

// Channel returns the channel events of auction id are published on: <prefix>:<id>:events
func (p *Publisher) Channel(id uuid.UUID) string {
	return fmt.Sprintf("%s:%s:events", p.prefix, id)
}

// Publish sends the events in order through a single pipeline round trip.
func (p *Publisher) Publish(ctx context.Context, events []domain.AuctionEvent) error {
	if len(events) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, evt := range events {
		data, err := eventcodec.MarshalEvent(evt)
		if err != nil {
			return fmt.Errorf("redis publish: %w", err)
		}
		pipe.Publish(ctx, p.Channel(evt.AuctionID), data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish %d events: %w", len(events), err)
	}
	return nil
}
