package redispub

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/cristianortiz/eventauction/internal/auction/infra/eventcodec"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestChannel(t *testing.T) {
	id := uuid.MustParse("6f1c4b1e-8d1a-4c55-9a57-6a3d7c2d9f01")
	p := NewPublisher(nil, "auction")
	assert.Equal(t, "auction:6f1c4b1e-8d1a-4c55-9a57-6a3d7c2d9f01:events", p.Channel(id))
}

func TestPublish_NoEvents(t *testing.T) {
	p := NewPublisher(nil, "auction")
	assert.NoError(t, p.Publish(context.Background(), nil))
}

func TestPublish_DeliversEnvelopesInOrder(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p := NewPublisher(client, "auction-test")
	id := uuid.New()
	sub := client.Subscribe(ctx, p.Channel(id))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	events := []domain.AuctionEvent{
		{EventID: 2, Type: domain.EventAuctionStarted, AuctionID: id, OccurredAt: at},
		{EventID: 3, Type: domain.EventAuctionClosed, AuctionID: id, OccurredAt: at},
	}
	require.NoError(t, p.Publish(ctx, events))

	for _, want := range events {
		msg, err := sub.ReceiveMessage(ctx)
		require.NoError(t, err)
		got, err := eventcodec.UnmarshalEvent([]byte(msg.Payload))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
