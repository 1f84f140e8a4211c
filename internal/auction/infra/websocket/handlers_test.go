package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cristianortiz/eventauction/internal/auction/application"
	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/cristianortiz/eventauction/internal/auction/infra/repository/memory"
	"github.com/cristianortiz/eventauction/internal/shared/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedPublisher drops events until opened, setup events would otherwise race the client registration
type gatedPublisher struct {
	inner application.EventPublisher
	open  atomic.Bool
}

func (g *gatedPublisher) Publish(ctx context.Context, events []domain.AuctionEvent) error {
	if !g.open.Load() {
		return nil
	}
	return g.inner.Publish(ctx, events)
}

type wsFixture struct {
	hub     *websocket.Hub
	service application.AuctionService
	handler *AuctionWSHandler
	auction uuid.UUID
	client  *websocket.Client
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	publisher := &gatedPublisher{inner: NewHubPublisher(hub)}
	service := application.NewDefaultAuctionService(memory.NewAuctionEventRepository(), publisher, nil, application.DefaultMaxRetries)
	created, err := service.CreateAuction(ctx, application.CreateAuctionDTO{Currency: "MYR", OpeningPrice: 100, MinIncrement: 5})
	require.NoError(t, err)
	_, err = service.StartAuction(ctx, created.AuctionID)
	require.NoError(t, err)

	client := hub.NewClient(nil, created.AuctionID.String(), "client-1", "test")
	hub.RegisterClient(client)
	require.Eventually(t, func() bool {
		n, err := hub.ClientCount(ctx, client.Topic)
		return err == nil && n == 1
	}, time.Second, 5*time.Millisecond)
	publisher.open.Store(true)

	return &wsFixture{hub: hub, service: service, handler: NewAuctionWSHandler(service, hub), auction: created.AuctionID, client: client}
}

func (f *wsFixture) next(t *testing.T) map[string]any {
	t.Helper()
	select {
	case data := <-f.client.Send:
		var msg map[string]any
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func bidMessage(bidder uuid.UUID, currency string, amount uint64) []byte {
	var msg ClientBidMessage
	msg.Type = MessageTypeClientBid
	msg.Payload.BidderID = bidder
	msg.Payload.Currency = currency
	msg.Payload.Amount = amount
	data, _ := json.Marshal(msg)
	return data
}

func TestProcessMessage_AcceptedBid(t *testing.T) {
	f := newWSFixture(t)

	f.handler.processMessage(context.Background(), f.client, bidMessage(uuid.New(), "MYR", 120))

	// the BidOffered broadcast and the direct acceptance may arrive in any order
	seen := map[string]map[string]any{}
	for i := 0; i < 2; i++ {
		msg := f.next(t)
		seen[msg["type"].(string)] = msg["payload"].(map[string]any)
	}
	require.Contains(t, seen, string(MessageTypeServerAuctionEvent))
	require.Contains(t, seen, string(MessageTypeServerBidAccepted))
	assert.Equal(t, string(domain.EventBidOffered), seen[string(MessageTypeServerAuctionEvent)]["type"])
	assert.EqualValues(t, 3, seen[string(MessageTypeServerAuctionEvent)]["event_id"])
	assert.EqualValues(t, 120, seen[string(MessageTypeServerBidAccepted)]["increment"])
}

func TestProcessMessage_RejectedBid(t *testing.T) {
	f := newWSFixture(t)

	f.handler.processMessage(context.Background(), f.client, bidMessage(uuid.New(), "MYR", 50))

	msg := f.next(t)
	assert.Equal(t, string(MessageTypeServerError), msg["type"])
	assert.Equal(t, string(domain.ReasonBelowOpeningPrice), msg["payload"].(map[string]any)["code"])
}

func TestProcessMessage_InvalidMessages(t *testing.T) {
	f := newWSFixture(t)

	for _, data := range [][]byte{[]byte(`not json`), []byte(`{"type":"client_dance"}`), []byte(`{"type":"client_bid","payload":"x"}`)} {
		f.handler.processMessage(context.Background(), f.client, data)
		msg := f.next(t)
		assert.Equal(t, string(MessageTypeServerError), msg["type"])
		assert.Equal(t, "invalid_input", msg["payload"].(map[string]any)["code"])
	}
}

func TestHubPublisher_BroadcastsToAuctionTopic(t *testing.T) {
	f := newWSFixture(t)

	_, err := f.service.CloseAuction(context.Background(), f.auction)
	require.NoError(t, err)

	msg := f.next(t)
	assert.Equal(t, string(MessageTypeServerAuctionEvent), msg["type"])
	payload := msg["payload"].(map[string]any)
	assert.Equal(t, string(domain.EventAuctionClosed), payload["type"])
	assert.Equal(t, f.auction.String(), payload["auction_id"])
}
