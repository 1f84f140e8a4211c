package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cristianortiz/eventauction/internal/auction/application"
	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/cristianortiz/eventauction/internal/auction/infra/apierror"
	"github.com/cristianortiz/eventauction/internal/auction/infra/eventcodec"
	"github.com/cristianortiz/eventauction/internal/shared/logger"
	"github.com/cristianortiz/eventauction/internal/shared/websocket"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionWSHandler handles the ws inbound msgs wich are specific for auction module (remember is a bounded context)
type AuctionWSHandler struct {
	auctionService application.AuctionService // application layer dependency
	hub            *websocket.Hub             // shared hub dependency to send msgs
}

// NewAuctionWSHandler creates a new instance of AuctionWSHandler
func NewAuctionWSHandler(auctionService application.AuctionService, hub *websocket.Hub) *AuctionWSHandler {
	return &AuctionWSHandler{
		auctionService: auctionService,
		hub:            hub,
	}
}

// RegisterRoutes mounts GET /ws/auctions/:id, one connection subscribes to one auction.
func (h *AuctionWSHandler) RegisterRoutes(ctx context.Context, router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws/auctions/:id", fiberws.New(func(conn *fiberws.Conn) {
		h.serve(ctx, conn)
	}))
}

func (h *AuctionWSHandler) serve(ctx context.Context, conn *fiberws.Conn) {
	auctionID, err := uuid.Parse(conn.Params("id"))
	if err != nil {
		h.writeError(conn, fmt.Errorf("%w: auction id %q", application.ErrInvalidInput, conn.Params("id")))
		_ = conn.Close()
		return
	}

	client := h.hub.NewClient(conn, auctionID.String(), uuid.NewString(), conn.RemoteAddr().String())
	// registered before the state is read so no event falls between the two,
	// the client skips events already covered by the initial state version
	h.hub.RegisterClient(client)

	state, err := h.auctionService.GetAuctionState(ctx, auctionID)
	if err != nil {
		h.hub.UnregisterClient(client)
		h.writeError(conn, err)
		_ = conn.Close()
		return
	}
	data, err := json.Marshal(ServerInitialStateMessage{BaseMessage: BaseMessage{MessageTypeServerInitialState}, Payload: state})
	if err != nil {
		log.Error("failed to marshal ServerInitialStateMessage", zap.Error(err))
		h.hub.UnregisterClient(client)
		_ = conn.Close()
		return
	}
	// WritePump is not running yet, this goroutine is the only writer
	if err := conn.WriteMessage(fiberws.TextMessage, data); err != nil {
		h.hub.UnregisterClient(client)
		_ = conn.Close()
		return
	}

	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// ListenForMessages starts a go routine that listen the Hub inbound channel for messages and proccess every one of them
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("AuctionWSHandler started listening for inbound messages from hub")
	for {
		select {
		case <-ctx.Done():
			log.Info("AuctionWSHandler stopped listening for inbound messages from hub")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

// processMesssage dispatch the message by this type
func (h *AuctionWSHandler) processMessage(ctx context.Context, client *websocket.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendErrorToClient(client, fmt.Errorf("%w: invalid message format", application.ErrInvalidInput))
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientBid:
		h.handleClientBidMessage(ctx, client, data)
	default:
		h.sendErrorToClient(client, fmt.Errorf("%w: unknown message type %q", application.ErrInvalidInput, baseMsg.Type))
	}
}

func (h *AuctionWSHandler) handleClientBidMessage(ctx context.Context, client *websocket.Client, data []byte) {
	var bidMsg ClientBidMessage
	if err := json.Unmarshal(data, &bidMsg); err != nil {
		h.sendErrorToClient(client, fmt.Errorf("%w: invalid bid message format", application.ErrInvalidInput))
		return
	}
	auctionID, err := uuid.Parse(client.Topic)
	if err != nil {
		h.sendErrorToClient(client, err)
		return
	}

	bid, err := h.auctionService.PlaceBid(ctx, application.PlaceBidDTO{
		AuctionID: auctionID,
		BidderID:  bidMsg.Payload.BidderID,
		BidID:     bidMsg.Payload.BidID,
		Currency:  bidMsg.Payload.Currency,
		Amount:    bidMsg.Payload.Amount,
	})
	if err != nil {
		h.sendErrorToClient(client, err)
		return
	}

	// everybody, the bidder included, receives the BidOffered event through the hub publisher
	h.send(client, ServerBidAcceptedMessage{BaseMessage: BaseMessage{MessageTypeServerBidAccepted}, Payload: *bid})
}

// sendErrorToClient serializes and sends an error msg to a specific client
func (h *AuctionWSHandler) sendErrorToClient(client *websocket.Client, err error) {
	_, body := apierror.New(err)
	h.send(client, ServerErrorMessage{BaseMessage: BaseMessage{MessageTypeServerError}, Payload: body})
}

func (h *AuctionWSHandler) send(client *websocket.Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal ws message", zap.Error(err))
		return
	}
	if !h.hub.SendToClient(client, data) {
		log.Warn("could not queue message for client", zap.String("clientID", client.ID))
	}
}

func (h *AuctionWSHandler) writeError(conn *fiberws.Conn, err error) {
	_, body := apierror.New(err)
	data, marshalErr := json.Marshal(ServerErrorMessage{BaseMessage: BaseMessage{MessageTypeServerError}, Payload: body})
	if marshalErr != nil {
		return
	}
	_ = conn.WriteMessage(fiberws.TextMessage, data)
}

// HubPublisher forwards committed events to the WebSocket subscribers of their auction
type HubPublisher struct {
	hub *websocket.Hub
}

func NewHubPublisher(hub *websocket.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

var errHubFull = errors.New("websocket hub queue full")

func (p *HubPublisher) Publish(_ context.Context, events []domain.AuctionEvent) error {
	dropped := 0
	for _, evt := range events {
		data, err := json.Marshal(ServerAuctionEventMessage{
			BaseMessage: BaseMessage{MessageTypeServerAuctionEvent},
			Payload:     eventcodec.ToEnvelope(evt),
		})
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", evt.EventID, err)
		}
		if !p.hub.Broadcast(evt.AuctionID.String(), data) {
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%w: %d of %d events dropped", errHubFull, dropped, len(events))
	}
	return nil
}
