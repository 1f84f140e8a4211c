package rest

import (
	"context"
	"fmt"

	"github.com/cristianortiz/eventauction/internal/auction/application"
	"github.com/cristianortiz/eventauction/internal/auction/infra/apierror"
	"github.com/cristianortiz/eventauction/internal/auction/infra/eventcodec"
	"github.com/cristianortiz/eventauction/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionHandler exposes the auction service over HTTP
type AuctionHandler struct {
	auctionService application.AuctionService
}

func NewAuctionHandler(auctionService application.AuctionService) *AuctionHandler {
	return &AuctionHandler{auctionService: auctionService}
}

// placeBidRequest is the body of POST /api/auctions/:id/bids
type placeBidRequest struct {
	BidderID uuid.UUID `json:"bidder_id"`
	BidID    uuid.UUID `json:"bid_id"`
	Currency string    `json:"currency"`
	Amount   uint64    `json:"amount"`
}

// RegisterRoutes mounts the auction endpoints under /api/auctions.
func (h *AuctionHandler) RegisterRoutes(router fiber.Router) {
	g := router.Group("/api/auctions")
	g.Post("/", h.create)
	g.Get("/:id", h.getState)
	g.Get("/:id/events", h.listEvents)
	g.Post("/:id/start", h.start)
	g.Post("/:id/close", h.close)
	g.Post("/:id/end", h.end)
	g.Post("/:id/bids", h.placeBid)
}

func (h *AuctionHandler) create(c *fiber.Ctx) error {
	var dto application.CreateAuctionDTO
	if err := c.BodyParser(&dto); err != nil {
		return respondError(c, fmt.Errorf("%w: %v", application.ErrInvalidInput, err))
	}
	state, err := h.auctionService.CreateAuction(c.UserContext(), dto)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(state)
}

func (h *AuctionHandler) getState(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return respondError(c, err)
	}
	state, err := h.auctionService.GetAuctionState(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

func (h *AuctionHandler) listEvents(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return respondError(c, err)
	}
	events, err := h.auctionService.ListEvents(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]eventcodec.Envelope, 0, len(events))
	for _, evt := range events {
		out = append(out, eventcodec.ToEnvelope(evt))
	}
	return c.JSON(out)
}

func (h *AuctionHandler) start(c *fiber.Ctx) error {
	return h.changePhase(c, h.auctionService.StartAuction)
}

func (h *AuctionHandler) close(c *fiber.Ctx) error {
	return h.changePhase(c, h.auctionService.CloseAuction)
}

func (h *AuctionHandler) end(c *fiber.Ctx) error {
	return h.changePhase(c, h.auctionService.EndAuction)
}

func (h *AuctionHandler) changePhase(c *fiber.Ctx, run func(ctx context.Context, id uuid.UUID) (*application.AuctionStateDTO, error)) error {
	id, err := auctionID(c)
	if err != nil {
		return respondError(c, err)
	}
	state, err := run(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

func (h *AuctionHandler) placeBid(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req placeBidRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: %v", application.ErrInvalidInput, err))
	}
	bid, err := h.auctionService.PlaceBid(c.UserContext(), application.PlaceBidDTO{
		AuctionID: id,
		BidderID:  req.BidderID,
		BidID:     req.BidID,
		Currency:  req.Currency,
		Amount:    req.Amount,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(bid)
}

func auctionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: auction id %q", application.ErrInvalidInput, c.Params("id"))
	}
	return id, nil
}

func respondError(c *fiber.Ctx, err error) error {
	status, body := apierror.New(err)
	if status >= fiber.StatusInternalServerError {
		log.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(body)
}
