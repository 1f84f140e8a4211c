package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BidderDirectory tells whether a bidder id belongs to a known user
type BidderDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// PlaceBidDTO is DTO input for PlaceBid useCase, contains the necesary data to make a bid
type PlaceBidDTO struct {
	AuctionID uuid.UUID `json:"auction_id"`
	BidderID  uuid.UUID `json:"bidder_id"`
	// BidID is optional, a retried request carrying the same id is still a new offer
	BidID    uuid.UUID `json:"bid_id"`
	Currency string    `json:"currency"`
	Amount   uint64    `json:"amount"`
}

// PlaceBidUseCase submits a MakeBidOffer command, the rule chain decides whether the bid is accepted
type PlaceBidUseCase struct {
	executor *CommandExecutor
	bidders  BidderDirectory
}

// NewPlaceBidUseCase creates a new instace of PlaceBidUseCase, bidders may be nil to skip the directory check
func NewPlaceBidUseCase(executor *CommandExecutor, bidders BidderDirectory) *PlaceBidUseCase {
	return &PlaceBidUseCase{executor: executor, bidders: bidders}
}

func (uc *PlaceBidUseCase) Execute(ctx context.Context, dto PlaceBidDTO) (*domain.Bid, error) {
	log.Info("Executing PlaceBidUseCase",
		zap.String("auctionID", dto.AuctionID.String()),
		zap.String("bidderID", dto.BidderID.String()),
		zap.String("currency", dto.Currency),
		zap.Uint64("amount", dto.Amount),
	)

	// 1. input checks, no business rule here
	if dto.BidderID == uuid.Nil {
		log.Warn("PlaceBidUseCase: Missing bidder id", zap.String("auctionID", dto.AuctionID.String()))
		return nil, fmt.Errorf("%w: bidder_id is required", ErrInvalidInput)
	}
	currency, err := domain.ParseCurrency(strings.ToUpper(strings.TrimSpace(dto.Currency)))
	if err != nil {
		log.Warn("PlaceBidUseCase: Invalid bid currency",
			zap.String("auctionID", dto.AuctionID.String()),
			zap.String("currency", dto.Currency),
		)
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	price := domain.NewPrice(currency, dto.Amount)
	if !price.InRange() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, &domain.AmountRangeError{Field: "amount", Amount: dto.Amount})
	}

	// 2. bidder must exist when a directory is configured
	if uc.bidders != nil {
		known, err := uc.bidders.Exists(ctx, dto.BidderID)
		if err != nil {
			log.Error("PlaceBidUseCase: Failed to look up bidder",
				zap.String("bidderID", dto.BidderID.String()),
				zap.Error(err),
			)
			return nil, fmt.Errorf("place bid use case: look up bidder %s: %w", dto.BidderID, err)
		}
		if !known {
			return nil, fmt.Errorf("place bid use case: bidder %s: %w", dto.BidderID, ErrUnknownBidder)
		}
	}

	bidID := dto.BidID
	if bidID == uuid.Nil {
		bidID = uuid.New()
	}
	bid := domain.NewBid(bidID, dto.BidderID, price, time.Time{})

	// 3. aggregate evaluates the rule chain, the executor retries on concurrent writes
	_, evt, err := uc.executor.Execute(ctx, dto.AuctionID, domain.MakeBidOffer{Bid: bid})
	if err != nil {
		var rejection *domain.BidRejection
		if errors.As(err, &rejection) {
			log.Info("PlaceBidUseCase: Bid rejected",
				zap.String("auctionID", dto.AuctionID.String()),
				zap.String("bidID", bidID.String()),
				zap.String("reason", string(rejection.Reason)),
			)
		}
		return nil, fmt.Errorf("place bid use case: bid failed for auction %s: %w", dto.AuctionID, err)
	}

	log.Info("PlaceBidUseCase: Bid accepted",
		zap.String("auctionID", dto.AuctionID.String()),
		zap.String("bidID", bidID.String()),
		zap.Uint64("eventID", evt.EventID),
	)
	accepted := *evt.Bid
	return &accepted, nil
}
