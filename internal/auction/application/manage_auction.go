package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateAuctionDTO is the input DTO of CreateAuction
type CreateAuctionDTO struct {
	OwnerID        uuid.UUID `json:"owner_id"`
	Title          string    `json:"title"`
	Currency       string    `json:"currency"`
	OpeningPrice   uint64    `json:"opening_price"`
	MinIncrement   uint64    `json:"min_increment"`
	Ceiling        *uint64   `json:"ceiling,omitempty"`
	AllowOwnerBids bool      `json:"allow_owner_bids"`
}

func (dto CreateAuctionDTO) terms() domain.AuctionTerms {
	return domain.AuctionTerms{
		OwnerID:        dto.OwnerID,
		Title:          strings.TrimSpace(dto.Title),
		OpeningPrice:   domain.NewPrice(domain.Currency(strings.ToUpper(strings.TrimSpace(dto.Currency))), dto.OpeningPrice),
		MinIncrement:   dto.MinIncrement,
		Ceiling:        dto.Ceiling,
		AllowOwnerBids: dto.AllowOwnerBids,
	}
}

// CreateAuctionUseCase opens a new auction stream with AuctionCreated
type CreateAuctionUseCase struct {
	executor *CommandExecutor
}

func NewCreateAuctionUseCase(executor *CommandExecutor) *CreateAuctionUseCase {
	return &CreateAuctionUseCase{executor: executor}
}

func (uc *CreateAuctionUseCase) Execute(ctx context.Context, dto CreateAuctionDTO) (*AuctionStateDTO, error) {
	log.Info("Executing CreateAuctionUseCase",
		zap.String("ownerID", dto.OwnerID.String()),
		zap.String("currency", dto.Currency),
		zap.Uint64("openingPrice", dto.OpeningPrice),
	)
	agg, err := uc.executor.Create(ctx, domain.CreateAuction{Terms: dto.terms()})
	if err != nil {
		return nil, fmt.Errorf("create auction use case: %w", err)
	}
	log.Info("Auction created", zap.String("auctionID", agg.ID().String()))
	return NewAuctionStateDTO(agg), nil
}

// ChangePhaseUseCase runs the lifecycle commands: start, close and end
type ChangePhaseUseCase struct {
	executor *CommandExecutor
}

func NewChangePhaseUseCase(executor *CommandExecutor) *ChangePhaseUseCase {
	return &ChangePhaseUseCase{executor: executor}
}

func (uc *ChangePhaseUseCase) Start(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	return uc.execute(ctx, auctionID, domain.StartAuction{})
}

func (uc *ChangePhaseUseCase) Close(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	return uc.execute(ctx, auctionID, domain.CloseAuction{})
}

// End records that the auction deadline passed, the deadline itself is tracked by the caller
func (uc *ChangePhaseUseCase) End(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	return uc.execute(ctx, auctionID, domain.EndAuction{})
}

func (uc *ChangePhaseUseCase) execute(ctx context.Context, auctionID uuid.UUID, cmd domain.Command) (*AuctionStateDTO, error) {
	name := domain.CommandName(cmd)
	log.Info("Executing ChangePhaseUseCase",
		zap.String("auctionID", auctionID.String()),
		zap.String("command", name),
	)
	agg, _, err := uc.executor.Execute(ctx, auctionID, cmd)
	if err != nil {
		return nil, fmt.Errorf("%s use case: auction %s: %w", name, auctionID, err)
	}
	return NewAuctionStateDTO(agg), nil
}
