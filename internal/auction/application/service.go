package application

import (
	"context"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/google/uuid"
)

// AuctionService defines application interface layer of auction module
// exposes uses cases to external layer, aka infra
type AuctionService interface {
	CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*AuctionStateDTO, error)
	StartAuction(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error)
	CloseAuction(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error)
	EndAuction(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error)
	// PlaceBid offers a bid, returns the accepted bid with its computed increment or the rejection
	PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error)
	GetAuctionState(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error)
	ListEvents(ctx context.Context, auctionID uuid.UUID) ([]domain.AuctionEvent, error)
}

// concret implementation of AuctionService (struct)
type auctionService struct {
	createUC     *CreateAuctionUseCase
	phaseUC      *ChangePhaseUseCase
	placeBidUC   *PlaceBidUseCase
	getStateUC   *GetAuctionStateUseCase
	listEventsUC *ListEventsUseCase
}

func NewAuctionService(
	createUC *CreateAuctionUseCase,
	phaseUC *ChangePhaseUseCase,
	placeBidUC *PlaceBidUseCase,
	getStateUC *GetAuctionStateUseCase,
	listEventsUC *ListEventsUseCase,
) AuctionService {
	return &auctionService{
		createUC:     createUC,
		phaseUC:      phaseUC,
		placeBidUC:   placeBidUC,
		getStateUC:   getStateUC,
		listEventsUC: listEventsUC,
	}
}

func (as *auctionService) CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*AuctionStateDTO, error) {
	return as.createUC.Execute(ctx, cmd)
}

func (as *auctionService) StartAuction(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	return as.phaseUC.Start(ctx, auctionID)
}

func (as *auctionService) CloseAuction(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	return as.phaseUC.Close(ctx, auctionID)
}

func (as *auctionService) EndAuction(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	return as.phaseUC.End(ctx, auctionID)
}

// PlaceBid implements AuctionService.
func (as *auctionService) PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error) {
	return as.placeBidUC.Execute(ctx, cmd)
}

// GetAuctionState to implementss AuctionService
func (as *auctionService) GetAuctionState(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	return as.getStateUC.Execute(ctx, auctionID)
}

func (as *auctionService) ListEvents(ctx context.Context, auctionID uuid.UUID) ([]domain.AuctionEvent, error) {
	return as.listEventsUC.Execute(ctx, auctionID)
}

// NewDefaultAuctionService wires every use case on top of a single executor.
func NewDefaultAuctionService(repo domain.AuctionRepository, publisher EventPublisher, bidders BidderDirectory, maxRetries int, opts ...domain.Option) AuctionService {
	executor := NewCommandExecutor(repo, publisher, maxRetries, opts...)
	return NewAuctionService(
		NewCreateAuctionUseCase(executor),
		NewChangePhaseUseCase(executor),
		NewPlaceBidUseCase(executor, bidders),
		NewGetAuctionStateUseCase(executor),
		NewListEventsUseCase(repo),
	)
}
