package application

import (
	"context"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/google/uuid"
)

// AuctionStateDTO is the output DTO exposing an auction projection to REST and WS clients
type AuctionStateDTO struct {
	AuctionID      uuid.UUID    `json:"auction_id"`
	Version        uint64       `json:"version"`
	Phase          string       `json:"phase"`
	Title          string       `json:"title"`
	OwnerID        uuid.UUID    `json:"owner_id"`
	OpeningPrice   domain.Price `json:"opening_price"`
	CurrentPrice   domain.Price `json:"current_price"`
	MinIncrement   uint64       `json:"min_increment"`
	Ceiling        *uint64      `json:"ceiling,omitempty"`
	AllowOwnerBids bool         `json:"allow_owner_bids"`
	CeilingReached bool         `json:"ceiling_reached"`
	HighBid        *domain.Bid  `json:"high_bid,omitempty"`
	Bids           []domain.Bid `json:"bids"`
}

// NewAuctionStateDTO maps the projection of agg.
func NewAuctionStateDTO(agg *domain.Aggregate) *AuctionStateDTO {
	state := agg.State()
	dto := &AuctionStateDTO{
		AuctionID:      agg.ID(),
		Version:        agg.Version(),
		Phase:          string(state.Phase),
		Title:          state.Terms.Title,
		OwnerID:        state.Terms.OwnerID,
		OpeningPrice:   state.OpeningPrice(),
		CurrentPrice:   state.CurrentPrice(),
		MinIncrement:   state.Terms.MinIncrement,
		Ceiling:        state.Terms.Ceiling,
		AllowOwnerBids: state.Terms.AllowOwnerBids,
		CeilingReached: state.CeilingReached(),
		Bids:           state.Bids,
	}
	if dto.Bids == nil {
		dto.Bids = []domain.Bid{}
	}
	if high, ok := state.HighBid(); ok {
		dto.HighBid = &high
	}
	return dto
}

// GetAuctionStateUseCase replays an auction and returns its current state
type GetAuctionStateUseCase struct {
	executor *CommandExecutor
}

func NewGetAuctionStateUseCase(executor *CommandExecutor) *GetAuctionStateUseCase {
	return &GetAuctionStateUseCase{executor: executor}
}

func (uc *GetAuctionStateUseCase) Execute(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	agg, err := uc.executor.Load(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return NewAuctionStateDTO(agg), nil
}

// ListEventsUseCase returns the raw stream of an auction, for audit
type ListEventsUseCase struct {
	repo domain.AuctionRepository
}

func NewListEventsUseCase(repo domain.AuctionRepository) *ListEventsUseCase {
	return &ListEventsUseCase{repo: repo}
}

func (uc *ListEventsUseCase) Execute(ctx context.Context, auctionID uuid.UUID) ([]domain.AuctionEvent, error) {
	return uc.repo.LoadEvents(ctx, auctionID)
}
