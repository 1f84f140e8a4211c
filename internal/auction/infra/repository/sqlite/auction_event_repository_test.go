package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/cristianortiz/eventauction/internal/shared/db"
	"github.com/cristianortiz/eventauction/internal/shared/db/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// EventRepositorySuite runs the repository against a fresh database file per test
type EventRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	conn *sql.DB
	repo *AuctionEventRepository
}

func TestEventRepositorySuite(t *testing.T) {
	suite.Run(t, new(EventRepositorySuite))
}

func (s *EventRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	conn, err := db.OpenSQLite(s.ctx, filepath.Join(s.T().TempDir(), "auctions.db"))
	s.Require().NoError(err)
	s.Require().NoError(migrations.RunSQLite(conn))
	s.conn = conn
	s.repo = NewAuctionEventRepository(conn)
}

func (s *EventRepositorySuite) TearDownTest() {
	if s.repo != nil {
		_ = s.repo.Close()
	}
}

func (s *EventRepositorySuite) startedAuction() *domain.Aggregate {
	ceiling := uint64(500)
	agg, err := domain.NewAggregate(s.repo.NextAuctionID(), nil)
	s.Require().NoError(err)
	_, err = agg.Execute(domain.CreateAuction{Terms: domain.AuctionTerms{
		OwnerID:      uuid.New(),
		Title:        "Wingspan",
		OpeningPrice: domain.NewPrice(domain.CurrencySGD, 100),
		MinIncrement: 10,
		Ceiling:      &ceiling,
	}})
	s.Require().NoError(err)
	_, err = agg.Execute(domain.StartAuction{})
	s.Require().NoError(err)
	return agg
}

func (s *EventRepositorySuite) bid(amount uint64) domain.MakeBidOffer {
	return domain.MakeBidOffer{Bid: domain.NewBid(uuid.New(), uuid.New(), domain.NewPrice(domain.CurrencySGD, amount), time.Time{})}
}

func (s *EventRepositorySuite) TestCommitAndReplay() {
	agg := s.startedAuction()
	_, err := agg.Execute(s.bid(120))
	s.Require().NoError(err)
	s.Require().NoError(s.repo.CommitChanges(s.ctx, agg))

	s.Equal(uint64(3), agg.OriginalVersion())
	s.Empty(agg.PendingEvents())

	events, err := s.repo.LoadEvents(s.ctx, agg.ID())
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	for i, evt := range events {
		s.Equal(uint64(i+1), evt.EventID)
		s.Equal(agg.ID(), evt.AuctionID)
	}

	reloaded, err := domain.NewAggregate(agg.ID(), events)
	s.Require().NoError(err)
	s.Equal(agg.State(), reloaded.State())
	s.Equal(uint64(3), reloaded.Version())
}

func (s *EventRepositorySuite) TestCommitInSeveralSteps() {
	agg := s.startedAuction()
	s.Require().NoError(s.repo.CommitChanges(s.ctx, agg))

	_, err := agg.Execute(s.bid(150))
	s.Require().NoError(err)
	s.Require().NoError(s.repo.CommitChanges(s.ctx, agg))

	events, err := s.repo.LoadEvents(s.ctx, agg.ID())
	s.Require().NoError(err)
	s.Len(events, 3)
	s.Equal(domain.EventBidOffered, events[2].Type)
	s.Equal(uint64(150), events[2].Bid.Price.Amount)
}

func (s *EventRepositorySuite) TestCommitWithoutPendingIsNoop() {
	agg := s.startedAuction()
	s.Require().NoError(s.repo.CommitChanges(s.ctx, agg))
	s.Require().NoError(s.repo.CommitChanges(s.ctx, agg))

	events, err := s.repo.LoadEvents(s.ctx, agg.ID())
	s.Require().NoError(err)
	s.Len(events, 2)
}

func (s *EventRepositorySuite) TestLoadUnknownAuction() {
	_, err := s.repo.LoadEvents(s.ctx, uuid.New())
	s.ErrorIs(err, domain.ErrAuctionNotFound)
}

func (s *EventRepositorySuite) TestStaleAggregateConflicts() {
	agg := s.startedAuction()
	s.Require().NoError(s.repo.CommitChanges(s.ctx, agg))
	events, err := s.repo.LoadEvents(s.ctx, agg.ID())
	s.Require().NoError(err)

	first, err := domain.NewAggregate(agg.ID(), events)
	s.Require().NoError(err)
	second, err := domain.NewAggregate(agg.ID(), events)
	s.Require().NoError(err)

	_, err = first.Execute(s.bid(120))
	s.Require().NoError(err)
	_, err = second.Execute(s.bid(130))
	s.Require().NoError(err)

	s.Require().NoError(s.repo.CommitChanges(s.ctx, first))
	err = s.repo.CommitChanges(s.ctx, second)
	s.Require().ErrorIs(err, domain.ErrConcurrencyConflict)

	var conflict *domain.ConcurrencyConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Equal(uint64(2), conflict.Expected)
	s.Equal(uint64(3), conflict.Actual)
	s.Len(second.PendingEvents(), 1)

	stored, err := s.repo.LoadEvents(s.ctx, agg.ID())
	s.Require().NoError(err)
	s.Len(stored, 3)
	s.Equal(uint64(120), stored[2].Bid.Price.Amount)
}

func (s *EventRepositorySuite) TestInsertConflictAfterVersionCheck() {
	agg := s.startedAuction()
	s.Require().NoError(s.repo.CommitChanges(s.ctx, agg))
	_, err := agg.Execute(s.bid(120))
	s.Require().NoError(err)

	// a competing writer claims event 3 between the version read and the insert
	_, err = s.conn.ExecContext(s.ctx, `
        CREATE TRIGGER claim_event_3 BEFORE INSERT ON auction_events
        WHEN NEW.event_id = 3
        BEGIN
            INSERT INTO auction_events (auction_id, event_id, event_type, payload, occurred_at)
            VALUES (NEW.auction_id, NEW.event_id, NEW.event_type, NEW.payload, NEW.occurred_at);
        END
    `)
	s.Require().NoError(err)

	err = s.repo.CommitChanges(s.ctx, agg)
	s.Require().ErrorIs(err, domain.ErrConcurrencyConflict)
	var conflict *domain.ConcurrencyConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Equal(uint64(2), conflict.Expected)
	s.Equal(uint64(3), conflict.Actual)
	s.Len(agg.PendingEvents(), 1)

	stored, err := s.repo.LoadEvents(s.ctx, agg.ID())
	s.Require().NoError(err)
	s.Len(stored, 2)
}

func (s *EventRepositorySuite) TestConstraintErrorDetection() {
	_, err := s.conn.ExecContext(s.ctx, `INSERT INTO auction_events (auction_id, event_id, event_type, occurred_at) VALUES ('a', 1, 't', 0)`)
	s.Require().NoError(err)
	_, err = s.conn.ExecContext(s.ctx, `INSERT INTO auction_events (auction_id, event_id, event_type, occurred_at) VALUES ('a', 1, 't', 0)`)
	s.Require().Error(err)
	s.True(isConstraintError(err))

	_, err = s.conn.ExecContext(s.ctx, `SELECT * FROM missing_table`)
	s.Require().Error(err)
	s.False(isConstraintError(err))
}

func (s *EventRepositorySuite) TestTimestampsSurviveStorage() {
	agg := s.startedAuction()
	s.Require().NoError(s.repo.CommitChanges(s.ctx, agg))

	events, err := s.repo.LoadEvents(s.ctx, agg.ID())
	s.Require().NoError(err)
	for _, evt := range events {
		s.Equal(time.UTC, evt.OccurredAt.Location())
		s.False(evt.OccurredAt.IsZero())
	}
}
