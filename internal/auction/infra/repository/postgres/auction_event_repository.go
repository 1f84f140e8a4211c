package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/cristianortiz/eventauction/internal/auction/infra/eventcodec"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// AuctionEventRepository implements domain.AuctionRepository on the auction_events table
type AuctionEventRepository struct {
	pool *pgxpool.Pool
}

// NewAuctionEventRepository creates a new instance of AuctionEventRepository
func NewAuctionEventRepository(pool *pgxpool.Pool) *AuctionEventRepository {
	return &AuctionEventRepository{pool: pool}
}

// NextAuctionID issues a random id for a new stream.
func (r *AuctionEventRepository) NextAuctionID() uuid.UUID {
	return uuid.New()
}

// LoadEvents reads the whole stream of an auction ordered by event id.
func (r *AuctionEventRepository) LoadEvents(ctx context.Context, id uuid.UUID) ([]domain.AuctionEvent, error) {
	query := `
        SELECT auction_id, event_id, event_type, payload, occurred_at
        FROM auction_events
        WHERE auction_id = $1
        ORDER BY event_id ASC
    `
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("load events of auction %s: %w", id, err)
	}
	defer rows.Close()

	var events []domain.AuctionEvent
	for rows.Next() {
		var (
			rec     eventcodec.Record
			eventID int64
		)
		if err := rows.Scan(&rec.AuctionID, &eventID, &rec.Type, &rec.Payload, &rec.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event of auction %s: %w", id, err)
		}
		rec.EventID = uint64(eventID)
		evt, err := eventcodec.Decode(rec)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load events of auction %s: %w", id, err)
	}

	if len(events) == 0 {
		return nil, domain.ErrAuctionNotFound
	}
	return events, nil
}

// CommitChanges appends the pending events in one transaction.
// A transaction scoped advisory lock serializes commits of the same auction, the primary key
// catches any writer that bypasses it.
func (r *AuctionEventRepository) CommitChanges(ctx context.Context, agg *domain.Aggregate) (err error) {
	pending := agg.PendingEvents()
	if len(pending) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("commit auction %s: failed to begin transaction: %w", agg.ID(), err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, agg.ID().String()); err != nil {
		return fmt.Errorf("commit auction %s: lock stream: %w", agg.ID(), err)
	}

	var current int64
	err = tx.QueryRow(ctx, `SELECT COALESCE(MAX(event_id), 0) FROM auction_events WHERE auction_id = $1`, agg.ID()).Scan(&current)
	if err != nil {
		return fmt.Errorf("commit auction %s: read stream version: %w", agg.ID(), err)
	}
	if uint64(current) != agg.OriginalVersion() {
		return &domain.ConcurrencyConflictError{AuctionID: agg.ID(), Expected: agg.OriginalVersion(), Actual: uint64(current)}
	}

	query := `
        INSERT INTO auction_events (auction_id, event_id, event_type, payload, occurred_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	for _, evt := range pending {
		rec, encErr := eventcodec.Encode(evt)
		if encErr != nil {
			err = encErr
			return err
		}
		if _, err = tx.Exec(ctx, query, rec.AuctionID, int64(rec.EventID), rec.Type, rec.Payload, rec.OccurredAt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				err = &domain.ConcurrencyConflictError{AuctionID: agg.ID(), Expected: agg.OriginalVersion(), Actual: rec.EventID}
				return err
			}
			return fmt.Errorf("commit auction %s: insert event %d: %w", agg.ID(), rec.EventID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit auction %s: failed to commit transaction: %w", agg.ID(), err)
	}
	agg.MarkCommitted()
	return nil
}
