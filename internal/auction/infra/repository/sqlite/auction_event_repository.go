// Package sqlite stores auction event streams in a single file database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/cristianortiz/eventauction/internal/auction/infra/eventcodec"
	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// AuctionEventRepository implements domain.AuctionRepository over database/sql.
// occurred_at is kept as unix nanoseconds.
type AuctionEventRepository struct {
	db *sql.DB
}

func NewAuctionEventRepository(db *sql.DB) *AuctionEventRepository {
	return &AuctionEventRepository{db: db}
}

func (r *AuctionEventRepository) NextAuctionID() uuid.UUID {
	return uuid.New()
}

func (r *AuctionEventRepository) LoadEvents(ctx context.Context, id uuid.UUID) ([]domain.AuctionEvent, error) {
	query := `
        SELECT event_id, event_type, payload, occurred_at
        FROM auction_events
        WHERE auction_id = ?
        ORDER BY event_id ASC
    `
	rows, err := r.db.QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, fmt.Errorf("load events of auction %s: %w", id, err)
	}
	defer rows.Close()

	var events []domain.AuctionEvent
	for rows.Next() {
		var (
			eventID  int64
			evtType  string
			payload  string
			occurred int64
		)
		if err := rows.Scan(&eventID, &evtType, &payload, &occurred); err != nil {
			return nil, fmt.Errorf("scan event of auction %s: %w", id, err)
		}
		evt, err := eventcodec.Decode(eventcodec.Record{
			AuctionID:  id,
			EventID:    uint64(eventID),
			Type:       evtType,
			Payload:    []byte(payload),
			OccurredAt: time.Unix(0, occurred),
		})
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

// CommitChanges appends the pending events of agg in one transaction after checking the stream version.
func (r *AuctionEventRepository) CommitChanges(ctx context.Context, agg *domain.Aggregate) (err error) {
	pending := agg.PendingEvents()
	if len(pending) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit auction %s: failed to begin transaction: %w", agg.ID(), err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current int64
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(event_id), 0) FROM auction_events WHERE auction_id = ?`, agg.ID().String()).Scan(&current)
	if err != nil {
		return fmt.Errorf("commit auction %s: read stream version: %w", agg.ID(), err)
	}
	if uint64(current) != agg.OriginalVersion() {
		err = &domain.ConcurrencyConflictError{AuctionID: agg.ID(), Expected: agg.OriginalVersion(), Actual: uint64(current)}
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO auction_events (auction_id, event_id, event_type, payload, occurred_at)
        VALUES (?, ?, ?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("commit auction %s: prepare insert: %w", agg.ID(), err)
	}
	defer stmt.Close()

	for _, evt := range pending {
		rec, encErr := eventcodec.Encode(evt)
		if encErr != nil {
			err = encErr
			return err
		}
		_, err = stmt.ExecContext(ctx, rec.AuctionID.String(), int64(rec.EventID), rec.Type, string(rec.Payload), rec.OccurredAt.UnixNano())
		if err != nil {
			if isConstraintError(err) {
				err = &domain.ConcurrencyConflictError{AuctionID: agg.ID(), Expected: agg.OriginalVersion(), Actual: rec.EventID}
				return err
			}
			return fmt.Errorf("commit auction %s: insert event %d: %w", agg.ID(), rec.EventID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit auction %s: failed to commit transaction: %w", agg.ID(), err)
	}
	agg.MarkCommitted()
	return nil
}

// isConstraintError reports a primary key or unique violation, a writer that raced past the version check
func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// Close releases the underlying database.
func (r *AuctionEventRepository) Close() error {
	return r.db.Close()
}
