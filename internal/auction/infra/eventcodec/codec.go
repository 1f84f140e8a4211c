// Package eventcodec converts auction events to and from their storage and wire forms.
// Every field of domain.AuctionEvent round-trips; unknown event types are kept as is so
// that replay, not decoding, decides whether a stream is malformed.
package eventcodec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/google/uuid"
)

// Record is the row shape shared by the SQL event stores
type Record struct {
	AuctionID  uuid.UUID
	EventID    uint64
	Type       string
	Payload    []byte
	OccurredAt time.Time
}

type payload struct {
	Terms *domain.AuctionTerms `json:"terms,omitempty"`
	Bid   *domain.Bid          `json:"bid,omitempty"`
}

// Encode turns an event into a storage record, the payload carries terms and bid.
func Encode(evt domain.AuctionEvent) (Record, error) {
	data, err := json.Marshal(payload{Terms: evt.Terms, Bid: evt.Bid})
	if err != nil {
		return Record{}, fmt.Errorf("encode event %d of auction %s: %w", evt.EventID, evt.AuctionID, err)
	}
	return Record{
		AuctionID:  evt.AuctionID,
		EventID:    evt.EventID,
		Type:       string(evt.Type),
		Payload:    data,
		OccurredAt: evt.OccurredAt.UTC(),
	}, nil
}

// Decode rebuilds the event stored in r.
func Decode(r Record) (domain.AuctionEvent, error) {
	var p payload
	if len(r.Payload) > 0 {
		if err := json.Unmarshal(r.Payload, &p); err != nil {
			return domain.AuctionEvent{}, fmt.Errorf("decode event %d of auction %s: %w", r.EventID, r.AuctionID, err)
		}
	}
	return domain.AuctionEvent{
		EventID:    r.EventID,
		Type:       domain.EventType(r.Type),
		AuctionID:  r.AuctionID,
		OccurredAt: r.OccurredAt.UTC(),
		Terms:      p.Terms,
		Bid:        p.Bid,
	}, nil
}

// Envelope is the self describing JSON form published to subscribers
type Envelope struct {
	AuctionID  uuid.UUID            `json:"auction_id"`
	EventID    uint64               `json:"event_id"`
	Type       domain.EventType     `json:"type"`
	OccurredAt time.Time            `json:"occurred_at"`
	Terms      *domain.AuctionTerms `json:"terms,omitempty"`
	Bid        *domain.Bid          `json:"bid,omitempty"`
}

func ToEnvelope(evt domain.AuctionEvent) Envelope {
	return Envelope{
		AuctionID:  evt.AuctionID,
		EventID:    evt.EventID,
		Type:       evt.Type,
		OccurredAt: evt.OccurredAt.UTC(),
		Terms:      evt.Terms,
		Bid:        evt.Bid,
	}
}

func (e Envelope) Event() domain.AuctionEvent {
	return domain.AuctionEvent{
		EventID:    e.EventID,
		Type:       e.Type,
		AuctionID:  e.AuctionID,
		OccurredAt: e.OccurredAt.UTC(),
		Terms:      e.Terms,
		Bid:        e.Bid,
	}
}

// MarshalEvent returns the envelope JSON of evt.
func MarshalEvent(evt domain.AuctionEvent) ([]byte, error) {
	return json.Marshal(ToEnvelope(evt))
}

// UnmarshalEvent parses an envelope produced by MarshalEvent.
func UnmarshalEvent(data []byte) (domain.AuctionEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.AuctionEvent{}, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	return env.Event(), nil
}
