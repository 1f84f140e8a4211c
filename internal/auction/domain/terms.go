package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultMinIncrement applies when the terms leave the minimum increment unset
const DefaultMinIncrement uint64 = 1

// AuctionTerms is the auction configuration recorded by AuctionCreated, the rule chain is built from it
type AuctionTerms struct {
	OwnerID        uuid.UUID `json:"owner_id"`
	Title          string    `json:"title"`
	OpeningPrice   Price     `json:"opening_price"`
	MinIncrement   uint64    `json:"min_increment"`
	Ceiling        *uint64   `json:"ceiling,omitempty"`
	AllowOwnerBids bool      `json:"allow_owner_bids"`
}

func (t AuctionTerms) minIncrement() uint64 {
	if t.MinIncrement == 0 {
		return DefaultMinIncrement
	}
	return t.MinIncrement
}

// Validate rejects terms under which no bid could ever be accepted.
func (t AuctionTerms) Validate() error {
	if !t.OpeningPrice.Currency.Valid() {
		return &TermsError{Field: "opening_price.currency", Reason: "must be one of MYR, SGD"}
	}
	if !t.OpeningPrice.InRange() {
		return &TermsError{Field: "opening_price.amount", Reason: fmt.Sprintf("must not exceed %d", MaxAmount)}
	}
	if t.Ceiling != nil && *t.Ceiling > MaxAmount {
		return &TermsError{Field: "ceiling", Reason: fmt.Sprintf("must not exceed %d", MaxAmount)}
	}
	if t.Ceiling != nil && *t.Ceiling < t.OpeningPrice.Amount {
		return &TermsError{Field: "ceiling", Reason: "must not be lower than the opening price"}
	}
	return nil
}

// normalized fills the defaults so replayed and freshly created auctions carry identical terms.
func (t AuctionTerms) normalized() AuctionTerms {
	t.MinIncrement = t.minIncrement()
	if t.Ceiling != nil {
		c := *t.Ceiling
		t.Ceiling = &c
	}
	return t
}
