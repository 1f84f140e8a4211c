package domain

import "github.com/google/uuid"

// RuleKind is the closed set of bid acceptance rules
type RuleKind string

const (
	RuleNoOwnerBid          RuleKind = "no_owner_bid"
	RuleSameBidCurrency     RuleKind = "same_bid_currency"
	RuleMinimumBidIncrement RuleKind = "minimum_bid_increment"
	RuleMaximumBid          RuleKind = "maximum_bid"
)

// Rule is one acceptance criterion. Only the parameters of its Kind are meaningful.
// Evaluation is pure, a rule never touches the bid it checks.
type Rule struct {
	Kind         RuleKind
	Currency     Currency
	MinIncrement uint64
	Ceiling      *uint64
	OwnerID      uuid.UUID
}

func SameBidCurrency(required Currency) Rule {
	return Rule{Kind: RuleSameBidCurrency, Currency: required}
}

func MinimumBidIncrement(min uint64) Rule {
	return Rule{Kind: RuleMinimumBidIncrement, MinIncrement: min}
}

// MaximumBid with a nil ceiling accepts every amount.
func MaximumBid(ceiling *uint64) Rule {
	return Rule{Kind: RuleMaximumBid, Ceiling: ceiling}
}

func NoOwnerBid(owner uuid.UUID) Rule {
	return Rule{Kind: RuleNoOwnerBid, OwnerID: owner}
}

// Evaluate checks the bid, its increment must already be set.
func (r Rule) Evaluate(bid Bid) error {
	switch r.Kind {
	case RuleNoOwnerBid:
		if bid.BidderID == r.OwnerID {
			return rejectBid(ReasonOwnerBid, bid, "bidder %s owns the auction", bid.BidderID)
		}
	case RuleSameBidCurrency:
		if bid.Price.Currency != r.Currency {
			return rejectBid(ReasonCurrencyMismatch, bid, "got %s, want %s", bid.Price.Currency, r.Currency)
		}
	case RuleMinimumBidIncrement:
		inc, ok := bid.IncrementValue()
		if !ok {
			return rejectBid(ReasonIncrementTooLow, bid, "increment was not computed")
		}
		if inc <= 0 || uint64(inc) < r.MinIncrement {
			return rejectBid(ReasonIncrementTooLow, bid, "increment %d, minimum %d", inc, r.MinIncrement)
		}
	case RuleMaximumBid:
		if r.Ceiling != nil && bid.Price.Amount > *r.Ceiling {
			return rejectBid(ReasonCeilingExceeded, bid, "amount %d, ceiling %d", bid.Price.Amount, *r.Ceiling)
		}
	default:
		return &UnknownRuleError{Kind: r.Kind}
	}
	return nil
}

// RuleChain is evaluated in order and stops at the first failing rule
type RuleChain []Rule

// NewRuleChain builds the canonical chain for the terms:
// [no owner bid] -> same currency -> minimum increment -> maximum bid.
func NewRuleChain(terms AuctionTerms) RuleChain {
	chain := make(RuleChain, 0, 4)
	if !terms.AllowOwnerBids && terms.OwnerID != uuid.Nil {
		chain = append(chain, NoOwnerBid(terms.OwnerID))
	}
	return append(chain,
		SameBidCurrency(terms.OpeningPrice.Currency),
		MinimumBidIncrement(terms.minIncrement()),
		MaximumBid(terms.Ceiling),
	)
}

// Evaluate returns the first rule failure, or nil when every rule accepts the bid.
func (c RuleChain) Evaluate(bid Bid) error {
	for _, rule := range c {
		if err := rule.Evaluate(bid); err != nil {
			return err
		}
	}
	return nil
}
