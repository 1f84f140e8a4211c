package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrAuctionNotFound     = errors.New("auction not found")
	ErrUnknownCurrency     = errors.New("unknown currency")
	ErrUnsupportedCommand  = errors.New("unsupported auction command")
	ErrMalformedHistory    = errors.New("malformed auction history")
	ErrLifecycle           = errors.New("command not allowed in current auction phase")
	ErrInvalidTerms        = errors.New("invalid auction terms")
	ErrConcurrencyConflict = errors.New("auction stream was modified concurrently")
	ErrBidRejected         = errors.New("bid rejected")
	ErrAmountOutOfRange    = errors.New("amount exceeds the largest supported amount")
	ErrUnknownRule         = errors.New("unknown bid rule")

	// bid rejections, matched by errors.Is against a *BidRejection
	ErrBelowOpeningPrice = errors.New("first bid must be at least as high as the opening price")
	ErrCurrencyMismatch  = errors.New("bid currency does not match the auction currency")
	ErrIncrementTooLow   = errors.New("bid increment is lower than the minimum increment")
	ErrCeilingExceeded   = errors.New("bid exceeds the maximum bid")
	ErrOwnerBid          = errors.New("auction owner cannot bid on their own auction")
)

// MalformedHistoryError signals a corrupted or misrouted event stream, it is fatal and never retried
type MalformedHistoryError struct {
	AuctionID uuid.UUID
	EventID   uint64
	Reason    string
}

func (e *MalformedHistoryError) Error() string {
	return fmt.Sprintf("malformed history for auction %s at event %d: %s", e.AuctionID, e.EventID, e.Reason)
}

func (e *MalformedHistoryError) Is(target error) bool {
	return target == ErrMalformedHistory
}

// LifecycleError is returned when a command is issued outside the phases it is legal in
type LifecycleError struct {
	Command  string
	Expected []Phase
	Actual   Phase
}

func (e *LifecycleError) Error() string {
	expected := make([]string, len(e.Expected))
	for i, p := range e.Expected {
		expected[i] = string(p)
	}
	return fmt.Sprintf("%s requires phase %s, auction is %s", e.Command, strings.Join(expected, " or "), e.Actual)
}

func (e *LifecycleError) Is(target error) bool {
	return target == ErrLifecycle
}

// RejectionReason names the single rule or check that rejected a bid
type RejectionReason string

const (
	ReasonBelowOpeningPrice RejectionReason = "below_opening_price"
	ReasonCurrencyMismatch  RejectionReason = "currency_mismatch"
	ReasonIncrementTooLow   RejectionReason = "increment_too_low"
	ReasonCeilingExceeded   RejectionReason = "ceiling_exceeded"
	ReasonOwnerBid          RejectionReason = "owner_bid"
)

var rejectionSentinels = map[RejectionReason]error{
	ReasonBelowOpeningPrice: ErrBelowOpeningPrice,
	ReasonCurrencyMismatch:  ErrCurrencyMismatch,
	ReasonIncrementTooLow:   ErrIncrementTooLow,
	ReasonCeilingExceeded:   ErrCeilingExceeded,
	ReasonOwnerBid:          ErrOwnerBid,
}

// BidRejection is the typed failure of the bid acceptance algorithm.
// Bid is the candidate as evaluated, with its increment already computed when the chain ran.
type BidRejection struct {
	Reason RejectionReason
	Bid    Bid
	Detail string
}

func (e *BidRejection) Error() string {
	msg := rejectionSentinels[e.Reason].Error()
	if e.Detail == "" {
		return "bid rejected: " + msg
	}
	return fmt.Sprintf("bid rejected: %s (%s)", msg, e.Detail)
}

func (e *BidRejection) Unwrap() error {
	return rejectionSentinels[e.Reason]
}

func (e *BidRejection) Is(target error) bool {
	return target == ErrBidRejected
}

func rejectBid(reason RejectionReason, bid Bid, format string, args ...any) *BidRejection {
	return &BidRejection{Reason: reason, Bid: bid, Detail: fmt.Sprintf(format, args...)}
}

// TermsError rejects a CreateAuction whose configuration can never accept a bid
type TermsError struct {
	Field  string
	Reason string
}

func (e *TermsError) Error() string {
	return fmt.Sprintf("invalid auction terms: %s %s", e.Field, e.Reason)
}

func (e *TermsError) Is(target error) bool {
	return target == ErrInvalidTerms
}

// ConcurrencyConflictError is returned by repositories when the persisted stream moved past
// the version the aggregate was loaded at. Callers reload and retry.
type ConcurrencyConflictError struct {
	AuctionID uuid.UUID
	Expected  uint64
	Actual    uint64
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("auction %s: expected stream version %d, found %d", e.AuctionID, e.Expected, e.Actual)
}

func (e *ConcurrencyConflictError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// UnsupportedCommandError is only reachable with a nil Command, the command set is sealed
type UnsupportedCommandError struct {
	Command string
}

func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("unsupported auction command %s", e.Command)
}

func (e *UnsupportedCommandError) Is(target error) bool {
	return target == ErrUnsupportedCommand
}

// UnknownRuleError is returned by a Rule whose Kind is outside the closed rule set
type UnknownRuleError struct {
	Kind RuleKind
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("unknown bid rule %q", e.Kind)
}

func (e *UnknownRuleError) Is(target error) bool {
	return target == ErrUnknownRule
}

// AmountRangeError rejects an amount above MaxAmount, increments would no longer be exact
type AmountRangeError struct {
	Field  string
	Amount uint64
}

func (e *AmountRangeError) Error() string {
	return fmt.Sprintf("%s %d exceeds the maximum of %d", e.Field, e.Amount, uint64(MaxAmount))
}

func (e *AmountRangeError) Is(target error) bool {
	return target == ErrAmountOutOfRange
}
