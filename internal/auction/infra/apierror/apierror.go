// Package apierror maps auction errors to the status codes and error codes shared by the REST
// and WebSocket transports.
package apierror

import (
	"errors"

	"github.com/cristianortiz/eventauction/internal/auction/application"
	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/gofiber/fiber/v2"
)

// Error codes sent to clients. Bid rejections use their RejectionReason as code.
const (
	CodeNotFound            = "auction_not_found"
	CodeLifecycle           = "lifecycle_violation"
	CodeInvalidTerms        = "invalid_terms"
	CodeInvalidInput        = "invalid_input"
	CodeUnknownBidder       = "unknown_bidder"
	CodeConcurrencyConflict = "concurrency_conflict"
	CodeMalformedHistory    = "malformed_history"
	CodeInternal            = "internal_error"
)

// Body is the JSON error document
type Body struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Classify returns the HTTP status and client code of err.
func Classify(err error) (int, string) {
	var rejection *domain.BidRejection
	switch {
	case errors.As(err, &rejection):
		return fiber.StatusUnprocessableEntity, string(rejection.Reason)
	case errors.Is(err, domain.ErrAuctionNotFound):
		return fiber.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrLifecycle):
		return fiber.StatusConflict, CodeLifecycle
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return fiber.StatusConflict, CodeConcurrencyConflict
	case errors.Is(err, domain.ErrInvalidTerms):
		return fiber.StatusBadRequest, CodeInvalidTerms
	case errors.Is(err, application.ErrInvalidInput), errors.Is(err, domain.ErrUnknownCurrency), errors.Is(err, domain.ErrAmountOutOfRange):
		return fiber.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, application.ErrUnknownBidder):
		return fiber.StatusUnprocessableEntity, CodeUnknownBidder
	case errors.Is(err, domain.ErrMalformedHistory):
		return fiber.StatusInternalServerError, CodeMalformedHistory
	default:
		return fiber.StatusInternalServerError, CodeInternal
	}
}

// New builds the error body of err. Internal errors hide their message.
func New(err error) (int, Body) {
	status, code := Classify(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "internal server error"
	}
	return status, Body{Code: code, Error: msg}
}
