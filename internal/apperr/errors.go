// Package apperr holds the service-level error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation_error")
	ErrNothingDue         = errors.New("nothing_due")
	ErrPaymentNotVerified = errors.New("payment_not_verified")
	ErrAmountMismatch     = errors.New("amount_mismatch")
	ErrCurrencyMismatch   = errors.New("currency_mismatch")
	ErrGateway            = errors.New("gateway_failure")
	ErrInvalidTarget      = errors.New("invalid_target")
	ErrRoomNotBookable    = errors.New("room_not_bookable")
	ErrInvalidTransition  = errors.New("invalid_transition")
)

const (
	CodeInvalidPayload        = "invalid_payload"
	CodeValidation            = "validation_error"
	CodeUnauthorized          = "unauthorized"
	CodeForbidden             = "forbidden"
	CodeNotFound              = "not_found"
	CodeConflict              = "conflict"
	CodeInternal              = "internal_server_error"
	CodeNothingDue            = "nothing_due"
	CodePaymentNotVerified    = "payment_not_verified"
	CodeAmountMismatch        = "amount_mismatch"
	CodeCurrencyMismatch      = "currency_mismatch"
	CodeGatewayFailure        = "gateway_failure"
	CodeInvalidTarget         = "invalid_target"
	CodeRoomNotBookable       = "room_not_bookable"
	CodeInvalidTransition     = "invalid_transition"
	CodeRateLimitExceeded     = "rate_limit_exceeded"
	CodeInvalidCredentials    = "invalid_credentials"
	CodeEmailExists           = "email_exists"
	CodeReconciliationPending = "reconciliation_pending"
)

// Error carries an HTTP status and a stable code from services to handlers.
type Error struct {
	Status  int
	Code    string
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code, message string, err error) *Error {
	return &Error{Status: status, Code: code, Message: message, Err: err}
}

// Validation builds a 400 error carrying every field problem found.
func Validation(details []string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeValidation,
		Message: "please correct the highlighted fields",
		Details: details,
		Err:     ErrValidation,
	}
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

// From maps any error to an *Error; unknown errors become a generic 500.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return NotFound("resource not found")
	case errors.Is(err, ErrForbidden):
		return Forbidden("access denied")
	case errors.Is(err, ErrNothingDue):
		return New(http.StatusConflict, CodeNothingDue, "no rooms require levy payment", err)
	case errors.Is(err, ErrPaymentNotVerified):
		return New(http.StatusPaymentRequired, CodePaymentNotVerified, "payment could not be verified", err)
	case errors.Is(err, ErrAmountMismatch):
		return New(http.StatusConflict, CodeAmountMismatch, "paid amount does not cover the amount due", err)
	case errors.Is(err, ErrCurrencyMismatch):
		return New(http.StatusConflict, CodeCurrencyMismatch, "payment was made in a different currency", err)
	case errors.Is(err, ErrGateway):
		return New(http.StatusBadGateway, CodeGatewayFailure, "payment gateway unavailable", err)
	case errors.Is(err, ErrInvalidTarget):
		return New(http.StatusBadRequest, CodeInvalidTarget, "invalid announcement target", err)
	case errors.Is(err, ErrRoomNotBookable):
		return New(http.StatusConflict, CodeRoomNotBookable, "room is not available for booking", err)
	case errors.Is(err, ErrInvalidTransition):
		return New(http.StatusConflict, CodeInvalidTransition, "status change not allowed", err)
	case errors.Is(err, ErrConflict):
		return New(http.StatusConflict, CodeConflict, "conflict", err)
	}
	return New(http.StatusInternalServerError, CodeInternal, "an unexpected error occurred", err)
}
