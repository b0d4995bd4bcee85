package highscore

import (
	"fmt"
	"net/http"
)

// Error is a rejected request. Status is the HTTP status it maps to and
// Message is returned to the caller verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func newError(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) *Error {
	return newError(http.StatusBadRequest, format, args...)
}

func unauthorized(format string, args ...any) *Error {
	return newError(http.StatusUnauthorized, format, args...)
}

func invalid(format string, args ...any) *Error {
	return newError(http.StatusUnprocessableEntity, format, args...)
}

var (
	errRateLimited = newError(http.StatusTooManyRequests, "rate limit exceeded")
	errReplay      = newError(http.StatusConflict, "nonce already used")
	errBadSession  = unauthorized("invalid or expired session")
	errSignature   = unauthorized("invalid signature")
)
