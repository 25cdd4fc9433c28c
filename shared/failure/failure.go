// Package failure carries domain errors that map onto HTTP status codes. Anything that is
// not a *Failure is treated as an internal error by the transport layer.
package failure

import (
	"errors"
	"net/http"
)

type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Failure) Error() string {
	return e.Message
}

var ErrForbidden = &Failure{Code: http.StatusForbidden, Message: "You don't have the required permissions"}

func newFailure(code int, message string) error {
	return &Failure{Code: code, Message: message}
}

// BadRequest wraps a malformed-input error such as a JSON decode failure. A nil err stays nil.
func BadRequest(err error) error {
	if err == nil {
		return nil
	}

	return newFailure(http.StatusBadRequest, err.Error())
}

// Validation is for well formed input that breaks a booking rule.
func Validation(message string) error {
	return newFailure(http.StatusUnprocessableEntity, message)
}

func Unauthorized(message string) error {
	return newFailure(http.StatusUnauthorized, message)
}

func NotFound(message string) error {
	return newFailure(http.StatusNotFound, message)
}

// Conflict is for a request that lost against current state, e.g. a full slot or a consumed token.
func Conflict(message string) error {
	return newFailure(http.StatusConflict, message)
}

// GetCode returns the status carried by err, or 500.
func GetCode(err error) int {
	if fail, ok := as(err); ok {
		return fail.Code
	}

	return http.StatusInternalServerError
}

// IsDomain reports whether err carries a Failure anywhere in its chain.
func IsDomain(err error) bool {
	_, ok := as(err)

	return ok
}

func IsValidation(err error) bool {
	return hasCode(err, http.StatusUnprocessableEntity)
}

func IsConflict(err error) bool {
	return hasCode(err, http.StatusConflict)
}

func IsNotFound(err error) bool {
	return hasCode(err, http.StatusNotFound)
}

func IsUnauthorized(err error) bool {
	return hasCode(err, http.StatusUnauthorized)
}

func hasCode(err error, code int) bool {
	fail, ok := as(err)

	return ok && fail.Code == code
}

func as(err error) (*Failure, bool) {
	var fail *Failure

	return fail, errors.As(err, &fail)
}
