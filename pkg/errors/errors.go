// Package errors defines the typed error the service layers return and the
// HTTP metadata each code maps to. Handlers never pick status codes; they
// wrap failures in a Code and let the response writer consult the table.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeStateConflict     Code = "STATE_CONFLICT"
	CodeEmptyCart         Code = "EMPTY_CART"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeDependency        Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a Code surfaces over HTTP. DetailsAllowed gates
// whether structured details (validation field errors, stock quantities)
// reach the client.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:        {http.StatusBadRequest, false, "validation failed", true},
	CodeUnauthorized:      {http.StatusUnauthorized, false, "authentication required", false},
	CodeForbidden:         {http.StatusForbidden, false, "access denied", false},
	CodeNotFound:          {http.StatusNotFound, false, "resource not found", false},
	CodeConflict:          {http.StatusConflict, false, "conflict detected", false},
	CodeStateConflict:     {http.StatusUnprocessableEntity, false, "state transition disallowed", true},
	CodeEmptyCart:         {http.StatusBadRequest, false, "cart is empty", false},
	CodeInsufficientStock: {http.StatusConflict, false, "insufficient stock", true},
	CodeRateLimited:       {http.StatusTooManyRequests, true, "too many requests", false},
	CodeInternal:          {http.StatusInternalServerError, true, "internal server error", false},
	CodeDependency:        {http.StatusServiceUnavailable, true, "dependency unavailable", true},
}

// MetadataFor returns the table entry for code, falling back to the internal
// error entry for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error carries a Code, a public-safe message, optional structured details,
// and the wrapped cause. All methods tolerate a nil receiver.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// Code returns the error's code; nil errors read as internal.
func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets the structured payload and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts a typed *Error from anywhere in err's chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
