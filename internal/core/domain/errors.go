package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDecode              = errors.New("decode error")
	ErrNoActiveItem        = errors.New("field line before any item line")
	ErrMissingSeparator    = errors.New(`label line has no ": " separator`)
	ErrCoercion            = errors.New("coercion error")
	ErrCatalogLookupFailed = errors.New("catalog lookup failed")
	ErrCatalogCreateFailed = errors.New("catalog create failed")
	ErrOrderCreateFailed   = errors.New("purchase order create failed")
	ErrPartialBatch        = errors.New("batch has failed items")
	ErrAuthFailure         = errors.New("inbox authentication failed")
)

// UpstreamError is a non-success response from an external service. It
// matches its Kind with errors.Is.
type UpstreamError struct {
	Kind       error
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", e.Kind, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Kind
}
