package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// RateLimitError means the provider quota is exhausted and the gate is cooling down.
type RateLimitError struct {
	Remaining time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, wait %.2f seconds", e.RemainingSeconds())
}

// RemainingSeconds is the cooldown left, rounded to two decimals.
func (e *RateLimitError) RemainingSeconds() float64 {
	return math.Round(e.Remaining.Seconds()*100) / 100
}

// TransportError is any non-success outcome of an HTTP call other than 429.
// StatusCode is 0 when no response was received.
type TransportError struct {
	StatusCode int
	Endpoint   string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request %s failed: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("failed to retrieve data from %s, status code: %d", e.Endpoint, e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DataShapeError means a successful response lacked a field the mapping depends on.
type DataShapeError struct {
	Field    string
	Endpoint string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("response from %s is missing field %q", e.Endpoint, e.Field)
}

// ValidationError rejects a caller supplied symbol before any request is made.
type ValidationError struct {
	Symbol string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid ticker %q: %s", e.Symbol, e.Reason)
}

var (
	// ErrMissingReturn is returned by ComputeBeta when no stock return has been computed.
	ErrMissingReturn = errors.New("stock return has not been computed")
	// ErrZeroReferenceReturn is returned by ComputeBeta for a zero reference return.
	ErrZeroReferenceReturn = errors.New("reference return is zero")
	// ErrNoClosingPrices is returned when a latest close is required but the series is empty.
	ErrNoClosingPrices = errors.New("no closing prices available")
)

// ErrorKind names the error channel category of err, or "" for anything else.
func ErrorKind(err error) string {
	var (
		rl *RateLimitError
		tr *TransportError
		ds *DataShapeError
		va *ValidationError
	)
	switch {
	case errors.As(err, &rl):
		return "rate_limit"
	case errors.As(err, &tr):
		return "transport"
	case errors.As(err, &ds):
		return "data_shape"
	case errors.As(err, &va):
		return "validation"
	}
	return ""
}
