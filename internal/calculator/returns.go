package calculator

import (
	"errors"
	"slices"
)

var (
	// ErrInsufficientData is returned when a series is too short for the requested metric.
	ErrInsufficientData = errors.New("not enough data points")
	// ErrZeroDivisor is returned when a ratio would divide by zero.
	ErrZeroDivisor = errors.New("division by zero")
)

// Return computes latest/oldest over an ascending close series. Requires at least two closes.
func Return(closes []float64) (float64, error) {
	if len(closes) < 2 {
		return 0, ErrInsufficientData
	}
	oldest := closes[0]
	if oldest == 0 {
		return 0, ErrZeroDivisor
	}
	return closes[len(closes)-1] / oldest, nil
}

// Extremes returns the highest and lowest close. The input is not modified.
func Extremes(closes []float64) (high, low float64, err error) {
	if len(closes) < 2 {
		return 0, 0, ErrInsufficientData
	}
	sorted := slices.Clone(closes)
	slices.Sort(sorted)
	return sorted[len(sorted)-1], sorted[0], nil
}

// Beta is the ratio of a security's return to the reference index return over the same window.
func Beta(ownReturn, referenceReturn float64) (float64, error) {
	if referenceReturn == 0 {
		return 0, ErrZeroDivisor
	}
	return ownReturn / referenceReturn, nil
}
