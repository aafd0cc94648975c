package model

import (
	"errors"
	"math"
)

// Error classes. Wrap them with fmt.Errorf("...: %w", ...) and test with errors.Is.
var (
	// ErrInvalidConfiguration marks setup problems: unknown demand kinds,
	// negative capacities, mismatched per-step sequences and the like.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrArithmeticViolation marks a storage level that left [0, capacity].
	ErrArithmeticViolation = errors.New("arithmetic violation")
)

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
