package calculator

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned whenever an input is too short for the requested calculation.
// Callers treat it as a progress state, not a failure.
var ErrInsufficientData = errors.New("insufficient data")

// ErrDegenerateWindow marks a window that is long enough but cannot be analysed
// (flat prices, NaN or Inf). It matches ErrInsufficientData under errors.Is.
var ErrDegenerateWindow = fmt.Errorf("%w: degenerate window", ErrInsufficientData)

// ErrNotPowerOfTwo is returned by the radix-2 transform for unsupported lengths.
var ErrNotPowerOfTwo = errors.New("length must be a power of two")
