// Package utils provides shared hashing, randomness and safety helpers
// for latticekit. This file contains bounds checks that protect the
// deserializers and the signing API against oversized inputs.
package utils

import (
	"errors"
	"math"
)

// Maximum allowed lengths to prevent DoS via large allocations.
const (
	// MaxMessageSize is the maximum allowed message size for signing, in bytes.
	MaxMessageSize = 1 << 20 // 1MB

	// MaxPayloadLength is the maximum allowed payload length for serialized data.
	MaxPayloadLength = 1 << 24 // 16MB
)

var (
	// ErrExceedsLimit indicates a value exceeds the allowed limit.
	ErrExceedsLimit = errors.New("value exceeds allowed limit")

	// ErrInvalidLength indicates an invalid length value.
	ErrInvalidLength = errors.New("invalid length")

	// ErrOverflow indicates an arithmetic overflow.
	ErrOverflow = errors.New("arithmetic overflow")
)

// SafeMultiply multiplies two non-negative integers and returns an error
// if overflow occurs.
func SafeMultiply(a, b int) (int, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidLength
	}
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxInt/b {
		return 0, ErrOverflow
	}
	return a * b, nil
}

// CheckLength validates that length is within [0, maxAllowed].
func CheckLength(length, maxAllowed int) error {
	if length < 0 {
		return ErrInvalidLength
	}
	if length > maxAllowed {
		return ErrExceedsLimit
	}
	return nil
}
