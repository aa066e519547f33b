// Package checked provides counter arithmetic that fails instead of
// wrapping around.
package checked

import "errors"

var (
	ErrOverflow  = errors.New("sum would cause overflow")
	ErrUnderflow = errors.New("subtraction would cause underflow")
)

// Integer is the set of built-in integer types.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Increment returns v+1, or ErrOverflow if the result does not fit in T.
func Increment[T Integer](v T) (T, error) {
	next := v + 1
	if next < v {
		return v, ErrOverflow
	}
	return next, nil
}

// Decrement returns v-1, or ErrUnderflow if the result does not fit in T.
func Decrement[T Integer](v T) (T, error) {
	next := v - 1
	if next > v {
		return v, ErrUnderflow
	}
	return next, nil
}
