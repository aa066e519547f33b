package grammar

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMismatch is matched by every failure returned from this package.
var ErrMismatch = errors.New("grammar mismatch")

// MismatchError describes where a line stopped matching the grammar.
type MismatchError struct {
	// Input is the unconsumed remainder at the point of failure.
	Input string
	// Expected names the pattern, or the set of alternatives, that was tried.
	Expected string
	// Err is an optional underlying cause, e.g. an unknown cause of death.
	Err error
}

func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("expected %s at %q", e.Expected, preview(e.Input))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

func (e *MismatchError) Unwrap() error {
	return e.Err
}

// Column returns the byte offset within line where matching failed, or -1
// when Input is not a suffix of line.
func (e *MismatchError) Column(line string) int {
	if !strings.HasSuffix(line, e.Input) {
		return -1
	}
	return len(line) - len(e.Input)
}

func mismatch(input, expected string) error {
	return &MismatchError{Input: input, Expected: expected}
}

const previewLen = 40

func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	return s[:previewLen] + "..."
}
