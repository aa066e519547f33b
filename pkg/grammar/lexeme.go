// Package grammar recognizes the lines of a Quake III Arena server log.
//
// Every parser takes the unconsumed input and returns the remainder after
// the match together with the parsed value. On failure the remainder is the
// original input and the error is a *MismatchError.
package grammar

import "strings"

const spacerWidth = 60

// Timestamp is the "MM:ss" prefix of every log line, kept as text.
type Timestamp struct {
	Minutes string
	Seconds string
}

// ParseWhitespace consumes leading spaces, tabs, CR, LF and form feeds. It
// never fails.
func ParseWhitespace(input string) (rest, ws string) {
	n := 0
	for n < len(input) && isSpace(input[n]) {
		n++
	}
	return input[n:], input[:n]
}

// ParseDecimalDigits consumes a run of ASCII digits. An empty run is a
// successful match; callers decide whether that is acceptable.
func ParseDecimalDigits(input string) (rest, digits string) {
	n := 0
	for n < len(input) && isDigit(input[n]) {
		n++
	}
	return input[n:], input[:n]
}

// ParseTimestamp parses `<ws>* digits ':' digits`.
func ParseTimestamp(input string) (string, Timestamp, error) {
	rest, _ := ParseWhitespace(input)

	rest, minutes := ParseDecimalDigits(rest)
	if minutes == "" {
		return input, Timestamp{}, mismatch(rest, "timestamp minutes")
	}

	if !strings.HasPrefix(rest, ":") {
		return input, Timestamp{}, mismatch(rest, `timestamp separator ":"`)
	}
	rest = rest[1:]

	rest, seconds := ParseDecimalDigits(rest)
	if seconds == "" {
		return input, Timestamp{}, mismatch(rest, "timestamp seconds")
	}

	return rest, Timestamp{Minutes: minutes, Seconds: seconds}, nil
}

// ParseSpacerLine matches exactly sixty hyphens; a shorter or longer run is
// rejected.
func ParseSpacerLine(input string) (string, string, error) {
	n := 0
	for n < len(input) && input[n] == '-' {
		n++
	}
	if n != spacerWidth {
		return input, "", mismatch(input, "a run of exactly 60 hyphens")
	}
	return input[n:], input[:n], nil
}

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// IsBlank reports whether s holds only whitespace as understood by the
// grammar.
func IsBlank(s string) bool {
	rest, _ := ParseWhitespace(s)
	return rest == ""
}
