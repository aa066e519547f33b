package grammar

import (
	"strings"

	"github.com/jwebster45206/q3a-report/pkg/causeofdeath"
)

// WorldAttacker is the attacker name the server uses for environmental and
// self-inflicted deaths.
const WorldAttacker = "<world>"

const (
	killedTag = " killed "
	byTag     = " by "
)

// KillMetadata holds the three numbers between the colons of a kill line:
//
//	"20:54 Kill: 1022 2 22: <world> killed Isgalamido by MOD_TRIGGER_HURT"
//	           ^^^^^^^^^^^^
//
// They are kept as text and not interpreted.
type KillMetadata struct {
	Fields [3]string
}

// KillEvent is the content of a kill message:
//
//	"<world> killed Isgalamido by MOD_TRIGGER_HURT"
//	 attacker       victim        cause
type KillEvent struct {
	Attacker string
	Victim   string
	Cause    causeofdeath.CauseOfDeath
}

// IsWorldKill reports whether the attacker is the world sentinel.
func (k KillEvent) IsWorldKill() bool {
	return k.Attacker == WorldAttacker
}

// ParseKillMetadata parses `: <ws>* d+ ' ' d+ ' ' d+ :`. Whitespace is
// allowed before either colon.
func ParseKillMetadata(input string) (string, KillMetadata, error) {
	var meta KillMetadata

	rest, err := parseColon(input)
	if err != nil {
		return input, meta, err
	}
	rest, _ = ParseWhitespace(rest)

	for i := range meta.Fields {
		if i > 0 {
			if !strings.HasPrefix(rest, " ") {
				return input, meta, mismatch(rest, "a single space between kill fields")
			}
			rest = rest[1:]
		}

		var digits string
		rest, digits = ParseDecimalDigits(rest)
		if digits == "" {
			return input, meta, mismatch(rest, "kill field digits")
		}
		meta.Fields[i] = digits
	}

	rest, err = parseColon(rest)
	if err != nil {
		return input, meta, err
	}

	return rest, meta, nil
}

// ParseKillMessage parses `<ws>* attacker " killed " victim " by " cause`.
//
// The attacker runs up to the first " killed " and the victim up to the
// first " by ", so a player name containing either delimiter is split at the
// wrong place. The log format has no quoting to do better.
func ParseKillMessage(input string) (string, KillEvent, error) {
	var ev KillEvent

	rest, _ := ParseWhitespace(input)
	rest, attacker, err := takeUntil(rest, killedTag, "attacker name followed by \" killed \"")
	if err != nil {
		return input, ev, err
	}

	rest, _ = ParseWhitespace(rest)
	rest, victim, err := takeUntil(rest, byTag, "victim name followed by \" by \"")
	if err != nil {
		return input, ev, err
	}

	n := 0
	for n < len(rest) && !isSpace(rest[n]) {
		n++
	}
	if n == 0 {
		return input, ev, mismatch(rest, "cause of death")
	}

	cause, err := causeofdeath.Parse(rest[:n])
	if err != nil {
		return input, ev, &MismatchError{Input: rest, Expected: "cause of death", Err: err}
	}

	ev.Attacker = attacker
	ev.Victim = victim
	ev.Cause = cause
	return rest[n:], ev, nil
}

// ParseKill parses the part of a kill line that follows the "Kill" keyword.
func ParseKill(input string) (string, KillEvent, error) {
	rest, _, err := ParseKillMetadata(input)
	if err != nil {
		return input, KillEvent{}, err
	}
	rest, ev, err := ParseKillMessage(rest)
	if err != nil {
		return input, KillEvent{}, err
	}
	return rest, ev, nil
}

func parseColon(input string) (string, error) {
	rest, _ := ParseWhitespace(input)
	if !strings.HasPrefix(rest, ":") {
		return input, mismatch(rest, `":"`)
	}
	return rest[1:], nil
}

// takeUntil returns the non-empty text before the first occurrence of tag and
// the input following the tag.
func takeUntil(input, tag, expected string) (rest, taken string, err error) {
	idx := strings.Index(input, tag)
	if idx <= 0 {
		return input, "", mismatch(input, expected)
	}
	return input[idx+len(tag):], input[:idx], nil
}
