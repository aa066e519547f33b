// Package causeofdeath lists the means of death a Quake III Arena server
// writes in kill lines, with their MOD_ wire names and dense codes.
package causeofdeath

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CauseOfDeath is a Quake III Arena means of death. The value is the dense
// code used to index per-cause counters.
type CauseOfDeath uint8

const (
	Shotgun CauseOfDeath = iota
	Gauntlet
	Machinegun
	Grenade
	GrenadeSplash
	Rocket
	RocketSplash
	Plasma
	PlasmaSplash
	Railgun
	Lightning
	BFG
	BFGSplash
	Water
	Slime
	Lava
	Crush
	Telefrag
	Falling
	Suicide
	TargetLaser
	TriggerHurt
	Nail
	Chaingun
	ProximityMine
	Kamikaze
	Juiced
	Grapple
	Unknown
)

// Count is the number of causes of death. Codes run from 0 to Count-1.
const Count = 29

// ErrUnknown is matched by every failed lookup in this package.
var ErrUnknown = errors.New("unknown cause of death")

var wireNames = [Count]string{
	Shotgun:       "MOD_SHOTGUN",
	Gauntlet:      "MOD_GAUNTLET",
	Machinegun:    "MOD_MACHINEGUN",
	Grenade:       "MOD_GRENADE",
	GrenadeSplash: "MOD_GRENADE_SPLASH",
	Rocket:        "MOD_ROCKET",
	RocketSplash:  "MOD_ROCKET_SPLASH",
	Plasma:        "MOD_PLASMA",
	PlasmaSplash:  "MOD_PLASMA_SPLASH",
	Railgun:       "MOD_RAILGUN",
	Lightning:     "MOD_LIGHTNING",
	BFG:           "MOD_BFG",
	BFGSplash:     "MOD_BFG_SPLASH",
	Water:         "MOD_WATER",
	Slime:         "MOD_SLIME",
	Lava:          "MOD_LAVA",
	Crush:         "MOD_CRUSH",
	Telefrag:      "MOD_TELEFRAG",
	Falling:       "MOD_FALLING",
	Suicide:       "MOD_SUICIDE",
	TargetLaser:   "MOD_TARGET_LASER",
	TriggerHurt:   "MOD_TRIGGER_HURT",
	Nail:          "MOD_NAIL",
	Chaingun:      "MOD_CHAINGUN",
	ProximityMine: "MOD_PROXIMITY_MINE",
	Kamikaze:      "MOD_KAMIKAZE",
	Juiced:        "MOD_JUICED",
	Grapple:       "MOD_GRAPPLE",
	Unknown:       "MOD_UNKNOWN",
}

var byWireName = func() map[string]CauseOfDeath {
	m := make(map[string]CauseOfDeath, Count)
	for code, name := range wireNames {
		m[name] = CauseOfDeath(code)
	}
	return m
}()

// UnknownError reports a token that is not a wire name.
type UnknownError struct {
	Token string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown cause of death: %q", e.Token)
}

func (e *UnknownError) Is(target error) bool {
	return target == ErrUnknown
}

// CodeError reports a code with no cause of death mapped to it.
type CodeError struct {
	Code uint8
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("no cause of death is mapped to %d", e.Code)
}

func (e *CodeError) Is(target error) bool {
	return target == ErrUnknown
}

// Parse resolves an exact, case-sensitive wire name such as "MOD_ROCKET".
func Parse(token string) (CauseOfDeath, error) {
	c, ok := byWireName[token]
	if !ok {
		return 0, &UnknownError{Token: token}
	}
	return c, nil
}

// FromCode is the inverse of Code.
func FromCode(code uint8) (CauseOfDeath, error) {
	if int(code) >= Count {
		return 0, &CodeError{Code: code}
	}
	return CauseOfDeath(code), nil
}

// All returns every cause of death in code order.
func All() []CauseOfDeath {
	all := make([]CauseOfDeath, Count)
	for i := range all {
		all[i] = CauseOfDeath(i)
	}
	return all
}

// Valid reports whether c is one of the defined constants.
func (c CauseOfDeath) Valid() bool {
	return int(c) < Count
}

// Code returns the dense integer code of c.
func (c CauseOfDeath) Code() uint8 {
	return uint8(c)
}

// WireName returns the log representation, e.g. "MOD_BFG_SPLASH".
func (c CauseOfDeath) WireName() string {
	if !c.Valid() {
		return fmt.Sprintf("MOD_INVALID(%d)", uint8(c))
	}
	return wireNames[c]
}

func (c CauseOfDeath) String() string {
	return c.WireName()
}

// Title returns a human-friendly label: MOD_ROCKET_SPLASH becomes "Rocket Splash".
func (c CauseOfDeath) Title() string {
	name := strings.TrimPrefix(c.WireName(), "MOD_")
	name = strings.ReplaceAll(name, "_", " ")
	return cases.Title(language.English).String(name)
}
