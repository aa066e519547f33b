package causeofdeath

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestWireNamesAreComplete(t *testing.T) {
	seen := make(map[string]bool, Count)
	for _, c := range All() {
		name := c.WireName()
		assert.True(t, strings.HasPrefix(name, "MOD_"), "missing prefix for code %d", c.Code())
		assert.False(t, seen[name], "duplicate wire name %s", name)
		seen[name] = true
	}
	assert.Len(t, seen, Count)
	assert.Equal(t, "MOD_UNKNOWN", Unknown.WireName())
	assert.Equal(t, uint8(Count-1), Unknown.Code())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected CauseOfDeath
		wantErr  bool
	}{
		{name: "rocket", token: "MOD_ROCKET", expected: Rocket},
		{name: "rocket splash", token: "MOD_ROCKET_SPLASH", expected: RocketSplash},
		{name: "trigger hurt", token: "MOD_TRIGGER_HURT", expected: TriggerHurt},
		{name: "bfg splash", token: "MOD_BFG_SPLASH", expected: BFGSplash},
		{name: "lowercase is rejected", token: "mod_rocket", wantErr: true},
		{name: "trailing space is rejected", token: "MOD_ROCKET ", wantErr: true},
		{name: "empty", token: "", wantErr: true},
		{name: "missing prefix", token: "ROCKET", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknown))
				var unknown *UnknownError
				require.True(t, errors.As(err, &unknown))
				assert.Equal(t, tt.token, unknown.Token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestWireNameRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := rapid.SampledFrom(All()).Draw(t, "cause")
		parsed, err := Parse(c.WireName())
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.WireName(), err)
		}
		if parsed.WireName() != c.WireName() {
			t.Fatalf("round trip changed %q into %q", c.WireName(), parsed.WireName())
		}
	})
}

func TestCodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := rapid.Uint8Range(0, Count-1).Draw(t, "code")
		c, err := FromCode(code)
		if err != nil {
			t.Fatalf("FromCode(%d): %v", code, err)
		}
		if c.Code() != code {
			t.Fatalf("FromCode(%d).Code() = %d", code, c.Code())
		}
	})
}

func TestFromCodeOutOfRange(t *testing.T) {
	for _, code := range []uint8{Count, Count + 1, 255} {
		_, err := FromCode(code)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknown)
		var codeErr *CodeError
		require.ErrorAs(t, err, &codeErr)
		assert.Equal(t, code, codeErr.Code)
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Rocket Splash", RocketSplash.Title())
	assert.Equal(t, "Bfg", BFG.Title())
	assert.Equal(t, "Proximity Mine", ProximityMine.Title())
}
