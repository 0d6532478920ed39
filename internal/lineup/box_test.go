package lineup

import (
	"encoding/json"
	"testing"

	"github.com/derbybench/lineup-server-go/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBoxAcceptsBothSpellings(t *testing.T) {
	tests := map[string]Box{
		"currentJammer":  BoxCurrentJammer,
		"current_jammer": BoxCurrentJammer,
		"lineA":          BoxLineA,
		"line_a":         BoxLineA,
		"line_c":         BoxLineC,
		"third_jammer":   BoxThirdJammer,
		"injured":        BoxInjured,
		"pool":           BoxPool,
		"player_pool":    BoxPool,
	}
	for name, want := range tests {
		got, err := ParseBox(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseBox("lineD")
	assert.Error(t, err)
}

func TestBoxTextEncoding(t *testing.T) {
	data, err := json.Marshal(map[Box][]int{BoxLineB: {1, 2}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"lineB":[1,2]}`, string(data))

	var decoded struct {
		Box Box `json:"box"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"box":"next_jammer"}`), &decoded))
	assert.Equal(t, BoxNextJammer, decoded.Box)

	_, err = Box(42).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "box(42)", Box(42).String())
}

func TestBoxAccepts(t *testing.T) {
	for _, b := range JammerBoxes {
		assert.True(t, b.Accepts(roster.RoleJammer), b.String())
		assert.False(t, b.Accepts(roster.RoleBlocker), b.String())
		assert.False(t, b.Accepts(roster.RolePivot), b.String())
	}
	for _, b := range LineBoxes {
		assert.False(t, b.Accepts(roster.RoleJammer), b.String())
		assert.True(t, b.Accepts(roster.RoleBlocker), b.String())
		assert.True(t, b.Accepts(roster.RolePivot), b.String())
	}
	for _, b := range []Box{BoxPenalty, BoxInjured} {
		for _, role := range []roster.Role{roster.RoleJammer, roster.RoleBlocker, roster.RolePivot} {
			assert.True(t, b.Accepts(role), "%s/%s", b, role)
		}
	}
}
