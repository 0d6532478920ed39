package lineup

import (
	"testing"

	"github.com/derbybench/lineup-server-go/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAssignment_RoleMismatch(t *testing.T) {
	j, b, p := jammer("J1"), blocker("B1"), pivot("P1")
	s := newTestState(j, b, p)

	result := CheckAssignment(j, BoxLineA, s)
	assert.False(t, result.Legal)
	assert.Equal(t, ReasonRoleMismatch, result.Reason)
	assert.Equal(t, "Jammer can't be in a line", result.Message)

	for _, who := range []*roster.Player{b, p} {
		result = CheckAssignment(who, BoxNextJammer, s)
		assert.False(t, result.Legal)
		assert.Equal(t, ReasonRoleMismatch, result.Reason)
		assert.Equal(t, "Blocker/Pivot can't be Jammer", result.Message)
	}

	assert.True(t, CheckAssignment(j, BoxPenalty, s).Legal)
	assert.True(t, CheckAssignment(b, BoxInjured, s).Legal)
}

func TestCheckAssignment_JammerBoxOccupied(t *testing.T) {
	j1, j2 := jammer("J1"), jammer("J2")
	s := newTestState(j1, j2)
	mustAssign(t, s, j1, BoxCurrentJammer)

	result := CheckAssignment(j2, BoxCurrentJammer, s)
	assert.False(t, result.Legal)
	assert.Equal(t, ReasonJammerBoxOccupied, result.Reason)
	assert.Equal(t, "J1", result.Details["occupant"])

	// the occupant itself may be re-assigned to its own box
	assert.True(t, CheckAssignment(j1, BoxCurrentJammer, s).Legal)
}

func TestCheckAssignment_LineFull(t *testing.T) {
	players := []*roster.Player{blocker("B1"), blocker("B2"), blocker("B3"), blocker("B4"), blocker("B5")}
	s := newTestState(players...)
	fillLine(t, s, BoxLineB, players[:4]...)

	result := CheckAssignment(players[4], BoxLineB, s)
	assert.False(t, result.Legal)
	assert.Equal(t, ReasonLineFull, result.Reason)
	assert.Equal(t, "Line already has 4 players", result.Message)

	// a member of a full line is not counted against itself
	assert.True(t, CheckAssignment(players[0], BoxLineB, s).Legal)
}

func TestCheckAssignment_PivotTaken(t *testing.T) {
	p1, p2, b := pivot("P1"), pivot("P2"), blocker("B1")
	s := newTestState(p1, p2, b)
	mustAssign(t, s, p1, BoxLineC)

	result := CheckAssignment(p2, BoxLineC, s)
	assert.False(t, result.Legal)
	assert.Equal(t, ReasonPivotTaken, result.Reason)
	assert.Equal(t, "P1", result.Details["pivot"])

	assert.True(t, CheckAssignment(b, BoxLineC, s).Legal)
	assert.True(t, CheckAssignment(p1, BoxLineC, s).Legal)
}

func TestCheckAssignment_FirstFailureWins(t *testing.T) {
	players := []*roster.Player{pivot("P1"), blocker("B1"), blocker("B2"), blocker("B3"), pivot("P2")}
	s := newTestState(players...)
	fillLine(t, s, BoxLineA, players[:4]...)

	// full and pivot taken: capacity is checked first
	result := CheckAssignment(players[4], BoxLineA, s)
	assert.Equal(t, ReasonLineFull, result.Reason)

	// role mismatch beats everything
	j := jammer("J1")
	require.NoError(t, s.AddPlayer(j))
	result = CheckAssignment(j, BoxLineA, s)
	assert.Equal(t, ReasonRoleMismatch, result.Reason)
}

func TestCheckAssignment_InvalidBox(t *testing.T) {
	b := blocker("B1")
	s := newTestState(b)
	result := CheckAssignment(b, Box(99), s)
	assert.False(t, result.Legal)
	assert.Equal(t, ReasonInvalidBox, result.Reason)
}

func TestCheckAssignment_DoesNotMutate(t *testing.T) {
	j1, j2 := jammer("J1"), jammer("J2")
	s := newTestState(j1, j2)
	mustAssign(t, s, j1, BoxNextJammer)
	before := s.Checksum()

	CheckAssignment(j2, BoxNextJammer, s)
	CheckAssignment(j2, BoxLineA, s)
	assert.Equal(t, before, s.Checksum())
}
