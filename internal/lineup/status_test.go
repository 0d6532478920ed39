package lineup

import (
	"testing"

	"github.com/derbybench/lineup-server-go/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetStatus_InjuredMovesToInjuredBox(t *testing.T) {
	la := []*roster.Player{blocker("A1"), blocker("A2"), blocker("A3"), blocker("A4")}
	s := newTestState(la...)
	fillLine(t, s, BoxLineA, la...)

	change, err := s.SetStatus(la[1], roster.StatusInjured)
	require.NoError(t, err)
	assert.True(t, change.Changed)
	assert.Equal(t, BoxLineA, change.PreviousBox)
	assert.Equal(t, BoxInjured, s.BoxOf(la[1]))
	assert.Equal(t, roster.StatusInjured, la[1].Status)
	assert.Equal(t, 3, s.Count(BoxLineA))
	requireValid(t, s)

	// already injured and boxed: nothing to do
	change, err = s.SetStatus(la[1], roster.StatusInjured)
	require.NoError(t, err)
	assert.False(t, change.Changed)
}

func TestSetStatus_RecoveryGoesToFirstLineWithRoom(t *testing.T) {
	la := []*roster.Player{blocker("A1"), blocker("A2"), blocker("A3"), blocker("A4")}
	lb := []*roster.Player{blocker("B1"), blocker("B2"), blocker("B3"), blocker("B4")}
	s := newTestState(append(append([]*roster.Player{}, la...), lb...)...)
	fillLine(t, s, BoxLineA, la...)
	fillLine(t, s, BoxLineB, lb...)

	_, err := s.SetStatus(la[0], roster.StatusInjured)
	require.NoError(t, err)

	// lineB is full, so lineC is the first line with room
	change, err := s.SetStatus(la[0], roster.StatusNormal)
	require.NoError(t, err)
	assert.True(t, change.Recovered)
	assert.Equal(t, BoxLineC, change.Reassigned)
	assert.Equal(t, BoxLineC, s.BoxOf(la[0]))
	assert.Equal(t, roster.StatusNormal, la[0].Status)
	requireValid(t, s)
}

func TestSetStatus_RecoveredPivotSkipsLinesWithPivot(t *testing.T) {
	pb, pc, p := pivot("PB"), pivot("PC"), pivot("P")
	s := newTestState(pb, pc, p)
	mustAssign(t, s, pb, BoxLineB)
	mustAssign(t, s, pc, BoxLineC)
	mustAssign(t, s, p, BoxInjured)

	change, err := s.SetStatus(p, roster.StatusResting)
	require.NoError(t, err)
	assert.Equal(t, BoxLineA, change.Reassigned)
	assert.Equal(t, roster.StatusResting, p.Status)
	requireValid(t, s)
}

func TestSetStatus_RecoveredJammerOrder(t *testing.T) {
	j1, j2, hurt := jammer("J1"), jammer("J2"), jammer("H")
	s := newTestState(j1, j2, hurt)
	mustAssign(t, s, hurt, BoxInjured)

	change, err := s.SetStatus(hurt, roster.StatusNormal)
	require.NoError(t, err)
	assert.Equal(t, BoxNextJammer, change.Reassigned)

	mustAssign(t, s, hurt, BoxInjured)
	mustAssign(t, s, j1, BoxNextJammer)
	change, err = s.SetStatus(hurt, roster.StatusNormal)
	require.NoError(t, err)
	assert.Equal(t, BoxThirdJammer, change.Reassigned)

	mustAssign(t, s, hurt, BoxInjured)
	mustAssign(t, s, j2, BoxThirdJammer)
	change, err = s.SetStatus(hurt, roster.StatusNormal)
	require.NoError(t, err)
	assert.Equal(t, BoxCurrentJammer, change.Reassigned)
	requireValid(t, s)
}

func TestSetStatus_RecoveryWithoutRoomLandsInPool(t *testing.T) {
	j1, j2, j3, hurt := jammer("J1"), jammer("J2"), jammer("J3"), jammer("H")
	s := newTestState(j1, j2, j3, hurt)
	mustAssign(t, s, j1, BoxCurrentJammer)
	mustAssign(t, s, j2, BoxNextJammer)
	mustAssign(t, s, j3, BoxThirdJammer)
	mustAssign(t, s, hurt, BoxInjured)

	change, err := s.SetStatus(hurt, roster.StatusNormal)
	require.NoError(t, err)
	assert.True(t, change.Recovered)
	assert.Equal(t, BoxPool, change.Reassigned)
	assert.Equal(t, BoxPool, s.BoxOf(hurt))
	requireValid(t, s)
}

func TestSetStatus_RestingOnlyChangesFlag(t *testing.T) {
	b := blocker("B")
	s := newTestState(b)
	mustAssign(t, s, b, BoxLineB)

	change, err := s.SetStatus(b, roster.StatusResting)
	require.NoError(t, err)
	assert.True(t, change.Changed)
	assert.False(t, change.Recovered)
	assert.Equal(t, BoxLineB, s.BoxOf(b))

	change, err = s.SetStatus(b, roster.StatusResting)
	require.NoError(t, err)
	assert.False(t, change.Changed)

	_, err = s.SetStatus(b, roster.StatusNormal)
	require.NoError(t, err)
	assert.Equal(t, BoxLineB, s.BoxOf(b))
	assert.False(t, b.IsResting())
}

func TestSetStatus_InjuredAfterClearAll(t *testing.T) {
	b, other := blocker("B"), blocker("O")
	s := newTestState(b, other)
	mustAssign(t, s, b, BoxInjured)
	s.ClearAll()

	// injured with no box: recovering only changes the flag
	change, err := s.SetStatus(b, roster.StatusNormal)
	require.NoError(t, err)
	assert.True(t, change.Changed)
	assert.False(t, change.Recovered)
	assert.Equal(t, BoxPool, s.BoxOf(b))

	// re-injuring a pooled player puts it back in the injured box
	_, err = s.SetStatus(other, roster.StatusInjured)
	require.NoError(t, err)
	s.ClearAll()
	_, err = s.SetStatus(other, roster.StatusInjured)
	require.NoError(t, err)
	assert.Equal(t, BoxInjured, s.BoxOf(other))
	requireValid(t, s)
}

func TestSetStatus_Errors(t *testing.T) {
	b := blocker("B")
	s := newTestState(b)

	_, err := s.SetStatus(blocker("stranger"), roster.StatusResting)
	assert.ErrorIs(t, err, ErrUnknownPlayer)

	_, err = s.SetStatus(b, roster.Status("SLEEPY"))
	assert.ErrorIs(t, err, roster.ErrInvalidPlayer)

	_, err = s.SetStatus(b, roster.Status(""))
	assert.ErrorIs(t, err, roster.ErrInvalidPlayer)
}
