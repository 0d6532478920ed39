package lineup

import (
	"math/rand/v2"
	"testing"

	"github.com/derbybench/lineup-server-go/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateStartsInPool(t *testing.T) {
	a, b := jammer("A"), blocker("B")
	s := newTestState(a, b)

	assert.Equal(t, []string{"A", "B"}, names(s.Members(BoxPool)))
	for _, box := range AssignableBoxes {
		assert.Empty(t, s.Members(box), box.String())
	}
	assert.False(t, s.IsAssigned(a))
	requireValid(t, s)
}

func TestAssignRejectsUnknownPlayer(t *testing.T) {
	s := newTestState(blocker("B"))
	_, err := s.Assign(blocker("stranger"), BoxLineA)
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestAssignRejectionLeavesStateUnchanged(t *testing.T) {
	j1, j2 := jammer("J1"), jammer("J2")
	s := newTestState(j1, j2)
	mustAssign(t, s, j1, BoxCurrentJammer)
	mustAssign(t, s, j2, BoxPenalty)
	before := s.Checksum()

	changed, err := s.Assign(j2, BoxCurrentJammer)
	assert.False(t, changed)
	rejection, ok := IsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonJammerBoxOccupied, rejection.Reason())
	assert.Equal(t, before, s.Checksum())
	assert.Equal(t, BoxPenalty, s.BoxOf(j2))
}

func TestAssignIsIdempotent(t *testing.T) {
	b := blocker("B")
	s := newTestState(b)

	changed, err := s.Assign(b, BoxLineB)
	require.NoError(t, err)
	assert.True(t, changed)
	once := s.Checksum()

	changed, err = s.Assign(b, BoxLineB)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, once, s.Checksum())
	assert.Equal(t, 1, s.Count(BoxLineB))
}

func TestAssignMovesBetweenBoxes(t *testing.T) {
	b := blocker("B")
	s := newTestState(b)
	mustAssign(t, s, b, BoxLineA)
	mustAssign(t, s, b, BoxPenalty)

	assert.Empty(t, s.Members(BoxLineA))
	assert.Equal(t, []string{"B"}, names(s.Members(BoxPenalty)))
	assert.Equal(t, BoxPenalty, s.BoxOf(b))
	requireValid(t, s)
}

func TestDropToPoolThenReassignReproducesMembership(t *testing.T) {
	b1, b2, b3 := blocker("B1"), blocker("B2"), blocker("B3")
	s := newTestState(b1, b2, b3)
	fillLine(t, s, BoxLineC, b1, b2, b3)
	before := s.Checksum()

	assert.True(t, s.DropToPool(b3))
	assert.False(t, s.DropToPool(b3))
	assert.Equal(t, BoxPool, s.BoxOf(b3))

	mustAssign(t, s, b3, BoxLineC)
	assert.Equal(t, before, s.Checksum())
}

func TestAssignToPoolDelegatesToDrop(t *testing.T) {
	b := blocker("B")
	s := newTestState(b)
	mustAssign(t, s, b, BoxLineA)

	changed, err := s.Assign(b, BoxPool)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, BoxPool, s.BoxOf(b))
}

func TestInjuredBoxTracksStatus(t *testing.T) {
	b := blocker("B")
	s := newTestState(b)
	mustAssign(t, s, b, BoxLineA)

	mustAssign(t, s, b, BoxInjured)
	assert.Equal(t, roster.StatusInjured, b.Status)
	requireValid(t, s)

	mustAssign(t, s, b, BoxLineB)
	assert.Equal(t, roster.StatusNormal, b.Status)
	requireValid(t, s)

	mustAssign(t, s, b, BoxInjured)
	assert.True(t, s.DropToPool(b))
	assert.Equal(t, roster.StatusNormal, b.Status)
	requireValid(t, s)
}

func TestClearAllKeepsStatuses(t *testing.T) {
	j, b, p := jammer("J"), resting(blocker("B")), pivot("P")
	s := newTestState(j, b, p)
	mustAssign(t, s, j, BoxCurrentJammer)
	mustAssign(t, s, b, BoxLineB)
	mustAssign(t, s, p, BoxInjured)

	assert.True(t, s.ClearAll())
	for _, box := range AssignableBoxes {
		assert.Empty(t, s.Members(box), box.String())
	}
	assert.Len(t, s.Members(BoxPool), 3)

	// the injured player stays injured with no box
	assert.Equal(t, roster.StatusInjured, p.Status)
	assert.Equal(t, BoxPool, s.BoxOf(p))
	assert.Equal(t, roster.StatusResting, b.Status)
	requireValid(t, s)

	assert.False(t, s.ClearAll())
}

func TestDeletePlayerRemovesEverywhere(t *testing.T) {
	a, b := blocker("A"), blocker("B")
	s := newTestState(a, b)
	mustAssign(t, s, a, BoxLineA)

	assert.True(t, s.DeletePlayer(a))
	assert.False(t, s.DeletePlayer(a))
	assert.Empty(t, s.Members(BoxLineA))
	assert.Equal(t, 1, s.Roster().Len())
	assert.False(t, s.Roster().Contains(a))
	requireValid(t, s)
}

func TestLineInfo(t *testing.T) {
	players := []*roster.Player{pivot("P"), blocker("B1"), blocker("B2")}
	s := newTestState(players...)
	fillLine(t, s, BoxLineA, players...)

	info := s.LineInfo(BoxLineA)
	assert.Equal(t, 3, info.Count)
	assert.Equal(t, 1, info.Pivots)
	assert.Equal(t, 2, info.Blockers)
	assert.Equal(t, 1, info.Missing)
	assert.Equal(t, "missing 1 players", info.Problem)
	assert.False(t, s.LineComplete(BoxLineA))

	b3 := blocker("B3")
	require.NoError(t, s.AddPlayer(b3))
	mustAssign(t, s, b3, BoxLineA)
	assert.True(t, s.LineComplete(BoxLineA))
	assert.Empty(t, s.LineInfo(BoxLineA).Problem)

	assert.False(t, s.LineComplete(BoxPenalty))
}

func TestValidateDetectsCorruption(t *testing.T) {
	b := blocker("B")
	s := newTestState(b)
	mustAssign(t, s, b, BoxLineA)

	s.where[b] = BoxLineB
	assert.Error(t, s.Validate())
	s.where[b] = BoxLineA
	requireValid(t, s)

	s.boxes[BoxLineC] = append(s.boxes[BoxLineC], b)
	assert.Error(t, s.Validate())
}

// TestRandomOperationsKeepInvariants drives the state with a seeded mix of
// every mutating operation and checks the invariants after each step.
func TestRandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	players := []*roster.Player{
		jammer("J1"), jammer("J2"), jammer("J3"), jammer("J4"),
		pivot("P1"), pivot("P2"), pivot("P3"),
	}
	for i := 1; i <= 12; i++ {
		players = append(players, blocker("B"+string(rune('a'+i))))
	}
	s := newTestState(players...)
	statuses := []roster.Status{roster.StatusNormal, roster.StatusResting, roster.StatusInjured}

	for step := 0; step < 2000; step++ {
		p := players[rng.IntN(len(players))]
		switch op := rng.IntN(10); op {
		case 0, 1, 2, 3:
			box := Box(rng.IntN(int(boxCount)))
			_, _ = s.Assign(p, box)
		case 4:
			s.DropToPool(p)
		case 5:
			_, err := s.SetStatus(p, statuses[rng.IntN(len(statuses))])
			require.NoError(t, err)
		case 6:
			s.AutoFillCurrentLine()
		case 7:
			_, _ = s.Rotate()
		case 8:
			if rng.IntN(2) == 0 {
				s.RotateWithAutoFill()
			} else {
				s.ForceRotate()
			}
		case 9:
			if rng.IntN(20) == 0 {
				s.ClearAll()
			}
		}
		require.NoError(t, s.Validate(), "step %d", step)
	}
}
