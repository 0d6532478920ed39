package lineup

import (
	"testing"

	"github.com/derbybench/lineup-server-go/internal/roster"
	"github.com/stretchr/testify/require"
)

func jammer(name string) *roster.Player {
	return &roster.Player{Name: name, Number: name, Role: roster.RoleJammer, Status: roster.StatusNormal}
}

func blocker(name string) *roster.Player {
	return &roster.Player{Name: name, Number: name, Role: roster.RoleBlocker, Status: roster.StatusNormal}
}

func pivot(name string) *roster.Player {
	return &roster.Player{Name: name, Number: name, Role: roster.RolePivot, Status: roster.StatusNormal}
}

func resting(p *roster.Player) *roster.Player {
	p.Status = roster.StatusResting
	return p
}

// newTestState registers players in order, all in the pool
func newTestState(players ...*roster.Player) *State {
	return NewState(roster.NewRegistry(players...))
}

func mustAssign(t *testing.T, s *State, p *roster.Player, box Box) {
	t.Helper()
	_, err := s.Assign(p, box)
	require.NoError(t, err, "assign %s to %s", p.Name, box)
}

// fillLine assigns every player to line in order
func fillLine(t *testing.T, s *State, line Box, players ...*roster.Player) {
	t.Helper()
	for _, p := range players {
		mustAssign(t, s, p, line)
	}
}

func names(players []*roster.Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}

func requireValid(t *testing.T, s *State) {
	t.Helper()
	require.NoError(t, s.Validate())
}
