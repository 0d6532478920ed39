package lineup

import (
	"fmt"

	"github.com/derbybench/lineup-server-go/internal/roster"
)

// recovery destinations, tried in order
var (
	jammerRecoveryOrder = [...]Box{BoxNextJammer, BoxThirdJammer, BoxCurrentJammer}
	lineRecoveryOrder   = [...]Box{BoxLineB, BoxLineC, BoxLineA}
)

// StatusChange describes the effects of a status transition
type StatusChange struct {
	Player *roster.Player
	From   roster.Status
	To     roster.Status
	// Changed is false when the player already had the requested status
	Changed bool
	// PreviousBox is where the player was before the transition
	PreviousBox Box
	// Reassigned is the box a recovering player was placed in; BoxPool when
	// no box had room
	Reassigned Box
	Recovered  bool
}

// SetStatus moves a player through the Normal/Resting/Injured state machine.
// Becoming Injured moves the player into the injured box. Leaving Injured
// takes the player out of the injured box and places it in the first free
// slot for its role. Normal and Resting only change the flag.
func (s *State) SetStatus(p *roster.Player, status roster.Status) (StatusChange, error) {
	change := StatusChange{
		Player:      p,
		From:        p.Status,
		To:          status,
		PreviousBox: s.BoxOf(p),
		Reassigned:  BoxPool,
	}
	if !s.roster.Contains(p) {
		return change, ErrUnknownPlayer
	}
	parsed, err := roster.ParseStatus(string(status))
	if err != nil || status == "" {
		return change, fmt.Errorf("%w: status %q", roster.ErrInvalidPlayer, status)
	}
	status = parsed
	change.To = parsed

	switch {
	case status == roster.StatusInjured:
		if p.Status == roster.StatusInjured && s.where[p] == BoxInjured {
			return change, nil
		}
		p.Status = roster.StatusInjured
		if s.where[p] != BoxInjured {
			s.move(p, BoxInjured)
		}
		change.Changed = true

	case p.Status == status:
		return change, nil

	case p.Status == roster.StatusInjured:
		p.Status = status
		change.Changed = true
		if s.where[p] == BoxInjured {
			s.move(p, BoxPool)
			change.Recovered = true
			change.Reassigned = s.autoAssignRecovered(p)
		}

	default:
		p.Status = status
		change.Changed = true
	}
	return change, nil
}

// autoAssignRecovered places a player coming back from injury. Jammers take
// the first empty of next, third, current; blockers and pivots the first of
// lineB, lineC, lineA with room (and no pivot yet, for a pivot).
func (s *State) autoAssignRecovered(p *roster.Player) Box {
	if p.Role == roster.RoleJammer {
		for _, b := range jammerRecoveryOrder {
			if len(s.boxes[b]) == 0 {
				s.move(p, b)
				return b
			}
		}
		return BoxPool
	}
	for _, b := range lineRecoveryOrder {
		if len(s.boxes[b]) >= LineCapacity {
			continue
		}
		if p.Role == roster.RolePivot && s.hasPivot(b) {
			continue
		}
		s.move(p, b)
		return b
	}
	return BoxPool
}
