package lineup

import (
	"fmt"

	"github.com/derbybench/lineup-server-go/internal/roster"
)

// State is the complete assignable state: the roster plus the eight boxes.
// All box changes go through move so the back-reference index in where
// always agrees with box membership.
type State struct {
	roster *roster.Registry
	boxes  [boxCount][]*roster.Player
	where  map[*roster.Player]Box
}

// NewState creates a state with every registered player in the pool
func NewState(reg *roster.Registry) *State {
	if reg == nil {
		reg = roster.NewRegistry()
	}
	s := &State{
		roster: reg,
		where:  make(map[*roster.Player]Box, reg.Len()),
	}
	for _, p := range reg.All() {
		s.where[p] = BoxPool
	}
	return s
}

// Roster returns the live player registry
func (s *State) Roster() *roster.Registry {
	return s.roster
}

// Members returns the players in a box. For BoxPool it returns the players
// that are in no other box, in roster order.
func (s *State) Members(box Box) []*roster.Player {
	if box == BoxPool {
		var pool []*roster.Player
		for _, p := range s.roster.All() {
			if s.where[p] == BoxPool {
				pool = append(pool, p)
			}
		}
		return pool
	}
	if !box.Valid() {
		return nil
	}
	return append([]*roster.Player(nil), s.boxes[box]...)
}

// Count returns the number of players in an assignable box
func (s *State) Count(box Box) int {
	if box == BoxPool || !box.Valid() {
		return len(s.Members(box))
	}
	return len(s.boxes[box])
}

// BoxOf returns the box a player is in; unregistered players report BoxPool
func (s *State) BoxOf(p *roster.Player) Box {
	if b, ok := s.where[p]; ok {
		return b
	}
	return BoxPool
}

// Occupant returns the first member of a box, used for jammer slots
func (s *State) Occupant(box Box) (*roster.Player, bool) {
	if box == BoxPool || !box.Valid() || len(s.boxes[box]) == 0 {
		return nil, false
	}
	return s.boxes[box][0], true
}

// IsAssigned reports whether the player is in any box other than the pool
func (s *State) IsAssigned(p *roster.Player) bool {
	return s.BoxOf(p) != BoxPool
}

func (s *State) hasPivot(box Box) bool {
	for _, m := range s.boxes[box] {
		if m.Role == roster.RolePivot {
			return true
		}
	}
	return false
}

// move takes p out of its current box and appends it to target.
// Moving to BoxPool only removes.
func (s *State) move(p *roster.Player, target Box) {
	from := s.where[p]
	if from != BoxPool {
		members := s.boxes[from]
		for i, m := range members {
			if m == p {
				s.boxes[from] = append(members[:i:i], members[i+1:]...)
				break
			}
		}
	}
	s.where[p] = target
	if target != BoxPool {
		s.boxes[target] = append(s.boxes[target], p)
	}
}

// AddPlayer registers a new player in the pool
func (s *State) AddPlayer(p *roster.Player) error {
	if err := s.roster.Add(p); err != nil {
		return err
	}
	s.where[p] = BoxPool
	return nil
}

// DeletePlayer removes a player from every box and from the roster
func (s *State) DeletePlayer(p *roster.Player) bool {
	if !s.roster.Contains(p) {
		return false
	}
	s.move(p, BoxPool)
	delete(s.where, p)
	s.roster.Remove(p)
	return true
}

// Assign moves a registered player into target after the legality checks.
// It reports whether anything changed; assigning a player to the box it is
// already in changes nothing.
func (s *State) Assign(p *roster.Player, target Box) (bool, error) {
	if !s.roster.Contains(p) {
		return false, ErrUnknownPlayer
	}
	if target == BoxPool {
		return s.DropToPool(p), nil
	}

	result := CheckAssignment(p, target, s)
	if !result.Legal {
		return false, &RejectionError{Player: p.Name, Box: target, Result: result}
	}
	if s.where[p] == target {
		return false, nil
	}

	switch {
	case target == BoxInjured:
		p.Status = roster.StatusInjured
	case p.Status == roster.StatusInjured:
		// only the injured box may hold an injured player
		p.Status = roster.StatusNormal
	}
	s.move(p, target)
	return true, nil
}

// DropToPool removes a player from every box. A player taken out of the
// injured box is reset to Normal.
func (s *State) DropToPool(p *roster.Player) bool {
	from, ok := s.where[p]
	if !ok || from == BoxPool {
		return false
	}
	s.move(p, BoxPool)
	if from == BoxInjured {
		p.Status = roster.StatusNormal
	}
	return true
}

// ClearAll empties every box. Player statuses are left untouched, so an
// Injured player ends up in no box until its status changes.
func (s *State) ClearAll() bool {
	changed := false
	for _, b := range AssignableBoxes {
		for _, p := range s.boxes[b] {
			s.where[p] = BoxPool
			changed = true
		}
		s.boxes[b] = nil
	}
	return changed
}

// LineComplete reports whether a line is playable: exactly four players and
// at most one pivot
func (s *State) LineComplete(line Box) bool {
	if !line.IsLine() {
		return false
	}
	info := s.LineInfo(line)
	return info.Count == LineCapacity && info.Pivots <= 1
}

// LineInfo describes the composition of a line
type LineInfo struct {
	Box      Box    `json:"box"`
	Count    int    `json:"count"`
	Blockers int    `json:"blockers"`
	Pivots   int    `json:"pivots"`
	Missing  int    `json:"missing"`
	Problem  string `json:"problem,omitempty"`
}

// LineInfo counts blockers and pivots and names what keeps the line from
// being playable
func (s *State) LineInfo(line Box) LineInfo {
	info := LineInfo{Box: line}
	if !line.IsLine() {
		return info
	}
	for _, m := range s.boxes[line] {
		info.Count++
		switch m.Role {
		case roster.RolePivot:
			info.Pivots++
		case roster.RoleBlocker:
			info.Blockers++
		}
	}
	if info.Count < LineCapacity {
		info.Missing = LineCapacity - info.Count
		info.Problem = fmt.Sprintf("missing %d players", info.Missing)
	} else if info.Pivots > 1 {
		info.Problem = fmt.Sprintf("too many pivots (%d)", info.Pivots)
	}
	return info
}

// Validate checks every structural invariant and returns the first violation
func (s *State) Validate() error {
	seen := make(map[*roster.Player]Box, s.roster.Len())
	for _, b := range AssignableBoxes {
		pivots := 0
		for _, p := range s.boxes[b] {
			if !s.roster.Contains(p) {
				return fmt.Errorf("%s holds unregistered player %s", b, p)
			}
			if prev, dup := seen[p]; dup {
				return fmt.Errorf("player %s is in both %s and %s", p, prev, b)
			}
			seen[p] = b
			if s.where[p] != b {
				return fmt.Errorf("player %s indexed in %s but member of %s", p, s.where[p], b)
			}
			if !b.Accepts(p.Role) {
				return fmt.Errorf("player %s with role %s cannot be in %s", p, p.Role, b)
			}
			if p.Role == roster.RolePivot {
				pivots++
			}
		}
		switch {
		case b.IsJammerBox() && len(s.boxes[b]) > JammerBoxCapacity:
			return fmt.Errorf("%s holds %d jammers", b, len(s.boxes[b]))
		case b.IsLine() && len(s.boxes[b]) > LineCapacity:
			return fmt.Errorf("%s holds %d players", b, len(s.boxes[b]))
		case b.IsLine() && pivots > 1:
			return fmt.Errorf("%s holds %d pivots", b, pivots)
		}
	}
	for _, p := range s.roster.All() {
		b, indexed := s.where[p]
		if !indexed {
			return fmt.Errorf("player %s missing from index", p)
		}
		if b != BoxPool {
			if _, member := seen[p]; !member {
				return fmt.Errorf("player %s indexed in %s but not a member", p, b)
			}
		}
		if b != BoxPool && b != BoxInjured && p.Status == roster.StatusInjured {
			return fmt.Errorf("injured player %s assigned to %s", p, b)
		}
		if b == BoxInjured && p.Status != roster.StatusInjured {
			return fmt.Errorf("player %s in injured box with status %s", p, p.Status)
		}
	}
	if len(s.where) != s.roster.Len() {
		return fmt.Errorf("index holds %d players, roster %d", len(s.where), s.roster.Len())
	}
	return nil
}
