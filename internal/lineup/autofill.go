package lineup

import "github.com/derbybench/lineup-server-go/internal/roster"

// reserveLines are searched in order when filling the current line
var reserveLines = [...]Box{BoxLineB, BoxLineC}

// Move records one player changing boxes
type Move struct {
	Player *roster.Player
	From   Box
	To     Box
}

// FillReport is the outcome of an auto-fill pass
type FillReport struct {
	Moved    []Move
	Complete bool
}

// AutoFillCurrentLine pulls non-resting reserves from lineB, then lineC into
// lineA: first a pivot if lineA has none, then blockers until it has four
// players. Partial progress is kept when reserves run out.
func (s *State) AutoFillCurrentLine() FillReport {
	var report FillReport
	if s.LineComplete(BoxLineA) {
		report.Complete = true
		return report
	}

	if len(s.boxes[BoxLineA]) < LineCapacity && !s.hasPivot(BoxLineA) {
		if p, from, ok := s.findReserve(roster.RolePivot); ok {
			s.move(p, BoxLineA)
			report.Moved = append(report.Moved, Move{Player: p, From: from, To: BoxLineA})
		}
	}

	for len(s.boxes[BoxLineA]) < LineCapacity {
		p, from, ok := s.findReserve(roster.RoleBlocker)
		if !ok {
			break
		}
		s.move(p, BoxLineA)
		report.Moved = append(report.Moved, Move{Player: p, From: from, To: BoxLineA})
	}

	report.Complete = s.LineComplete(BoxLineA)
	return report
}

// findReserve returns the first non-resting player with the role in the
// reserve lines
func (s *State) findReserve(role roster.Role) (*roster.Player, Box, bool) {
	for _, line := range reserveLines {
		for _, p := range s.boxes[line] {
			if p.IsResting() {
				continue
			}
			if p.Role == role {
				return p, line, true
			}
		}
	}
	return nil, BoxPool, false
}
