package lineup

import "github.com/derbybench/lineup-server-go/internal/roster"

// RotationReport describes everything a rotation changed
type RotationReport struct {
	// Rotated is false when the rotation was refused or cancelled
	Rotated bool
	// PreFill is the auto-fill run before rotating (RotateWithAutoFill only)
	PreFill *FillReport
	// PostFill is the auto-fill run after rotating when lineA came up short
	PostFill *FillReport
	// JammerMoves and LineMoves list the players that changed boxes
	JammerMoves []Move
	LineMoves   []Move
	// Benched lists resting players that could not stay in their line, even
	// after the post-rotation fill made room
	Benched []*roster.Player
	// Promoted is the jammer pulled into an empty currentJammer slot and
	// PromotedFrom the slot it left
	Promoted     *roster.Player
	PromotedFrom Box
	// CurrentLine is the composition of lineA after the operation
	CurrentLine LineInfo
}

// Rotate advances jammers and lines. The current line must be complete;
// otherwise ErrIncompleteLine is returned and nothing changes.
func (s *State) Rotate() (RotationReport, error) {
	if !s.LineComplete(BoxLineA) {
		return RotationReport{CurrentLine: s.LineInfo(BoxLineA)}, ErrIncompleteLine
	}
	return s.rotate(true), nil
}

// RotateWithAutoFill fills the current line first and rotates only when the
// fill made it complete. A failed fill keeps its partial progress.
func (s *State) RotateWithAutoFill() RotationReport {
	fill := s.AutoFillCurrentLine()
	if !fill.Complete {
		return RotationReport{
			PreFill:     &fill,
			CurrentLine: s.LineInfo(BoxLineA),
		}
	}
	report := s.rotate(true)
	report.PreFill = &fill
	return report
}

// ForceRotate rotates without checking the current line and without the
// post-rotation repairs.
func (s *State) ForceRotate() RotationReport {
	return s.rotate(false)
}

func (s *State) rotate(repair bool) RotationReport {
	report := RotationReport{Rotated: true}
	report.JammerMoves = s.RotateJammers()
	moves, pending := s.rotateLines()
	report.LineMoves = moves

	if repair {
		if len(s.boxes[BoxLineA]) < LineCapacity {
			fill := s.AutoFillCurrentLine()
			report.PostFill = &fill
		}
		pending = s.reseat(pending, &report)
		if len(s.boxes[BoxCurrentJammer]) == 0 {
			report.Promoted, report.PromotedFrom = s.promoteJammer()
		}
	}
	for _, st := range pending {
		report.Benched = append(report.Benched, st.player)
	}
	report.CurrentLine = s.LineInfo(BoxLineA)
	return report
}

// benchedSeat is a resting player pushed out of its origin line
type benchedSeat struct {
	player *roster.Player
	origin Box
}

// reseat puts benched players back into their origin line where the
// post-rotation fill freed a seat, dropping their trip to the pool from the
// line moves. It returns the players that still do not fit.
func (s *State) reseat(pending []benchedSeat, report *RotationReport) []benchedSeat {
	var left []benchedSeat
	for _, st := range pending {
		if !fitsLine(s.boxes[st.origin], st.player) {
			left = append(left, st)
			continue
		}
		s.move(st.player, st.origin)
		for i, m := range report.LineMoves {
			if m.Player == st.player && m.To == BoxPool {
				report.LineMoves = append(report.LineMoves[:i:i], report.LineMoves[i+1:]...)
				break
			}
		}
	}
	return left
}

// promoteJammer moves the first non-resting jammer from nextJammer, then
// thirdJammer into the empty currentJammer slot
func (s *State) promoteJammer() (*roster.Player, Box) {
	for _, b := range [...]Box{BoxNextJammer, BoxThirdJammer} {
		p, ok := s.Occupant(b)
		if ok && !p.IsResting() {
			s.move(p, BoxCurrentJammer)
			return p, b
		}
	}
	return nil, BoxPool
}

// RotateJammers rotates the occupied jammer slots only. The occupant of the
// i-th occupied slot moves to the (i-1)-th (cyclic), so with all three
// filled: current<-next, next<-third, third<-current. A resting jammer is
// never moved into currentJammer; it keeps its slot and the others rotate
// among the remaining slots.
func (s *State) RotateJammers() []Move {
	type seat struct {
		box    Box
		player *roster.Player
	}
	var seats []seat
	for _, b := range JammerBoxes {
		if p, ok := s.Occupant(b); ok {
			seats = append(seats, seat{box: b, player: p})
		}
	}
	if len(seats) < 2 {
		return nil
	}

	frozen := make([]bool, len(seats))
	active := func() []int {
		var idx []int
		for i := range seats {
			if !frozen[i] {
				idx = append(idx, i)
			}
		}
		return idx
	}

	for {
		act := active()
		if len(act) < 2 {
			break
		}
		changed := false
		for k, i := range act {
			dest := act[(k-1+len(act))%len(act)]
			if seats[dest].box == BoxCurrentJammer && seats[i].player.IsResting() {
				frozen[i] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	groups := make(map[Box][]*roster.Player, len(seats))
	act := active()
	for _, st := range seats {
		groups[st.box] = nil
	}
	for i := range seats {
		if frozen[i] || len(act) < 2 {
			groups[seats[i].box] = []*roster.Player{seats[i].player}
		}
	}
	if len(act) >= 2 {
		for k, i := range act {
			dest := act[(k-1+len(act))%len(act)]
			groups[seats[dest].box] = []*roster.Player{seats[i].player}
		}
	}
	return s.regroup(groups)
}

// RotateLines rotates the non-empty lines as whole groups with the same
// topology as the jammers: lineA<-lineB, lineB<-lineC, lineC<-lineA when all
// three are occupied. Resting members of the group heading into lineA stay
// in their origin line behind the group arriving there; any that no longer
// fit (capacity or pivot rule) are returned to the pool and reported.
func (s *State) RotateLines() ([]Move, []*roster.Player) {
	moves, pending := s.rotateLines()
	var benched []*roster.Player
	for _, st := range pending {
		benched = append(benched, st.player)
	}
	return moves, benched
}

func (s *State) rotateLines() ([]Move, []benchedSeat) {
	var occupied []Box
	for _, b := range LineBoxes {
		if len(s.boxes[b]) > 0 {
			occupied = append(occupied, b)
		}
	}
	if len(occupied) < 2 {
		return nil, nil
	}

	groups := make(map[Box][]*roster.Player, len(occupied))
	stay := make(map[Box][]*roster.Player)
	for k, origin := range occupied {
		dest := occupied[(k-1+len(occupied))%len(occupied)]
		if _, ok := groups[origin]; !ok {
			groups[origin] = nil
		}
		for _, p := range s.boxes[origin] {
			if dest == BoxLineA && p.IsResting() {
				stay[origin] = append(stay[origin], p)
				continue
			}
			groups[dest] = append(groups[dest], p)
		}
	}

	var benched []benchedSeat
	for _, origin := range occupied {
		for _, p := range stay[origin] {
			if fitsLine(groups[origin], p) {
				groups[origin] = append(groups[origin], p)
			} else {
				benched = append(benched, benchedSeat{player: p, origin: origin})
			}
		}
	}
	return s.regroup(groups), benched
}

func fitsLine(members []*roster.Player, p *roster.Player) bool {
	if len(members) >= LineCapacity {
		return false
	}
	if p.Role == roster.RolePivot {
		for _, m := range members {
			if m.Role == roster.RolePivot {
				return false
			}
		}
	}
	return true
}

// regroup replaces the contents of every box named in groups. Players that
// were in one of those boxes and appear in no group fall back to the pool.
// Moves are listed in box order, pool moves last.
func (s *State) regroup(groups map[Box][]*roster.Player) []Move {
	before := make(map[*roster.Player]Box)
	var vacated []*roster.Player
	for _, b := range AssignableBoxes {
		if _, ok := groups[b]; !ok {
			continue
		}
		for _, p := range s.boxes[b] {
			before[p] = b
			vacated = append(vacated, p)
		}
		s.boxes[b] = nil
	}

	placed := make(map[*roster.Player]bool)
	for _, b := range AssignableBoxes {
		members, ok := groups[b]
		if !ok {
			continue
		}
		for _, p := range members {
			if _, known := before[p]; !known {
				before[p] = s.where[p]
			}
			s.where[p] = b
			placed[p] = true
		}
		s.boxes[b] = append([]*roster.Player(nil), members...)
	}

	var moves []Move
	for _, b := range AssignableBoxes {
		if _, ok := groups[b]; !ok {
			continue
		}
		for _, p := range s.boxes[b] {
			if from := before[p]; from != b {
				moves = append(moves, Move{Player: p, From: from, To: b})
			}
		}
	}
	for _, p := range vacated {
		if !placed[p] {
			s.where[p] = BoxPool
			moves = append(moves, Move{Player: p, From: before[p], To: BoxPool})
		}
	}
	return moves
}
