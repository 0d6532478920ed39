package lineup

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/derbybench/lineup-server-go/internal/roster"
)

// Clone creates a deep copy of the state: fresh player entries with box
// memberships rebuilt against them. Used for history snapshots.
func (s *State) Clone() *State {
	reg, mapping := s.roster.Clone()
	clone := &State{
		roster: reg,
		where:  make(map[*roster.Player]Box, len(mapping)),
	}
	for orig, cp := range mapping {
		clone.where[cp] = s.where[orig]
	}
	for _, b := range AssignableBoxes {
		if len(s.boxes[b]) == 0 {
			continue
		}
		members := make([]*roster.Player, len(s.boxes[b]))
		for i, p := range s.boxes[b] {
			members[i] = mapping[p]
		}
		clone.boxes[b] = members
	}
	return clone
}

// Checksum returns a SHA-256 over a canonical rendering of the state.
// Two states with equal checksums have identical rosters (order included)
// and identical box memberships.
func (s *State) Checksum() string {
	sum := sha256.Sum256(s.canonical())
	return hex.EncodeToString(sum[:])
}

func (s *State) canonical() []byte {
	var buf bytes.Buffer
	for i, p := range s.roster.All() {
		fmt.Fprintf(&buf, "PLAYER:%d|%q|%q|%s|%s\n", i, p.Name, p.Number, p.Role, p.Status)
	}
	// box order matters within a box (rotation and auto-fill read it)
	for _, b := range AssignableBoxes {
		fmt.Fprintf(&buf, "%s:", b)
		for i, p := range s.boxes[b] {
			if i > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(&buf, "%d", s.roster.IndexOf(p))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// PlayerView is the render-only description of one roster entry
type PlayerView struct {
	Index  int           `json:"index"`
	Name   string        `json:"name"`
	Number string        `json:"number"`
	Role   roster.Role   `json:"role"`
	Status roster.Status `json:"status"`
	Box    Box           `json:"box"`
}

// View is a read-only rendering of the state. Players are referenced by
// roster index so a view never leaks live entries.
type View struct {
	Players      []PlayerView  `json:"players"`
	Boxes        map[Box][]int `json:"boxes"`
	CurrentLine  LineInfo      `json:"currentLine"`
	HistoryIndex int           `json:"historyIndex"`
	HistoryDepth int           `json:"historyDepth"`
	Checksum     string        `json:"checksum"`
}

// View renders the state
func (s *State) View() View {
	v := View{
		Players:     make([]PlayerView, 0, s.roster.Len()),
		Boxes:       make(map[Box][]int, len(AssignableBoxes)+1),
		CurrentLine: s.LineInfo(BoxLineA),
		Checksum:    s.Checksum(),
	}
	for i, p := range s.roster.All() {
		v.Players = append(v.Players, PlayerView{
			Index:  i,
			Name:   p.Name,
			Number: p.Number,
			Role:   p.Role,
			Status: p.Status,
			Box:    s.BoxOf(p),
		})
	}
	for b := BoxPool; b < boxCount; b++ {
		members := s.Members(b)
		indexes := make([]int, len(members))
		for i, p := range members {
			indexes[i] = s.roster.IndexOf(p)
		}
		v.Boxes[b] = indexes
	}
	return v
}
