package lineup

import (
	"fmt"
	"strings"

	"github.com/derbybench/lineup-server-go/internal/roster"
)

// Box identifies one of the fixed assignment slots
type Box int

const (
	BoxPool Box = iota
	BoxCurrentJammer
	BoxNextJammer
	BoxThirdJammer
	BoxLineA
	BoxLineB
	BoxLineC
	BoxPenalty
	BoxInjured

	boxCount
)

// Line and jammer slot sizes
const (
	LineCapacity      = 4
	JammerBoxCapacity = 1
)

// AssignableBoxes lists every box except the pool, in display order
var AssignableBoxes = [...]Box{
	BoxCurrentJammer,
	BoxNextJammer,
	BoxThirdJammer,
	BoxLineA,
	BoxLineB,
	BoxLineC,
	BoxPenalty,
	BoxInjured,
}

// JammerBoxes in rotation order: current, next, third
var JammerBoxes = [...]Box{BoxCurrentJammer, BoxNextJammer, BoxThirdJammer}

// LineBoxes in rotation order: current (A), next (B), third (C)
var LineBoxes = [...]Box{BoxLineA, BoxLineB, BoxLineC}

// boxNames is indexed by Box; the array length makes a missing entry a
// compile error.
var boxNames = [boxCount]string{
	BoxPool:          "pool",
	BoxCurrentJammer: "currentJammer",
	BoxNextJammer:    "nextJammer",
	BoxThirdJammer:   "thirdJammer",
	BoxLineA:         "lineA",
	BoxLineB:         "lineB",
	BoxLineC:         "lineC",
	BoxPenalty:       "penalty",
	BoxInjured:       "injured",
}

// legacyBoxNames are the snake_case keys written by the original tablet app
var legacyBoxNames = [boxCount]string{
	BoxPool:          "player_pool",
	BoxCurrentJammer: "current_jammer",
	BoxNextJammer:    "next_jammer",
	BoxThirdJammer:   "third_jammer",
	BoxLineA:         "line_a",
	BoxLineB:         "line_b",
	BoxLineC:         "line_c",
	BoxPenalty:       "penalty",
	BoxInjured:       "injured",
}

func (b Box) String() string {
	if !b.Valid() {
		return fmt.Sprintf("box(%d)", int(b))
	}
	return boxNames[b]
}

// Valid reports whether b is one of the known boxes
func (b Box) Valid() bool {
	return b >= BoxPool && b < boxCount
}

// IsJammerBox reports whether b is a single-capacity jammer slot
func (b Box) IsJammerBox() bool {
	return b == BoxCurrentJammer || b == BoxNextJammer || b == BoxThirdJammer
}

// IsLine reports whether b is a blocker/pivot line
func (b Box) IsLine() bool {
	return b == BoxLineA || b == BoxLineB || b == BoxLineC
}

// Accepts reports whether the role may ever enter the box, ignoring occupancy
func (b Box) Accepts(role roster.Role) bool {
	switch {
	case b.IsJammerBox():
		return role == roster.RoleJammer
	case b.IsLine():
		return role != roster.RoleJammer
	default:
		return b.Valid()
	}
}

// ParseBox resolves a box by its camelCase name or the legacy snake_case key
func ParseBox(name string) (Box, error) {
	name = strings.TrimSpace(name)
	for b := BoxPool; b < boxCount; b++ {
		if name == boxNames[b] || name == legacyBoxNames[b] {
			return b, nil
		}
	}
	return BoxPool, fmt.Errorf("unknown box %q", name)
}

// MarshalText encodes a box as its camelCase name
func (b Box) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("unknown box %d", int(b))
	}
	return []byte(boxNames[b]), nil
}

// UnmarshalText decodes a box name
func (b *Box) UnmarshalText(text []byte) error {
	parsed, err := ParseBox(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
