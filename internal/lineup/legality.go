package lineup

import (
	"fmt"
	"strconv"

	"github.com/derbybench/lineup-server-go/internal/roster"
)

// BoxAccessor provides the read access legality checks need
type BoxAccessor interface {
	// Members returns the players currently in a box, in box order
	Members(box Box) []*roster.Player
	// BoxOf returns the box a player is currently in (BoxPool if unassigned)
	BoxOf(p *roster.Player) Box
}

// AssignmentResult is the outcome of a legality check
type AssignmentResult struct {
	Legal   bool
	Reason  string
	Message string
	Details map[string]string
}

// CheckAssignment decides whether a player may enter the target box.
// Checks run in a fixed order and the first failure wins:
//  1. role/box compatibility
//  2. jammer box occupancy
//  3. line capacity
//  4. pivot uniqueness
//
// It never mutates state.
func CheckAssignment(p *roster.Player, target Box, state BoxAccessor) AssignmentResult {
	if !target.Valid() {
		return AssignmentResult{
			Legal:   false,
			Reason:  ReasonInvalidBox,
			Message: "unknown box",
			Details: map[string]string{"box": strconv.Itoa(int(target))},
		}
	}

	// Check 1: role may enter this kind of box
	if !target.Accepts(p.Role) {
		msg := "Blocker/Pivot can't be Jammer"
		if p.Role == roster.RoleJammer {
			msg = "Jammer can't be in a line"
		}
		return AssignmentResult{
			Legal:   false,
			Reason:  ReasonRoleMismatch,
			Message: msg,
			Details: map[string]string{
				"role": string(p.Role),
				"box":  target.String(),
			},
		}
	}

	members := state.Members(target)

	// Check 2: single-capacity jammer box held by someone else
	if target.IsJammerBox() {
		for _, occupant := range members {
			if occupant != p {
				return AssignmentResult{
					Legal:   false,
					Reason:  ReasonJammerBoxOccupied,
					Message: "Jammer box already full",
					Details: map[string]string{
						"box":      target.String(),
						"occupant": occupant.Name,
					},
				}
			}
		}
	}

	if target.IsLine() {
		others := 0
		pivot := (*roster.Player)(nil)
		for _, m := range members {
			if m == p {
				continue
			}
			others++
			if m.Role == roster.RolePivot && pivot == nil {
				pivot = m
			}
		}

		// Check 3: line capacity
		if others >= LineCapacity {
			return AssignmentResult{
				Legal:   false,
				Reason:  ReasonLineFull,
				Message: fmt.Sprintf("Line already has %d players", LineCapacity),
				Details: map[string]string{
					"box":   target.String(),
					"count": strconv.Itoa(others),
				},
			}
		}

		// Check 4: at most one pivot per line
		if p.Role == roster.RolePivot && pivot != nil {
			return AssignmentResult{
				Legal:   false,
				Reason:  ReasonPivotTaken,
				Message: "Line already has a Pivot",
				Details: map[string]string{
					"box":   target.String(),
					"pivot": pivot.Name,
				},
			}
		}
	}

	return AssignmentResult{Legal: true}
}
