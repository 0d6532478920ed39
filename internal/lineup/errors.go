package lineup

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPlayer is returned when a player handle is not in the roster
	ErrUnknownPlayer = errors.New("player not found in roster")
	// ErrNothingToUndo is returned by Undo at the oldest history entry
	ErrNothingToUndo = errors.New("no further steps to undo")
	// ErrNothingToRedo is returned by Redo at the newest history entry
	ErrNothingToRedo = errors.New("no further steps to redo")
	// ErrIncompleteLine is returned by Rotate when the current line is not playable
	ErrIncompleteLine = errors.New("current line is incomplete")
	// ErrUnrecognizedImport is returned for JSON documents of an unknown shape
	ErrUnrecognizedImport = errors.New("unrecognized import format")
)

// Rejection reason codes
const (
	ReasonRoleMismatch      = "role_mismatch"
	ReasonJammerBoxOccupied = "jammer_box_occupied"
	ReasonLineFull          = "line_full"
	ReasonPivotTaken        = "pivot_taken"
	ReasonInvalidBox        = "invalid_box"
)

// RejectionError reports an assignment refused by the legality rules.
// State is never modified when it is returned.
type RejectionError struct {
	Player string
	Box    Box
	Result AssignmentResult
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("cannot assign %s to %s: %s", e.Player, e.Box, e.Result.Message)
}

// Reason returns the machine readable rejection code
func (e *RejectionError) Reason() string {
	return e.Result.Reason
}

// IsRejection reports whether err is a rule rejection and returns it
func IsRejection(err error) (*RejectionError, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}
