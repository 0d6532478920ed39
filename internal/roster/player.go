package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPlayer is returned when a player record is missing required fields
var ErrInvalidPlayer = errors.New("invalid player")

// Role is the positional role a player skates
type Role string

const (
	RoleJammer  Role = "J"
	RoleBlocker Role = "B"
	RolePivot   Role = "P"
)

// ParseRole accepts the short wire form ("J", "B", "P") or the full role name
func ParseRole(value string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "J", "JAMMER":
		return RoleJammer, nil
	case "B", "BLOCKER":
		return RoleBlocker, nil
	case "P", "PIVOT":
		return RolePivot, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidPlayer, value)
	}
}

func (r Role) String() string {
	switch r {
	case RoleJammer:
		return "JAMMER"
	case RoleBlocker:
		return "BLOCKER"
	case RolePivot:
		return "PIVOT"
	default:
		return "UNKNOWN"
	}
}

// Status is the availability of a player
type Status string

const (
	StatusNormal  Status = "NORMAL"
	StatusResting Status = "REST"
	StatusInjured Status = "INJURED"
)

// ParseStatus accepts the wire form and a few spellings used by older exports.
// An empty value maps to StatusNormal.
func ParseStatus(value string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", "NORMAL":
		return StatusNormal, nil
	case "REST", "RESTING":
		return StatusResting, nil
	case "INJURED":
		return StatusInjured, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidPlayer, value)
	}
}

// Player is a roster entry. Identity is the pointer: two *Player values are
// the same skater only if they are the same pointer.
type Player struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Role   Role   `json:"role"`
	Status Status `json:"status"`
}

// NewPlayer validates and normalizes the inputs of a new roster entry
func NewPlayer(name, number, role string) (*Player, error) {
	name = strings.TrimSpace(name)
	number = strings.TrimSpace(number)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPlayer)
	}
	if number == "" {
		return nil, fmt.Errorf("%w: number is required", ErrInvalidPlayer)
	}
	parsed, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	return &Player{
		Name:   name,
		Number: number,
		Role:   parsed,
		Status: StatusNormal,
	}, nil
}

// IsResting reports whether the player must be skipped as a rotation source
func (p *Player) IsResting() bool {
	return p.Status == StatusResting
}

// Copy returns a new player with the same attributes
func (p *Player) Copy() *Player {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// SameRecord reports structural equality of all four attributes
func (p *Player) SameRecord(other *Player) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Name == other.Name &&
		p.Number == other.Number &&
		p.Role == other.Role &&
		p.Status == other.Status
}

func (p *Player) String() string {
	return fmt.Sprintf("%s – %s (%s)", p.Number, p.Name, p.Role)
}

// UnmarshalJSON migrates records written before the status field existed and
// accepts long-form role and status names.
func (p *Player) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   string `json:"name"`
		Number string `json:"number"`
		Role   string `json:"role"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	role, err := ParseRole(raw.Role)
	if err != nil {
		return err
	}
	status, err := ParseStatus(raw.Status)
	if err != nil {
		return err
	}
	*p = Player{
		Name:   raw.Name,
		Number: raw.Number,
		Role:   role,
		Status: status,
	}
	return nil
}
