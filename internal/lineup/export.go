package lineup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/derbybench/lineup-server-go/internal/roster"
	"github.com/derbybench/lineup-server-go/internal/storage"
)

// lineupDocument is the full export shape
type lineupDocument struct {
	Players     []roster.Player            `json:"players"`
	Assignments map[string][]roster.Player `json:"assignments"`
}

// ExportPlayers renders the roster as an indented JSON array
func (s *State) ExportPlayers() ([]byte, error) {
	data, err := json.MarshalIndent(s.roster.Records(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode players: %w", err)
	}
	return data, nil
}

// ExportLineup renders the roster and every box as an indented JSON object
func (s *State) ExportLineup() ([]byte, error) {
	doc := lineupDocument{
		Players:     s.roster.Records(),
		Assignments: make(map[string][]roster.Player, len(AssignableBoxes)),
	}
	for _, b := range AssignableBoxes {
		records := make([]roster.Player, 0, len(s.boxes[b]))
		for _, p := range s.boxes[b] {
			records = append(records, *p)
		}
		doc.Assignments[b.String()] = records
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode lineup: %w", err)
	}
	return data, nil
}

// SkippedEntry is an assignment entry that could not be restored
type SkippedEntry struct {
	Box    string `json:"box"`
	Player string `json:"player,omitempty"`
	Reason string `json:"reason"`
}

// ImportResult summarizes an import
type ImportResult struct {
	Players  int            `json:"players"`
	Assigned int            `json:"assigned"`
	Skipped  []SkippedEntry `json:"skipped,omitempty"`
	// Migrated is true when some records lacked a status
	Migrated bool `json:"migrated"`
}

// ParseImport builds a fresh state from an exported document. It accepts the
// full lineup object, an object with players only, or a bare players array.
// Assignment entries are matched back to roster entries by equal attributes,
// each roster entry used at most once; entries that match nothing or break a
// box rule are skipped and reported.
func ParseImport(data []byte) (*State, ImportResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ImportResult{}, fmt.Errorf("%w: empty document", ErrUnrecognizedImport)
	}

	switch trimmed[0] {
	case '[':
		loaded, err := storage.DecodePlayers(trimmed)
		if err != nil {
			return nil, ImportResult{}, err
		}
		state := NewState(roster.FromRecords(loaded.Players))
		return state, ImportResult{Players: len(loaded.Players), Migrated: loaded.Migrated}, nil

	case '{':
		var doc struct {
			Players     json.RawMessage            `json:"players"`
			Assignments map[string]json.RawMessage `json:"assignments"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, ImportResult{}, fmt.Errorf("decode lineup: %w", err)
		}
		if len(doc.Players) == 0 || bytes.Equal(bytes.TrimSpace(doc.Players), []byte("null")) {
			return nil, ImportResult{}, fmt.Errorf("%w: object without players", ErrUnrecognizedImport)
		}
		loaded, err := storage.DecodePlayers(doc.Players)
		if err != nil {
			return nil, ImportResult{}, err
		}
		state := NewState(roster.FromRecords(loaded.Players))
		result := ImportResult{Players: len(loaded.Players), Migrated: loaded.Migrated}
		state.restoreAssignments(doc.Assignments, &result)
		return state, result, nil

	default:
		var probe any
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, ImportResult{}, fmt.Errorf("decode import: %w", err)
		}
		return nil, ImportResult{}, ErrUnrecognizedImport
	}
}

func (s *State) restoreAssignments(raw map[string]json.RawMessage, result *ImportResult) {
	if len(raw) == 0 {
		return
	}

	// camelCase keys are taken first so a legacy spelling of the same box
	// is reported rather than racing it
	keys := slices.Sorted(maps.Keys(raw))
	byBox := make(map[Box]json.RawMessage, len(raw))
	for _, canonical := range [...]bool{true, false} {
		for _, key := range keys {
			b, err := ParseBox(key)
			if err != nil {
				if !canonical {
					result.Skipped = append(result.Skipped, SkippedEntry{Box: key, Reason: "unknown box"})
				}
				continue
			}
			if (key == b.String()) != canonical || b == BoxPool {
				continue
			}
			if _, dup := byBox[b]; dup {
				result.Skipped = append(result.Skipped, SkippedEntry{Box: key, Reason: "duplicate of " + b.String()})
				continue
			}
			byBox[b] = raw[key]
		}
	}

	used := make(map[*roster.Player]bool)
	for _, b := range AssignableBoxes {
		entries, ok := byBox[b]
		if !ok {
			continue
		}
		var records []json.RawMessage
		if err := json.Unmarshal(entries, &records); err != nil {
			result.Skipped = append(result.Skipped, SkippedEntry{Box: b.String(), Reason: "entries are not a list"})
			continue
		}
		for _, rec := range records {
			var want roster.Player
			if err := json.Unmarshal(rec, &want); err != nil {
				result.Skipped = append(result.Skipped, SkippedEntry{Box: b.String(), Reason: err.Error()})
				continue
			}
			p := s.matchRecord(&want, used)
			if p == nil {
				result.Skipped = append(result.Skipped, SkippedEntry{
					Box: b.String(), Player: want.Name, Reason: "no matching player",
				})
				continue
			}
			if p.Status == roster.StatusInjured && b != BoxInjured {
				result.Skipped = append(result.Skipped, SkippedEntry{
					Box: b.String(), Player: p.Name, Reason: "injured player outside injured box",
				})
				continue
			}
			if _, err := s.Assign(p, b); err != nil {
				reason := err.Error()
				var rejection *RejectionError
				if errors.As(err, &rejection) {
					reason = rejection.Result.Message
				}
				result.Skipped = append(result.Skipped, SkippedEntry{Box: b.String(), Player: p.Name, Reason: reason})
				continue
			}
			used[p] = true
			result.Assigned++
		}
	}
}

// matchRecord returns the first unused roster entry equal to want
func (s *State) matchRecord(want *roster.Player, used map[*roster.Player]bool) *roster.Player {
	for _, p := range s.roster.All() {
		if used[p] {
			continue
		}
		if p.SameRecord(want) {
			return p
		}
	}
	return nil
}
