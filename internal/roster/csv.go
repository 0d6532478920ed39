package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RowError reports a CSV row that could not be turned into a player
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ReadCSV parses rows of name,number,role[,status]. A first row whose role
// column reads "role" is treated as a header. Bad rows are skipped and
// returned as *RowError values; only an unreadable stream fails outright.
func ReadCSV(r io.Reader) ([]Player, []error, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		players []Player
		skipped []error
	)
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if first && len(record) >= 3 && strings.EqualFold(strings.TrimSpace(record[2]), "role") {
			continue
		}
		if len(record) < 3 {
			skipped = append(skipped, &RowError{Line: line, Err: fmt.Errorf("%w: expected at least 3 columns, got %d", ErrInvalidPlayer, len(record))})
			continue
		}

		p, err := NewPlayer(record[0], record[1], record[2])
		if err != nil {
			skipped = append(skipped, &RowError{Line: line, Err: err})
			continue
		}
		if len(record) > 3 {
			status, err := ParseStatus(strings.TrimSpace(record[3]))
			if err != nil {
				skipped = append(skipped, &RowError{Line: line, Err: err})
				continue
			}
			p.Status = status
		}
		players = append(players, *p)
	}
	return players, skipped, nil
}
