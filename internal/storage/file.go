package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/derbybench/lineup-server-go/internal/roster"
	"go.uber.org/zap"
)

// FileStore keeps the roster as a JSON array in a single file
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore creates a store backed by path. The file is created on the
// first save.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// LoadPlayers reads the roster. A missing file is an empty roster.
func (s *FileStore) LoadPlayers(ctx context.Context) (LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return LoadResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("roster file not found, starting empty", zap.String("path", s.path))
		return LoadResult{Players: []roster.Player{}}, nil
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("read roster %s: %w", s.path, err)
	}
	return DecodePlayers(data)
}

// SavePlayers rewrites the roster file
func (s *FileStore) SavePlayers(ctx context.Context, players []roster.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if players == nil {
		players = []roster.Player{}
	}
	data, err := json.MarshalIndent(players, "", "  ")
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create roster dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write roster %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op for files
func (s *FileStore) Close() error {
	return nil
}

// DecodePlayers parses a JSON array of player records, noting records that
// predate the status field
func DecodePlayers(data []byte) (LoadResult, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return LoadResult{}, fmt.Errorf("decode roster: %w", err)
	}

	result := LoadResult{Players: make([]roster.Player, 0, len(raw))}
	for i, entry := range raw {
		var probe struct {
			Status *string `json:"status"`
		}
		if err := json.Unmarshal(entry, &probe); err != nil {
			return LoadResult{}, fmt.Errorf("decode player %d: %w", i, err)
		}
		var p roster.Player
		if err := json.Unmarshal(entry, &p); err != nil {
			return LoadResult{}, fmt.Errorf("decode player %d: %w", i, err)
		}
		if probe.Status == nil || *probe.Status == "" {
			result.Migrated = true
		}
		result.Players = append(result.Players, p)
	}
	return result, nil
}
