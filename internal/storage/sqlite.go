package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/derbybench/lineup-server-go/internal/roster"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS players (
	position INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	number   TEXT NOT NULL,
	role     TEXT NOT NULL,
	status   TEXT NOT NULL DEFAULT ''
)`

// SQLiteStore keeps the roster in a SQLite database, one row per player
// ordered by roster position
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (creating if needed) the database at path
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create players table: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// LoadPlayers reads every row in roster order
func (s *SQLiteStore) LoadPlayers(ctx context.Context) (LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return LoadResult{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, number, role, status FROM players ORDER BY position`)
	if err != nil {
		return LoadResult{}, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	result := LoadResult{Players: []roster.Player{}}
	for rows.Next() {
		var name, number, role, status string
		if err := rows.Scan(&name, &number, &role, &status); err != nil {
			return LoadResult{}, fmt.Errorf("scan player: %w", err)
		}
		p, migrated, err := normalizeRow(name, number, role, status)
		if err != nil {
			return LoadResult{}, fmt.Errorf("player %q: %w", name, err)
		}
		result.Migrated = result.Migrated || migrated
		result.Players = append(result.Players, p)
	}
	if err := rows.Err(); err != nil {
		return LoadResult{}, fmt.Errorf("iterate players: %w", err)
	}
	return result, nil
}

// SavePlayers replaces the table contents in one transaction
func (s *SQLiteStore) SavePlayers(ctx context.Context, players []roster.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM players`); err != nil {
		return fmt.Errorf("clear players: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO players (position, name, number, role, status) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range players {
		if _, err := stmt.ExecContext(ctx, i, p.Name, p.Number, string(p.Role), string(p.Status)); err != nil {
			return fmt.Errorf("insert player %q: %w", p.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit players: %w", err)
	}
	s.logger.Debug("saved roster to sqlite", zap.Int("players", len(players)))
	return nil
}

// Close closes the database handle
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
