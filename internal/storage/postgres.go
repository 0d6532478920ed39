package storage

import (
	"context"
	"fmt"

	"github.com/derbybench/lineup-server-go/internal/roster"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS lineup_players (
	position INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	number   TEXT NOT NULL,
	role     TEXT NOT NULL,
	status   TEXT NOT NULL DEFAULT ''
)`

// PostgresStore keeps the roster in a PostgreSQL table
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// OpenPostgres connects to dsn and ensures the roster table exists
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create lineup_players table: %w", err)
	}

	stats := pool.Stat()
	logger.Info("database connection pool initialized",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// LoadPlayers reads every row in roster order
func (s *PostgresStore) LoadPlayers(ctx context.Context) (LoadResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, number, role, status FROM lineup_players ORDER BY position`)
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
func (s *PostgresStore) SavePlayers(ctx context.Context, players []roster.Player) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM lineup_players`); err != nil {
		return fmt.Errorf("clear players: %w", err)
	}

	batch := &pgx.Batch{}
	for i, p := range players {
		batch.Queue(
			`INSERT INTO lineup_players (position, name, number, role, status) VALUES ($1, $2, $3, $4, $5)`,
			i, p.Name, p.Number, string(p.Role), string(p.Status),
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert players: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit players: %w", err)
	}
	s.logger.Debug("saved roster to postgres", zap.Int("players", len(players)))
	return nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}
