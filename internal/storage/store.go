// Package storage persists the player roster. Box assignments are session
// state and are never written.
package storage

import (
	"context"
	"fmt"

	"github.com/derbybench/lineup-server-go/internal/config"
	"github.com/derbybench/lineup-server-go/internal/roster"
	"go.uber.org/zap"
)

// LoadResult is a roster read from a store
type LoadResult struct {
	Players []roster.Player
	// Migrated is true when records were upgraded on read (a missing status
	// became NORMAL) and the store should be rewritten
	Migrated bool
}

// Store reads and replaces the persisted roster
type Store interface {
	LoadPlayers(ctx context.Context) (LoadResult, error)
	SavePlayers(ctx context.Context, players []roster.Player) error
	Close() error
}

// Open creates the store selected by cfg.Driver
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case config.DriverFile, "":
		logger.Info("using roster file", zap.String("path", cfg.Path))
		return NewFileStore(cfg.Path, logger), nil
	case config.DriverSQLite:
		store, err := OpenSQLite(ctx, cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite roster store", zap.String("path", cfg.Path))
		return store, nil
	case config.DriverPostgres:
		store, err := OpenPostgres(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres roster store")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// normalizeRow turns stored column values into a player, reporting whether
// the status had to be defaulted
func normalizeRow(name, number, role, status string) (roster.Player, bool, error) {
	parsedRole, err := roster.ParseRole(role)
	if err != nil {
		return roster.Player{}, false, err
	}
	parsedStatus, err := roster.ParseStatus(status)
	if err != nil {
		return roster.Player{}, false, err
	}
	return roster.Player{
		Name:   name,
		Number: number,
		Role:   parsedRole,
		Status: parsedStatus,
	}, status == "", nil
}
