// Package backend selects and constructs the storage backend from
// configuration.
package backend

import (
	"context"
	"fmt"

	"tally/internal/config"
	applog "tally/internal/log"
	"tally/internal/storage"
	"tally/internal/storage/postgres"
	"tally/internal/storage/sqlite"
)

// Type identifies a storage backend.
type Type string

const (
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

// IsValid reports whether the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, PostgresBackend:
		return true
	}
	return false
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result holds the constructed store and its cleanup function.
type Result struct {
	Store   storage.Store
	Cleanup CleanupFunc
}

// New constructs the store named by cfg.DataBackend.
func New(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLiteBackend:
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		logger.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: store, Cleanup: store.Close}, nil

	case PostgresBackend:
		store, err := postgres.New(ctx, cfg.DatabaseURL, cfg.DatabaseAccessKey)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres store: %w", err)
		}
		logger.Info("Initialized postgres backend")
		return &Result{Store: store, Cleanup: store.Close}, nil
	}

	return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
}
