// Package storage selects the snapshot backend named in the configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/tinoosan/microfin/internal/config"
	"github.com/tinoosan/microfin/internal/errs"
	"github.com/tinoosan/microfin/internal/snapshot"
	"github.com/tinoosan/microfin/internal/storage/file"
	"github.com/tinoosan/microfin/internal/storage/memory"
	pgstore "github.com/tinoosan/microfin/internal/storage/postgres"
	redisstore "github.com/tinoosan/microfin/internal/storage/redis"
	"github.com/tinoosan/microfin/internal/storage/sqlite"
)

// Backend is a snapshot store the process owns and must close.
type Backend interface {
	snapshot.Store
	Ready(ctx context.Context) error
	Close() error
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return memory.New(), nil
	case config.BackendFile:
		s, err := file.New(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendSQLite:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		s, err := pgstore.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return s, nil
	case config.BackendRedis:
		s, err := redisstore.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q: %w", cfg.Backend, errs.ErrInvalid)
}
