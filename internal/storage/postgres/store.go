package postgres

// Package postgres provides a pgx-backed snapshot store. The record store is kept as
// one jsonb document per key so the schema never has to track the domain model.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/microfin/internal/errs"
)

const schema = `
create table if not exists microfin_snapshots (
    key      text primary key,
    payload  jsonb not null,
    saved_at timestamptz not null default now()
)`

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string and creates the
// snapshot table when missing.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `select payload from microfin_snapshots where key = $1`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: load %q: %w", key, err)
	}
	return payload, nil
}

func (s *Store) Save(ctx context.Context, key string, payload []byte) error {
	_, err := s.pool.Exec(ctx, `
        insert into microfin_snapshots (key, payload, saved_at)
        values ($1, $2, $3)
        on conflict (key) do update set payload = excluded.payload, saved_at = excluded.saved_at
    `, key, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres: save %q: %w", key, err)
	}
	return nil
}

// SavedAt reports when key was last written.
func (s *Store) SavedAt(ctx context.Context, key string) (time.Time, error) {
	var at time.Time
	err := s.pool.QueryRow(ctx, `select saved_at from microfin_snapshots where key = $1`, key).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, errs.ErrNotFound
	}
	return at, err
}
