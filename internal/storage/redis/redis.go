// Package redis keeps snapshots as plain string values in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tinoosan/microfin/internal/errs"
)

// Store wraps a go-redis client. Keys are namespaced with a prefix so several
// deployments can share one Redis.
type Store struct {
	rdb    *goredis.Client
	prefix string
}

// Open connects to addr and pings it.
func Open(ctx context.Context, addr, password string, db int, prefix string) (*Store, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis: address required: %w", errs.ErrInvalid)
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return &Store{rdb: rdb, prefix: prefix}, nil
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: load %q: %w", key, err)
	}
	return b, nil
}

func (s *Store) Save(ctx context.Context, key string, payload []byte) error {
	if err := s.rdb.Set(ctx, s.key(key), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis: save %q: %w", key, err)
	}
	return nil
}

func (s *Store) Ready(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *Store) Close() error { return s.rdb.Close() }
