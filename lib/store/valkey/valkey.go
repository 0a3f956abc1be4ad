// Package valkey implements the store interface on top of a Valkey (or
// Redis) server. This is the backend to use when several anchorauth
// instances behind a load balancer need to share one used-challenge
// ledger.
package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uvensys/anchorauth/lib/store"
)

// Store implements store.Interface over a go-redis client. Expiry is
// delegated entirely to the server via SET with a TTL, so there is no
// cleanup goroutine here.
type Store struct {
	rdb *redis.Client
}

func (s *Store) Delete(ctx context.Context, key string) error {
	deleted, err := s.rdb.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("can't delete key %q: %w", key, err)
	}

	if deleted == 0 {
		return fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if redis.HasErrorPrefix(err, "redis: nil") {
			return nil, fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}

		return nil, fmt.Errorf("can't get key %q: %w", key, err)
	}

	return result, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, expiry time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, expiry).Err(); err != nil {
		return fmt.Errorf("can't set key %q: %w", key, err)
	}

	return nil
}
