// Package redis is implementation of storage interface which keeps snapshots as redis string keys.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/monadsocial/agora/internal/storage"
)

// DefaultPrefix is prepended to collection name to build a key.
const DefaultPrefix = "agora:snapshot:"

type rs struct {
	client *redis.Client
	prefix string
}

// New creates new instance of redis storage.
func New(client *redis.Client, prefix string) storage.Storage {
	return rs{
		client: client,
		prefix: prefix,
	}
}

// NewClient parses addr as redis url or plain host:port.
func NewClient(addr string) *redis.Client {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		// plain host:port is accepted as well
		opts = &redis.Options{Addr: addr}
	}

	return redis.NewClient(opts)
}

func (s rs) key(c storage.Collection) string {
	return s.prefix + string(c)
}

func (s rs) Save(ctx context.Context, c storage.Collection, data []byte) error {
	if err := s.client.Set(ctx, s.key(c), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set: %w", err)
	}

	return nil
}

func (s rs) Load(ctx context.Context, c storage.Collection) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key(c)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get: %w", err)
	}

	return b, nil
}

func (s rs) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}
