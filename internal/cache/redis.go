package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis backs the Store with a shared redis instance so cached searches
// survive restarts and are shared between replicas.
type Redis struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewRedis(addr string, log *zap.Logger) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Redis{rdb: rdb, log: log}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		r.log.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
