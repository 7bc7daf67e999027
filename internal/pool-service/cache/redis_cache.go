package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veilstar/wager-platform/internal/pool-service/store"
)

// RedisCache keeps a snapshot of each pool under a TTL. Every write through
// the engine refreshes the snapshot, so active pools never expire; snapshots
// of finished pools age out on their own.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

func key(poolID int64) string { return "pool:snapshot:" + strconv.FormatInt(poolID, 10) }

// SetSnapshot stores the pool state and resets its TTL.
func (r *RedisCache) SetSnapshot(ctx context.Context, p *store.Pool) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key(p.ID), b, r.TTL).Err()
}

// GetSnapshot returns the cached pool, or (nil, nil) on a miss.
func (r *RedisCache) GetSnapshot(ctx context.Context, poolID int64) (*store.Pool, error) {
	b, err := r.Client.Get(ctx, key(poolID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p store.Pool
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
