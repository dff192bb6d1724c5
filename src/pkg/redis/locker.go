package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker implements short-lived SETNX locks, used for the purchase
// de-duplication window and per-wallet settlement fencing.
type Locker struct {
	Client redis.UniversalClient
}

func NewLocker(client redis.UniversalClient) *Locker {
	return &Locker{Client: client}
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.Client.SetNX(ctx, key, "1", ttl).Result()
}

func (l *Locker) Release(ctx context.Context, key string) error {
	return l.Client.Del(ctx, key).Err()
}
