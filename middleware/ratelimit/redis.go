package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares windows between server instances. A window starts with
// the first INCR of a key and ends when the key expires. Needs Redis 7 for
// PEXPIRE NX.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) Increment(ctx context.Context, key string, period time.Duration) (int, time.Time, error) {
	key = s.prefix + key

	var incr *redis.IntCmd
	var pttl *redis.DurationCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Do(ctx, "pexpire", key, period.Milliseconds(), "NX")
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit increment failed: %w", err)
	}

	ttl := pttl.Val()
	if ttl <= 0 {
		ttl = period
	}
	return int(incr.Val()), s.now().Add(ttl), nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
