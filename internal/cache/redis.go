package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "nextvideo_cache:"

type RedisStore struct {
	Client *redis.Client
}

func redisKey(key string) string {
	return keyPrefix + key
}

func (s *RedisStore) Get(ctx context.Context, key string, kind Kind) ([]byte, bool, error) {
	if s == nil || s.Client == nil {
		return nil, false, fmt.Errorf("nil redis client")
	}
	data, err := s.Client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes value with the kind's TTL; Redis drops it on expiry.
func (s *RedisStore) Set(ctx context.Context, key string, kind Kind, value []byte) error {
	if s == nil || s.Client == nil {
		return fmt.Errorf("nil redis client")
	}
	if err := s.Client.Set(ctx, redisKey(key), value, TTL(kind)).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// Reset deletes every cached artifact and reports how many keys went.
func (s *RedisStore) Reset(ctx context.Context) (int, error) {
	if s == nil || s.Client == nil {
		return 0, fmt.Errorf("nil redis client")
	}
	var n int
	iter := s.Client.Scan(ctx, 0, keyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		if err := s.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return n, fmt.Errorf("redis DEL %s: %w", iter.Val(), err)
		}
		n++
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("redis SCAN: %w", err)
	}
	return n, nil
}
