package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "bulletin:"

// RedisStore keeps entries as plain string keys under a prefix. Save and
// Clear run inside MULTI/EXEC.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

func (s *RedisStore) Load(ctx context.Context) (Record, error) {
	keys := make([]string, len(recordKeys))
	for i, k := range recordKeys {
		keys[i] = s.key(k)
	}
	res, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return Record{}, fmt.Errorf("load credentials: %w", err)
	}

	vals := make(map[string]string, len(recordKeys))
	for i, v := range res {
		if str, ok := v.(string); ok {
			vals[recordKeys[i]] = str
		}
	}
	return assemble(vals)
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	if !rec.Complete() {
		return ErrIncompleteRecord
	}
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, kv := range rec.pairs() {
			p.Set(ctx, s.key(kv[0]), kv[1], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range recordKeys {
			p.Del(ctx, s.key(k))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
