package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps every entry in a hash with "value" and "version" fields.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps client; all keys are namespaced under prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, error) {
	vals, err := s.client.HMGet(ctx, s.key(key), "value", "version").Result()
	if err != nil {
		return Entry{}, fmt.Errorf("get %q: %w", key, err)
	}
	value, _ := vals[0].(string)
	rawVersion, ok := vals[1].(string)
	if !ok {
		return Entry{}, nil
	}
	version, err := strconv.ParseInt(rawVersion, 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parse version of %q: %w", key, err)
	}
	return Entry{Value: []byte(value), Version: version}, nil
}

// Apply watches every key of the batch, compares versions and commits the
// writes in a MULTI/EXEC block. A concurrent change aborts the transaction.
func (s *RedisStore) Apply(ctx context.Context, writes ...Write) error {
	keys := make([]string, 0, len(writes))
	for _, w := range writes {
		keys = append(keys, s.key(w.Key))
	}

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		for _, w := range writes {
			v, err := tx.HGet(ctx, s.key(w.Key), "version").Int64()
			if errors.Is(err, redis.Nil) {
				v = 0
			} else if err != nil {
				return fmt.Errorf("read version of %q: %w", w.Key, err)
			}
			if v != w.Version {
				return ErrConflict
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, w := range writes {
				if w.Value == nil {
					pipe.Del(ctx, s.key(w.Key))
					continue
				}
				pipe.HSet(ctx, s.key(w.Key), "value", w.Value, "version", w.Version+1)
			}
			return nil
		})
		return err
	}, keys...)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
