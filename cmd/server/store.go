package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/atinyakov/scrollie/internal/config"
	"github.com/atinyakov/scrollie/internal/db"
	"github.com/atinyakov/scrollie/internal/kv"
)

// openStore connects the persistence backend selected in options.
func openStore(ctx context.Context, options *config.Options) (kv.Store, error) {
	switch options.Store {
	case config.StoreMemory:
		return kv.NewMemoryStore(), nil
	case config.StoreFile:
		return kv.OpenFileStore(options.FilePath)
	case config.StorePostgres:
		conn, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return kv.NewPostgresStore(conn), nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: options.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return kv.NewRedisStore(client, options.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown store %q", options.Store)
	}
}
