package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/scrollie/internal/config"
	"github.com/atinyakov/scrollie/internal/kv"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		options config.Options
		want    any
	}{
		{name: "memory", options: config.Options{Store: config.StoreMemory}, want: &kv.MemoryStore{}},
		{name: "file", options: config.Options{Store: config.StoreFile, FilePath: filepath.Join(t.TempDir(), "data.json")}, want: &kv.FileStore{}},
		{name: "redis", options: config.Options{Store: config.StoreRedis, RedisAddr: mr.Addr(), RedisPrefix: "test:"}, want: &kv.RedisStore{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := openStore(ctx, &tt.options)
			require.NoError(t, err)
			defer store.Close()
			assert.IsType(t, tt.want, store)

			require.NoError(t, store.Apply(ctx, kv.Write{Key: "user", Value: []byte(`{}`)}))
			e, err := store.Get(ctx, "user")
			require.NoError(t, err)
			assert.True(t, e.Exists())
		})
	}
}

func TestOpenStore_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := openStore(ctx, &config.Options{Store: "mongo"})
	assert.ErrorContains(t, err, "unknown store")

	_, err = openStore(ctx, &config.Options{Store: config.StoreRedis, RedisAddr: "127.0.0.1:1"})
	assert.ErrorContains(t, err, "ping redis")
}
