package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			fs, err := OpenFileStore(filepath.Join(t.TempDir(), "store.json"))
			require.NoError(t, err)
			return fs
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			s := NewRedisStore(client, "test:")
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStore_Conformance(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			e, err := s.Get(ctx, "projects")
			require.NoError(t, err)
			assert.False(t, e.Exists(), "missing key must read as absent")

			require.NoError(t, s.Apply(ctx, Write{Key: "projects", Value: []byte(`[]`)}))
			e, err = s.Get(ctx, "projects")
			require.NoError(t, err)
			assert.Equal(t, int64(1), e.Version)
			assert.JSONEq(t, `[]`, string(e.Value))

			// stale version is rejected
			err = s.Apply(ctx, Write{Key: "projects", Value: []byte(`[1]`), Version: 0})
			assert.ErrorIs(t, err, ErrConflict)

			require.NoError(t, s.Apply(ctx, Write{Key: "projects", Value: []byte(`[1]`), Version: 1}))
			e, err = s.Get(ctx, "projects")
			require.NoError(t, err)
			assert.Equal(t, int64(2), e.Version)
			assert.JSONEq(t, `[1]`, string(e.Value))

			require.NoError(t, s.Apply(ctx, Write{Key: "projects", Version: 2}))
			e, err = s.Get(ctx, "projects")
			require.NoError(t, err)
			assert.False(t, e.Exists())
		})
	}
}

func TestStore_BatchIsAtomic(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			require.NoError(t, s.Apply(ctx, Write{Key: "user", Value: []byte(`{"n":1}`)}))

			err := s.Apply(ctx,
				Write{Key: "projects", Value: []byte(`[1]`)},
				Write{Key: "user", Value: []byte(`{"n":2}`), Version: 7},
			)
			assert.ErrorIs(t, err, ErrConflict)

			e, err := s.Get(ctx, "projects")
			require.NoError(t, err)
			assert.False(t, e.Exists(), "no write of a rejected batch may land")

			require.NoError(t, s.Apply(ctx,
				Write{Key: "projects", Value: []byte(`[1]`)},
				Write{Key: "user", Value: []byte(`{"n":2}`), Version: 1},
			))
			e, err = s.Get(ctx, "user")
			require.NoError(t, err)
			assert.Equal(t, int64(2), e.Version)
		})
	}
}

func TestFileStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	fs, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, fs.Apply(ctx, Write{Key: "user", Value: []byte(`{"id":"user-1"}`)}))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	e, err := reopened.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.Version)
	assert.JSONEq(t, `{"id":"user-1"}`, string(e.Value))
}

func TestFileStore_RejectsNonJSON(t *testing.T) {
	fs, err := OpenFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	err = fs.Apply(context.Background(), Write{Key: "user", Value: []byte("not json")})
	assert.Error(t, err)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	_, err := OpenFileStore(path)
	assert.ErrorContains(t, err, "decode store file")
}

func TestRedisStore_ConcurrentChangeConflicts(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, "scrollie:")

	require.NoError(t, s.Apply(ctx, Write{Key: "projects", Value: []byte(`[]`)}))
	// another writer bumps the version behind our back
	mr.HSet("scrollie:projects", "version", "5")

	err := s.Apply(ctx, Write{Key: "projects", Value: []byte(`[1]`), Version: 1})
	assert.ErrorIs(t, err, ErrConflict)
}
