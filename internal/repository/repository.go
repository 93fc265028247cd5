// Package repository provides typed access to the profile data held in a kv.Store:
// the active user, the registration table and the flat project list.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/scrollie/internal/kv"
)

// Store keys.
const (
	KeyActiveUser      = "user"
	KeyRegisteredUsers = "registeredUsers"
	KeyProjects        = "projects"
)

// DefaultAttempts bounds how often a read-modify-write is re-run after a
// version conflict.
const DefaultAttempts = 3

// Repository implements every persistence operation on top of a kv.Store.
// Each operation reads whole collections, transforms them in memory and
// writes them back in one version-guarded batch.
type Repository struct {
	store    kv.Store
	attempts int
	now      func() time.Time
}

// Option customises a Repository.
type Option func(*Repository)

// WithAttempts overrides DefaultAttempts.
func WithAttempts(n int) Option {
	return func(r *Repository) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithClock overrides the time source used for project timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// New creates a Repository over store.
func New(store kv.Store, opts ...Option) *Repository {
	r := &Repository{
		store:    store,
		attempts: DefaultAttempts,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// NewProjectID returns a fresh project identifier.
func NewProjectID() string { return "proj-" + uuid.NewString() }

// NewUserID returns a fresh user identifier.
func NewUserID() string { return "user-" + uuid.NewString() }

// withRetry runs fn until it succeeds, fails with something other than a
// version conflict, or the attempts are used up.
func (r *Repository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i < r.attempts; i++ {
		if err = fn(); !errors.Is(err, kv.ErrConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

// load reads key and decodes it into dst. A missing key leaves dst untouched.
func (r *Repository) load(ctx context.Context, key string, dst any) (int64, error) {
	e, err := r.store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	if !e.Exists() {
		return 0, nil
	}
	if err := json.Unmarshal(e.Value, dst); err != nil {
		return 0, fmt.Errorf("decode %s: %w", key, err)
	}
	return e.Version, nil
}

func encode(key string, version int64, v any) (kv.Write, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return kv.Write{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Write{Key: key, Value: b, Version: version}, nil
}
