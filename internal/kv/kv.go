// Package kv provides a versioned key-value store with atomic multi-key writes.
//
// Every key carries a version that starts at 1 on first write and grows by one
// on every update. Writers pass the version they read; a batch whose versions
// no longer match is rejected as a whole with ErrConflict.
package kv

import (
	"context"
	"errors"
	"sync"
)

// ErrConflict is returned by Apply when a key changed since it was read.
var ErrConflict = errors.New("kv: version conflict")

// Entry is a stored value. A missing key is reported as Entry{Version: 0}.
type Entry struct {
	Value   []byte
	Version int64
}

// Exists reports whether the entry was present in the store.
func (e Entry) Exists() bool { return e.Version > 0 }

// Write is one element of an atomic batch.
type Write struct {
	// Key to write.
	Key string
	// Value to store. A nil Value deletes the key.
	Value []byte
	// Version is the version the caller read; 0 means "expected absent".
	Version int64
}

// Store is implemented by every backend.
type Store interface {
	// Get returns the current entry for key. A missing key is not an error.
	Get(ctx context.Context, key string) (Entry, error)
	// Apply writes all entries or none of them.
	Apply(ctx context.Context, writes ...Write) error
	// Close releases the backend's resources.
	Close() error
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, nil
	}
	return Entry{Value: append([]byte(nil), e.Value...), Version: e.Version}, nil
}

func (m *MemoryStore) Apply(_ context.Context, writes ...Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkVersions(m.entries, writes); err != nil {
		return err
	}
	applyTo(m.entries, writes)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func checkVersions(entries map[string]Entry, writes []Write) error {
	for _, w := range writes {
		if entries[w.Key].Version != w.Version {
			return ErrConflict
		}
	}
	return nil
}

func applyTo(entries map[string]Entry, writes []Write) {
	for _, w := range writes {
		if w.Value == nil {
			delete(entries, w.Key)
			continue
		}
		entries[w.Key] = Entry{
			Value:   append([]byte(nil), w.Value...),
			Version: entries[w.Key].Version + 1,
		}
	}
}
