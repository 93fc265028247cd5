package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists all entries in a single JSON document on disk.
// The whole document is rewritten on every Apply.
type FileStore struct {
	path    string
	mu      sync.Mutex
	entries map[string]Entry
}

type fileEntry struct {
	Value   json.RawMessage `json:"value"`
	Version int64           `json:"version"`
}

type fileDocument struct {
	Entries map[string]fileEntry `json:"entries"`
}

// OpenFileStore loads the store at path. A missing file is an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, entries: make(map[string]Entry)}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	f, err := os.Open(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open store file: %w", err)
	}
	defer f.Close()

	var doc fileDocument
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return fmt.Errorf("decode store file: %w", err)
	}
	for k, e := range doc.Entries {
		fs.entries[k] = Entry{Value: []byte(e.Value), Version: e.Version}
	}
	return nil
}

func (fs *FileStore) save(entries map[string]Entry) error {
	doc := fileDocument{Entries: make(map[string]fileEntry, len(entries))}
	for k, e := range entries {
		doc.Entries[k] = fileEntry{Value: json.RawMessage(e.Value), Version: e.Version}
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".kv-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("encode store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

func (fs *FileStore) Get(_ context.Context, key string) (Entry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	e, ok := fs.entries[key]
	if !ok {
		return Entry{}, nil
	}
	return Entry{Value: append([]byte(nil), e.Value...), Version: e.Version}, nil
}

// Apply validates versions, writes the new document to disk and only then
// updates the in-memory view, so a failed write leaves both unchanged.
func (fs *FileStore) Apply(_ context.Context, writes ...Write) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := checkVersions(fs.entries, writes); err != nil {
		return err
	}
	for _, w := range writes {
		if w.Value != nil && !json.Valid(w.Value) {
			return fmt.Errorf("value for %q is not JSON", w.Key)
		}
	}

	next := make(map[string]Entry, len(fs.entries)+len(writes))
	for k, e := range fs.entries {
		next[k] = e
	}
	applyTo(next, writes)

	if err := fs.save(next); err != nil {
		return err
	}
	fs.entries = next
	return nil
}

func (fs *FileStore) Close() error { return nil }
