package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore keeps entries in the kv_entries table.
type PostgresStore struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresStore creates a PostgresStore using the provided *sql.DB.
// The kv_entries table must already exist (see db.InitPostgres).
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// Get returns the entry stored under key.
func (s *PostgresStore) Get(ctx context.Context, key string) (Entry, error) {
	var e Entry
	err := s.DB.QueryRowContext(ctx, `
		SELECT value, version FROM kv_entries WHERE key = $1
	`, key).Scan(&e.Value, &e.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, nil
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %q: %w", key, err)
	}
	return e, nil
}

// Apply writes the batch in one transaction. Every statement is guarded by
// the expected version; a statement that affects no row aborts the batch.
func (s *PostgresStore) Apply(ctx context.Context, writes ...Write) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, w := range writes {
		if w.Value == nil && w.Version == 0 {
			var exists bool
			err := tx.QueryRowContext(ctx, `
				SELECT EXISTS(SELECT 1 FROM kv_entries WHERE key = $1)
			`, w.Key).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check %q: %w", w.Key, err)
			}
			if exists {
				return ErrConflict
			}
			continue
		}

		var res sql.Result
		switch {
		case w.Value == nil:
			res, err = tx.ExecContext(ctx, `
				DELETE FROM kv_entries WHERE key = $1 AND version = $2
			`, w.Key, w.Version)
		case w.Version == 0:
			res, err = tx.ExecContext(ctx, `
				INSERT INTO kv_entries (key, value, version) VALUES ($1, $2, 1)
				ON CONFLICT (key) DO NOTHING
			`, w.Key, w.Value)
		default:
			res, err = tx.ExecContext(ctx, `
				UPDATE kv_entries SET value = $2, version = version + 1
				WHERE key = $1 AND version = $3
			`, w.Key, w.Value, w.Version)
		}
		if err != nil {
			return fmt.Errorf("write %q: %w", w.Key, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected %q: %w", w.Key, err)
		}
		if n == 0 {
			return ErrConflict
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.DB.Close()
}
