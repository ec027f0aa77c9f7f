// Package store is the persistent key-value plugin. Values are JSON
// documents grouped into named stores (e.g. "hermes-settings.json") and kept
// in a single SQLite database (modernc.org/sqlite driver, CGO-free).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound     = errors.New("store: key not found")
	ErrInvalidValue = errors.New("store: value is not valid JSON")
	ErrClosed       = errors.New("store: not open")
)

// Store implements the key-value plugin. Path ":memory:" keeps data in memory.
type Store struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func New(path string) *Store { return &Store{path: strings.TrimSpace(path)} }

func (s *Store) Name() string { return "store" }

// Init opens the database and ensures the schema exists.
func (s *Store) Init(ctx context.Context) error {
	if s.path == "" {
		return errors.New("empty store path")
	}
	dsn := s.path
	if s.path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
		dsn = "file:" + s.path + "?_pragma=busy_timeout(3000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite works best with a single connection; required for :memory:.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.mu.Lock()
	s.db = db
	s.mu.Unlock()
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv(
			store TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY(store, key)
		);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// Get returns the JSON value stored under key.
func (s *Store) Get(ctx context.Context, store, key string) (json.RawMessage, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var v string
	err = db.QueryRowContext(ctx, `SELECT value FROM kv WHERE store=? AND key=?;`, store, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, store, key)
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(v), nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, store, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return ErrInvalidValue
	}
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO kv(store, key, value, updated_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(store, key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at;`,
		store, key, string(value), time.Now().UTC())
	return err
}

// Delete removes key and reports whether it existed.
func (s *Store) Delete(ctx context.Context, store, key string) (bool, error) {
	db, err := s.conn()
	if err != nil {
		return false, err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM kv WHERE store=? AND key=?;`, store, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Keys lists the keys of a store in lexical order.
func (s *Store) Keys(ctx context.Context, store string) ([]string, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT key FROM kv WHERE store=? ORDER BY key;`, store)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Clear removes every key of a store.
func (s *Store) Clear(ctx context.Context, store string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM kv WHERE store=?;`, store)
	return err
}
