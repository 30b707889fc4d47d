package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// LibSQLStore implements BlobStore on an embedded libSQL database.
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path, applies
// connection PRAGMAs, and ensures the schema exists. The path should be
// a file URI, e.g. "file:/path/to/workflows.db".
func NewLibSQLStore(ctx context.Context, dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	s := &LibSQLStore{db: db}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *LibSQLStore) Put(ctx context.Context, key string, value json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=CURRENT_TIMESTAMP`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("put blob %q: %w", key, err)
	}
	return nil
}

func (s *LibSQLStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, keyNotFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %q: %w", key, err)
	}
	return json.RawMessage(value), nil
}

func (s *LibSQLStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return keyNotFound(key)
	}
	return nil
}

func (s *LibSQLStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM blobs ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }
