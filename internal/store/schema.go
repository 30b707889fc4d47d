package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaVersion is bumped whenever blobsSchema changes shape.
const schemaVersion = 1

// blobsSchema is the whole persistent surface: one key/value table for
// saved workflows and scheduler state.
const blobsSchema = `CREATE TABLE IF NOT EXISTS blobs (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// ensureSchema applies blobsSchema once per database file, keyed on
// schema_version. Reopening an already-initialized database is a no-op.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema apply: %w", err)
	}
	if _, err := tx.ExecContext(ctx, blobsSchema); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply schema v%d: %w", schemaVersion, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record schema v%d: %w", schemaVersion, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema v%d: %w", schemaVersion, err)
	}
	return nil
}
