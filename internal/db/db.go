package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
)

var defaultDB *sql.DB

const (
	createTableSQL = `
CREATE TABLE IF NOT EXISTS thumb_fetch_tab (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	cache_key VARCHAR(512) NOT NULL,
	state INTEGER NOT NULL,
	local_path VARCHAR(1024) NOT NULL,
	create_time BIGINT NOT NULL,
	update_time BIGINT NOT NULL
);`

	createIndexSQL = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_thumb_fetch_tab_key
ON thumb_fetch_tab(cache_key);`
)

// DatabaseGetter returns a database handle. Used to defer retrieval until first use.
type DatabaseGetter func() *sql.DB

// Open opens (and creates if needed) the sqlite database at path.
func Open(path string) (*sql.DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return handle, nil
}

// SetDefault assigns the global database instance.
func SetDefault(handle *sql.DB) {
	defaultDB = handle
}

// Default returns the configured global database instance.
func Default() *sql.DB {
	return defaultDB
}

// EnsureSchema initialises required tables and indexes.
func EnsureSchema(ctx context.Context, handle *sql.DB) error {
	if _, err := handle.ExecContext(ctx, createTableSQL); err != nil {
		return err
	}
	if _, err := handle.ExecContext(ctx, createIndexSQL); err != nil {
		return err
	}
	return nil
}
