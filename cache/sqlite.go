package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"text2phenotype.com/sdoh/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	cache_key  TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLite is the on-device cache, one row per token in a local database file.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply cache schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (c *SQLite) Save(ctx context.Context, token string, snapshot types.Snapshot) error {
	b, err := encode(snapshot)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO snapshots (cache_key, body, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(cache_key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, Key(token), b)
	return err
}

func (c *SQLite) Load(ctx context.Context, token string) (*types.Snapshot, error) {
	var b []byte
	err := c.db.QueryRowContext(ctx, "SELECT body FROM snapshots WHERE cache_key = ?", Key(token)).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(token, b, cacheLogger), nil
}

func (c *SQLite) Clear(ctx context.Context, token string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM snapshots WHERE cache_key = ?", Key(token))
	return err
}

func (c *SQLite) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
