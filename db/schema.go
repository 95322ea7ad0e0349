// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/costume-contest/models"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, conn *sql.DB, dialect Dialect) error {
	schema := sqliteSchema
	if dialect == Postgres {
		schema = postgresSchema
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Seed inserts the default categories and the voting flag into a database that
// has never been seeded. A purged database keeps its seeded marker, so it
// stays empty across restarts.
func Seed(ctx context.Context, conn *sql.DB, dialect Dialect, categories []string) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	var seeded int
	err = tx.QueryRowContext(ctx,
		Rebind(dialect, "SELECT COUNT(*) FROM settings WHERE key = ?"),
		models.SettingSeeded,
	).Scan(&seeded)
	if err != nil {
		return fmt.Errorf("failed to check seed marker: %w", err)
	}
	if seeded > 0 {
		return nil
	}

	for _, name := range categories {
		_, err := tx.ExecContext(ctx,
			Rebind(dialect, "INSERT INTO categories (name, enabled) VALUES (?, ?) ON CONFLICT (name) DO NOTHING"),
			name, true,
		)
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", name, err)
		}
	}

	upsert := Rebind(dialect, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO NOTHING
	`)
	if _, err := tx.ExecContext(ctx, upsert, models.SettingVotingEnabled, "0"); err != nil {
		return fmt.Errorf("failed to seed voting flag: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, models.SettingSeeded, "1"); err != nil {
		return fmt.Errorf("failed to write seed marker: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}

	slog.Info("seeded default categories", "count", len(categories))
	return nil
}

const sqliteSchema = `
-- Categories
CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    enabled INTEGER NOT NULL DEFAULT 1
);

-- Entries
CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    display_name TEXT NOT NULL,
    costume TEXT NOT NULL,
    category_id INTEGER NOT NULL REFERENCES categories(id),
    photo TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_category_id ON entries(category_id);

-- Votes: one per voter per category
CREATE TABLE IF NOT EXISTS votes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_id INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
    category_id INTEGER NOT NULL REFERENCES categories(id),
    voter_token TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (category_id, voter_token)
);

CREATE INDEX IF NOT EXISTS idx_votes_entry_id ON votes(entry_id);

-- Settings
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const postgresSchema = `
-- Categories
CREATE TABLE IF NOT EXISTS categories (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    enabled BOOLEAN NOT NULL DEFAULT TRUE
);

-- Entries
CREATE TABLE IF NOT EXISTS entries (
    id BIGSERIAL PRIMARY KEY,
    display_name TEXT NOT NULL,
    costume TEXT NOT NULL,
    category_id BIGINT NOT NULL REFERENCES categories(id),
    photo TEXT,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_category_id ON entries(category_id);

-- Votes: one per voter per category
CREATE TABLE IF NOT EXISTS votes (
    id BIGSERIAL PRIMARY KEY,
    entry_id BIGINT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
    category_id BIGINT NOT NULL REFERENCES categories(id),
    voter_token TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    UNIQUE (category_id, voter_token)
);

CREATE INDEX IF NOT EXISTS idx_votes_entry_id ON votes(entry_id);

-- Settings
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
