// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/danielhkuo/costume-contest/models"
)

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readVotingFlag(ctx context.Context, q queryRower, s *Store) (bool, error) {
	var value string
	err := q.QueryRowContext(ctx,
		s.q("SELECT value FROM settings WHERE key = ?"), models.SettingVotingEnabled,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "1", nil
}

// VotingEnabled reports the current voting flag. A missing row means closed.
func (s *Store) VotingEnabled(ctx context.Context) (bool, error) {
	open, err := readVotingFlag(ctx, s.conn, s)
	if err != nil {
		return false, classify("read voting flag", err)
	}
	return open, nil
}

func (s *Store) SetVotingEnabled(ctx context.Context, enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	return s.withTx(ctx, "set voting flag", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value
		`), models.SettingVotingEnabled, value)
		return err
	})
}

// ToggleVoting flips the voting flag in one statement and returns the new
// state. A missing flag counts as closed, so the first toggle opens voting.
func (s *Store) ToggleVoting(ctx context.Context) (bool, error) {
	var value string
	err := s.withTx(ctx, "toggle voting", func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, s.q(`
			INSERT INTO settings (key, value) VALUES (?, '1')
			ON CONFLICT (key) DO UPDATE
			SET value = CASE WHEN settings.value = '1' THEN '0' ELSE '1' END
			RETURNING value
		`), models.SettingVotingEnabled).Scan(&value)
	})
	if err != nil {
		return false, err
	}
	return value == "1", nil
}

// Purge deletes all votes, entries and categories and closes voting, in one
// transaction. The schema and the seed marker are left in place.
func (s *Store) Purge(ctx context.Context) error {
	return s.withTx(ctx, "purge", func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM votes",
			"DELETE FROM entries",
			"DELETE FROM categories",
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO settings (key, value) VALUES (?, '0')
			ON CONFLICT (key) DO UPDATE SET value = excluded.value
		`), models.SettingVotingEnabled)
		return err
	})
}
