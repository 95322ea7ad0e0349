// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/costume-contest/db"
	"github.com/danielhkuo/costume-contest/models"
)

// Store is the persistent store handle shared by all request handlers.
// It holds no mutable state of its own; every read goes to the database.
type Store struct {
	conn    *sql.DB
	dialect db.Dialect
	now     func() time.Time
}

func New(conn *sql.DB, dialect db.Dialect) *Store {
	return &Store{
		conn:    conn,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// DB exposes the underlying connection for health checks and tests.
func (s *Store) DB() *sql.DB {
	return s.conn
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return &models.StorageError{Op: "ping", Err: err}
	}
	return nil
}

func (s *Store) q(query string) string {
	return db.Rebind(s.dialect, query)
}

// withTx runs fn in a transaction and commits if fn returns nil.
// Errors from fn are passed through classify under op.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return &models.StorageError{Op: op, Err: fmt.Errorf("begin: %w", err)}
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return classify(op, err)
	}

	if err := tx.Commit(); err != nil {
		return classify(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// classify maps driver errors onto the error taxonomy. Errors that already
// belong to it are returned unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var verr *models.ValidationError
	var serr *models.StorageError
	switch {
	case errors.As(err, &verr), errors.As(err, &serr):
		return err
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrVotingClosed),
		errors.Is(err, models.ErrAlreadyVoted):
		return err
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, models.ErrConflict)
	}

	return &models.StorageError{Op: op, Err: err}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(se.Error(), "UNIQUE")
		}
		return false
	}

	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}

	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "23503"
	}
	return false
}
