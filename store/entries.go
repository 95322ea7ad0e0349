// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/danielhkuo/costume-contest/models"
)

// ValidateEntry trims the text fields of e and reports every problem at once.
func ValidateEntry(e models.NewEntry) (models.NewEntry, error) {
	e.DisplayName = strings.TrimSpace(e.DisplayName)
	e.Costume = strings.TrimSpace(e.Costume)

	verr := &models.ValidationError{}
	switch {
	case e.DisplayName == "":
		verr.Add("display_name", "Please enter your name.")
	case utf8.RuneCountInString(e.DisplayName) > models.MaxDisplayNameLen:
		verr.Add("display_name", fmt.Sprintf("Name must be at most %d characters.", models.MaxDisplayNameLen))
	}
	switch {
	case e.Costume == "":
		verr.Add("costume", "Please describe your costume.")
	case utf8.RuneCountInString(e.Costume) > models.MaxCostumeLen:
		verr.Add("costume", fmt.Sprintf("Costume description must be at most %d characters.", models.MaxCostumeLen))
	}
	if e.CategoryID <= 0 {
		verr.Add("category", "Please choose a category.")
	}

	if !verr.Empty() {
		return e, verr
	}
	return e, nil
}

// CreateEntry stores a submission. The category must exist (ErrNotFound) and
// be enabled (ValidationError on the category field); both are checked in the
// same transaction as the insert.
func (s *Store) CreateEntry(ctx context.Context, in models.NewEntry) (models.Entry, error) {
	in, err := ValidateEntry(in)
	if err != nil {
		return models.Entry{}, err
	}

	entry := models.Entry{
		DisplayName: in.DisplayName,
		Costume:     in.Costume,
		CategoryID:  in.CategoryID,
		Photo:       in.Photo,
		CreatedAt:   s.now(),
	}

	err = s.withTx(ctx, "create entry", func(tx *sql.Tx) error {
		var enabled bool
		err := tx.QueryRowContext(ctx,
			s.q("SELECT name, enabled FROM categories WHERE id = ?"), in.CategoryID,
		).Scan(&entry.CategoryName, &enabled)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("category %d: %w", in.CategoryID, models.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if !enabled {
			return models.NewValidationError("category", "This category is not accepting entries.")
		}

		return tx.QueryRowContext(ctx, s.q(`
			INSERT INTO entries (display_name, costume, category_id, photo, created_at)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id
		`), entry.DisplayName, entry.Costume, entry.CategoryID, entry.Photo, entry.CreatedAt).Scan(&entry.ID)
	})
	if err != nil {
		return models.Entry{}, err
	}

	return entry, nil
}

const entryColumns = `
	e.id, e.display_name, e.costume, e.category_id, c.name, e.photo, e.created_at
	FROM entries e
	JOIN categories c ON c.id = e.category_id`

func scanEntry(sc interface{ Scan(...any) error }) (models.Entry, error) {
	var e models.Entry
	var photo sql.NullString
	err := sc.Scan(&e.ID, &e.DisplayName, &e.Costume, &e.CategoryID, &e.CategoryName, &photo, &e.CreatedAt)
	if err != nil {
		return models.Entry{}, err
	}
	if photo.Valid {
		p := photo.String
		e.Photo = &p
	}
	return e, nil
}

// ListEntries returns entries newest first. A categoryID of 0 lists all.
func (s *Store) ListEntries(ctx context.Context, categoryID int64) ([]models.Entry, error) {
	query := "SELECT " + entryColumns
	var args []any
	if categoryID > 0 {
		query += " WHERE e.category_id = ?"
		args = append(args, categoryID)
	}
	query += " ORDER BY e.created_at DESC, e.id DESC"

	rows, err := s.conn.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, classify("list entries", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, classify("scan entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list entries", err)
	}

	return entries, nil
}

func (s *Store) GetEntry(ctx context.Context, id int64) (models.Entry, error) {
	row := s.conn.QueryRowContext(ctx, s.q("SELECT "+entryColumns+" WHERE e.id = ?"), id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, fmt.Errorf("entry %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Entry{}, classify("get entry", err)
	}
	return e, nil
}

// DeleteEntry removes an entry and its votes and returns the stored photo
// name, if any, so the caller can remove the file after the commit.
func (s *Store) DeleteEntry(ctx context.Context, id int64) (*string, error) {
	var photo sql.NullString
	err := s.withTx(ctx, "delete entry", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, s.q("SELECT photo FROM entries WHERE id = ?"), id).Scan(&photo)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("entry %d: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, s.q("DELETE FROM votes WHERE entry_id = ?"), id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, s.q("DELETE FROM entries WHERE id = ?"), id)
		if err != nil {
			return err
		}
		return requireRow(res, "entry", id)
	})
	if err != nil {
		return nil, err
	}

	if !photo.Valid {
		return nil, nil
	}
	return &photo.String, nil
}
