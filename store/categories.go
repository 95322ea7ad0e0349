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

// ValidateCategoryName trims name and checks it is usable.
func ValidateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.NewValidationError("name", "Category name cannot be empty.")
	}
	if utf8.RuneCountInString(name) > models.MaxCategoryNameLen {
		return "", models.NewValidationError("name", fmt.Sprintf("Category name must be at most %d characters.", models.MaxCategoryNameLen))
	}
	return name, nil
}

// ListCategories returns categories ordered by name.
func (s *Store) ListCategories(ctx context.Context, onlyEnabled bool) ([]models.Category, error) {
	query := "SELECT id, name, enabled FROM categories"
	var args []any
	if onlyEnabled {
		query += " WHERE enabled = ?"
		args = append(args, true)
	}
	query += " ORDER BY name, id"

	rows, err := s.conn.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, classify("list categories", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Enabled); err != nil {
			return nil, classify("scan category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list categories", err)
	}

	return categories, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (models.Category, error) {
	var c models.Category
	err := s.conn.QueryRowContext(ctx,
		s.q("SELECT id, name, enabled FROM categories WHERE id = ?"), id,
	).Scan(&c.ID, &c.Name, &c.Enabled)

	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, fmt.Errorf("category %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Category{}, classify("get category", err)
	}
	return c, nil
}

// CreateCategory inserts an enabled category. A duplicate name fails with
// ErrConflict.
func (s *Store) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	name, err := ValidateCategoryName(name)
	if err != nil {
		return models.Category{}, err
	}

	c := models.Category{Name: name, Enabled: true}
	err = s.withTx(ctx, "create category", func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			s.q("INSERT INTO categories (name, enabled) VALUES (?, ?) RETURNING id"),
			name, true,
		).Scan(&c.ID)
	})
	if err != nil {
		return models.Category{}, err
	}

	return c, nil
}

func (s *Store) RenameCategory(ctx context.Context, id int64, name string) error {
	name, err := ValidateCategoryName(name)
	if err != nil {
		return err
	}

	return s.withTx(ctx, "rename category", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q("UPDATE categories SET name = ? WHERE id = ?"), name, id)
		if err != nil {
			return err
		}
		return requireRow(res, "category", id)
	})
}

// SetCategoryEnabled enables or disables a category. Disabled categories keep
// their entries and votes but accept no new ones.
func (s *Store) SetCategoryEnabled(ctx context.Context, id int64, enabled bool) error {
	return s.withTx(ctx, "update category", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q("UPDATE categories SET enabled = ? WHERE id = ?"), enabled, id)
		if err != nil {
			return err
		}
		return requireRow(res, "category", id)
	})
}

// DeleteCategory removes an empty category. Categories that still have
// entries fail with ErrConflict; delete or move the entries first.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return s.withTx(ctx, "delete category", func(tx *sql.Tx) error {
		var entries int
		err := tx.QueryRowContext(ctx,
			s.q("SELECT COUNT(*) FROM entries WHERE category_id = ?"), id,
		).Scan(&entries)
		if err != nil {
			return err
		}
		if entries > 0 {
			return fmt.Errorf("category %d has %d entries: %w", id, entries, models.ErrConflict)
		}

		res, err := tx.ExecContext(ctx, s.q("DELETE FROM categories WHERE id = ?"), id)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("category %d is still referenced: %w", id, models.ErrConflict)
			}
			return err
		}
		return requireRow(res, "category", id)
	})
}

func requireRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, models.ErrNotFound)
	}
	return nil
}
