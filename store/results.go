// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"

	"github.com/danielhkuo/costume-contest/models"
)

// Results returns every category (by name) with its entries ranked by vote
// count, highest first. Ties are broken by display name and then id.
func (s *Store) Results(ctx context.Context) ([]models.CategoryResults, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT c.id, c.name, c.enabled,
		       e.id, e.display_name, e.costume, e.photo,
		       COUNT(v.id) AS votes
		FROM categories c
		LEFT JOIN entries e ON e.category_id = c.id
		LEFT JOIN votes v ON v.entry_id = e.id
		GROUP BY c.id, c.name, c.enabled, e.id, e.display_name, e.costume, e.photo
		ORDER BY c.name, c.id, votes DESC, e.display_name, e.id
	`)
	if err != nil {
		return nil, classify("compute results", err)
	}
	defer rows.Close()

	results := []models.CategoryResults{}
	for rows.Next() {
		var (
			catID       int64
			catName     string
			catEnabled  bool
			entryID     sql.NullInt64
			displayName sql.NullString
			costume     sql.NullString
			photo       sql.NullString
			votes       int
		)
		if err := rows.Scan(&catID, &catName, &catEnabled, &entryID, &displayName, &costume, &photo, &votes); err != nil {
			return nil, classify("scan results", err)
		}

		if n := len(results); n == 0 || results[n-1].CategoryID != catID {
			results = append(results, models.CategoryResults{
				CategoryID: catID,
				Name:       catName,
				Enabled:    catEnabled,
				Entries:    []models.EntryTally{},
			})
		}
		if !entryID.Valid {
			continue
		}

		t := models.EntryTally{
			EntryID:     entryID.Int64,
			DisplayName: displayName.String,
			Costume:     costume.String,
			Votes:       votes,
		}
		if photo.Valid {
			p := photo.String
			t.Photo = &p
		}
		cur := &results[len(results)-1]
		cur.Entries = append(cur.Entries, t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("compute results", err)
	}

	return results, nil
}

// Counts returns the number of categories, entries and votes.
func (s *Store) Counts(ctx context.Context) (categories, entries, votes int, err error) {
	err = s.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM entries),
			(SELECT COUNT(*) FROM votes)
	`).Scan(&categories, &entries, &votes)
	if err != nil {
		return 0, 0, 0, classify("count records", err)
	}
	return categories, entries, votes, nil
}
