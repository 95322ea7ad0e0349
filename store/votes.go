// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/costume-contest/models"
)

// CastVote records a single vote. See CastBallot for the rules.
func (s *Store) CastVote(ctx context.Context, voterToken string, entryID int64) (models.Vote, error) {
	votes, err := s.CastBallot(ctx, voterToken, []int64{entryID})
	if err != nil {
		return models.Vote{}, err
	}
	return votes[0], nil
}

// CastBallot records one vote per entry in a single transaction.
//
// The ballot is rejected as a whole when voting is closed (ErrVotingClosed),
// an entry is missing (ErrNotFound), two entries share a category or a
// category is disabled (ValidationError), or the voter already voted in one of
// the categories (ErrAlreadyVoted). The last rule is enforced by the
// UNIQUE(category_id, voter_token) constraint, so concurrent duplicate ballots
// cannot both succeed.
func (s *Store) CastBallot(ctx context.Context, voterToken string, entryIDs []int64) ([]models.Vote, error) {
	if voterToken == "" {
		return nil, models.NewValidationError("voter", "Missing voter identity.")
	}
	if len(entryIDs) == 0 {
		return nil, models.NewValidationError("ballot", "Please pick at least one costume.")
	}

	votes := make([]models.Vote, 0, len(entryIDs))
	err := s.withTx(ctx, "cast vote", func(tx *sql.Tx) error {
		open, err := readVotingFlag(ctx, tx, s)
		if err != nil {
			return err
		}
		if !open {
			return models.ErrVotingClosed
		}

		now := s.now()
		seen := make(map[int64]bool, len(entryIDs))
		for _, entryID := range entryIDs {
			var categoryID int64
			var enabled bool
			err := tx.QueryRowContext(ctx, s.q(`
				SELECT e.category_id, c.enabled
				FROM entries e
				JOIN categories c ON c.id = e.category_id
				WHERE e.id = ?
			`), entryID).Scan(&categoryID, &enabled)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("entry %d: %w", entryID, models.ErrNotFound)
			}
			if err != nil {
				return err
			}
			if !enabled {
				return models.NewValidationError("ballot", "Voting in that category is closed.")
			}
			if seen[categoryID] {
				return models.NewValidationError("ballot", "Only one pick per category.")
			}
			seen[categoryID] = true

			v := models.Vote{
				EntryID:    entryID,
				CategoryID: categoryID,
				VoterToken: voterToken,
				CreatedAt:  now,
			}
			err = tx.QueryRowContext(ctx, s.q(`
				INSERT INTO votes (entry_id, category_id, voter_token, created_at)
				VALUES (?, ?, ?, ?)
				RETURNING id
			`), v.EntryID, v.CategoryID, v.VoterToken, v.CreatedAt).Scan(&v.ID)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("category %d: %w", categoryID, models.ErrAlreadyVoted)
				}
				return err
			}
			votes = append(votes, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return votes, nil
}

// VotedCategories returns the categories the voter has already voted in.
func (s *Store) VotedCategories(ctx context.Context, voterToken string) (map[int64]bool, error) {
	voted := make(map[int64]bool)
	if voterToken == "" {
		return voted, nil
	}

	rows, err := s.conn.QueryContext(ctx,
		s.q("SELECT category_id FROM votes WHERE voter_token = ?"), voterToken)
	if err != nil {
		return nil, classify("list voted categories", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, classify("scan voted category", err)
		}
		voted[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list voted categories", err)
	}
	return voted, nil
}

// Tally returns the vote count per entry id. Entries without votes are absent.
func (s *Store) Tally(ctx context.Context) (map[int64]int, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT entry_id, COUNT(*) FROM votes GROUP BY entry_id")
	if err != nil {
		return nil, classify("tally votes", err)
	}
	defer rows.Close()

	tally := make(map[int64]int)
	for rows.Next() {
		var entryID int64
		var n int
		if err := rows.Scan(&entryID, &n); err != nil {
			return nil, classify("scan tally", err)
		}
		tally[entryID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, classify("tally votes", err)
	}
	return tally, nil
}
