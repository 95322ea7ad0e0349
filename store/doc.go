// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store implements the persistent store for categories, entries, votes
and the voting flag.

Every mutation runs in its own transaction, and the invariants live in the
schema: category names are UNIQUE and votes are UNIQUE per
(category_id, voter_token), so concurrent requests cannot create duplicates.
Driver errors are mapped onto the models error taxonomy:

	unique violation       → models.ErrConflict (models.ErrAlreadyVoted for votes)
	missing row            → models.ErrNotFound
	bad input              → *models.ValidationError
	anything else          → *models.StorageError

Queries are written with ? placeholders and rebound for PostgreSQL.
*/
package store
