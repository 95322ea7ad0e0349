// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, result, and error types shared by the store,
upload, and handler packages.

# Domain Types

  - Category: a named award, enabled or disabled
  - Entry: a submitted costume with optional photo
  - Vote: one ballot choice for an entry within its category
  - NewEntry: a validated submission ready to insert

# Result Types

  - EntryTally: vote count for one entry
  - CategoryResults: tallies for one category, highest first
  - ResultsResponse: JSON body of GET /api/results

# Errors

Sentinel errors are wrapped with context and matched with errors.Is:

	ErrNotFound     // stale reference
	ErrConflict     // uniqueness or referential conflict
	ErrVotingClosed // voting flag is off
	ErrAlreadyVoted // voter already voted in the category
	ErrUnauthorized // admin session missing or invalid

ValidationError carries per-field messages for re-rendering forms.
StorageError wraps database and filesystem failures and is never retried.
*/
package models
