// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers for the costume contest.

# Handler Types

Each handler is a struct holding the stores and config it needs:

  - EntryHandler: home page, entry form and submission, uploaded photos
  - VotingHandler: ballot form and ballot submission
  - ResultsHandler: tallies as HTML and JSON
  - AdminHandler: login/logout, categories, entries, voting flag, purge

	entries := handlers.NewEntryHandler(st, up, cfg)
	admin := handlers.NewAdminHandler(st, up, cfg, checker)

Pages are rendered from embedded html/template files (templates/), each page
combined with templates/layout.html.

# Entry Submission

	GET  /entry  → EntryForm
	POST /entry  → SubmitEntry (multipart, optional "photo" file)

Name, costume and category are validated before the photo is stored. On a
validation error the form is re-rendered with field messages and the
submitted values, status 400. If the insert fails after the photo was
stored, the photo is removed again.

# Voting

	GET  /vote   → BallotForm
	POST /vote   → CastBallot (fields choice_<categoryID>=<entryID>)

The voter identity comes from the signed voter cookie, minted on first
visit. A ballot is all-or-nothing: if any chosen category was already voted
in, nothing is recorded and the response is 409.

# Admin

Admin routes are wrapped by middleware.RequireAdmin in the router. Success
redirects to /admin with a flash message; errors re-render the dashboard
with the matching status.

# Error Mapping

statusFor translates errors once, at the boundary:

	ValidationError  → 400
	ErrNotFound      → 404
	ErrConflict      → 409
	ErrAlreadyVoted  → 409
	ErrVotingClosed  → 403
	ErrUnauthorized  → 403 (GET redirects to /admin/login)
	anything else    → 500, details only in the log
*/
package handlers
