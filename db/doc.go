// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and manages its schema.

# Opening

Open selects the driver by dialect and pings the connection:

	conn, err := db.Open(ctx, db.SQLite, "data/contest.db")

SQLite (modernc.org/sqlite) connections enable foreign keys, a busy timeout
and WAL journaling, and the pool is capped at one connection so that writer
transactions are serialised. PostgreSQL (lib/pq) is supported for larger
parties; both dialects share the same queries via Rebind.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn, db.SQLite); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - categories: award names, unique, with an enabled flag
  - entries: submitted costumes, each in one category
  - votes: one row per (category, voter_token)
  - settings: key/value rows (voting_enabled, seeded)

# Relationships

	categories 1──* entries
	entries    1──* votes (ON DELETE CASCADE)

# Seeding

Seed writes the default categories and voting_enabled='0' the first time a
database is created. The "seeded" marker survives a purge.
*/
package db
