// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the costume contest server.

Guests enter their costume (name, description, optional photo) in a
category and vote for their favourites, one vote per category. The host
manages categories, opens and closes voting, reads the results and can
purge everything when the party is over.

# Starting the Server

The server reads a .env file if present, then flags, then environment
variables:

	ADMIN_PASSWORD=... SESSION_SECRET=... go run .

Or with flags:

	go run . -p 5000 -d data/contest.db -u uploads -admin-password secret -dev

# Configuration

Required settings:

  - SESSION_SECRET (-session-secret): signs admin and voter cookies
    (a fixed insecure value is used with -dev)
  - ADMIN_PASSWORD (-admin-password) or ADMIN_PASSWORD_HASH (bcrypt)

Optional settings:

  - PORT (-p): server port (default 5000)
  - DATABASE_URL (-d): SQLite path or PostgreSQL URL (default data/contest.db)
  - DATABASE_TYPE (-t): sqlite or postgres (default sqlite)
  - UPLOAD_DIR (-u): photo directory (default uploads)
  - MAX_UPLOAD_MB, ALLOWED_PHOTO_EXTS, RESULTS_PUBLIC, SESSION_TTL,
    SEED_CATEGORIES, COOKIE_SECURE, LOG_LEVEL

# Architecture

  - handlers: HTTP handlers and embedded HTML templates
  - router: route definitions using Go 1.22+ routing
  - middleware: logging, admin gate, flash messages, JSON helpers
  - store: categories, entries, votes and settings on database/sql
  - db: connection setup, schema and seeding
  - uploads: photo storage with thumbnails
  - auth: admin password, admin sessions and voter tokens
  - models: domain types and errors
  - cliparse: configuration

# Graceful Shutdown

On SIGINT or SIGTERM the server stops accepting connections and waits up to
10 seconds for in-flight requests.
*/
package main
