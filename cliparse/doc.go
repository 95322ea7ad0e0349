// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

Load reads an optional .env file and returns a Config:

	cfg, err := cliparse.Load(os.Args[1:])

ParseFlags does the same without touching .env, which keeps tests hermetic.

# CLI Flags

	-p                Server port (default: 5000)
	-d                SQLite path or Postgres URL (default: data/contest.db)
	-t                Database type: sqlite or postgres (default: sqlite)
	-u                Upload directory (default: uploads)
	-dev              Development mode
	--session-secret  Cookie signing secret
	--admin-password  Admin password

# Environment Variables

Flags fall back to environment variables:

	PORT, DATABASE_URL, DATABASE_TYPE, UPLOAD_DIR, APP_ENV,
	SESSION_SECRET, ADMIN_PASSWORD, ADMIN_PASSWORD_HASH,
	MAX_UPLOAD_MB, ALLOWED_PHOTO_EXTS, RESULTS_PUBLIC,
	SESSION_TTL, SEED_CATEGORIES, COOKIE_SECURE, LOG_LEVEL

SESSION_SECRET is required unless development mode is on. One of
ADMIN_PASSWORD or ADMIN_PASSWORD_HASH (bcrypt) is always required.
*/
package cliparse
