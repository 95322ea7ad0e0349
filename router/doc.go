// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines the HTTP routes for the costume contest server.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(st, up, cfg, checker)

# Endpoints

Health:

	GET /health

Guests:

	GET  /                  home
	GET  /entry             entry form
	POST /entry             submit entry
	GET  /uploads/{name}    stored photo or thumbnail
	GET  /vote              ballot
	POST /vote              cast ballot

Results (admin only unless RESULTS_PUBLIC is set):

	GET /results
	GET /api/results

Admin session:

	GET  /admin/login
	POST /admin/login
	POST /admin/logout

Admin operations (wrapped with middleware.RequireAdmin):

	GET  /admin
	POST /admin/categories
	POST /admin/categories/{id}/rename
	POST /admin/categories/{id}/enable
	POST /admin/categories/{id}/disable
	POST /admin/categories/{id}/delete
	POST /admin/entries/{id}/delete
	POST /admin/voting/toggle
	POST /admin/purge

All routes except /health and /uploads are wrapped with
middleware.WithLogging.
*/
package router
