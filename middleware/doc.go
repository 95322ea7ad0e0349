// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /vote", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms).

# Admin Gate

Every admin route is wrapped with RequireAdmin:

	admin := middleware.RequireAdmin(cfg.SessionSecret)
	mux.HandleFunc("POST /admin/purge", middleware.WithLogging(admin(h.Purge)))

Without a valid session cookie, GET requests are redirected to /admin/login
and anything else receives 403 Forbidden. The wrapped handler is not called.

# Flash Messages

Redirect-after-POST handlers leave a one-shot message for the next page:

	middleware.SetFlash(w, "success", "Entry submitted!")
	http.Redirect(w, r, "/", http.StatusSeeOther)

	flash := middleware.PopFlash(w, r) // nil when there is nothing to show

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusForbidden, "admin session required")

# Client IP Extraction

GetClientIP checks X-Forwarded-For, then X-Real-IP, then falls back to
RemoteAddr with the port stripped. Used for log fields only.
*/
package middleware
