// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/costume-contest/auth"
	"github.com/danielhkuo/costume-contest/cliparse"
	"github.com/danielhkuo/costume-contest/handlers"
	"github.com/danielhkuo/costume-contest/middleware"
	"github.com/danielhkuo/costume-contest/store"
	"github.com/danielhkuo/costume-contest/uploads"
)

func NewRouter(st *store.Store, up *uploads.Store, cfg cliparse.Config, password *auth.PasswordChecker) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	entryHandler := handlers.NewEntryHandler(st, up, cfg)
	votingHandler := handlers.NewVotingHandler(st, cfg)
	resultsHandler := handlers.NewResultsHandler(st, cfg)
	adminHandler := handlers.NewAdminHandler(st, up, cfg, password)

	admin := middleware.RequireAdmin(cfg.SessionSecret)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			slog.Warn("health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Guest pages
	mux.HandleFunc("GET /{$}", middleware.WithLogging(entryHandler.Home))
	mux.HandleFunc("GET /entry", middleware.WithLogging(entryHandler.EntryForm))
	mux.HandleFunc("POST /entry", middleware.WithLogging(entryHandler.SubmitEntry))
	mux.HandleFunc("GET /uploads/{name}", entryHandler.ServeUpload)

	// Voting
	mux.HandleFunc("GET /vote", middleware.WithLogging(votingHandler.BallotForm))
	mux.HandleFunc("POST /vote", middleware.WithLogging(votingHandler.CastBallot))

	// Results (admin only unless RESULTS_PUBLIC)
	mux.HandleFunc("GET /results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /api/results", middleware.WithLogging(resultsHandler.GetResultsJSON))

	// Admin session
	mux.HandleFunc("GET /admin/login", middleware.WithLogging(adminHandler.LoginForm))
	mux.HandleFunc("POST /admin/login", middleware.WithLogging(adminHandler.Login))
	mux.HandleFunc("POST /admin/logout", middleware.WithLogging(adminHandler.Logout))

	// Admin operations
	mux.HandleFunc("GET /admin", middleware.WithLogging(admin(adminHandler.Dashboard)))
	mux.HandleFunc("POST /admin/categories", middleware.WithLogging(admin(adminHandler.CreateCategory)))
	mux.HandleFunc("POST /admin/categories/{id}/rename", middleware.WithLogging(admin(adminHandler.RenameCategory)))
	mux.HandleFunc("POST /admin/categories/{id}/enable", middleware.WithLogging(admin(adminHandler.EnableCategory)))
	mux.HandleFunc("POST /admin/categories/{id}/disable", middleware.WithLogging(admin(adminHandler.DisableCategory)))
	mux.HandleFunc("POST /admin/categories/{id}/delete", middleware.WithLogging(admin(adminHandler.DeleteCategory)))
	mux.HandleFunc("POST /admin/entries/{id}/delete", middleware.WithLogging(admin(adminHandler.DeleteEntry)))
	mux.HandleFunc("POST /admin/voting/toggle", middleware.WithLogging(admin(adminHandler.ToggleVoting)))
	mux.HandleFunc("POST /admin/purge", middleware.WithLogging(admin(adminHandler.Purge)))

	return mux
}
