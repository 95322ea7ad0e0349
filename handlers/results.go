// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/costume-contest/auth"
	"github.com/danielhkuo/costume-contest/cliparse"
	"github.com/danielhkuo/costume-contest/middleware"
	"github.com/danielhkuo/costume-contest/models"
	"github.com/danielhkuo/costume-contest/store"
)

type ResultsHandler struct {
	st  *store.Store
	cfg cliparse.Config
}

func NewResultsHandler(st *store.Store, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{st: st, cfg: cfg}
}

// canView reports whether results are visible to this request. Results are
// admin-only unless configured public.
func (h *ResultsHandler) canView(r *http.Request) bool {
	return h.cfg.ResultsPublic || auth.IsAdmin(r, h.cfg.SessionSecret)
}

func (h *ResultsHandler) load(ctx context.Context) (models.ResultsResponse, error) {
	enabled, err := h.st.VotingEnabled(ctx)
	if err != nil {
		return models.ResultsResponse{}, err
	}
	categories, err := h.st.Results(ctx)
	if err != nil {
		return models.ResultsResponse{}, err
	}

	resp := models.ResultsResponse{
		VotingEnabled: enabled,
		Categories:    categories,
	}
	for _, c := range categories {
		for _, e := range c.Entries {
			resp.TotalVotes += e.Votes
		}
	}
	return resp, nil
}

// GetResults handles GET /results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	if !h.canView(r) {
		fail(w, r, h.cfg, models.ErrUnauthorized)
		return
	}

	resp, err := h.load(r.Context())
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}

	render(w, http.StatusOK, "results.html", newPage(w, r, h.cfg, "Results", resp))
}

// GetResultsJSON handles GET /api/results
func (h *ResultsHandler) GetResultsJSON(w http.ResponseWriter, r *http.Request) {
	if !h.canView(r) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are only visible to the admin")
		return
	}

	resp, err := h.load(r.Context())
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.Error("failed to load results", "error", err)
		}
		middleware.ErrorResponse(w, status, msg)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
