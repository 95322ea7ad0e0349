// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/costume-contest/auth"
	"github.com/danielhkuo/costume-contest/cliparse"
	"github.com/danielhkuo/costume-contest/middleware"
	"github.com/danielhkuo/costume-contest/models"
	"github.com/danielhkuo/costume-contest/store"
	"github.com/danielhkuo/costume-contest/uploads"
)

type AdminHandler struct {
	st       *store.Store
	up       *uploads.Store
	cfg      cliparse.Config
	password *auth.PasswordChecker
}

func NewAdminHandler(st *store.Store, up *uploads.Store, cfg cliparse.Config, password *auth.PasswordChecker) *AdminHandler {
	return &AdminHandler{st: st, up: up, cfg: cfg, password: password}
}

type loginData struct {
	Error string
}

// LoginForm handles GET /admin/login
func (h *AdminHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if auth.IsAdmin(r, h.cfg.SessionSecret) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	render(w, http.StatusOK, "login.html", newPage(w, r, h.cfg, "Admin Login", loginData{}))
}

// Login handles POST /admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := h.password.Check(r.FormValue("password")); err != nil {
		slog.Warn("admin login failed", "remote", middleware.GetClientIP(r))
		render(w, http.StatusUnauthorized, "login.html", newPage(w, r, h.cfg, "Admin Login", loginData{
			Error: "Incorrect password.",
		}))
		return
	}

	token, err := auth.IssueAdminSession(h.cfg.SessionSecret, h.cfg.SessionTTL)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}

	slog.Info("admin logged in", "remote", middleware.GetClientIP(r))

	http.SetCookie(w, auth.AdminCookie(token, h.cfg.SessionTTL, h.cfg.CookieSecure))
	middleware.SetFlash(w, "success", "Logged in.")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// Logout handles POST /admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearAdminCookie(h.cfg.CookieSecure))
	middleware.SetFlash(w, "success", "Logged out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type dashboardData struct {
	Categories    []models.Category
	Entries       []models.Entry
	VotingEnabled bool
	VoteCount     int
	Error         string
}

// Dashboard handles GET /admin
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderDashboard(w, r, http.StatusOK, "")
}

func (h *AdminHandler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	ctx := r.Context()

	categories, err := h.st.ListCategories(ctx, false)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}
	entries, err := h.st.ListEntries(ctx, 0)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}
	enabled, err := h.st.VotingEnabled(ctx)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}
	_, _, votes, err := h.st.Counts(ctx)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}

	render(w, status, "admin.html", newPage(w, r, h.cfg, "Admin", dashboardData{
		Categories:    categories,
		Entries:       entries,
		VotingEnabled: enabled,
		VoteCount:     votes,
		Error:         errMsg,
	}))
}

// adminFail re-renders the dashboard with the error message and status.
func (h *AdminHandler) adminFail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if fe := fieldErrors(err); fe != nil {
		msg = fe["name"]
		if msg == "" {
			msg = err.Error()
		}
	}
	if status == http.StatusInternalServerError {
		fail(w, r, h.cfg, err)
		return
	}
	h.renderDashboard(w, r, status, msg)
}

func (h *AdminHandler) done(w http.ResponseWriter, r *http.Request, msg string) {
	middleware.SetFlash(w, "success", msg)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// pathID parses the {id} path segment. Malformed ids are reported as not
// found, the same as ids that do not exist.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id %q: %w", r.PathValue("id"), models.ErrNotFound)
	}
	return id, nil
}

// CreateCategory handles POST /admin/categories
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.st.CreateCategory(r.Context(), r.FormValue("name"))
	if err != nil {
		h.adminFail(w, r, err)
		return
	}

	slog.Info("category created", "category_id", c.ID, "name", c.Name)
	h.done(w, r, fmt.Sprintf("Category %q added.", c.Name))
}

// RenameCategory handles POST /admin/categories/{id}/rename
func (h *AdminHandler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.adminFail(w, r, err)
		return
	}

	if err := h.st.RenameCategory(r.Context(), id, r.FormValue("name")); err != nil {
		h.adminFail(w, r, err)
		return
	}

	slog.Info("category renamed", "category_id", id)
	h.done(w, r, "Category renamed.")
}

// EnableCategory handles POST /admin/categories/{id}/enable
func (h *AdminHandler) EnableCategory(w http.ResponseWriter, r *http.Request) {
	h.setCategoryEnabled(w, r, true)
}

// DisableCategory handles POST /admin/categories/{id}/disable
func (h *AdminHandler) DisableCategory(w http.ResponseWriter, r *http.Request) {
	h.setCategoryEnabled(w, r, false)
}

func (h *AdminHandler) setCategoryEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	id, err := pathID(r)
	if err != nil {
		h.adminFail(w, r, err)
		return
	}

	if err := h.st.SetCategoryEnabled(r.Context(), id, enabled); err != nil {
		h.adminFail(w, r, err)
		return
	}

	slog.Info("category updated", "category_id", id, "enabled", enabled)
	if enabled {
		h.done(w, r, "Category enabled.")
	} else {
		h.done(w, r, "Category disabled.")
	}
}

// DeleteCategory handles POST /admin/categories/{id}/delete
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.adminFail(w, r, err)
		return
	}

	if err := h.st.DeleteCategory(r.Context(), id); err != nil {
		h.adminFail(w, r, err)
		return
	}

	slog.Info("category deleted", "category_id", id)
	h.done(w, r, "Category deleted.")
}

// DeleteEntry handles POST /admin/entries/{id}/delete. The row goes first and
// the photo second, so a crash in between leaves an orphaned file rather than
// an entry pointing at a missing photo.
func (h *AdminHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.adminFail(w, r, err)
		return
	}

	photo, err := h.st.DeleteEntry(r.Context(), id)
	if err != nil {
		h.adminFail(w, r, err)
		return
	}

	if photo != nil {
		if err := h.up.Delete(*photo); err != nil {
			slog.Warn("failed to remove entry photo", "entry_id", id, "photo", *photo, "error", err)
		}
	}

	slog.Info("entry deleted", "entry_id", id)
	h.done(w, r, "Entry deleted.")
}

// ToggleVoting handles POST /admin/voting/toggle
func (h *AdminHandler) ToggleVoting(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.st.ToggleVoting(r.Context())
	if err != nil {
		h.adminFail(w, r, err)
		return
	}

	slog.Info("voting toggled", "enabled", enabled)
	if enabled {
		h.done(w, r, "Voting is now open.")
	} else {
		h.done(w, r, "Voting is now closed.")
	}
}

// Purge handles POST /admin/purge. The database purge is atomic; removing the
// photos afterwards is best effort.
func (h *AdminHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if err := h.st.Purge(r.Context()); err != nil {
		h.adminFail(w, r, err)
		return
	}

	removed, err := h.up.Clear()
	if err != nil {
		slog.Warn("some uploads could not be removed", "removed", removed, "error", err)
		middleware.SetFlash(w, "error", "All data purged, but some photos could not be deleted. See the server log.")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	slog.Info("all data purged", "files_removed", removed)
	h.done(w, r, "All data purged and uploads cleared.")
}
