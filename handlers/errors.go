// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/costume-contest/cliparse"
	"github.com/danielhkuo/costume-contest/models"
)

// statusFor maps a store, upload or auth error to an HTTP status and a
// message that is safe to show to guests.
func statusFor(err error) (int, string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "Please fix the highlighted problems and try again."
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "That item no longer exists."
	case errors.Is(err, models.ErrAlreadyVoted):
		return http.StatusConflict, "You have already voted in that category."
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "That conflicts with existing data. A category with that name may already exist, or it still has entries."
	case errors.Is(err, models.ErrVotingClosed):
		return http.StatusForbidden, "Voting is currently closed."
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusForbidden, "Admin login required."
	default:
		return http.StatusInternalServerError, "Something went wrong on our end. Please try again."
	}
}

// fieldErrors extracts per-field messages from a ValidationError.
func fieldErrors(err error) map[string]string {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

// fail renders the message page for err. Unauthorized GETs are redirected to
// the login page instead.
func fail(w http.ResponseWriter, r *http.Request, cfg cliparse.Config, err error) {
	if errors.Is(err, models.ErrUnauthorized) && r.Method == http.MethodGet {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	render(w, status, "message.html", newPage(w, r, cfg, http.StatusText(status), messageData{
		Status:  status,
		Heading: http.StatusText(status),
		Message: msg,
	}))
}
