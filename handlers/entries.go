// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielhkuo/costume-contest/cliparse"
	"github.com/danielhkuo/costume-contest/middleware"
	"github.com/danielhkuo/costume-contest/models"
	"github.com/danielhkuo/costume-contest/store"
	"github.com/danielhkuo/costume-contest/uploads"
)

const (
	// multipartOverhead covers form fields and part headers on top of the photo.
	multipartOverhead = 1 << 20
	multipartMemory   = 1 << 20
)

type EntryHandler struct {
	st  *store.Store
	up  *uploads.Store
	cfg cliparse.Config
}

func NewEntryHandler(st *store.Store, up *uploads.Store, cfg cliparse.Config) *EntryHandler {
	return &EntryHandler{st: st, up: up, cfg: cfg}
}

type homeData struct {
	VotingEnabled bool
	Categories    int
	Entries       int
}

// Home handles GET /
func (h *EntryHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	enabled, err := h.st.VotingEnabled(ctx)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}
	categories, entries, _, err := h.st.Counts(ctx)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}

	render(w, http.StatusOK, "home.html", newPage(w, r, h.cfg, "Costume Contest", homeData{
		VotingEnabled: enabled,
		Categories:    categories,
		Entries:       entries,
	}))
}

type entryValues struct {
	DisplayName string
	Costume     string
	CategoryID  int64
}

type entryFormData struct {
	Categories []models.Category
	Values     entryValues
	Errors     map[string]string
	MaxUpload  string
	Accept     string
}

// EntryForm handles GET /entry
func (h *EntryHandler) EntryForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, entryValues{}, nil)
}

func (h *EntryHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, values entryValues, errs map[string]string) {
	categories, err := h.st.ListCategories(r.Context(), true)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}

	accept := make([]string, 0, len(h.up.AllowedExts()))
	for _, ext := range h.up.AllowedExts() {
		accept = append(accept, "."+ext)
	}

	render(w, status, "entry.html", newPage(w, r, h.cfg, "Enter the Contest", entryFormData{
		Categories: categories,
		Values:     values,
		Errors:     errs,
		MaxUpload:  fmt.Sprintf("%d MB", h.up.MaxBytes()>>20),
		Accept:     strings.Join(accept, ","),
	}))
}

// SubmitEntry handles POST /entry
func (h *EntryHandler) SubmitEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.up.MaxBytes()+multipartOverhead)

	verr := &models.ValidationError{}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			// Plain form without a photo
			if err := r.ParseForm(); err != nil {
				verr.Add("form", "Could not read the form.")
			}
		case errors.As(err, &tooLarge):
			verr.Add("photo", fmt.Sprintf("Photo is too large (max %d MB).", h.up.MaxBytes()>>20))
		default:
			verr.Add("form", "Could not read the form.")
		}
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	values := entryValues{
		DisplayName: r.FormValue("display_name"),
		Costume:     r.FormValue("costume"),
	}
	if raw := r.FormValue("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			verr.Add("category", "Please choose a category.")
		} else {
			values.CategoryID = id
		}
	}

	in := models.NewEntry{
		DisplayName: values.DisplayName,
		Costume:     values.Costume,
		CategoryID:  values.CategoryID,
	}
	if _, err := store.ValidateEntry(in); err != nil {
		for field, msg := range fieldErrors(err) {
			verr.Add(field, msg)
		}
	}

	// Only store the photo once everything else is valid
	if verr.Empty() {
		name, err := h.savePhoto(r)
		if err != nil {
			if fe := fieldErrors(err); fe != nil {
				for field, msg := range fe {
					verr.Add(field, msg)
				}
			} else {
				fail(w, r, h.cfg, err)
				return
			}
		}
		in.Photo = name
	}

	if !verr.Empty() {
		h.renderForm(w, r, http.StatusBadRequest, values, verr.Fields)
		return
	}

	entry, err := h.st.CreateEntry(r.Context(), in)
	if err != nil {
		if in.Photo != nil {
			if derr := h.up.Delete(*in.Photo); derr != nil {
				slog.Warn("failed to remove photo of rejected entry", "photo", *in.Photo, "error", derr)
			}
		}

		switch {
		case errors.Is(err, models.ErrNotFound):
			h.renderForm(w, r, http.StatusBadRequest, values, map[string]string{
				"category": "That category no longer exists.",
			})
		case fieldErrors(err) != nil:
			h.renderForm(w, r, http.StatusBadRequest, values, fieldErrors(err))
		default:
			fail(w, r, h.cfg, err)
		}
		return
	}

	slog.Info("entry submitted",
		"entry_id", entry.ID,
		"category_id", entry.CategoryID,
		"has_photo", entry.Photo != nil,
	)

	middleware.SetFlash(w, "success", "Thanks, "+entry.DisplayName+"! Your costume has been entered.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// savePhoto stores the optional photo field. It returns nil when no file was
// chosen.
func (h *EntryHandler) savePhoto(r *http.Request) (*string, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewValidationError("photo", "Could not read the uploaded photo.")
	}
	defer file.Close()

	if emptyPart(header) {
		return nil, nil
	}

	name, err := h.up.Save(file, header.Filename)
	if err != nil {
		return nil, err
	}
	return &name, nil
}

// Browsers submit an empty part when the file input is left blank.
func emptyPart(header *multipart.FileHeader) bool {
	return header.Filename == "" && header.Size == 0
}

// ServeUpload handles GET /uploads/{name}
func (h *EntryHandler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	path, err := h.up.Resolve(r.PathValue("name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
