// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/costume-contest/auth"
	"github.com/danielhkuo/costume-contest/cliparse"
	"github.com/danielhkuo/costume-contest/middleware"
	"github.com/danielhkuo/costume-contest/uploads"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"photoURL": func(name *string) string {
		if name == nil {
			return ""
		}
		return "/uploads/" + *name
	},
	"thumbURL": func(name *string) string {
		if name == nil {
			return ""
		}
		return "/uploads/" + uploads.ThumbName(*name)
	},
	"join": strings.Join,
	"add":  func(a, b int) int { return a + b },
}

var templates = parseTemplates(
	"home.html",
	"entry.html",
	"vote.html",
	"results.html",
	"admin.html",
	"login.html",
	"message.html",
)

func parseTemplates(pages ...string) map[string]*template.Template {
	m := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		m[page] = template.Must(template.New(page).Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+page))
	}
	return m
}

// page is the data every template receives; Data holds the page-specific part.
type page struct {
	Title         string
	Flash         *middleware.Flash
	IsAdmin       bool
	ResultsPublic bool
	Data          any
}

func newPage(w http.ResponseWriter, r *http.Request, cfg cliparse.Config, title string, data any) page {
	return page{
		Title:         title,
		Flash:         middleware.PopFlash(w, r),
		IsAdmin:       auth.IsAdmin(r, cfg.SessionSecret),
		ResultsPublic: cfg.ResultsPublic,
		Data:          data,
	}
}

// render executes a page into a buffer first so a template failure becomes a
// clean 500 instead of half a page.
func render(w http.ResponseWriter, status int, name string, p page) {
	tmpl, ok := templates[name]
	if !ok {
		slog.Error("unknown template", "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", p); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write response", "template", name, "error", err)
	}
}

type messageData struct {
	Status  int
	Heading string
	Message string
}
