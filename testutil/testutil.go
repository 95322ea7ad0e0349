// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/costume-contest/auth"
	"github.com/danielhkuo/costume-contest/cliparse"
	"github.com/danielhkuo/costume-contest/db"
	"github.com/danielhkuo/costume-contest/models"
	"github.com/danielhkuo/costume-contest/store"
	"github.com/danielhkuo/costume-contest/uploads"
)

// TestAdminPassword is the admin password used by GetTestConfig
const TestAdminPassword = "test-admin-password"

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseType:   string(db.SQLite),
		SessionSecret:  "test-session-secret",
		AdminPassword:  TestAdminPassword,
		MaxUploadBytes: 1 << 20,
		AllowedExts:    []string{"jpg", "jpeg", "png", "gif"},
		SessionTTL:     time.Hour,
	}
}

// SetupTestStore opens a fresh SQLite database in a temp dir with the schema
// created and no categories seeded
func SetupTestStore(t *testing.T) *store.Store {
	t.Helper()

	ctx := context.Background()
	conn, err := db.Open(ctx, db.SQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(ctx, conn, db.SQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return store.New(conn, db.SQLite)
}

// SetupTestUploads creates an upload store in a temp dir
func SetupTestUploads(t *testing.T, cfg cliparse.Config) *uploads.Store {
	t.Helper()

	up, err := uploads.New(t.TempDir(), cfg.MaxUploadBytes, cfg.AllowedExts)
	if err != nil {
		t.Fatalf("Failed to create upload store: %v", err)
	}
	return up
}

// Env bundles the pieces a router or handler test needs
type Env struct {
	Config  cliparse.Config
	Store   *store.Store
	Uploads *uploads.Store
}

// NewEnv sets up a test config, store and upload directory
func NewEnv(t *testing.T) *Env {
	t.Helper()

	cfg := GetTestConfig()
	return &Env{
		Config:  cfg,
		Store:   SetupTestStore(t),
		Uploads: SetupTestUploads(t, cfg),
	}
}

// PasswordChecker returns a checker for the config's admin password
func PasswordChecker(t *testing.T, cfg cliparse.Config) *auth.PasswordChecker {
	t.Helper()

	checker, err := auth.NewPasswordChecker(cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		t.Fatalf("Failed to create password checker: %v", err)
	}
	return checker
}

// CreateTestCategory adds an enabled category
func CreateTestCategory(t *testing.T, st *store.Store, name string) models.Category {
	t.Helper()

	c, err := st.CreateCategory(context.Background(), name)
	if err != nil {
		t.Fatalf("Failed to create test category: %v", err)
	}
	return c
}

// CreateTestEntry adds an entry without a photo
func CreateTestEntry(t *testing.T, st *store.Store, displayName string, categoryID int64) models.Entry {
	t.Helper()

	e, err := st.CreateEntry(context.Background(), models.NewEntry{
		DisplayName: displayName,
		Costume:     displayName + "'s costume",
		CategoryID:  categoryID,
	})
	if err != nil {
		t.Fatalf("Failed to create test entry: %v", err)
	}
	return e
}

// OpenVoting turns voting on
func OpenVoting(t *testing.T, st *store.Store) {
	t.Helper()

	if err := st.SetVotingEnabled(context.Background(), true); err != nil {
		t.Fatalf("Failed to open voting: %v", err)
	}
}

// AdminCookie returns a valid admin session cookie
func AdminCookie(t *testing.T, cfg cliparse.Config) *http.Cookie {
	t.Helper()

	token, err := auth.IssueAdminSession(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		t.Fatalf("Failed to issue admin session: %v", err)
	}
	return auth.AdminCookie(token, cfg.SessionTTL, false)
}

// VoterCookie returns a voter cookie and the identity stored on its votes
func VoterCookie(t *testing.T, cfg cliparse.Config) (*http.Cookie, string) {
	t.Helper()

	token, voterID, err := auth.IssueVoterToken(cfg.SessionSecret)
	if err != nil {
		t.Fatalf("Failed to issue voter token: %v", err)
	}
	return auth.VoterCookie(token, false), voterID
}

// FormRequest builds a urlencoded POST request
func FormRequest(path string, form url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// FileField is a file part for MultipartRequest
type FileField struct {
	Field    string
	Filename string
	Data     []byte
}

// MultipartRequest builds a multipart/form-data POST request
func MultipartRequest(t *testing.T, path string, fields map[string]string, file *FileField) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
	}
	if file != nil {
		part, err := mw.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			t.Fatalf("Failed to create file part: %v", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			t.Fatalf("Failed to write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// PNG returns an encoded w x h PNG image
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertRedirect checks for a 303 to the expected location
func AssertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	AssertStatus(t, w, http.StatusSeeOther)
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Expected Location '%s', got '%s'", location, got)
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
