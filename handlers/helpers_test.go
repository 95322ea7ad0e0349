// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/danielhkuo/costume-contest/cliparse"
	"github.com/danielhkuo/costume-contest/store"
	"github.com/danielhkuo/costume-contest/testutil"
	"github.com/danielhkuo/costume-contest/uploads"
)

type testEnv struct {
	cfg     cliparse.Config
	st      *store.Store
	up      *uploads.Store
	entries *EntryHandler
	voting  *VotingHandler
	results *ResultsHandler
	admin   *AdminHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testutil.GetTestConfig()
	st := testutil.SetupTestStore(t)
	up := testutil.SetupTestUploads(t, cfg)

	return &testEnv{
		cfg:     cfg,
		st:      st,
		up:      up,
		entries: NewEntryHandler(st, up, cfg),
		voting:  NewVotingHandler(st, cfg),
		results: NewResultsHandler(st, cfg),
		admin:   NewAdminHandler(st, up, cfg, testutil.PasswordChecker(t, cfg)),
	}
}

func (e *testEnv) counts(t *testing.T) (categories, entries, votes int) {
	t.Helper()

	categories, entries, votes, err := e.st.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	return categories, entries, votes
}

func (e *testEnv) uploadCount(t *testing.T) int {
	t.Helper()

	items, err := os.ReadDir(e.up.Dir())
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	return len(items)
}

// findCookie returns the named cookie set on the response, if any
func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
