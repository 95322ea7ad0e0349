// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/costume-contest/db"
	"github.com/danielhkuo/costume-contest/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	conn, err := db.Open(ctx, db.SQLite, filepath.Join(t.TempDir(), "contest.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(ctx, conn, db.SQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return New(conn, db.SQLite)
}

func mustCategory(t *testing.T, s *Store, name string) models.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), name)
	if err != nil {
		t.Fatalf("Failed to create category %q: %v", name, err)
	}
	return c
}

func mustEntry(t *testing.T, s *Store, name string, categoryID int64, photo *string) models.Entry {
	t.Helper()
	e, err := s.CreateEntry(context.Background(), models.NewEntry{
		DisplayName: name,
		Costume:     name + "'s costume",
		CategoryID:  categoryID,
		Photo:       photo,
	})
	if err != nil {
		t.Fatalf("Failed to create entry %q: %v", name, err)
	}
	return e
}

func openVoting(t *testing.T, s *Store) {
	t.Helper()
	if err := s.SetVotingEnabled(context.Background(), true); err != nil {
		t.Fatalf("Failed to enable voting: %v", err)
	}
}

func isValidation(err error) bool {
	var verr *models.ValidationError
	return errors.As(err, &verr)
}

func TestCreateCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		wantErr func(error) bool
	}{
		{"valid", "Scary", nil},
		{"trimmed", "  Funny  ", nil},
		{"empty", "   ", isValidation},
		{"too long", strings.Repeat("x", models.MaxCategoryNameLen+1), isValidation},
		{"duplicate", "Scary", func(err error) bool { return errors.Is(err, models.ErrConflict) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := s.CreateCategory(ctx, tt.input)
			if tt.wantErr != nil {
				if err == nil || !tt.wantErr(err) {
					t.Fatalf("CreateCategory(%q) error = %v", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateCategory(%q) error = %v", tt.input, err)
			}
			if c.ID == 0 || !c.Enabled || c.Name != strings.TrimSpace(tt.input) {
				t.Errorf("unexpected category %+v", c)
			}
		})
	}
}

func TestRenameCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	scary := mustCategory(t, s, "Scary")
	mustCategory(t, s, "Funny")

	if err := s.RenameCategory(ctx, scary.ID, "Scariest"); err != nil {
		t.Fatalf("RenameCategory() error = %v", err)
	}
	got, _ := s.GetCategory(ctx, scary.ID)
	if got.Name != "Scariest" {
		t.Errorf("Expected renamed category, got %q", got.Name)
	}

	if err := s.RenameCategory(ctx, scary.ID, "Funny"); !errors.Is(err, models.ErrConflict) {
		t.Errorf("Expected ErrConflict renaming to existing name, got %v", err)
	}
	if err := s.RenameCategory(ctx, scary.ID, ""); !isValidation(err) {
		t.Errorf("Expected ValidationError for empty name, got %v", err)
	}
	if err := s.RenameCategory(ctx, 999, "Ghostly"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing category, got %v", err)
	}
	// Renaming to its own name is not a conflict
	if err := s.RenameCategory(ctx, scary.ID, "Scariest"); err != nil {
		t.Errorf("Renaming to same name should succeed, got %v", err)
	}
}

func TestSetCategoryEnabled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustCategory(t, s, "A")
	mustCategory(t, s, "B")

	if err := s.SetCategoryEnabled(ctx, a.ID, false); err != nil {
		t.Fatalf("SetCategoryEnabled() error = %v", err)
	}

	all, _ := s.ListCategories(ctx, false)
	enabled, _ := s.ListCategories(ctx, true)
	if len(all) != 2 || len(enabled) != 1 || enabled[0].Name != "B" {
		t.Errorf("unexpected listings: all=%v enabled=%v", all, enabled)
	}

	if err := s.SetCategoryEnabled(ctx, 999, true); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	empty := mustCategory(t, s, "Empty")
	used := mustCategory(t, s, "Used")
	mustEntry(t, s, "Ada", used.ID, nil)

	if err := s.DeleteCategory(ctx, empty.ID); err != nil {
		t.Fatalf("DeleteCategory(empty) error = %v", err)
	}
	if err := s.DeleteCategory(ctx, used.ID); !errors.Is(err, models.ErrConflict) {
		t.Errorf("Expected ErrConflict deleting category with entries, got %v", err)
	}
	if err := s.DeleteCategory(ctx, empty.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for deleted category, got %v", err)
	}

	cats, _ := s.ListCategories(ctx, false)
	if len(cats) != 1 || cats[0].ID != used.ID {
		t.Errorf("unexpected categories after delete: %v", cats)
	}
}

func TestCreateEntry_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	scary := mustCategory(t, s, "Scary")
	photo := "abc.png"

	created, err := s.CreateEntry(ctx, models.NewEntry{
		DisplayName: "  Ada ",
		Costume:     "Ghost",
		CategoryID:  scary.ID,
		Photo:       &photo,
	})
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}

	entries, err := s.ListEntries(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.ID != created.ID || got.DisplayName != "Ada" || got.Costume != "Ghost" ||
		got.CategoryID != scary.ID || got.CategoryName != "Scary" {
		t.Errorf("unexpected entry %+v", got)
	}
	if got.Photo == nil || *got.Photo != photo {
		t.Errorf("Expected photo %q, got %v", photo, got.Photo)
	}
	if got.CreatedAt.IsZero() {
		t.Error("Expected created timestamp")
	}

	byID, err := s.GetEntry(ctx, created.ID)
	if err != nil || byID.DisplayName != "Ada" {
		t.Errorf("GetEntry() = %+v, %v", byID, err)
	}
}

func TestCreateEntry_Rejections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	open := mustCategory(t, s, "Open")
	closed := mustCategory(t, s, "Closed")
	s.SetCategoryEnabled(ctx, closed.ID, false)

	tests := []struct {
		name      string
		entry     models.NewEntry
		wantField string
		wantErr   error
	}{
		{"missing name", models.NewEntry{Costume: "Ghost", CategoryID: open.ID}, "display_name", nil},
		{"missing costume", models.NewEntry{DisplayName: "Ada", CategoryID: open.ID}, "costume", nil},
		{"missing category", models.NewEntry{DisplayName: "Ada", Costume: "Ghost"}, "category", nil},
		{"disabled category", models.NewEntry{DisplayName: "Ada", Costume: "Ghost", CategoryID: closed.ID}, "category", nil},
		{"unknown category", models.NewEntry{DisplayName: "Ada", Costume: "Ghost", CategoryID: 999}, "", models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateEntry(ctx, tt.entry)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tt.wantField]; !ok {
				t.Errorf("Expected error on field %q, got %v", tt.wantField, verr.Fields)
			}
		})
	}

	if entries, _ := s.ListEntries(ctx, 0); len(entries) != 0 {
		t.Errorf("No entry should be persisted, got %d", len(entries))
	}
}

func TestListEntries_ByCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustCategory(t, s, "A")
	b := mustCategory(t, s, "B")
	mustEntry(t, s, "One", a.ID, nil)
	mustEntry(t, s, "Two", b.ID, nil)
	mustEntry(t, s, "Three", a.ID, nil)

	inA, err := s.ListEntries(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(inA) != 2 {
		t.Fatalf("Expected 2 entries in A, got %d", len(inA))
	}
	// Newest first
	if inA[0].DisplayName != "Three" {
		t.Errorf("Expected newest entry first, got %q", inA[0].DisplayName)
	}
}

func TestDeleteEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := mustCategory(t, s, "Scary")
	photo := "ghost.jpg"
	withPhoto := mustEntry(t, s, "Ada", c.ID, &photo)
	noPhoto := mustEntry(t, s, "Bob", c.ID, nil)
	openVoting(t, s)
	if _, err := s.CastVote(ctx, "v1", withPhoto.ID); err != nil {
		t.Fatal(err)
	}

	got, err := s.DeleteEntry(ctx, withPhoto.ID)
	if err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	if got == nil || *got != photo {
		t.Errorf("Expected photo %q to be returned, got %v", photo, got)
	}

	_, entries, votes, _ := s.Counts(ctx)
	if entries != 1 || votes != 0 {
		t.Errorf("Expected 1 entry and 0 votes after delete, got %d/%d", entries, votes)
	}

	got, err = s.DeleteEntry(ctx, noPhoto.ID)
	if err != nil || got != nil {
		t.Errorf("DeleteEntry(no photo) = %v, %v", got, err)
	}

	if _, err := s.DeleteEntry(ctx, withPhoto.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting missing entry, got %v", err)
	}
	cats, entries, votes, _ := s.Counts(ctx)
	if cats != 1 || entries != 0 || votes != 0 {
		t.Errorf("Store changed by failed delete: %d/%d/%d", cats, entries, votes)
	}
}

func TestCastVote_VotingClosed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := mustCategory(t, s, "Scary")
	e := mustEntry(t, s, "Ada", c.ID, nil)

	_, err := s.CastVote(ctx, "v1", e.ID)
	if !errors.Is(err, models.ErrVotingClosed) {
		t.Fatalf("Expected ErrVotingClosed, got %v", err)
	}

	if _, _, votes, _ := s.Counts(ctx); votes != 0 {
		t.Errorf("Expected no votes, got %d", votes)
	}
}

func TestCastVote_OnePerCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	scary := mustCategory(t, s, "Scary")
	funny := mustCategory(t, s, "Funny")
	ada := mustEntry(t, s, "Ada", scary.ID, nil)
	bob := mustEntry(t, s, "Bob", scary.ID, nil)
	cat := mustEntry(t, s, "Cat", funny.ID, nil)
	openVoting(t, s)

	v, err := s.CastVote(ctx, "v1", ada.ID)
	if err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
	if v.ID == 0 || v.CategoryID != scary.ID {
		t.Errorf("unexpected vote %+v", v)
	}

	// Same voter, same category, different entry
	if _, err := s.CastVote(ctx, "v1", bob.ID); !errors.Is(err, models.ErrAlreadyVoted) {
		t.Errorf("Expected ErrAlreadyVoted, got %v", err)
	}
	// Same voter, another category
	if _, err := s.CastVote(ctx, "v1", cat.ID); err != nil {
		t.Errorf("Vote in another category should succeed, got %v", err)
	}
	// Another voter, same category
	if _, err := s.CastVote(ctx, "v2", bob.ID); err != nil {
		t.Errorf("Another voter should succeed, got %v", err)
	}
	if _, err := s.CastVote(ctx, "v3", 999); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing entry, got %v", err)
	}
	if _, err := s.CastVote(ctx, "", ada.ID); !isValidation(err) {
		t.Errorf("Expected ValidationError for missing voter, got %v", err)
	}

	voted, err := s.VotedCategories(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if !voted[scary.ID] || !voted[funny.ID] || len(voted) != 2 {
		t.Errorf("unexpected voted categories %v", voted)
	}

	tally, _ := s.Tally(ctx)
	if tally[ada.ID] != 1 || tally[bob.ID] != 1 || tally[cat.ID] != 1 {
		t.Errorf("unexpected tally %v", tally)
	}
}

func TestCastBallot_AllOrNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	scary := mustCategory(t, s, "Scary")
	funny := mustCategory(t, s, "Funny")
	ada := mustEntry(t, s, "Ada", scary.ID, nil)
	bob := mustEntry(t, s, "Bob", scary.ID, nil)
	cat := mustEntry(t, s, "Cat", funny.ID, nil)
	openVoting(t, s)

	if _, err := s.CastVote(ctx, "v1", cat.ID); err != nil {
		t.Fatal(err)
	}

	// Scary is new for v1 but Funny is a repeat: nothing is written
	if _, err := s.CastBallot(ctx, "v1", []int64{ada.ID, cat.ID}); !errors.Is(err, models.ErrAlreadyVoted) {
		t.Fatalf("Expected ErrAlreadyVoted, got %v", err)
	}
	if _, _, votes, _ := s.Counts(ctx); votes != 1 {
		t.Errorf("Expected ballot to be rolled back, got %d votes", votes)
	}

	if _, err := s.CastBallot(ctx, "v2", []int64{ada.ID, bob.ID}); !isValidation(err) {
		t.Errorf("Expected ValidationError for two picks in one category, got %v", err)
	}
	if _, err := s.CastBallot(ctx, "v2", nil); !isValidation(err) {
		t.Errorf("Expected ValidationError for empty ballot, got %v", err)
	}

	s.SetCategoryEnabled(ctx, scary.ID, false)
	if _, err := s.CastBallot(ctx, "v2", []int64{ada.ID}); !isValidation(err) {
		t.Errorf("Expected ValidationError for disabled category, got %v", err)
	}

	votes, err := s.CastBallot(ctx, "v2", []int64{cat.ID})
	if err != nil || len(votes) != 1 {
		t.Errorf("CastBallot() = %v, %v", votes, err)
	}
}

func TestCastVote_ConcurrentDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := mustCategory(t, s, "Scary")
	e := mustEntry(t, s, "Ada", c.ID, nil)
	openVoting(t, s)

	const attempts = 10
	var success, already atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CastVote(ctx, "same-voter", e.ID)
			switch {
			case err == nil:
				success.Add(1)
			case errors.Is(err, models.ErrAlreadyVoted):
				already.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if success.Load() != 1 {
		t.Errorf("Expected exactly 1 successful vote, got %d", success.Load())
	}
	if already.Load() != attempts-1 {
		t.Errorf("Expected %d duplicate rejections, got %d", attempts-1, already.Load())
	}
	if _, _, votes, _ := s.Counts(ctx); votes != 1 {
		t.Errorf("Expected 1 persisted vote, got %d", votes)
	}
}

func TestToggleVoting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if open, _ := s.VotingEnabled(ctx); open {
		t.Fatal("Voting should start closed")
	}

	for i, want := range []bool{true, false, true} {
		got, err := s.ToggleVoting(ctx)
		if err != nil {
			t.Fatalf("ToggleVoting() error = %v", err)
		}
		if got != want {
			t.Errorf("toggle %d: got %v, want %v", i+1, got, want)
		}
		if current, _ := s.VotingEnabled(ctx); current != want {
			t.Errorf("toggle %d: VotingEnabled() = %v, want %v", i+1, current, want)
		}
	}
}

func TestPurge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := mustCategory(t, s, "Scary")
	e := mustEntry(t, s, "Ada", c.ID, nil)
	openVoting(t, s)
	s.CastVote(ctx, "v1", e.ID)

	if err := s.Purge(ctx); err != nil {
		t.Fatalf("Purge() error = %v", err)
	}

	cats, entries, votes, err := s.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cats != 0 || entries != 0 || votes != 0 {
		t.Errorf("Expected empty store, got %d/%d/%d", cats, entries, votes)
	}
	if open, _ := s.VotingEnabled(ctx); open {
		t.Error("Expected voting closed after purge")
	}

	// Schema intact: new records can be written
	mustCategory(t, s, "Scary")
}

func TestResults_Ordering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	scary := mustCategory(t, s, "Scary")
	funny := mustCategory(t, s, "Funny")
	mustCategory(t, s, "Empty")
	zed := mustEntry(t, s, "Zed", scary.ID, nil)
	amy := mustEntry(t, s, "Amy", scary.ID, nil)
	bea := mustEntry(t, s, "Bea", scary.ID, nil)
	clown := mustEntry(t, s, "Clown", funny.ID, nil)
	openVoting(t, s)

	for i, id := range []int64{zed.ID, zed.ID, amy.ID, bea.ID, clown.ID} {
		if _, err := s.CastVote(ctx, fmt.Sprintf("voter-%d", i), id); err != nil {
			t.Fatal(err)
		}
	}

	results, err := s.Results(ctx)
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Expected 3 categories, got %d", len(results))
	}
	names := []string{results[0].Name, results[1].Name, results[2].Name}
	if strings.Join(names, ",") != "Empty,Funny,Scary" {
		t.Errorf("Expected categories by name, got %v", names)
	}
	if len(results[0].Entries) != 0 {
		t.Errorf("Expected empty category to have no entries, got %v", results[0].Entries)
	}

	scaryResults := results[2].Entries
	var order []string
	for _, e := range scaryResults {
		order = append(order, fmt.Sprintf("%s:%d", e.DisplayName, e.Votes))
	}
	// Votes descending, ties by name
	if strings.Join(order, ",") != "Zed:2,Amy:1,Bea:1" {
		t.Errorf("unexpected ordering %v", order)
	}
}

func TestExampleScenario(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	scary := mustCategory(t, s, "Scary")
	ada, err := s.CreateEntry(ctx, models.NewEntry{DisplayName: "Ada", Costume: "Ghost", CategoryID: scary.ID})
	if err != nil {
		t.Fatal(err)
	}
	openVoting(t, s)

	if _, err := s.CastVote(ctx, "v1", ada.ID); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if _, err := s.CastVote(ctx, "v1", ada.ID); !errors.Is(err, models.ErrAlreadyVoted) {
		t.Fatalf("Expected ErrAlreadyVoted on re-vote, got %v", err)
	}

	results, _ := s.Results(ctx)
	if len(results) != 1 || results[0].Name != "Scary" || len(results[0].Entries) != 1 {
		t.Fatalf("unexpected results %+v", results)
	}
	if got := results[0].Entries[0]; got.DisplayName != "Ada" || got.Votes != 1 {
		t.Errorf("Expected Ada: 1, got %s: %d", got.DisplayName, got.Votes)
	}
}

func TestClassify(t *testing.T) {
	verr := models.NewValidationError("name", "bad")
	if got := classify("op", verr); got != verr {
		t.Errorf("ValidationError should pass through, got %v", got)
	}

	wrapped := fmt.Errorf("entry 1: %w", models.ErrNotFound)
	if got := classify("op", wrapped); got != wrapped {
		t.Errorf("sentinel errors should pass through, got %v", got)
	}

	var serr *models.StorageError
	if got := classify("op", errors.New("disk on fire")); !errors.As(got, &serr) || serr.Op != "op" {
		t.Errorf("unknown errors should become StorageError, got %v", got)
	}

	if classify("op", nil) != nil {
		t.Error("nil should stay nil")
	}
}
