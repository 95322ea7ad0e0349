// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/danielhkuo/costume-contest/auth"
	"github.com/danielhkuo/costume-contest/cliparse"
	"github.com/danielhkuo/costume-contest/middleware"
	"github.com/danielhkuo/costume-contest/models"
	"github.com/danielhkuo/costume-contest/store"
)

// choicePrefix prefixes ballot form fields: choice_<categoryID>=<entryID>
const choicePrefix = "choice_"

type VotingHandler struct {
	st  *store.Store
	cfg cliparse.Config
}

func NewVotingHandler(st *store.Store, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{st: st, cfg: cfg}
}

// voterID returns the identity from the signed voter cookie, minting a new
// one when the cookie is missing or invalid.
func (h *VotingHandler) voterID(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(auth.VoterCookieName); err == nil {
		if id, err := auth.VoterID(cookie.Value, h.cfg.SessionSecret); err == nil {
			return id, nil
		}
	}

	token, id, err := auth.IssueVoterToken(h.cfg.SessionSecret)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, auth.VoterCookie(token, h.cfg.CookieSecure))
	return id, nil
}

type ballotGroup struct {
	Category models.Category
	Entries  []models.Entry
	Voted    bool
}

type ballotData struct {
	VotingEnabled bool
	Groups        []ballotGroup
	Errors        map[string]string
	Selected      map[int64]int64
	Remaining     int
}

// BallotForm handles GET /vote
func (h *VotingHandler) BallotForm(w http.ResponseWriter, r *http.Request) {
	voter, err := h.voterID(w, r)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}
	h.renderBallot(w, r, http.StatusOK, voter, nil, nil)
}

func (h *VotingHandler) renderBallot(w http.ResponseWriter, r *http.Request, status int, voter string, selected map[int64]int64, errs map[string]string) {
	ctx := r.Context()

	enabled, err := h.st.VotingEnabled(ctx)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}
	categories, err := h.st.ListCategories(ctx, true)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}
	entries, err := h.st.ListEntries(ctx, 0)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}
	voted, err := h.st.VotedCategories(ctx, voter)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}

	byCategory := make(map[int64][]models.Entry)
	for _, e := range entries {
		byCategory[e.CategoryID] = append(byCategory[e.CategoryID], e)
	}

	data := ballotData{
		VotingEnabled: enabled,
		Errors:        errs,
		Selected:      selected,
	}
	for _, c := range categories {
		g := ballotGroup{Category: c, Entries: byCategory[c.ID], Voted: voted[c.ID]}
		if !g.Voted && len(g.Entries) > 0 {
			data.Remaining++
		}
		data.Groups = append(data.Groups, g)
	}

	render(w, status, "vote.html", newPage(w, r, h.cfg, "Vote", data))
}

// CastBallot handles POST /vote
func (h *VotingHandler) CastBallot(w http.ResponseWriter, r *http.Request) {
	voter, err := h.voterID(w, r)
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}

	// A closed contest rejects every ballot, well-formed or not.
	enabled, err := h.st.VotingEnabled(r.Context())
	if err != nil {
		fail(w, r, h.cfg, err)
		return
	}
	if !enabled {
		fail(w, r, h.cfg, models.ErrVotingClosed)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderBallot(w, r, http.StatusBadRequest, voter, nil, map[string]string{
			"ballot": "Could not read the ballot.",
		})
		return
	}

	selected, ok := parseChoices(r)
	if !ok {
		h.renderBallot(w, r, http.StatusBadRequest, voter, nil, map[string]string{
			"ballot": "The ballot contained an invalid choice.",
		})
		return
	}
	if len(selected) == 0 {
		h.renderBallot(w, r, http.StatusBadRequest, voter, nil, map[string]string{
			"ballot": "Please pick at least one costume.",
		})
		return
	}

	categoryIDs := make([]int64, 0, len(selected))
	for id := range selected {
		categoryIDs = append(categoryIDs, id)
	}
	sort.Slice(categoryIDs, func(i, j int) bool { return categoryIDs[i] < categoryIDs[j] })

	entryIDs := make([]int64, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		entryIDs = append(entryIDs, selected[id])
	}

	votes, err := h.st.CastBallot(r.Context(), voter, entryIDs)
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			h.renderBallot(w, r, http.StatusBadRequest, voter, selected, errs)
			return
		}
		fail(w, r, h.cfg, err)
		return
	}

	slog.Info("ballot cast", "votes", len(votes), "remote", middleware.GetClientIP(r))

	msg := "Thanks for voting!"
	if len(votes) > 1 {
		msg = "Thanks! Your " + strconv.Itoa(len(votes)) + " votes have been recorded."
	}
	middleware.SetFlash(w, "success", msg)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// parseChoices reads choice_<categoryID>=<entryID> fields. Empty values are
// skipped; anything unparsable makes the whole ballot invalid.
func parseChoices(r *http.Request) (map[int64]int64, bool) {
	selected := make(map[int64]int64)
	for key, vals := range r.PostForm {
		if !strings.HasPrefix(key, choicePrefix) || len(vals) == 0 || vals[0] == "" {
			continue
		}
		categoryID, err := strconv.ParseInt(strings.TrimPrefix(key, choicePrefix), 10, 64)
		if err != nil || categoryID <= 0 {
			return nil, false
		}
		entryID, err := strconv.ParseInt(vals[0], 10, 64)
		if err != nil || entryID <= 0 {
			return nil, false
		}
		selected[categoryID] = entryID
	}
	return selected, true
}
