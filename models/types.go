// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Setting keys stored in the settings table
const (
	SettingVotingEnabled = "voting_enabled"
	SettingSeeded        = "seeded"
)

// Field limits
const (
	MaxCategoryNameLen = 80
	MaxDisplayNameLen  = 80
	MaxCostumeLen      = 500
)

// DefaultCategories are seeded into a brand-new database.
var DefaultCategories = []string{
	"Most Realistic Costume",
	"Funniest Costume",
	"Scariest Costume",
	"Best Homemade Costume",
	"Least Effort Costume",
	"Classic Halloween Costume",
	"Cutest Costume",
}

// Domain types

type Category struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type Entry struct {
	ID           int64     `json:"id"`
	DisplayName  string    `json:"display_name"`
	Costume      string    `json:"costume"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	Photo        *string   `json:"photo,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Vote struct {
	ID         int64     `json:"id"`
	EntryID    int64     `json:"entry_id"`
	CategoryID int64     `json:"category_id"`
	VoterToken string    `json:"-"` // Never expose in JSON
	CreatedAt  time.Time `json:"created_at"`
}

// NewEntry is a validated entry submission ready to be stored.
type NewEntry struct {
	DisplayName string
	Costume     string
	CategoryID  int64
	Photo       *string
}

// Result types

type EntryTally struct {
	EntryID     int64   `json:"entry_id"`
	DisplayName string  `json:"display_name"`
	Costume     string  `json:"costume"`
	Photo       *string `json:"photo,omitempty"`
	Votes       int     `json:"votes"`
}

type CategoryResults struct {
	CategoryID int64        `json:"category_id"`
	Name       string       `json:"name"`
	Enabled    bool         `json:"enabled"`
	Entries    []EntryTally `json:"entries"`
}

type ResultsResponse struct {
	VotingEnabled bool              `json:"voting_enabled"`
	TotalVotes    int               `json:"total_votes"`
	Categories    []CategoryResults `json:"categories"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
