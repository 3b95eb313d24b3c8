// Package models defines client-side data models for the Daybook journal.
package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/daybook/internal/common"
)

// Mood is an ordinal rating from 1 ("very sad") to 5 ("very happy").
type Mood int

const (
	MoodVerySad   Mood = 1
	MoodSad       Mood = 2
	MoodNeutral   Mood = 3
	MoodHappy     Mood = 4
	MoodVeryHappy Mood = 5
)

// Valid reports whether m is within the 1..5 scale.
func (m Mood) Valid() bool {
	return m >= MoodVerySad && m <= MoodVeryHappy
}

// Entry is one journal record per calendar day. Date in YYYY-MM-DD form is
// the unique key across both local and remote stores.
type Entry struct {
	// ID is an opaque stable identifier, generated at first save.
	ID string `json:"id"`

	// Date is the calendar day key, "YYYY-MM-DD".
	Date string `json:"date"`

	// Content is free text; may be empty.
	Content string `json:"content"`

	// Mood is optional; nil means no mood recorded.
	Mood *Mood `json:"mood,omitempty"`

	// Images holds opaque local resource references, in display order.
	Images []string `json:"images"`

	// CreatedAt is set once, on first save.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is set on every save.
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsEmpty reports whether the entry is logically deleted: no mood and content
// that is blank after trimming. Empty entries must not exist remotely; the
// local store may keep them.
func (e *Entry) IsEmpty() bool {
	return strings.TrimSpace(e.Content) == "" && e.Mood == nil
}

// Validate checks the date key and mood range.
func (e *Entry) Validate() error {
	if _, err := time.Parse(common.DateFormat, e.Date); err != nil {
		return common.ErrInvalidDate
	}
	if e.Mood != nil && !e.Mood.Valid() {
		return common.ErrInvalidMood
	}
	return nil
}

// MoodPtr is a convenience for building optional moods in literals and tests.
func MoodPtr(m Mood) *Mood { return &m }
