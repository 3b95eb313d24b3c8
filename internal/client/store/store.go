// Package store implements durable local persistence for journal entries and
// the current-date cursor. All entries live as a single serialized collection
// under one fixed key in a SQLite-backed key-value table; the cursor lives
// under a second key.
package store

import (
	"context"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
)

// Fixed storage keys.
const (
	entriesKey = "daily_notes"
	cursorKey  = "current_date"
)

// LocalStore is the durability guarantee for the sync layer: a write is
// considered saved once the local store accepts it.
//
// Failure semantics: Save and ClearAll surface I/O errors to the caller;
// read operations log and degrade to an empty or default result instead.
type LocalStore interface {
	// Save inserts or replaces the entry matching entry.Date, rewriting the
	// whole collection.
	Save(ctx context.Context, entry *models.Entry) error

	// GetByDate returns the entry for the given day, or nil if absent.
	GetByDate(ctx context.Context, date string) (*models.Entry, error)

	// GetAll returns every stored entry; order is insignificant.
	GetAll(ctx context.Context) ([]models.Entry, error)

	// Search returns entries whose content contains text, case-insensitively.
	Search(ctx context.Context, text string) ([]models.Entry, error)

	// DeleteOlderThan keeps only entries dated within the last days days.
	DeleteOlderThan(ctx context.Context, days int) error

	// SetCurrentDate persists the editor's date cursor.
	SetCurrentDate(ctx context.Context, t time.Time) error

	// GetCurrentDate returns the cursor, defaulting to now when unset.
	GetCurrentDate(ctx context.Context) (time.Time, error)

	// ClearAll wipes everything, including the cursor.
	ClearAll(ctx context.Context) error
}
