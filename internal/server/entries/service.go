// Package entries implements the server-side journal document operations.
// Every operation is scoped to the authenticated user's id; a user can never
// see or touch another user's days.
package entries

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/repomanager"
)

type Service struct {
	db      *sql.DB
	manager repomanager.RepositoryManager
	now     func() time.Time
}

func NewService(db *sql.DB, manager repomanager.RepositoryManager) *Service {
	return &Service{db: db, manager: manager, now: time.Now}
}

func validDate(date string) bool {
	_, err := time.Parse(common.DateFormat, date)
	return err == nil
}

// Save overwrites the user's document for one calendar day (last writer
// wins). The date inside the entry is authoritative for placement.
func (s *Service) Save(ctx context.Context, entry *models.Entry) error {
	if !validDate(entry.Date) {
		return common.ErrInvalidDate
	}
	if entry.Mood != nil && (*entry.Mood < 1 || *entry.Mood > 5) {
		return common.ErrInvalidMood
	}
	if entry.Images == nil {
		entry.Images = []string{}
	}

	now := s.now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}

	return s.manager.Entries(s.db).Upsert(ctx, entry)
}

// Get returns one day's document, or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID, date string) (*models.Entry, error) {
	if !validDate(date) {
		return nil, common.ErrInvalidDate
	}
	return s.manager.Entries(s.db).Get(ctx, userID, date)
}

// List returns every document the user owns, newest day first.
func (s *Service) List(ctx context.Context, userID string) ([]*models.Entry, error) {
	return s.manager.Entries(s.db).List(ctx, userID)
}

// Delete removes one day's document, or returns ErrNotFound.
func (s *Service) Delete(ctx context.Context, userID, date string) error {
	if !validDate(date) {
		return common.ErrInvalidDate
	}
	return s.manager.Entries(s.db).Delete(ctx, userID, date)
}

// DeleteOlderThan removes documents dated strictly before today minus the
// given number of days.
func (s *Service) DeleteOlderThan(ctx context.Context, userID string, days int) error {
	cutoff := s.now().AddDate(0, 0, -days).Format(common.DateFormat)
	return s.manager.Entries(s.db).DeleteOlderThan(ctx, userID, cutoff)
}

// Clear removes every document the user owns.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.manager.Entries(s.db).Clear(ctx, userID)
}
