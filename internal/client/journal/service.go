// Package journal provides the day-level operations the editor, calendar and
// settings screens work in terms of: "today's note", the current-date cursor,
// mood updates, and image attachments.
package journal

import (
	"context"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/google/uuid"
)

// Storage is the always-available entry API the service builds on,
// implemented by the sync coordinator.
type Storage interface {
	Save(ctx context.Context, entry *models.Entry) error
	GetByDate(ctx context.Context, date string) (*models.Entry, error)
	GetAll(ctx context.Context) ([]models.Entry, error)
	Search(ctx context.Context, text string) ([]models.Entry, error)
	DeleteOlderThan(ctx context.Context, days int) error
	SetCurrentDate(ctx context.Context, t time.Time) error
	GetCurrentDate(ctx context.Context) (time.Time, error)
	ClearAll(ctx context.Context) error
}

type Service struct {
	storage Storage
	now     func() time.Time
}

func NewService(storage Storage) *Service {
	return &Service{storage: storage, now: time.Now}
}

// TodayDate returns today's calendar key.
func (s *Service) TodayDate() string {
	return s.now().Format(common.DateFormat)
}

// CurrentDate returns the calendar key the editor is pointed at, which is
// today unless the user navigated elsewhere from the calendar.
func (s *Service) CurrentDate(ctx context.Context) (string, error) {
	t, err := s.storage.GetCurrentDate(ctx)
	if err != nil {
		return "", err
	}
	return t.Format(common.DateFormat), nil
}

// SetCurrentDate moves the editor cursor to the given calendar day.
func (s *Service) SetCurrentDate(ctx context.Context, date string) error {
	t, err := time.Parse(common.DateFormat, date)
	if err != nil {
		return common.ErrInvalidDate
	}
	return s.storage.SetCurrentDate(ctx, t)
}

// CurrentNote returns the entry under the cursor, or nil when the day has no
// entry yet.
func (s *Service) CurrentNote(ctx context.Context) (*models.Entry, error) {
	date, err := s.CurrentDate(ctx)
	if err != nil {
		return nil, err
	}
	return s.storage.GetByDate(ctx, date)
}

// TodayNote returns today's entry, or nil.
func (s *Service) TodayNote(ctx context.Context) (*models.Entry, error) {
	return s.storage.GetByDate(ctx, s.TodayDate())
}

// SaveCurrent writes content, mood and images to the entry under the cursor,
// preserving its identity and creation time when it already exists.
func (s *Service) SaveCurrent(ctx context.Context, content string, mood *models.Mood, images []string) (*models.Entry, error) {
	date, err := s.CurrentDate(ctx)
	if err != nil {
		return nil, err
	}
	return s.saveForDate(ctx, date, content, mood, images)
}

func (s *Service) saveForDate(ctx context.Context, date, content string, mood *models.Mood, images []string) (*models.Entry, error) {
	existing, err := s.storage.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	now := s.now()
	e := &models.Entry{
		Date:      date,
		Content:   content,
		Mood:      mood,
		Images:    images,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if e.Images == nil {
		e.Images = []string{}
	}
	if existing != nil {
		e.ID = existing.ID
		e.CreatedAt = existing.CreatedAt
	} else {
		e.ID = uuid.NewString()
	}

	if err := s.storage.Save(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateTodayMood records a mood for today, creating an otherwise empty entry
// when none exists.
func (s *Service) UpdateTodayMood(ctx context.Context, mood models.Mood) error {
	if !mood.Valid() {
		return common.ErrInvalidMood
	}

	today := s.TodayDate()
	existing, err := s.storage.GetByDate(ctx, today)
	if err != nil {
		return err
	}
	if existing == nil {
		_, err := s.saveForDate(ctx, today, "", &mood, nil)
		return err
	}

	existing.Mood = &mood
	existing.UpdatedAt = s.now()
	return s.storage.Save(ctx, existing)
}

// AddImageToToday attaches an image reference to today's entry. Duplicate
// references are ignored.
func (s *Service) AddImageToToday(ctx context.Context, imageRef string) error {
	today := s.TodayDate()
	existing, err := s.storage.GetByDate(ctx, today)
	if err != nil {
		return err
	}
	if existing == nil {
		_, err := s.saveForDate(ctx, today, "", nil, []string{imageRef})
		return err
	}

	for _, img := range existing.Images {
		if img == imageRef {
			return nil
		}
	}
	existing.Images = append(existing.Images, imageRef)
	existing.UpdatedAt = s.now()
	return s.storage.Save(ctx, existing)
}

// RemoveImageFromToday detaches an image reference from today's entry.
func (s *Service) RemoveImageFromToday(ctx context.Context, imageRef string) error {
	existing, err := s.storage.GetByDate(ctx, s.TodayDate())
	if err != nil || existing == nil {
		return err
	}

	kept := make([]string, 0, len(existing.Images))
	for _, img := range existing.Images {
		if img != imageRef {
			kept = append(kept, img)
		}
	}
	existing.Images = kept
	existing.UpdatedAt = s.now()
	return s.storage.Save(ctx, existing)
}
