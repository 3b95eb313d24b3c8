package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
)

// SQLiteStore implements LocalStore on top of the kv table.
//
// Save, DeleteOlderThan and ClearAll are full read-modify-write cycles over
// the serialized collection; mu serializes them so overlapping writers cannot
// lose updates.
type SQLiteStore struct {
	kv     *kvRepository
	logger logging.Logger

	mu sync.Mutex
}

// NewSQLiteStore returns a store bound to the given database handle. The
// handle is expected to have been opened through Open so the kv schema exists.
func NewSQLiteStore(db *sql.DB, logger logging.Logger) *SQLiteStore {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SQLiteStore{kv: newKVRepository(db), logger: logger}
}

func (s *SQLiteStore) loadEntries(ctx context.Context) ([]models.Entry, error) {
	raw, err := s.kv.Get(ctx, entriesKey)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entries []models.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("corrupt entry collection: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) storeEntries(ctx context.Context, entries []models.Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to serialize entries: %w", err)
	}
	return s.kv.Set(ctx, entriesKey, raw)
}

// Save rewrites the whole collection with entry replacing any existing record
// for the same date. Errors are returned to the caller: the entry is not
// considered saved unless Save succeeds.
func (s *SQLiteStore) Save(ctx context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadEntries(ctx)
	if err != nil {
		s.logger.Error(ctx, "error loading entries", "err", err)
		return err
	}

	replaced := false
	for i := range entries {
		if entries[i].Date == entry.Date {
			entries[i] = *entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, *entry)
	}

	if err := s.storeEntries(ctx, entries); err != nil {
		s.logger.Error(ctx, "error saving entry", "date", entry.Date, "err", err)
		return err
	}
	return nil
}

// GetByDate returns the entry for date, or nil when absent or unreadable.
func (s *SQLiteStore) GetByDate(ctx context.Context, date string) (*models.Entry, error) {
	entries, err := s.loadEntries(ctx)
	if err != nil {
		s.logger.Warn(ctx, "error reading entry, returning none", "date", date, "err", err)
		return nil, nil
	}
	for i := range entries {
		if entries[i].Date == date {
			e := entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

// GetAll returns every entry; on read failure it logs and returns an empty
// slice, favoring availability.
func (s *SQLiteStore) GetAll(ctx context.Context) ([]models.Entry, error) {
	entries, err := s.loadEntries(ctx)
	if err != nil {
		s.logger.Warn(ctx, "error reading entries, returning empty set", "err", err)
		return []models.Entry{}, nil
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	return entries, nil
}

// Search performs a case-insensitive substring match against entry content.
func (s *SQLiteStore) Search(ctx context.Context, text string) ([]models.Entry, error) {
	entries, err := s.GetAll(ctx)
	if err != nil {
		return []models.Entry{}, nil
	}

	needle := strings.ToLower(text)
	result := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Content), needle) {
			result = append(result, e)
		}
	}
	return result, nil
}

// DeleteOlderThan removes entries dated strictly before the cutoff calendar
// day. The day exactly days ago is kept, the same boundary the remote prune
// applies, so the two stores stay in agreement after a prune.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, days int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadEntries(ctx)
	if err != nil {
		s.logger.Error(ctx, "error loading entries for retention", "err", err)
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -days).Format(common.DateFormat)
	kept := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if _, err := time.Parse(common.DateFormat, e.Date); err != nil {
			// unparseable date, keep the record rather than silently drop it
			kept = append(kept, e)
			continue
		}
		if e.Date >= cutoff {
			kept = append(kept, e)
		}
	}

	return s.storeEntries(ctx, kept)
}

// SetCurrentDate persists the date cursor in RFC 3339 form.
func (s *SQLiteStore) SetCurrentDate(ctx context.Context, t time.Time) error {
	return s.kv.Set(ctx, cursorKey, []byte(t.Format(time.RFC3339)))
}

// GetCurrentDate returns the cursor, or now when unset or unreadable.
func (s *SQLiteStore) GetCurrentDate(ctx context.Context) (time.Time, error) {
	raw, err := s.kv.Get(ctx, cursorKey)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn(ctx, "error reading date cursor, defaulting to now", "err", err)
		}
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		s.logger.Warn(ctx, "corrupt date cursor, defaulting to now", "err", err)
		return time.Now(), nil
	}
	return t, nil
}

// ClearAll wipes entries and the cursor alike.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Clear(ctx); err != nil {
		s.logger.Error(ctx, "error clearing local data", "err", err)
		return err
	}
	return nil
}

var _ LocalStore = (*SQLiteStore)(nil)
