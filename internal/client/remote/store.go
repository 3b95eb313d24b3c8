package remote

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/daybook/internal/api"
	"github.com/dmitrijs2005/daybook/internal/client/auth"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
)

// identitySource is the slice of the auth session the store needs.
type identitySource interface {
	Current() *auth.Identity
}

// RemoteStore mirrors the local entry collection into the backend, scoped to
// the resolved identity. It performs no retries: failures propagate to the
// sync coordinator, which decides what to do.
type RemoteStore interface {
	Save(ctx context.Context, entry *models.Entry) error
	GetByDate(ctx context.Context, date string) (*models.Entry, error)
	GetAll(ctx context.Context) ([]models.Entry, error)
	Search(ctx context.Context, text string) ([]models.Entry, error)
	DeleteOlderThan(ctx context.Context, days int) error
	ClearAll(ctx context.Context) error
}

// Store is the HTTP-backed RemoteStore.
type Store struct {
	client  *Client
	session identitySource
}

func NewStore(client *Client, session identitySource) *Store {
	return &Store{client: client, session: session}
}

func (s *Store) requireIdentity() error {
	if s.session.Current() == nil {
		return common.ErrUnauthenticated
	}
	return nil
}

// Save writes the document for entry.Date, or deletes it when the entry is
// logically empty: the remote collection never holds empty placeholders.
func (s *Store) Save(ctx context.Context, entry *models.Entry) error {
	if err := s.requireIdentity(); err != nil {
		return err
	}

	if entry.IsEmpty() {
		err := s.client.deleteEntry(ctx, entry.Date)
		if errors.Is(err, common.ErrNotFound) {
			// nothing remote to remove
			return nil
		}
		return err
	}

	return s.client.putEntry(ctx, toAPI(entry))
}

// GetByDate is a point lookup. Not-found is nil, not an error.
func (s *Store) GetByDate(ctx context.Context, date string) (*models.Entry, error) {
	if err := s.requireIdentity(); err != nil {
		return nil, err
	}

	e, err := s.client.getEntry(ctx, date)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return fromAPI(e), nil
}

// GetAll returns every document for the identity, date descending.
func (s *Store) GetAll(ctx context.Context) ([]models.Entry, error) {
	if err := s.requireIdentity(); err != nil {
		return nil, err
	}

	raw, err := s.client.listEntries(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.Entry, 0, len(raw))
	for i := range raw {
		result = append(result, *fromAPI(&raw[i]))
	}
	return result, nil
}

// Search fetches everything and filters client-side: the backend has no text
// index.
func (s *Store) Search(ctx context.Context, text string) ([]models.Entry, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(text)
	result := make([]models.Entry, 0, len(all))
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Content), needle) {
			result = append(result, e)
		}
	}
	return result, nil
}

// DeleteOlderThan range-deletes documents older than the cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, days int) error {
	if err := s.requireIdentity(); err != nil {
		return err
	}
	return s.client.deleteOlderThan(ctx, days)
}

// ClearAll deletes every document belonging to the identity.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.requireIdentity(); err != nil {
		return err
	}
	return s.client.clearAll(ctx)
}

func toAPI(e *models.Entry) *api.Entry {
	var mood *int
	if e.Mood != nil {
		m := int(*e.Mood)
		mood = &m
	}
	images := e.Images
	if images == nil {
		images = []string{}
	}
	return &api.Entry{
		ID:        e.ID,
		Date:      e.Date,
		Content:   e.Content,
		Mood:      mood,
		Images:    images,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func fromAPI(e *api.Entry) *models.Entry {
	var mood *models.Mood
	if e.Mood != nil {
		m := models.Mood(*e.Mood)
		mood = &m
	}
	images := e.Images
	if images == nil {
		images = []string{}
	}
	return &models.Entry{
		ID:        e.ID,
		Date:      e.Date,
		Content:   e.Content,
		Mood:      mood,
		Images:    images,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

var _ RemoteStore = (*Store)(nil)
