package entries

import (
	"context"

	"github.com/dmitrijs2005/daybook/internal/server/models"
)

type Repository interface {
	// Upsert writes the document for the entry's user and calendar day,
	// overwriting any previous version (last writer wins).
	Upsert(ctx context.Context, entry *models.Entry) error

	// Get returns the user's document for one calendar day.
	Get(ctx context.Context, userID, date string) (*models.Entry, error)

	// List returns all of the user's documents, newest day first.
	List(ctx context.Context, userID string) ([]*models.Entry, error)

	// Delete removes the user's document for one calendar day.
	Delete(ctx context.Context, userID, date string) error

	// DeleteOlderThan removes the user's documents dated strictly before cutoff.
	DeleteOlderThan(ctx context.Context, userID, cutoff string) error

	// Clear removes every document the user owns.
	Clear(ctx context.Context, userID string) error
}
