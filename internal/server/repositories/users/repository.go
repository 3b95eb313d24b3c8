package users

import (
	"context"

	"github.com/dmitrijs2005/daybook/internal/server/models"
)

type Repository interface {
	// CreateAnonymous inserts a fresh anonymous user and returns it with the
	// generated id.
	CreateAnonymous(ctx context.Context) (*models.User, error)

	// GetByID returns the user with the given id.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByUsername returns the linked user owning the given username.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// SetCredentials attaches a username and password hash to an anonymous
	// user, keeping its id. A duplicate username yields ErrUsernameTaken.
	SetCredentials(ctx context.Context, userID, username string, passwordHash []byte) error
}
