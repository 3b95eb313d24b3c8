// Package httpapi exposes the Daybook backend over HTTP/JSON using gin.
//
// Routes:
//
//	GET  /health                  liveness probe (no auth)
//	POST /api/auth/anonymous      create a fresh anonymous identity
//	POST /api/auth/refresh        rotate a refresh token
//	POST /api/auth/login          sign in to a linked account
//	POST /api/auth/link           upgrade the bearer's anonymous identity
//	PUT    /api/entries/:date     write one day's document
//	GET    /api/entries/:date     read one day's document
//	DELETE /api/entries/:date     delete one day's document
//	GET    /api/entries           list all documents, newest first
//	DELETE /api/entries           clear all, or ?older_than_days=N to prune
//
// All /api/entries routes and /api/auth/link require a bearer access token.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/users"
)

// UserService is the slice of the users service the API consumes.
type UserService interface {
	RegisterAnonymous(ctx context.Context) (*users.AuthResult, error)
	Link(ctx context.Context, userID, username, password string) (*users.AuthResult, error)
	Login(ctx context.Context, username, password string) (*users.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*users.AuthResult, error)
}

// EntryService is the slice of the entries service the API consumes.
type EntryService interface {
	Save(ctx context.Context, entry *models.Entry) error
	Get(ctx context.Context, userID, date string) (*models.Entry, error)
	List(ctx context.Context, userID string) ([]*models.Entry, error)
	Delete(ctx context.Context, userID, date string) error
	DeleteOlderThan(ctx context.Context, userID string, days int) error
	Clear(ctx context.Context, userID string) error
}

type Handler struct {
	logger  logging.Logger
	users   UserService
	entries EntryService
}

// NewRouter builds the gin engine with all routes attached.
func NewRouter(logger logging.Logger, us UserService, es EntryService, secretKey []byte) *gin.Engine {
	if logger == nil {
		logger = logging.NewNop()
	}

	h := &Handler{logger: logger, users: us, entries: es}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/anonymous", h.registerAnonymous)
		authGroup.POST("/refresh", h.refresh)
		authGroup.POST("/login", h.login)
		authGroup.POST("/link", authRequired(secretKey), h.link)
	}

	entriesGroup := r.Group("/api/entries", authRequired(secretKey))
	{
		entriesGroup.PUT("/:date", h.putEntry)
		entriesGroup.GET("/:date", h.getEntry)
		entriesGroup.DELETE("/:date", h.deleteEntry)
		entriesGroup.GET("", h.listEntries)
		entriesGroup.DELETE("", h.deleteEntries)
	}

	return r
}
