// Package api defines the JSON wire types shared by the Daybook client and
// server.
package api

import "time"

// Entry is the journal document as it travels over the wire.
type Entry struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Content   string    `json:"content"`
	Mood      *int      `json:"mood,omitempty"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenResponse is returned by every auth endpoint.
type TokenResponse struct {
	IdentityID   string `json:"identity_id"`
	Anonymous    bool   `json:"anonymous"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LinkRequest upgrades an anonymous identity to a password-backed one.
type LinkRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest signs in to an existing linked identity.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest passively re-establishes a session.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
