// Package auth resolves a stable user identity for the device without ever
// blocking on interactive sign-in: an existing session is reused when
// possible, a passive token refresh is attempted next, and a fresh anonymous
// identity is created as the fallback of last resort.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
)

// Metadata keys in the client kv store.
const (
	identityKey     = "session_identity"
	refreshTokenKey = "session_refresh_token"
)

// ProviderAnonymous and ProviderPassword name the supported identity sources.
const (
	ProviderAnonymous = "anonymous"
	ProviderPassword  = "password"
)

// Identity is the stable opaque identifier all remote documents are scoped by.
type Identity struct {
	ID        string `json:"id"`
	Provider  string `json:"provider"`
	Anonymous bool   `json:"anonymous"`
}

// Credentials is what the backend returns from any auth operation.
type Credentials struct {
	Identity     Identity
	RefreshToken string
}

// Provider performs the network half of identity resolution. Implemented by
// the remote HTTP client.
type Provider interface {
	// RegisterAnonymous creates a brand-new anonymous identity.
	RegisterAnonymous(ctx context.Context) (*Credentials, error)

	// Refresh passively re-establishes a previous session from its refresh
	// token, without user interaction.
	Refresh(ctx context.Context, refreshToken string) (*Credentials, error)

	// Link upgrades the current (anonymous) identity to a password-backed one,
	// preserving the identity id.
	Link(ctx context.Context, username, password string) (*Credentials, error)

	// Login signs in to an existing linked identity.
	Login(ctx context.Context, username, password string) (*Credentials, error)
}

// MetadataStore is the slice of the local kv store the session persists into.
type MetadataStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Session owns the device identity for the process lifetime and notifies
// listeners of every transition.
type Session struct {
	provider Provider
	meta     MetadataStore
	logger   logging.Logger

	mu        sync.Mutex
	current   *Identity
	resolved  bool
	listeners map[int]func(*Identity)
	nextID    int
}

func NewSession(provider Provider, meta MetadataStore, logger logging.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		provider:  provider,
		meta:      meta,
		logger:    logger,
		listeners: make(map[int]func(*Identity)),
	}
}

// Initialize resolves an identity. It is idempotent: once resolved, further
// calls return the cached identity without re-attempting passive sign-in.
//
// Resolution order: persisted session (refresh token) first, then a new
// anonymous identity. If even anonymous registration fails the device has no
// usable identity at all and common.ErrNoIdentity is returned; callers treat
// that as fatal at the startup boundary.
func (s *Session) Initialize(ctx context.Context) (*Identity, error) {
	s.mu.Lock()
	if s.resolved {
		id := s.current
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	if id, ok := s.resumeSession(ctx); ok {
		s.setCurrent(ctx, id)
		return id, nil
	}

	creds, err := s.provider.RegisterAnonymous(ctx)
	if err != nil {
		s.logger.Error(ctx, "anonymous sign-in failed", "err", err)
		return nil, fmt.Errorf("%w: %v", common.ErrNoIdentity, err)
	}

	if err := s.persist(ctx, creds); err != nil {
		s.logger.Warn(ctx, "failed to persist session", "err", err)
	}
	id := creds.Identity
	s.setCurrent(ctx, &id)
	s.logger.Info(ctx, "signed in anonymously", "identity", id.ID)
	return &id, nil
}

// resumeSession attempts a passive sign-in from the persisted refresh token.
func (s *Session) resumeSession(ctx context.Context) (*Identity, bool) {
	raw, err := s.meta.Get(ctx, refreshTokenKey)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn(ctx, "failed to read stored session", "err", err)
		}
		return nil, false
	}

	creds, err := s.provider.Refresh(ctx, string(raw))
	if err != nil {
		s.logger.Info(ctx, "passive sign-in failed, falling back to anonymous", "err", err)
		return nil, false
	}

	if err := s.persist(ctx, creds); err != nil {
		s.logger.Warn(ctx, "failed to persist session", "err", err)
	}
	id := creds.Identity
	s.logger.Info(ctx, "resumed session", "identity", id.ID, "provider", id.Provider)
	return &id, true
}

// Link upgrades the anonymous identity to a password-backed one. The
// underlying identity id is preserved so previously synced documents remain
// attributed to the same user.
func (s *Session) Link(ctx context.Context, username, password string) (*Identity, error) {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()

	if cur == nil {
		return nil, common.ErrNoIdentity
	}
	if !cur.Anonymous {
		return nil, common.ErrNotAnonymous
	}

	creds, err := s.provider.Link(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("link error: %w", err)
	}

	if err := s.persist(ctx, creds); err != nil {
		s.logger.Warn(ctx, "failed to persist session", "err", err)
	}
	id := creds.Identity
	s.setCurrent(ctx, &id)
	s.logger.Info(ctx, "linked identity", "identity", id.ID)
	return &id, nil
}

// Login signs in to an existing linked identity, replacing whatever identity
// the device currently holds.
func (s *Session) Login(ctx context.Context, username, password string) (*Identity, error) {
	creds, err := s.provider.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := s.persist(ctx, creds); err != nil {
		s.logger.Warn(ctx, "failed to persist session", "err", err)
	}
	id := creds.Identity
	s.setCurrent(ctx, &id)
	s.logger.Info(ctx, "logged in", "identity", id.ID)
	return &id, nil
}

// Current returns the resolved identity, or nil before Initialize completes.
func (s *Session) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// IsAuthenticated reports whether any identity (anonymous included) is
// resolved.
func (s *Session) IsAuthenticated() bool {
	return s.Current() != nil
}

// Subscribe registers fn to be called on every identity transition and
// returns an unsubscribe function.
func (s *Session) Subscribe(fn func(*Identity)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) setCurrent(ctx context.Context, id *Identity) {
	s.mu.Lock()
	s.current = id
	s.resolved = true
	fns := make([]func(*Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}

func (s *Session) persist(ctx context.Context, creds *Credentials) error {
	raw, err := json.Marshal(creds.Identity)
	if err != nil {
		return err
	}
	if err := s.meta.Set(ctx, identityKey, raw); err != nil {
		return err
	}
	return s.meta.Set(ctx, refreshTokenKey, []byte(creds.RefreshToken))
}
