// Package users implements the identity lifecycle: anonymous registration,
// account linking, password login and refresh-token rotation.
package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/server/auth"
	"github.com/dmitrijs2005/daybook/internal/server/config"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/repomanager"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type AuthResult struct {
	User   *models.User
	Tokens TokenPair
}

type Service struct {
	db                           *sql.DB
	manager                      repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewService(db *sql.DB, manager repomanager.RepositoryManager, cfg *config.Config) *Service {
	return &Service{
		db:                           db,
		manager:                      manager,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// issueTokens builds an access/refresh pair for the user and persists the
// refresh token through the given handle.
func (s *Service) issueTokens(ctx context.Context, db dbx.DBTX, user *models.User) (TokenPair, error) {
	accessToken, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return TokenPair{}, common.ErrInternal
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return TokenPair{}, common.ErrInternal
	}

	if err := s.manager.RefreshTokens(db).Create(ctx, user.ID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return TokenPair{}, common.ErrInternal
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RegisterAnonymous creates a brand-new anonymous identity and returns it
// with a token pair. No input is required: the caller is a fresh device.
func (s *Service) RegisterAnonymous(ctx context.Context) (*AuthResult, error) {

	var result *AuthResult

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.manager.Users(tx).CreateAnonymous(ctx)
		if err != nil {
			return common.ErrInternal
		}

		tokens, err := s.issueTokens(ctx, tx, user)
		if err != nil {
			return err
		}

		result = &AuthResult{User: user, Tokens: tokens}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Link attaches a username and bcrypt-hashed password to an anonymous
// identity, keeping its id so all existing documents stay owned by it.
func (s *Service) Link(ctx context.Context, userID, username, password string) (*AuthResult, error) {

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrInternal
	}

	var result *AuthResult

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.manager.Users(tx)

		user, err := repo.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrUnauthenticated
			}
			return common.ErrInternal
		}
		if !user.Anonymous {
			return common.ErrNotAnonymous
		}

		if err := repo.SetCredentials(ctx, userID, username, hash); err != nil {
			if errors.Is(err, common.ErrUsernameTaken) {
				return err
			}
			return common.ErrInternal
		}

		user.UserName = username
		user.PasswordHash = hash
		user.Anonymous = false

		tokens, err := s.issueTokens(ctx, tx, user)
		if err != nil {
			return err
		}

		result = &AuthResult{User: user, Tokens: tokens}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Login verifies a username/password pair and returns fresh tokens.
func (s *Service) Login(ctx context.Context, username, password string) (*AuthResult, error) {

	user, err := s.manager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, common.ErrInternal
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrUnauthenticated
	}

	tokens, err := s.issueTokens(ctx, s.db, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. Expired or unknown tokens yield ErrUnauthenticated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {

	var result *AuthResult

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.manager.RefreshTokens(tx)

		rt, err := tokens.Find(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrUnauthenticated
			}
			return common.ErrInternal
		}

		if err := tokens.Delete(ctx, refreshToken); err != nil {
			return common.ErrInternal
		}

		if time.Now().After(rt.Expires) {
			return common.ErrUnauthenticated
		}

		user, err := s.manager.Users(tx).GetByID(ctx, rt.UserID)
		if err != nil {
			return common.ErrUnauthenticated
		}

		pair, err := s.issueTokens(ctx, tx, user)
		if err != nil {
			return err
		}

		result = &AuthResult{User: user, Tokens: pair}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
