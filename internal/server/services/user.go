// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, token refresh and profile
// lookups.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/loginchat/authserver/internal/common"
	"github.com/loginchat/authserver/internal/dbx"
	"github.com/loginchat/authserver/internal/server/auth"
	"github.com/loginchat/authserver/internal/server/models"
	"github.com/loginchat/authserver/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	Access  auth.IssuedToken
	Refresh auth.IssuedToken
}

// UserService provides authentication-related operations:
// - Register: create users and mint tokens
// - Login: verify credentials and mint tokens
// - Refresh: mint a new access token for a verified refresh subject
// - Profile: look up the user behind a token
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenIssuer
}

// NewUserService constructs a UserService from its collaborators.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h *auth.PasswordHasher, t *auth.TokenIssuer) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      h,
		tokens:      t,
	}
}

// Register validates in, stores a new user inside a transaction and returns
// it with a fresh TokenPair. A taken email yields common.ErrEmailExists,
// whether caught by the pre-check or by the unique index.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, *TokenPair, error) {
	if err := in.normalize(); err != nil {
		return nil, nil, err
	}

	var created *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		exists, err := repo.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return fmt.Errorf("error checking email: %w", err)
		}
		if exists {
			return common.ErrEmailExists
		}

		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				return &ValidationError{Msg: "password: the length must be no more than 72 bytes."}
			}
			return fmt.Errorf("error hashing password: %w", err)
		}

		created, err = repo.Create(ctx, &models.User{
			Email:        in.Email,
			PasswordHash: hash,
			Name:         in.Name,
			PhoneNumber:  in.PhoneNumber,
		})
		if err != nil {
			if errors.Is(err, common.ErrEmailExists) {
				return err
			}
			return fmt.Errorf("error creating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.generateTokenPair(created.Email)
	if err != nil {
		return nil, nil, err
	}
	return created, pair, nil
}

// Login verifies the password and returns a new TokenPair. Unknown emails and
// wrong passwords both yield common.ErrNoMatchUser.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, common.ErrNoMatchUser
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrNoMatchUser
	}

	return s.generateTokenPair(user.Email)
}

// Refresh issues a new access token for subject. The refresh token itself
// is left as is.
func (s *UserService) Refresh(subject string) (auth.IssuedToken, error) {
	t, err := s.tokens.IssueAccess(subject)
	if err != nil {
		return auth.IssuedToken{}, fmt.Errorf("error issuing access token: %w", err)
	}
	return t, nil
}

// Profile returns the stored user for email or common.ErrNoMatchUser.
func (s *UserService) Profile(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNoMatchUser
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return user, nil
}

func (s *UserService) generateTokenPair(subject string) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(subject)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(subject)
	if err != nil {
		return nil, fmt.Errorf("error issuing refresh token: %w", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}
