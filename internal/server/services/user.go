// Package services contains server-side business logic. This file implements
// UserService, the account lifecycle: signup with email-code verification,
// login, token refresh and code-based password reset.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/notifier"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/google/uuid"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// EventRecorder observes lifecycle outcomes. Implemented by the metrics package.
type EventRecorder interface {
	AuthEvent(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}

// UserService owns every state transition of a user account. Each
// read-check-write runs in its own transaction with the account row locked,
// and notifications are handed off only after the commit.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenManager
	notifier    notifier.Notifier
	logger      logging.Logger
	events      EventRecorder
	bcryptCost  int

	newCode func() (string, error)
	newID   func() string

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService constructs a UserService. events may be nil.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenManager, n notifier.Notifier, logger logging.Logger, events EventRecorder, cfg *config.Config) *UserService {
	if events == nil {
		events = nopRecorder{}
	}
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		notifier:    n,
		logger:      logger.With("module", "users"),
		events:      events,
		bcryptCost:  cfg.BcryptCost,
		newCode:     auth.GenerateNumericCode,
		newID:       uuid.NewString,
	}
}

// Signup creates an unverified account with a fresh pending code and sends
// the verification email. Email uniqueness is enforced by the storage
// constraint; a duplicate yields common.ErrEmailTaken.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, s.internal(ctx, "signup", "hash password", err)
	}

	code, err := s.newCode()
	if err != nil {
		return nil, s.internal(ctx, "signup", "generate code", err)
	}

	user := &models.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		PendingCode:  &code,
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.events.AuthEvent("signup", "email_taken")
			return nil, common.ErrEmailTaken
		}
		return nil, s.internal(ctx, "signup", "create user", err)
	}

	s.events.AuthEvent("signup", "success")
	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	s.notify(ctx, notifier.KindVerification, u, code)

	return u, nil
}

// VerifyEmail consumes the pending code and marks the account verified and
// active.
func (s *UserService) VerifyEmail(ctx context.Context, email, code string) error {
	var user *models.User

	err := s.withLockedUser(ctx, email, func(ctx context.Context, repo users.Repository, u *models.User) error {
		if u.IsVerified {
			return common.ErrAlreadyVerified
		}
		if !codeMatches(u.PendingCode, code) {
			return common.ErrInvalidCode
		}

		u.IsVerified = true
		u.IsActive = true
		u.PendingCode = nil
		user = u

		return repo.Update(ctx, u)
	})
	if err != nil {
		return s.result(ctx, "verify", err)
	}

	s.events.AuthEvent("verify", "success")
	s.logger.Info(ctx, "email verified", "user_id", user.ID)
	return nil
}

// ResendCode replaces the pending code of an unverified account and sends it
// again.
func (s *UserService) ResendCode(ctx context.Context, email string) error {
	var (
		user *models.User
		code string
	)

	err := s.withLockedUser(ctx, email, func(ctx context.Context, repo users.Repository, u *models.User) error {
		if u.IsVerified {
			return common.ErrAlreadyVerified
		}

		c, err := s.newCode()
		if err != nil {
			return err
		}
		code = c
		u.PendingCode = &code
		user = u

		return repo.Update(ctx, u)
	})
	if err != nil {
		return s.result(ctx, "resend_code", err)
	}

	s.events.AuthEvent("resend_code", "success")
	s.notify(ctx, notifier.KindVerification, user, code)
	return nil
}

// ForgotPassword issues a reset code regardless of verification state.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	var (
		user *models.User
		code string
	)

	err := s.withLockedUser(ctx, email, func(ctx context.Context, repo users.Repository, u *models.User) error {
		c, err := s.newCode()
		if err != nil {
			return err
		}
		code = c
		u.PendingCode = &code
		user = u

		return repo.Update(ctx, u)
	})
	if err != nil {
		return s.result(ctx, "forgot_password", err)
	}

	s.events.AuthEvent("forgot_password", "success")
	s.notify(ctx, notifier.KindPasswordReset, user, code)
	return nil
}

// ResetPassword replaces the password when code matches the pending code.
// A missing code and a wrong code both yield common.ErrInvalidCode.
func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	// hash before taking the row lock
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return s.internal(ctx, "reset_password", "hash password", err)
	}

	var user *models.User
	err = s.withLockedUser(ctx, email, func(ctx context.Context, repo users.Repository, u *models.User) error {
		if !codeMatches(u.PendingCode, code) {
			return common.ErrInvalidCode
		}

		u.PasswordHash = hash
		u.PendingCode = nil
		user = u

		return repo.Update(ctx, u)
	})
	if err != nil {
		return s.result(ctx, "reset_password", err)
	}

	s.events.AuthEvent("reset_password", "success")
	s.logger.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

// Login checks credentials and mints a token pair. Unknown email and wrong
// password produce the same error, and take comparable time.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.CheckPassword(password, s.timingHash())
			s.events.AuthEvent("login", "invalid_credentials")
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "login", "get user", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		s.events.AuthEvent("login", "invalid_credentials")
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.generateTokenPair(user.ID)
	if err != nil {
		return nil, s.internal(ctx, "login", "mint tokens", err)
	}

	s.events.AuthEvent("login", "success")
	return pair, nil
}

// RefreshToken verifies a refresh token and mints a new pair. The old token
// is not revoked; there is no server-side token store.
// Failures wrap common.ErrorUnauthorized together with the token error.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.events.AuthEvent("refresh", "unauthorized")
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	pair, err := s.generateTokenPair(claims.UserID())
	if err != nil {
		return nil, s.internal(ctx, "refresh", "mint tokens", err)
	}

	s.events.AuthEvent("refresh", "success")
	return pair, nil
}

// GetUser returns the account with the given id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "get_user", "get user", err)
	}
	return u, nil
}

// --- helpers below ---

// withLockedUser runs fn in a transaction holding the row lock on the
// account identified by email.
func (s *UserService) withLockedUser(ctx context.Context, email string, fn func(ctx context.Context, repo users.Repository, u *models.User) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetUserByEmailForUpdate(ctx, email)
		if err != nil {
			return err
		}

		return fn(ctx, repo, u)
	})
}

// result passes business errors through and hides everything else behind
// common.ErrorInternal.
func (s *UserService) result(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.events.AuthEvent(op, "not_found")
		return common.ErrorNotFound
	case errors.Is(err, common.ErrAlreadyVerified):
		s.events.AuthEvent(op, "already_verified")
		return common.ErrAlreadyVerified
	case errors.Is(err, common.ErrInvalidCode):
		s.events.AuthEvent(op, "invalid_code")
		return common.ErrInvalidCode
	default:
		return s.internal(ctx, op, "transaction", err)
	}
}

func (s *UserService) internal(ctx context.Context, op, step string, err error) error {
	s.events.AuthEvent(op, "error")
	s.logger.Error(ctx, "operation failed", "operation", op, "step", step, "error", err)
	return common.ErrorInternal
}

func (s *UserService) notify(ctx context.Context, kind notifier.Kind, u *models.User, code string) {
	s.notifier.Notify(ctx, notifier.Notification{
		Kind:  kind,
		Email: u.Email,
		Name:  u.Name,
		Code:  code,
	})
}

// timingHash is a hash of a throwaway password at the configured cost, used
// to spend the same bcrypt work on unknown emails.
func (s *UserService) timingHash() string {
	s.dummyOnce.Do(func() {
		h, err := auth.HashPassword(uuid.NewString(), s.bcryptCost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *UserService) generateTokenPair(userID string) (*TokenPair, error) {
	access, err := s.tokens.MintAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.MintRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func codeMatches(pending *string, submitted string) bool {
	if pending == nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*pending), []byte(submitted)) == 1
}
