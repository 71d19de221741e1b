package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/woowonjae/blogauth/internal/auth/domain"
	"github.com/woowonjae/blogauth/internal/auth/store"
	"github.com/woowonjae/blogauth/pkg/cryptox"
	"github.com/woowonjae/blogauth/pkg/jwtx"
	"github.com/woowonjae/blogauth/pkg/slogx"
)

var (
	// ErrInvalidCredentials is deliberately unspecific: it covers both an
	// unknown username and a wrong password so callers cannot enumerate
	// accounts.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	ErrUsernameTaken       = errors.New("username_taken")
	ErrEmailTaken          = errors.New("email_taken")
	ErrInvalidRegistration = errors.New("invalid_registration_request")

	// ErrRoleNotConfigured means the configured default role row is missing.
	// The system cannot self-heal this; an operator has to fix the store.
	ErrRoleNotConfigured = errors.New("default_role_not_configured")
)

// AuthService orchestrates login and registration over the user store, the
// credential codec and the token signer.
type AuthService struct {
	Store       store.Store
	Signer      jwtx.Signer
	Issuer      string
	AccessTTL   time.Duration
	DefaultRole string

	// LazyRehash re-encodes a matched legacy plaintext credential during
	// login. The write is best-effort and never fails the login.
	LazyRehash bool
}

// LoginResult is the identity bundle returned on a successful login.
type LoginResult struct {
	Token     string
	TokenType string
	UserID    int64
	Username  string
	Email     string
	Roles     []string
}

// Login verifies the credentials and mints an access token carrying the
// user's role set as of now.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	log := slogx.FromContext(ctx)

	if username == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same error as a wrong password on purpose.
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("fetch user: %w", err)
	}

	// Scope the logger to the row so codec-level warnings name the user.
	log = log.With(
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)
	ctx = slogx.WithContext(ctx, log)

	if !cryptox.MatchPassword(ctx, password, user.Password) {
		log.Info("login rejected")
		return LoginResult{}, ErrInvalidCredentials
	}

	// The password matched against an unmigrated plaintext row: upgrade it
	// in place. Failure here only delays migration, it never blocks login.
	if s.LazyRehash && !cryptox.IsHashed(user.Password) {
		s.rehash(ctx, user.ID, password)
	}

	claims := jwtx.NewAccessClaims(user.Username, user.RoleNames(), s.AccessTTL, s.Issuer, time.Now())

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	log.Debug("login succeeded")

	return LoginResult{
		Token:     token,
		TokenType: "Bearer",
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Roles:     user.RoleNames(),
	}, nil
}

func (s *AuthService) rehash(ctx context.Context, userID int64, password string) {
	log := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("lazy rehash failed to encode", slog.Any("error", err))
		return
	}
	if err := s.Store.Users().UpdatePassword(ctx, userID, hash); err != nil {
		log.Error("lazy rehash failed to persist", slog.Any("error", err))
		return
	}
	log.Info("credential lazily migrated on login")
}

// Register creates a user with an encoded credential and assigns the default
// role. The user insert and the role assignment run in one transaction: a
// user row must never exist without at least the default role.
//
// The uniqueness prechecks are an early exit only. They race with concurrent
// registrations, so the UNIQUE constraints in the store remain the real
// guarantee; a constraint violation inside the transaction is mapped back to
// the field-specific conflict error.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (int64, error) {
	log := slogx.FromContext(ctx)

	if username == "" || email == "" || password == "" {
		return 0, ErrInvalidRegistration
	}

	taken, err := s.Store.Users().ExistsByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return 0, ErrUsernameTaken
	}

	taken, err = s.Store.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return 0, ErrEmailTaken
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("encode credential: %w", err)
	}

	var userID int64
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		id, err := tx.Users().CreateUser(ctx, domain.User{
			Username: username,
			Email:    email,
			Password: hash,
		})
		if err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return s.conflictField(ctx, tx, username)
			}
			return fmt.Errorf("insert user: %w", err)
		}

		role, err := tx.Roles().GetRoleByName(ctx, s.DefaultRole)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Error("default role missing from store",
					slog.String("role", s.DefaultRole),
				)
				return ErrRoleNotConfigured
			}
			return fmt.Errorf("resolve default role: %w", err)
		}

		if err := tx.Roles().AssignRoleToUser(ctx, id, role.ID); err != nil {
			log.Error("role assignment failed, rolling back user creation",
				slog.Int64("user_id", id),
				slog.Any("error", err),
			)
			return fmt.Errorf("assign default role: %w", err)
		}

		userID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info("user registered",
		slog.Int64("user_id", userID),
		slog.String("username", username),
		slog.String("role", s.DefaultRole),
	)

	return userID, nil
}

// conflictField decides which unique column an insert collided on after the
// precheck raced with a concurrent registration.
func (s *AuthService) conflictField(ctx context.Context, tx store.Tx, username string) error {
	taken, err := tx.Users().ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("attribute unique conflict: %w", err)
	}
	if taken {
		return ErrUsernameTaken
	}
	return ErrEmailTaken
}
