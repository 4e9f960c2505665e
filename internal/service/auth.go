// Package service contains the business logic layer.
//
//	UserHandler (HTTP) → AuthService (rules) → UserRepository (DB)
//	                                        ↘ TokenService / PasswordService
//
// AuthService never sees an *http.Request and never picks a status code; it
// returns validation.Errors for bad input and apperror classes for everything
// else.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/user-auth/internal/apperror"
	"github.com/sakif/user-auth/internal/auth"
	"github.com/sakif/user-auth/internal/model"
	"github.com/sakif/user-auth/internal/repository"
	"github.com/sakif/user-auth/internal/validation"
)

// Client-visible messages.
const (
	MsgLoggedIn      = "Logged in successfully"
	MsgUserNotFound  = "User does not exists"
	MsgUsernameTaken = "Username already exists"
)

// AuthService issues and resolves credentials.
//
// Every collaborator, including the signing secret inside tokens, is passed
// in at construction.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	validator *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		validator: validator,
		logger:    logger,
	}
}

// LoginResult is what a successful login hands back to the transport layer.
type LoginResult struct {
	Message string
	Token   string
	User    *model.User
}

// SignUp validates the input and creates the account.
//
// Returns:
//   - (errs, nil) when the input is invalid or the username is taken; errs
//     holds one message per offending field
//   - (nil, nil) when the user was created
//   - (nil, err) on unexpected failures
func (s *AuthService) SignUp(ctx context.Context, in validation.SignUpInput) (validation.Errors, error) {
	if errs := s.validator.SignUp(in); errs.HasAny() {
		return errs, nil
	}

	// Fast path for the common case; the UNIQUE constraint still decides races.
	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return validation.Errors{"username": MsgUsernameTaken}, nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking username %q: %w", in.Username, err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Username: in.Username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && errors.Is(err, apperror.ErrConflict) && appErr.Field != "" {
			return validation.Errors{appErr.Field: appErr.Message}, nil
		}
		return nil, fmt.Errorf("service/auth: creating user %q: %w", in.Username, err)
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return nil, nil
}

// Login checks the credentials and issues a token embedding the user's id.
//
// Errors:
//   - apperror.ErrNotFound with MsgUserNotFound for an unknown username
//   - apperror.ErrUnauthorized for a wrong password
//   - apperror.ErrForbidden when no signing secret is configured
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage(MsgUserNotFound)
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if !s.tokens.Enabled() {
		return nil, auth.ErrSecretNotConfigured
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected: wrong password", slog.String("userID", user.ID))
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: verifying password for %s: %w", user.ID, err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.Duration("tokenTTL", s.tokens.TTL()),
	)

	return &LoginResult{
		Message: MsgLoggedIn,
		Token:   token,
		User:    user,
	}, nil
}

// GetIdentity resolves a user id taken from a verified token to its username.
// An id with no matching user is a forbidden failure.
func (s *AuthService) GetIdentity(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", apperror.Forbidden("no identity in request")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Forbidden("user no longer exists")
		}
		return "", fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	return user.Username, nil
}
