// Package handler contains the HTTP handlers. Handlers decode requests, call
// the service layer and encode responses; they hold no business rules.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/user-auth/internal/apperror"
	"github.com/sakif/user-auth/internal/auth"
	"github.com/sakif/user-auth/internal/service"
	"github.com/sakif/user-auth/internal/validation"
)

// CredentialService is the part of service.AuthService the user routes need.
type CredentialService interface {
	SignUp(ctx context.Context, in validation.SignUpInput) (validation.Errors, error)
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	GetIdentity(ctx context.Context, userID string) (string, error)
}

// SignUpResponse is the body of POST /user/signup. Exactly one field is set.
type SignUpResponse struct {
	Success bool              `json:"success,omitempty"`
	Errors  validation.Errors `json:"errors,omitempty"`
}

// LoginResponse is the body of POST /user/login. Token is omitted when no
// token was issued; Errors carries field-level input problems.
type LoginResponse struct {
	Message string            `json:"message,omitempty"`
	Token   string            `json:"token,omitempty"`
	Errors  validation.Errors `json:"errors,omitempty"`
}

// UserHandler serves the /user routes.
type UserHandler struct {
	svc       CredentialService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(svc CredentialService, validator *validation.Validator, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:       svc,
		validator: validator,
		logger:    logger,
	}
}

// HandleSignUp creates an account.
//
// HTTP: POST /user/signup
// BODY: {"username": "...", "password": "...", "confirmPassword": "..."}
//
// Field problems (including a taken username) are answered with 200 and
// {"errors": {...}}; success is 200 {"success": true}.
func (h *UserHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	in, typeErrs, err := validation.DecodeSignUp(r.Body)
	if err != nil {
		h.logger.Warn("invalid signup body", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	// A mistyped field fails the request before anything is written.
	if typeErrs.HasAny() {
		errs := h.validator.SignUp(in).Merge(typeErrs)
		writeJSON(w, http.StatusOK, SignUpResponse{Errors: errs})
		return
	}

	errs, err := h.svc.SignUp(r.Context(), in)
	if err != nil {
		h.logger.Error("signup failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	if errs.HasAny() {
		writeJSON(w, http.StatusOK, SignUpResponse{Errors: errs})
		return
	}

	writeJSON(w, http.StatusOK, SignUpResponse{Success: true})
}

// HandleLogin issues a token.
//
// HTTP: POST /user/login
// BODY: {"username": "...", "password": "..."}
//
// Responses:
//   - 200 {"message": "Logged in successfully", "token": "..."}
//   - 200 {"message": "User does not exists"}
//   - 200 {"message": "Incorrect password"}
//   - 200 {"errors": {...}} for missing fields
//   - 403 when no signing secret is configured
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	in, typeErrs, err := validation.DecodeSignIn(r.Body)
	if err != nil {
		h.logger.Warn("invalid login body", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	if errs := h.validator.SignIn(in).Merge(typeErrs); errs.HasAny() {
		writeJSON(w, http.StatusOK, LoginResponse{Errors: errs})
		return
	}

	result, err := h.svc.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) &&
			(errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrUnauthorized)) {
			writeJSON(w, http.StatusOK, LoginResponse{Message: appErr.Message})
			return
		}
		if !errors.Is(err, apperror.ErrForbidden) {
			h.logger.Error("login failed", slog.String("error", err.Error()))
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Message: result.Message,
		Token:   result.Token,
	})
}

// HandleMe returns the username of the token holder as a JSON string.
//
// HTTP: GET /user/me
// Auth: auth.RequireToken must run first.
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("valid token required"))
		return
	}

	username, err := h.svc.GetIdentity(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrForbidden) {
			h.logger.Info("identity lookup refused", slog.String("userID", userID))
		} else {
			h.logger.Error("identity lookup failed",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, username)
}
