package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/user-auth/internal/apperror"
	"github.com/sakif/user-auth/internal/auth"
	"github.com/sakif/user-auth/internal/handler"
	"github.com/sakif/user-auth/internal/service"
	"github.com/sakif/user-auth/internal/validation"
)

// MockCredentials is a scripted handler.CredentialService.
type MockCredentials struct {
	SignUpIn     validation.SignUpInput
	SignUpCalled bool
	SignUpErrs   validation.Errors
	SignUpErr    error

	LoginUser   string
	LoginPass   string
	LoginResult *service.LoginResult
	LoginErr    error

	IdentityID   string
	IdentityName string
	IdentityErr  error
}

func (m *MockCredentials) SignUp(ctx context.Context, in validation.SignUpInput) (validation.Errors, error) {
	m.SignUpCalled = true
	m.SignUpIn = in
	return m.SignUpErrs, m.SignUpErr
}

func (m *MockCredentials) Login(ctx context.Context, username, password string) (*service.LoginResult, error) {
	m.LoginUser, m.LoginPass = username, password
	return m.LoginResult, m.LoginErr
}

func (m *MockCredentials) GetIdentity(ctx context.Context, userID string) (string, error) {
	m.IdentityID = userID
	return m.IdentityName, m.IdentityErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(t *testing.T, fn http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	fn(rr, req)
	return rr
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}

func TestUserHandler_HandleSignUp(t *testing.T) {
	logger := testLogger()

	t.Run("success", func(t *testing.T) {
		mock := &MockCredentials{}
		h := handler.NewUserHandler(mock, validation.New(), logger)

		rr := post(t, h.HandleSignUp, "/user/signup",
			`{"username":"user@ex.com","password":"abcde","confirmPassword":"abcde"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"success":true}`, rr.Body.String())
		assert.Equal(t, "user@ex.com", mock.SignUpIn.Username)
		assert.Equal(t, "abcde", mock.SignUpIn.ConfirmPassword)
	})

	t.Run("field errors are a 200 payload", func(t *testing.T) {
		mock := &MockCredentials{SignUpErrs: validation.Errors{"confirmPassword": "Password must match"}}
		h := handler.NewUserHandler(mock, validation.New(), logger)

		rr := post(t, h.HandleSignUp, "/user/signup",
			`{"username":"user@ex.com","password":"abcde","confirmPassword":"abcdf"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"errors":{"confirmPassword":"Password must match"}}`, rr.Body.String())
	})

	t.Run("wrong JSON type reported against the field", func(t *testing.T) {
		mock := &MockCredentials{}
		h := handler.NewUserHandler(mock, validation.New(), logger)

		rr := post(t, h.HandleSignUp, "/user/signup",
			`{"username":12345678,"password":"abcde","confirmPassword":"abcdf"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeMap(t, rr)
		errs, ok := body["errors"].(map[string]any)
		require.True(t, ok, "errors payload missing: %v", body)
		assert.Contains(t, errs["username"], "Expected string")
		assert.Equal(t, "Password must match", errs["confirmPassword"])
		assert.False(t, mock.SignUpCalled)
	})

	t.Run("duplicate key with a wrong-typed first value never reaches the service", func(t *testing.T) {
		mock := &MockCredentials{}
		h := handler.NewUserHandler(mock, validation.New(), logger)

		rr := post(t, h.HandleSignUp, "/user/signup",
			`{"username":5,"username":"dup@ex.com","password":"abcde","confirmPassword":"abcde"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeMap(t, rr)
		assert.NotContains(t, body, "success")
		errs, ok := body["errors"].(map[string]any)
		require.True(t, ok, "errors payload missing: %v", body)
		assert.Equal(t, "Expected string, received number", errs["username"])
		assert.False(t, mock.SignUpCalled)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		mock := &MockCredentials{}
		h := handler.NewUserHandler(mock, validation.New(), logger)

		rr := post(t, h.HandleSignUp, "/user/signup", `{"username":`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.False(t, mock.SignUpCalled)
	})

	t.Run("unexpected failure answers 500", func(t *testing.T) {
		mock := &MockCredentials{SignUpErr: errors.New("disk full")}
		h := handler.NewUserHandler(mock, validation.New(), logger)

		rr := post(t, h.HandleSignUp, "/user/signup",
			`{"username":"user@ex.com","password":"abcde","confirmPassword":"abcde"}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "disk full")
	})
}

func TestUserHandler_HandleLogin(t *testing.T) {
	logger := testLogger()

	t.Run("success", func(t *testing.T) {
		mock := &MockCredentials{LoginResult: &service.LoginResult{Message: service.MsgLoggedIn, Token: "tok"}}
		h := handler.NewUserHandler(mock, validation.New(), logger)

		rr := post(t, h.HandleLogin, "/user/login", `{"username":"user@ex.com","password":"abcde"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"Logged in successfully","token":"tok"}`, rr.Body.String())
		assert.Equal(t, "user@ex.com", mock.LoginUser)
		assert.Equal(t, "abcde", mock.LoginPass)
	})

	t.Run("unknown user", func(t *testing.T) {
		mock := &MockCredentials{LoginErr: apperror.NotFoundMessage(service.MsgUserNotFound)}
		h := handler.NewUserHandler(mock, validation.New(), logger)

		rr := post(t, h.HandleLogin, "/user/login", `{"username":"ghost@ex.com","password":"abcde"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeMap(t, rr)
		assert.Equal(t, "User does not exists", body["message"])
		assert.NotContains(t, body, "token")
	})

	t.Run("wrong password", func(t *testing.T) {
		mock := &MockCredentials{LoginErr: auth.ErrPasswordMismatch}
		h := handler.NewUserHandler(mock, validation.New(), logger)

		rr := post(t, h.HandleLogin, "/user/login", `{"username":"user@ex.com","password":"nope!"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"Incorrect password"}`, rr.Body.String())
	})

	t.Run("missing secret", func(t *testing.T) {
		mock := &MockCredentials{LoginErr: auth.ErrSecretNotConfigured}
		h := handler.NewUserHandler(mock, validation.New(), logger)

		rr := post(t, h.HandleLogin, "/user/login", `{"username":"user@ex.com","password":"abcde"}`)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		mock := &MockCredentials{}
		h := handler.NewUserHandler(mock, validation.New(), logger)

		rr := post(t, h.HandleLogin, "/user/login", `{}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"errors":{"username":"Required","password":"Required"}}`, rr.Body.String())
		assert.Empty(t, mock.LoginUser)
	})

	t.Run("unexpected failure answers 500", func(t *testing.T) {
		mock := &MockCredentials{LoginErr: errors.New("connection reset")}
		h := handler.NewUserHandler(mock, validation.New(), logger)

		rr := post(t, h.HandleLogin, "/user/login", `{"username":"user@ex.com","password":"abcde"}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestUserHandler_HandleMe(t *testing.T) {
	logger := testLogger()

	get := func(h *handler.UserHandler, userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
		if userID != "" {
			req = req.WithContext(auth.ContextWithUserID(req.Context(), userID))
		}
		rr := httptest.NewRecorder()
		h.HandleMe(rr, req)
		return rr
	}

	t.Run("known user", func(t *testing.T) {
		mock := &MockCredentials{IdentityName: "user@ex.com"}
		rr := get(handler.NewUserHandler(mock, validation.New(), logger), "id-1")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `"user@ex.com"`, rr.Body.String())
		assert.Equal(t, "id-1", mock.IdentityID)
	})

	t.Run("unknown user", func(t *testing.T) {
		mock := &MockCredentials{IdentityErr: apperror.Forbidden("user no longer exists")}
		rr := get(handler.NewUserHandler(mock, validation.New(), logger), "id-gone")

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("no identity in context", func(t *testing.T) {
		mock := &MockCredentials{}
		rr := get(handler.NewUserHandler(mock, validation.New(), logger), "")

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Empty(t, mock.IdentityID)
	})

	t.Run("store failure", func(t *testing.T) {
		mock := &MockCredentials{IdentityErr: errors.New("db down")}
		rr := get(handler.NewUserHandler(mock, validation.New(), logger), "id-1")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestSigninPageHandler(t *testing.T) {
	h, err := handler.NewSigninPageHandler(testLogger())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/signin", nil)
	rr := httptest.NewRecorder()
	h.HandleSignin(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	body := rr.Body.String()
	assert.Contains(t, body, `<form id="signin"`)
	assert.Contains(t, body, `name="username"`)
	assert.Contains(t, body, `name="password"`)
}
