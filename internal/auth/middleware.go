package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const userIDKey contextKey = "userID"

// RequireToken is the token gate for protected routes.
//
// It reads the token from the Authorization header, verifies it once, and
// either passes the request on with the user id in its context or ends it
// with 403. The downstream handler never runs for a rejected request.
// A missing signing secret is treated like any other rejection.
func RequireToken(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := BearerToken(r)
			if tokenStr == "" {
				reject(w)
				return
			}

			claims, err := tokens.Validate(tokenStr)
			if err != nil {
				level := slog.LevelDebug
				if errors.Is(err, ErrSecretNotConfigured) {
					level = slog.LevelError
				}
				logger.Log(r.Context(), level, "token rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				reject(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reject(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"forbidden","message":"valid token required"}` + "\n"))
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
// A bare token with no scheme is accepted as well. Returns "" when absent.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	scheme, rest, found := strings.Cut(h, " ")
	if !found {
		return h
	}
	if !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(rest)
}

// UserIDFromContext returns the user id stored by RequireToken.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// ContextWithUserID stores a user id the same way RequireToken does.
// Handlers' tests use it to skip the gate.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
