package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hugh/localspace/internal/api/dto"
	"github.com/hugh/localspace/internal/auth"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/token"
)

type contextKey string

const (
	UserKey    contextKey = "user"
	SessionKey contextKey = "session"
)

// Auth resolves "Authorization: Bearer <token>" to a customer and stores the
// user and session in the request context.
func Auth(authenticator auth.Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(bearer) == "" {
				unauthorized(w)
				return
			}

			user, session, err := authenticator.Authenticate(r.Context(), strings.TrimSpace(bearer))
			if err != nil {
				if !errors.Is(err, auth.ErrUnauthenticated) {
					logger.Error("authentication failed", "error", err)
					writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
					return
				}
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			ctx = context.WithValue(ctx, SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized access"})
}

// GetUser returns the authenticated user, or nil outside Auth.
func GetUser(ctx context.Context) *models.User {
	if u, ok := ctx.Value(UserKey).(*models.User); ok {
		return u
	}
	return nil
}

// GetSession returns the access token that authenticated the request.
func GetSession(ctx context.Context) *token.Holder {
	if s, ok := ctx.Value(SessionKey).(*token.Holder); ok {
		return s
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
