package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/infra/identity"
)

type contextKey struct{}

var userKey = contextKey{}

// SessionResolver resolves a session token into the signed-in user.
type SessionResolver interface {
	CurrentUser(ctx context.Context, sessionToken string) (*identity.User, error)
}

// DevUser is injected by DevAuth when sessions are not enforced.
var DevUser = &identity.User{ID: "dev", Email: "dev@localhost", DisplayName: "Local developer"}

func WithUser(ctx context.Context, user *identity.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (*identity.User, bool) {
	user, ok := ctx.Value(userKey).(*identity.User)
	return user, ok && user != nil
}

// RequireSession rejects requests without a valid session cookie with 401.
func RequireSession(resolver SessionResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w, "missing session")
				return
			}

			user, err := resolver.CurrentUser(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, identity.ErrInvalidSession) {
					zap.L().Warn("session lookup failed", zap.Error(err))
				}
				unauthorized(w, "invalid session")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// DevAuth marks every request as coming from DevUser.
func DevAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), DevUser)))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized", "message": msg})
}
