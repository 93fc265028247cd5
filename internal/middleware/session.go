// Package middleware provides HTTP middlewares for sessions and logging.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/scrollie/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// UserLookup resolves the logged-in user.
type UserLookup interface {
	Current(ctx context.Context) (*models.User, error)
}

// RequireUser is a middleware that rejects requests made while nobody is
// logged in.
//
// On success it stores the active user in the request context, so handlers
// can read it with UserFromContext.
func RequireUser(lookup UserLookup, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := lookup.Current(r.Context())
			if errors.Is(err, models.ErrNotLoggedIn) {
				writeJSONError(w, http.StatusUnauthorized, err.Error())
				return
			}
			if err != nil {
				logger.Error("failed to load active user", zap.Error(err))
				writeJSONError(w, http.StatusInternalServerError, "internal error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
