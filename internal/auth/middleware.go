package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/parley-chat/identity/internal/models"
	pkghttp "github.com/parley-chat/identity/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing the resolved user in context
	UserContextKey contextKey = "user"
)

// UserRepository is the slice of the credential store the route guard
// needs: a read that includes password_changed_at.
type UserRepository interface {
	GetByIDWithSecrets(ctx context.Context, id string) (*models.User, error)
}

// Protect guards routes behind a valid session token. The token comes from
// the Authorization header (Bearer) or the session cookie. A token issued
// before the user's most recent password change is rejected as stale.
func Protect(tm *TokenManager, userRepo UserRepository) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				pkghttp.WriteUnauthorized(w, "You are not logged in")
				return
			}

			claims, err := tm.Validate(tokenString)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Invalid or expired session")
				return
			}

			user, err := userRepo.GetByIDWithSecrets(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "Invalid or expired session")
					return
				}
				pkghttp.WriteInternalError(w, "Internal server error")
				return
			}

			// Tokens minted before the last password change are rejected.
			// The change timestamp is truncated to seconds to match the
			// precision of the iat claim.
			if user.PasswordChangedAt != nil && claims.IssuedAt.Time.Before(user.PasswordChangedAt.Truncate(time.Second)) {
				pkghttp.WriteBadRequest(w, "Password was changed recently, please log in again")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken pulls the session token from the Authorization header or,
// failing that, the session cookie.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	if token, err := GetSessionCookie(r); err == nil {
		return token
	}

	return ""
}

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
