package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"newswire/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// PrincipalContextKey is the key for storing principal claims in context
	PrincipalContextKey contextKey = "principal"
)

// Principal validates the signed identity credential (cookie, or bearer
// header for API clients) and injects its claims into the request context.
// It does not consult the session store; that is the session gate's job.
func Principal(pm *PrincipalManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := GetPrincipalCookie(r)
			if err != nil {
				tokenString = bearerToken(r)
			}
			if tokenString == "" {
				http.Error(w, "missing credentials", http.StatusUnauthorized)
				return
			}

			claims, err := pm.Verify(tokenString)
			if err != nil {
				http.Error(w, "invalid or expired credentials", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole enforces role-based access. The role is read fresh from the
// database, not from the (possibly stale) principal claims, so demotions and
// disables take effect immediately.
func RequireRole(userRepo UserRepository, role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := PrincipalFromRequest(r)
			if claims == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := userRepo.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					http.Error(w, "user not found", http.StatusUnauthorized)
					return
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			if user.IsDisabled() {
				http.Error(w, "account disabled", http.StatusForbidden)
				return
			}

			if user.Role != role {
				http.Error(w, "forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromRequest extracts principal claims from the request context
func PrincipalFromRequest(r *http.Request) *models.PrincipalClaims {
	claims, ok := r.Context().Value(PrincipalContextKey).(*models.PrincipalClaims)
	if !ok {
		return nil
	}
	return claims
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// UserRepository is the slice of the user store the middleware needs.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}
