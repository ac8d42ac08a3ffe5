package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"newswire/internal/models"
	pkghttp "newswire/pkg/http"
)

// SessionValidator is the slice of the session service the gate needs.
type SessionValidator interface {
	Validate(ctx context.Context, userID, token string) (*models.UserSession, error)
}

// SessionExpiredPath is where navigational requests land when their session
// has been revoked or has expired.
const SessionExpiredPath = "/session-expired"

type sessionExpiredResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	RequireLogin bool   `json:"requireLogin"`
	Reason       string `json:"reason"`
}

// SessionGate re-validates the principal's session token against the live
// session store on every request. The signed cookie alone is not sufficient:
// it can outlive a server-side revocation (logout elsewhere, admin disable,
// supersession by a newer login).
//
// Principals without session claims predate session binding and pass
// through unchanged. Everything else blocks until the store answers; no
// request reaches a handler on a dead session.
func SessionGate(sessions SessionValidator, cookieConfig CookieConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := PrincipalFromRequest(r)
			if claims == nil || claims.UserID == "" || claims.SessionToken == "" {
				// Legacy principal: nothing to check against the store.
				next.ServeHTTP(w, r)
				return
			}

			_, err := sessions.Validate(r.Context(), claims.UserID, claims.SessionToken)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Only a confirmed-dead session forces sign-out. A store
			// outage is the server's problem, not the session's: keep
			// the cookie and degrade to a generic error.
			if !errors.Is(err, models.ErrSessionExpired) {
				logger.Error("session validation errored",
					slog.String("user_id", claims.UserID),
					slog.Any("error", err))
				pkghttp.WriteInternalError(w, "Something went wrong. Please try again.")
				return
			}

			logger.Warn("session no longer valid, forcing sign-out",
				slog.String("user_id", claims.UserID))

			ClearPrincipalCookie(w, cookieConfig)

			if wantsJSON(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(sessionExpiredResponse{
					Success:      false,
					Message:      "Your session has expired. Please sign in again.",
					RequireLogin: true,
					Reason:       "session_expired",
				})
				return
			}

			http.Redirect(w, r, SessionExpiredPath, http.StatusFound)
		})
	}
}

// wantsJSON distinguishes API-style requests from conventional navigation.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
