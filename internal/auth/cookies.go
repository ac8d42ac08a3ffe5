package auth

import (
	"net/http"
	"time"
)

const principalCookieName = "newswire_session"

// CookieConfig holds cookie configuration settings
type CookieConfig struct {
	Domain string // Empty string = current host only
	Secure bool   // HTTPS only
}

// SetPrincipalCookie stores the signed principal in an httpOnly cookie.
func SetPrincipalCookie(w http.ResponseWriter, signed string, expiresAt time.Time, config CookieConfig) {
	cookie := &http.Cookie{
		Name:     principalCookieName,
		Value:    signed,
		Path:     "/",
		Domain:   config.Domain,
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true, // prevents JavaScript access
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
}

// ClearPrincipalCookie removes the principal cookie, forcing a fresh login.
func ClearPrincipalCookie(w http.ResponseWriter, config CookieConfig) {
	cookie := &http.Cookie{
		Name:     principalCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   -1, // negative MaxAge deletes the cookie
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
}

// GetPrincipalCookie retrieves the signed principal from the request.
func GetPrincipalCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(principalCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
