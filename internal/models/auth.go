package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// PrincipalClaims is the signed identity cookie payload. The cookie alone is
// not proof of an active session: SessionToken must be re-validated against
// the session store on every request, because a server-side revocation can
// outlive the cookie.
//
// SessionToken may be empty on principals minted before session binding was
// introduced; the session gate passes those through unchanged.
type PrincipalClaims struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
	Role         string `json:"role,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
	jwt.RegisteredClaims
}
