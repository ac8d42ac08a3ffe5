package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"newswire/internal/models"
)

// PrincipalManager signs and verifies the identity cookie payload. The
// payload carries opaque claims (user id, role, session token); it is NOT
// proof of an active session on its own — the session gate re-validates the
// embedded session token against the store on every request.
type PrincipalManager struct {
	secret string
}

func NewPrincipalManager(secret string) *PrincipalManager {
	return &PrincipalManager{secret: secret}
}

// Issue signs a principal for the user bound to one session token. The
// principal's own expiry mirrors the session's so the cookie cannot outlive
// the hard session expiry.
func (pm *PrincipalManager) Issue(user *models.User, sessionToken string, expiresAt time.Time) (string, error) {
	now := time.Now()

	claims := &models.PrincipalClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		SessionToken: sessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(pm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign principal: %w", err)
	}

	return signed, nil
}

// Verify parses and verifies a signed principal, returning its claims.
func (pm *PrincipalManager) Verify(tokenString string) (*models.PrincipalClaims, error) {
	claims := &models.PrincipalClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(pm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse principal: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	return claims, nil
}
