package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"newswire/internal/auth"
	"newswire/internal/models"
	"newswire/internal/services"
	pkghttp "newswire/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string, remember bool, userAgent, ipAddress string) (*services.LoginResult, error)
	Logout(ctx context.Context, userID, sessionToken string) error
	LogoutAll(ctx context.Context, userID string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service      AuthServiceInterface
	cookieConfig auth.CookieConfig
	ipConfig     *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, cookieConfig auth.CookieConfig, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieConfig: cookieConfig,
		ipConfig:     ipConfig,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Success bool          `json:"success"`
	User    *UserResponse `json:"user"`
}

// UserResponse is the user shape exposed over HTTP
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// LockedResponse is returned when login hits an active lockout
type LockedResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	RemainingMinutes int    `json:"remaining_minutes"`
}

// Login handles user login
// @Summary User login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} LoginResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 423 {object} LockedResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.UserAgent()

	result, err := h.service.Login(r.Context(), req.Email, req.Password, req.Remember, userAgent, ipAddress)
	if err != nil {
		var lockErr *models.LockoutError
		switch {
		case errors.As(err, &lockErr):
			writeJSON(w, http.StatusLocked, LockedResponse{
				Success:          false,
				Message:          lockErr.Error(),
				RemainingMinutes: lockErr.RemainingMinutes,
			})
		case errors.Is(err, models.ErrAccountDisabled):
			pkghttp.WriteForbidden(w, "This account has been disabled")
		case errors.Is(err, models.ErrUnauthorized):
			// One message for unknown email and wrong password alike.
			pkghttp.WriteUnauthorized(w, "Invalid email or password")
		default:
			pkghttp.WriteInternalError(w, "Login failed")
		}
		return
	}

	auth.SetPrincipalCookie(w, result.Token, result.Session.ExpiresAt, h.cookieConfig)

	writeJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		User: &UserResponse{
			ID:    result.User.ID,
			Email: result.User.Email,
			Name:  result.User.Name,
			Role:  result.User.Role,
		},
	})
}

// SessionCheck reports whether the caller's session is still alive. The
// session gate in front of this handler has already validated the session,
// so reaching it at all means valid.
// @Router /auth/session [get]
func (h *AuthHandler) SessionCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// Logout terminates the caller's session and clears the cookie.
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.PrincipalFromRequest(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Not logged in")
		return
	}

	if err := h.service.Logout(r.Context(), claims.UserID, claims.SessionToken); err != nil {
		pkghttp.WriteInternalError(w, "Logout failed")
		return
	}

	auth.ClearPrincipalCookie(w, h.cookieConfig)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// LogoutAll terminates every session the caller has, on every device.
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	claims := auth.PrincipalFromRequest(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Not logged in")
		return
	}

	if err := h.service.LogoutAll(r.Context(), claims.UserID); err != nil {
		pkghttp.WriteInternalError(w, "Logout failed")
		return
	}

	auth.ClearPrincipalCookie(w, h.cookieConfig)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
