package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newswire/internal/models"
)

type stubValidator struct {
	session *models.UserSession
	err     error
	calls   int
}

func (s *stubValidator) Validate(_ context.Context, _, _ string) (*models.UserSession, error) {
	s.calls++
	return s.session, s.err
}

func gateRequest(t *testing.T, claims *models.PrincipalClaims, header map[string]string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for k, v := range header {
		r.Header.Set(k, v)
	}
	if claims != nil {
		r = r.WithContext(context.WithValue(r.Context(), PrincipalContextKey, claims))
	}
	return r
}

func runGate(validator SessionValidator, r *http.Request) (*httptest.ResponseRecorder, bool) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	reached := false
	handler := SessionGate(validator, CookieConfig{}, logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusOK)
		}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w, reached
}

func TestSessionGate_ValidSessionPasses(t *testing.T) {
	validator := &stubValidator{session: &models.UserSession{ID: "s1"}}
	claims := &models.PrincipalClaims{UserID: "u1", SessionToken: "tok"}

	w, reached := runGate(validator, gateRequest(t, claims, nil))

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, validator.calls)
}

func TestSessionGate_LegacyPrincipalPassesThrough(t *testing.T) {
	validator := &stubValidator{err: models.ErrSessionExpired}
	claims := &models.PrincipalClaims{UserID: "u1"} // no session token claim

	_, reached := runGate(validator, gateRequest(t, claims, nil))

	assert.True(t, reached, "principals without session claims are legacy passes")
	assert.Equal(t, 0, validator.calls, "store must not be consulted")
}

func TestSessionGate_NoPrincipalPassesThrough(t *testing.T) {
	validator := &stubValidator{err: models.ErrSessionExpired}

	_, reached := runGate(validator, gateRequest(t, nil, nil))

	assert.True(t, reached)
	assert.Equal(t, 0, validator.calls)
}

func TestSessionGate_ExpiredSessionJSONRequest(t *testing.T) {
	validator := &stubValidator{err: models.ErrSessionExpired}
	claims := &models.PrincipalClaims{UserID: "u1", SessionToken: "dead"}

	w, reached := runGate(validator, gateRequest(t, claims, map[string]string{
		"Accept": "application/json",
	}))

	assert.False(t, reached, "no request proceeds past an invalid session")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body sessionExpiredResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.True(t, body.RequireLogin)
	assert.Equal(t, "session_expired", body.Reason)

	// The transport credential must be cleared.
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, principalCookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestSessionGate_ExpiredSessionNavigationalRequest(t *testing.T) {
	validator := &stubValidator{err: models.ErrSessionExpired}
	claims := &models.PrincipalClaims{UserID: "u1", SessionToken: "dead"}

	w, reached := runGate(validator, gateRequest(t, claims, map[string]string{
		"Accept": "text/html,application/xhtml+xml",
	}))

	assert.False(t, reached)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, SessionExpiredPath, w.Header().Get("Location"))
}

func TestSessionGate_StoreOutageDoesNotSignOut(t *testing.T) {
	validator := &stubValidator{err: fmt.Errorf("failed to validate session: %w", errors.New("connection refused"))}
	claims := &models.PrincipalClaims{UserID: "u1", SessionToken: "tok"}

	w, reached := runGate(validator, gateRequest(t, claims, map[string]string{
		"Accept": "application/json",
	}))

	assert.False(t, reached)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Result().Cookies(), "an unreachable store must not clear the session cookie")
	assert.NotContains(t, w.Body.String(), "session_expired")
}

func TestSessionGate_APIPathTreatedAsJSON(t *testing.T) {
	validator := &stubValidator{err: models.ErrSessionExpired}
	claims := &models.PrincipalClaims{UserID: "u1", SessionToken: "dead"}

	r := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	r = r.WithContext(context.WithValue(r.Context(), PrincipalContextKey, claims))

	w, _ := runGate(validator, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}
