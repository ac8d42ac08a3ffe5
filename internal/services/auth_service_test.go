package services_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"newswire/internal/auth"
	"newswire/internal/models"
	"newswire/internal/services"
)

type fakeUserStore struct {
	users map[string]*models.User // keyed by lowercase email
	err   error
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, models.ErrNotFound
}

type fakeSessionManager struct {
	created        []*models.UserSession
	terminated     []string
	terminatedAll  []string
	validateErr    error
	lastPersistent bool
}

func (f *fakeSessionManager) Create(_ context.Context, userID, userAgent, ipAddress string, persistent bool) (*models.UserSession, error) {
	f.lastPersistent = persistent
	session := &models.UserSession{
		ID:        "sess-1",
		UserID:    userID,
		Token:     "tok-abc",
		IsActive:  true,
		ExpiresAt: time.Now().Add(models.SessionTTL),
	}
	f.created = append(f.created, session)
	return session, nil
}

func (f *fakeSessionManager) Validate(_ context.Context, userID, token string) (*models.UserSession, error) {
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	return &models.UserSession{ID: "sess-1", UserID: userID, Token: token, IsActive: true}, nil
}

func (f *fakeSessionManager) Terminate(_ context.Context, sessionID string) error {
	f.terminated = append(f.terminated, sessionID)
	return nil
}

func (f *fakeSessionManager) TerminateAll(_ context.Context, userID string) error {
	f.terminatedAll = append(f.terminatedAll, userID)
	return nil
}

type fakeGuard struct {
	locked    bool
	remaining int
	failures  []string
	successes []string
}

func (f *fakeGuard) IsLocked(_ context.Context, _ string) bool {
	return f.locked
}

func (f *fakeGuard) LockedResponse(_ context.Context, _ string) services.LockoutStatus {
	return services.LockoutStatus{Message: "account locked", RemainingMinutes: f.remaining}
}

func (f *fakeGuard) RecordFailure(_ context.Context, identity string) error {
	f.failures = append(f.failures, identity)
	return nil
}

func (f *fakeGuard) RecordSuccess(_ context.Context, identity string) error {
	f.successes = append(f.successes, identity)
	return nil
}

const testPassword = "correct horse battery staple"

func newAuthFixture(t *testing.T) (*services.AuthService, *fakeUserStore, *fakeSessionManager, *fakeGuard) {
	t.Helper()

	// MinCost keeps the fixture fast; production hashing cost is not under test.
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	users := &fakeUserStore{users: map[string]*models.User{
		"reader@example.com": {
			ID:           "user-1",
			Email:        "reader@example.com",
			PasswordHash: string(hash),
			Name:         "Reader One",
			Role:         models.RoleReader,
			Status:       models.UserStatusActive,
		},
	}}
	sessions := &fakeSessionManager{}
	guard := &fakeGuard{}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	pm := auth.NewPrincipalManager("test-secret-key-that-is-long-enough-123")
	svc := services.NewAuthService(users, sessions, guard, pm, logger, newTestAuditLogger())

	return svc, users, sessions, guard
}

func TestLoginSuccess(t *testing.T) {
	svc, _, sessions, guard := newAuthFixture(t)

	result, err := svc.Login(context.Background(), "reader@example.com", testPassword, false, "Mozilla/5.0", "203.0.113.9")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "user-1", result.Session.UserID)
	assert.False(t, sessions.lastPersistent)
	assert.Equal(t, []string{"reader@example.com"}, guard.successes)
	assert.Empty(t, guard.failures)
}

func TestLoginRememberMeRequestsPersistentSession(t *testing.T) {
	svc, _, sessions, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "reader@example.com", testPassword, true, "", "")
	require.NoError(t, err)
	assert.True(t, sessions.lastPersistent)
}

func TestLoginNormalizesEmail(t *testing.T) {
	svc, _, _, guard := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "  Reader@Example.COM ", testPassword, false, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"reader@example.com"}, guard.successes)
}

func TestLoginWrongPasswordRecordsFailure(t *testing.T) {
	svc, _, _, guard := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "reader@example.com", "wrong", false, "", "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Equal(t, []string{"reader@example.com"}, guard.failures)
	assert.Empty(t, guard.successes)
}

func TestLoginUnknownEmailRecordsFailure(t *testing.T) {
	// Unknown identities return the same generic error as wrong passwords
	// and still burn a lockout attempt.
	svc, _, _, guard := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "ghost@example.com", testPassword, false, "", "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Equal(t, []string{"ghost@example.com"}, guard.failures)
}

func TestLoginLockedAccount(t *testing.T) {
	svc, _, sessions, guard := newAuthFixture(t)
	guard.locked = true
	guard.remaining = 12

	_, err := svc.Login(context.Background(), "reader@example.com", testPassword, false, "", "")

	var lockErr *models.LockoutError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, 12, lockErr.RemainingMinutes)
	assert.ErrorIs(t, err, models.ErrAccountLocked)
	assert.Empty(t, sessions.created, "locked accounts never reach session creation")
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, users, _, guard := newAuthFixture(t)
	users.users["reader@example.com"].Status = models.UserStatusDisabled

	_, err := svc.Login(context.Background(), "reader@example.com", testPassword, false, "", "")
	assert.ErrorIs(t, err, models.ErrAccountDisabled)
	assert.Empty(t, guard.failures, "disabled is an account state, not a credential failure")
}

func TestLoginEmptyEmail(t *testing.T) {
	svc, _, _, guard := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "   ", testPassword, false, "", "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Empty(t, guard.failures)
}

func TestLoginUserStoreError(t *testing.T) {
	svc, users, _, _ := newAuthFixture(t)
	users.err = errors.New("connection refused")

	_, err := svc.Login(context.Background(), "reader@example.com", testPassword, false, "", "")
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestLogoutTerminatesSession(t *testing.T) {
	svc, _, sessions, _ := newAuthFixture(t)

	require.NoError(t, svc.Logout(context.Background(), "user-1", "tok-abc"))
	assert.Equal(t, []string{"sess-1"}, sessions.terminated)
}

func TestLogoutDeadSessionIsNoop(t *testing.T) {
	svc, _, sessions, _ := newAuthFixture(t)
	sessions.validateErr = models.ErrSessionExpired

	require.NoError(t, svc.Logout(context.Background(), "user-1", "tok-abc"))
	assert.Empty(t, sessions.terminated)
}

func TestLogoutAll(t *testing.T) {
	svc, _, sessions, _ := newAuthFixture(t)

	require.NoError(t, svc.LogoutAll(context.Background(), "user-1"))
	assert.Equal(t, []string{"user-1"}, sessions.terminatedAll)
}
