package services_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newswire/internal/models"
	"newswire/internal/services"
)

// fakeSessionRepo implements SessionRepository with real store semantics in
// memory, so the service's invariants can be observed end to end.
type fakeSessionRepo struct {
	nextID   int
	sessions map[string]*models.UserSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.UserSession)}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *models.UserSession) (*models.UserSession, error) {
	f.nextID++
	s.ID = fmt.Sprintf("sess-%d", f.nextID)
	s.IsActive = true
	s.CreatedAt = time.Now()
	s.LastActivity = s.CreatedAt

	stored := *s
	f.sessions[s.ID] = &stored
	return s, nil
}

func (f *fakeSessionRepo) DeactivateSiblings(_ context.Context, userID, keepSessionID string) error {
	for _, s := range f.sessions {
		if s.UserID == userID && s.ID != keepSessionID {
			s.IsActive = false
		}
	}
	return nil
}

func (f *fakeSessionRepo) FindActive(_ context.Context, userID, token string) (*models.UserSession, error) {
	for _, s := range f.sessions {
		if s.UserID == userID && s.Token == token && s.IsActive && s.ExpiresAt.After(time.Now()) {
			s.LastActivity = time.Now()
			found := *s
			return &found, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeSessionRepo) Terminate(_ context.Context, sessionID string) error {
	s, ok := f.sessions[sessionID]
	if !ok {
		return models.ErrNotFound
	}
	s.IsActive = false
	return nil
}

func (f *fakeSessionRepo) TerminateAll(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive {
			s.IsActive = false
			count++
		}
	}
	return count, nil
}

func (f *fakeSessionRepo) ListByUser(_ context.Context, userID string) ([]*models.UserSession, error) {
	out := make([]*models.UserSession, 0)
	for _, s := range f.sessions {
		if s.UserID == userID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) activeSessions(userID string) []*models.UserSession {
	out := make([]*models.UserSession, 0)
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive {
			out = append(out, s)
		}
	}
	return out
}

func newSessionService(repo *fakeSessionRepo) *services.SessionService {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return services.NewSessionService(repo, logger)
}

func TestSessionServiceCreate_SingleActiveSession(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newSessionService(repo)
	ctx := context.Background()

	var last *models.UserSession
	for i := 0; i < 4; i++ {
		s, err := svc.Create(ctx, "user-7", "Mozilla/5.0", "10.0.0.1", false)
		require.NoError(t, err)
		last = s
	}

	active := repo.activeSessions("user-7")
	require.Len(t, active, 1, "exactly one session may be active")
	assert.Equal(t, last.ID, active[0].ID, "the survivor is the most recent one")
}

func TestSessionServiceCreate_TokenIsUnpredictableAndUnique(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newSessionService(repo)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		s, err := svc.Create(ctx, "user-1", "", "", false)
		require.NoError(t, err)
		assert.Len(t, s.Token, 32, "128 bits hex-encoded")
		assert.False(t, seen[s.Token], "tokens must not repeat")
		seen[s.Token] = true
	}
}

func TestSessionServiceCreate_ExpiryByPersistence(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newSessionService(repo)
	ctx := context.Background()

	short, err := svc.Create(ctx, "user-7", "", "", false)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), short.ExpiresAt, time.Minute)

	long, err := svc.Create(ctx, "user-7", "", "", true)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), long.ExpiresAt, time.Minute)
}

func TestSessionServiceValidate_HitTouchesActivity(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newSessionService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-7", "", "", false)
	require.NoError(t, err)

	validated, err := svc.Validate(ctx, "user-7", created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, validated.ID)
}

func TestSessionServiceValidate_MissAfterDeactivation(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newSessionService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-7", "", "", false)
	require.NoError(t, err)

	require.NoError(t, svc.Terminate(ctx, created.ID))

	// Revocation takes effect immediately even though expires_at is far off.
	_, err = svc.Validate(ctx, "user-7", created.Token)
	assert.ErrorIs(t, err, models.ErrSessionExpired)
}

func TestSessionServiceValidate_MissAfterSupersession(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newSessionService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, "user-7", "", "", false)
	require.NoError(t, err)

	second, err := svc.Create(ctx, "user-7", "", "", false)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, "user-7", first.Token)
	assert.ErrorIs(t, err, models.ErrSessionExpired)

	_, err = svc.Validate(ctx, "user-7", second.Token)
	assert.NoError(t, err)
}

func TestSessionServiceValidate_EmptyInputs(t *testing.T) {
	svc := newSessionService(newFakeSessionRepo())

	_, err := svc.Validate(context.Background(), "", "token")
	assert.ErrorIs(t, err, models.ErrSessionExpired)

	_, err = svc.Validate(context.Background(), "user-7", "")
	assert.ErrorIs(t, err, models.ErrSessionExpired)
}

func TestSessionServiceTerminateAll(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newSessionService(repo)
	ctx := context.Background()

	// Sequential creates leave one active; terminate-all clears that too.
	_, err := svc.Create(ctx, "user-7", "", "", false)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-7", "", "", false)
	require.NoError(t, err)

	require.NoError(t, svc.TerminateAll(ctx, "user-7"))
	assert.Empty(t, repo.activeSessions("user-7"))
}
