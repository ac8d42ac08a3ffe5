package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ua "github.com/mileusna/useragent"

	"newswire/internal/models"
	pkgauth "newswire/pkg/auth"
)

// SessionRepository defines the interface for session persistence
type SessionRepository interface {
	Create(ctx context.Context, session *models.UserSession) (*models.UserSession, error)
	DeactivateSiblings(ctx context.Context, userID, keepSessionID string) error
	FindActive(ctx context.Context, userID, token string) (*models.UserSession, error)
	Terminate(ctx context.Context, sessionID string) error
	TerminateAll(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]*models.UserSession, error)
}

// SessionService issues, validates and retires session tokens, enforcing the
// single-active-session-per-user policy.
type SessionService struct {
	repo   SessionRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewSessionService(repo SessionRepository, logger *slog.Logger) *SessionService {
	return &SessionService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Create issues a fresh session for the user and deactivates every other
// active session they hold. The insert must complete before the sibling
// sweep so the new session cannot deactivate itself.
func (s *SessionService) Create(ctx context.Context, userID, userAgent, ipAddress string, persistent bool) (*models.UserSession, error) {
	token, err := pkgauth.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	ttl := models.SessionTTL
	if persistent {
		ttl = models.PersistentSessionTTL
	}

	session, err := s.repo.Create(ctx, &models.UserSession{
		UserID:     userID,
		Token:      token,
		DeviceInfo: describeDevice(userAgent),
		IPAddress:  ipAddress,
		ExpiresAt:  s.now().Add(ttl),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.repo.DeactivateSiblings(ctx, userID, session.ID); err != nil {
		// The new session is already live; an incomplete sweep leaves stale
		// siblings behind rather than failing the login.
		s.logger.Error("failed to deactivate sibling sessions",
			slog.String("user_id", userID),
			slog.Any("error", err))
	}

	s.logger.Info("session created",
		slog.String("user_id", userID),
		slog.String("session_id", session.ID),
		slog.Bool("persistent", persistent))

	return session, nil
}

// Validate checks a bearer token against the live session store. A miss
// returns models.ErrSessionExpired: the caller must force a fresh login, no
// silent renewal. A hit touches last_activity as a side effect.
func (s *SessionService) Validate(ctx context.Context, userID, token string) (*models.UserSession, error) {
	if userID == "" || token == "" {
		return nil, models.ErrSessionExpired
	}

	session, err := s.repo.FindActive(ctx, userID, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrSessionExpired
		}
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	return session, nil
}

// Terminate deactivates one session (logout, or owner/admin revoking a
// device).
func (s *SessionService) Terminate(ctx context.Context, sessionID string) error {
	if err := s.repo.Terminate(ctx, sessionID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to terminate session: %w", err)
	}

	s.logger.Info("session terminated", slog.String("session_id", sessionID))
	return nil
}

// TerminateAll deactivates every active session of a user ("log out
// everywhere").
func (s *SessionService) TerminateAll(ctx context.Context, userID string) error {
	count, err := s.repo.TerminateAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to terminate sessions: %w", err)
	}

	s.logger.Info("all sessions terminated",
		slog.String("user_id", userID),
		slog.Int64("count", count))
	return nil
}

// ListForUser returns the user's sessions for the "active devices" view.
func (s *SessionService) ListForUser(ctx context.Context, userID string) ([]*models.UserSession, error) {
	return s.repo.ListByUser(ctx, userID)
}

// describeDevice turns a raw User-Agent into a short human-readable device
// label for the session list.
func describeDevice(userAgent string) string {
	if userAgent == "" {
		return "Unknown device"
	}

	parsed := ua.Parse(userAgent)

	browser := parsed.Name
	if browser == "" {
		browser = "Unknown browser"
	}
	os := parsed.OS
	if os == "" {
		os = "Unknown OS"
	}

	kind := "Desktop"
	switch {
	case parsed.Mobile:
		kind = "Mobile"
	case parsed.Tablet:
		kind = "Tablet"
	case parsed.Bot:
		kind = "Bot"
	}

	return fmt.Sprintf("%s on %s (%s)", browser, os, kind)
}
