package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"newswire/internal/auth"
	"newswire/internal/models"
	pkgauth "newswire/pkg/auth"
	pkglogger "newswire/pkg/logger"
)

// UserRepository defines the user lookups the auth flow needs.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SessionManager is the slice of the session service the auth flow uses.
type SessionManager interface {
	Create(ctx context.Context, userID, userAgent, ipAddress string, persistent bool) (*models.UserSession, error)
	Validate(ctx context.Context, userID, token string) (*models.UserSession, error)
	Terminate(ctx context.Context, sessionID string) error
	TerminateAll(ctx context.Context, userID string) error
}

// LoginGuard throttles brute-force attempts per identity.
type LoginGuard interface {
	IsLocked(ctx context.Context, identity string) bool
	LockedResponse(ctx context.Context, identity string) LockoutStatus
	RecordFailure(ctx context.Context, identity string) error
	RecordSuccess(ctx context.Context, identity string) error
}

// AuthService handles login, logout, and the credential checks around them.
type AuthService struct {
	users       UserRepository
	sessions    SessionManager
	guard       LoginGuard
	pm          *auth.PrincipalManager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAuthService(users UserRepository, sessions SessionManager, guard LoginGuard, pm *auth.PrincipalManager, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		guard:       guard,
		pm:          pm,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// LoginResult is what a successful login hands back to the HTTP layer.
type LoginResult struct {
	Token   string
	Session *models.UserSession
	User    *models.User
}

// Login authenticates credentials and establishes the user's single active
// session. Lockout is checked before credentials so a locked account leaks
// nothing about password validity. All credential failures collapse into
// ErrUnauthorized; only an active lockout is distinguishable, via
// *models.LockoutError.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool, userAgent, ipAddress string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		s.logger.Warn("login attempt with empty email")
		return nil, models.ErrUnauthorized
	}

	if s.guard.IsLocked(ctx, email) {
		status := s.guard.LockedResponse(ctx, email)
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			IPAddress:     ipAddress,
			FailureReason: "account_locked",
			Success:       false,
		})
		return nil, &models.LockoutError{RemainingMinutes: status.RemainingMinutes}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Unknown identities burn attempts too, so probing for
			// registered emails is as throttled as password guessing.
			if err := s.guard.RecordFailure(ctx, email); err != nil {
				s.logger.Error("failed to record login failure", slog.Any("error", err))
			}
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				IPAddress:     ipAddress,
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.IsDisabled() {
		s.logger.Info("login blocked: account disabled", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "account_disabled",
			Success:       false,
		})
		return nil, models.ErrAccountDisabled
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		if err := s.guard.RecordFailure(ctx, email); err != nil {
			s.logger.Error("failed to record login failure", slog.Any("error", err))
		}
		s.logger.Info("login failed: invalid credentials")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		return nil, models.ErrUnauthorized
	}

	if err := s.guard.RecordSuccess(ctx, email); err != nil {
		s.logger.Error("failed to clear login attempt history", slog.Any("error", err))
	}

	session, err := s.sessions.Create(ctx, user.ID, userAgent, ipAddress, remember)
	if err != nil {
		s.logger.Error("failed to create session", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, err := s.pm.Issue(user, session.Token, session.ExpiresAt)
	if err != nil {
		s.logger.Error("failed to issue principal token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.Bool("persistent", remember))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   true,
	})

	return &LoginResult{
		Token:   token,
		Session: session,
		User:    user,
	}, nil
}

// Logout terminates the caller's current session. Logging out an already
// dead session succeeds: the cookie is gone either way.
func (s *AuthService) Logout(ctx context.Context, userID, sessionToken string) error {
	session, err := s.sessions.Validate(ctx, userID, sessionToken)
	if err != nil {
		if errors.Is(err, models.ErrSessionExpired) {
			return nil
		}
		return err
	}

	if err := s.sessions.Terminate(ctx, session.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to terminate session", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out", slog.String("user_id", userID))
	return nil
}

// LogoutAll terminates every active session the user has, on every device.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessions.TerminateAll(ctx, userID); err != nil {
		s.logger.Error("failed to terminate all sessions", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("logout_all", userID, "", nil)
	return nil
}
