package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"newswire/internal/database"
	"newswire/internal/models"
)

// SessionRepository handles database operations for user sessions
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{pool: db.Pool}
}

func scanSessionRow(scanner rowScanner) (*models.UserSession, error) {
	var s models.UserSession

	err := scanner.Scan(
		&s.ID, &s.UserID, &s.Token, &s.DeviceInfo, &s.IPAddress,
		&s.IsActive, &s.LastActivity, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &s, nil
}

// Create inserts a new active session row.
func (r *SessionRepository) Create(ctx context.Context, session *models.UserSession) (*models.UserSession, error) {
	session.ID = uuid.New().String()

	now := time.Now()
	session.CreatedAt = now
	session.LastActivity = now
	session.IsActive = true

	query := `
		INSERT INTO user_sessions (id, user_id, token, device_info, ip_address, is_active, last_activity, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, user_id, token, device_info, ip_address, is_active, last_activity, expires_at, created_at
	`

	return scanSessionRow(r.pool.QueryRow(ctx, query,
		session.ID, session.UserID, session.Token, session.DeviceInfo, session.IPAddress,
		session.IsActive, session.LastActivity, session.ExpiresAt, session.CreatedAt,
	))
}

// DeactivateSiblings deactivates every other active session of the same user.
// Must run after the new session's insert has committed so the fresh row is
// never swept up itself.
func (r *SessionRepository) DeactivateSiblings(ctx context.Context, userID, keepSessionID string) error {
	query := `
		UPDATE user_sessions SET is_active = false
		WHERE user_id = $1 AND is_active = true AND id <> $2
	`

	_, err := r.pool.Exec(ctx, query, userID, keepSessionID)
	return database.MapPostgresError(err)
}

// FindActive returns the session matching userID+token that is still active
// and unexpired, touching last_activity in the same statement. Returns
// models.ErrNotFound on a miss.
func (r *SessionRepository) FindActive(ctx context.Context, userID, token string) (*models.UserSession, error) {
	query := `
		UPDATE user_sessions SET last_activity = now()
		WHERE user_id = $1 AND token = $2 AND is_active = true AND expires_at > now()
		RETURNING id, user_id, token, device_info, ip_address, is_active, last_activity, expires_at, created_at
	`

	return scanSessionRow(r.pool.QueryRow(ctx, query, userID, token))
}

// Touch refreshes last_activity for explicit client-side pings.
func (r *SessionRepository) Touch(ctx context.Context, sessionID string) error {
	query := `UPDATE user_sessions SET last_activity = now() WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, sessionID)
	return database.MapPostgresError(err)
}

// Terminate deactivates a single session. Already-inactive rows are left
// untouched (deactivation is idempotent, never reversed).
func (r *SessionRepository) Terminate(ctx context.Context, sessionID string) error {
	query := `UPDATE user_sessions SET is_active = false WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, sessionID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// TerminateAll deactivates every active session of a user ("log out
// everywhere").
func (r *SessionRepository) TerminateAll(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE user_sessions SET is_active = false WHERE user_id = $1 AND is_active = true`

	result, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}

// ListByUser returns a user's sessions, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]*models.UserSession, error) {
	query := `
		SELECT id, user_id, token, device_info, ip_address, is_active, last_activity, expires_at, created_at
		FROM user_sessions WHERE user_id = $1 ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.UserSession, 0)
	for rows.Next() {
		s, err := scanSessionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return sessions, nil
}

// DeleteDead bulk-deletes rows that are past their hard expiry or have been
// inactive for at least the idle purge age. Safe to run concurrently with
// request handling: every row it matches is already unusable.
func (r *SessionRepository) DeleteDead(ctx context.Context, idleAge time.Duration) (int64, error) {
	query := `
		DELETE FROM user_sessions
		WHERE expires_at < now()
		   OR (is_active = false AND last_activity < now() - make_interval(secs => $1))
	`

	result, err := r.pool.Exec(ctx, query, idleAge.Seconds())
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
