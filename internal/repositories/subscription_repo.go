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

// SubscriptionRepository handles database operations for email subscriptions
type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(db *database.DB) *SubscriptionRepository {
	return &SubscriptionRepository{pool: db.Pool}
}

func scanSubscriptionRow(scanner rowScanner) (*models.Subscription, error) {
	var s models.Subscription

	err := scanner.Scan(&s.ID, &s.Email, &s.UnsubscribeToken, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &s, nil
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	sub.ID = uuid.New().String()
	sub.CreatedAt = time.Now()
	sub.IsActive = true

	query := `
		INSERT INTO subscriptions (id, email, unsubscribe_token, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, unsubscribe_token, is_active, created_at
	`

	return scanSubscriptionRow(r.pool.QueryRow(ctx, query,
		sub.ID, sub.Email, sub.UnsubscribeToken, sub.IsActive, sub.CreatedAt,
	))
}

// ListActive returns every subscription that should receive notifications.
func (r *SubscriptionRepository) ListActive(ctx context.Context) ([]models.Subscription, error) {
	query := `
		SELECT id, email, unsubscribe_token, is_active, created_at
		FROM subscriptions WHERE is_active = true ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]models.Subscription, 0)
	for rows.Next() {
		s, err := scanSubscriptionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return subs, nil
}

// DeactivateByToken flips the subscription matching an unsubscribe token to
// inactive. Returns models.ErrNotFound for unknown tokens.
func (r *SubscriptionRepository) DeactivateByToken(ctx context.Context, token string) error {
	query := `UPDATE subscriptions SET is_active = false WHERE unsubscribe_token = $1 AND is_active = true`

	result, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
