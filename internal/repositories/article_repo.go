package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"newswire/internal/database"
	"newswire/internal/models"
)

// ArticleRepository handles database operations for articles
type ArticleRepository struct {
	pool *pgxpool.Pool
}

func NewArticleRepository(db *database.DB) *ArticleRepository {
	return &ArticleRepository{pool: db.Pool}
}

func scanArticleRow(scanner rowScanner) (*models.Article, error) {
	var a models.Article

	err := scanner.Scan(
		&a.ID, &a.Title, &a.Content, &a.AuthorName, &a.CategoryName,
		&a.ImageURL, &a.Slug, &a.Status, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &a, nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	query := `
		SELECT id, title, content, author_name, category_name, image_url, slug, status, published_at, created_at, updated_at
		FROM articles WHERE id = $1
	`

	return scanArticleRow(r.pool.QueryRow(ctx, query, id))
}

func (r *ArticleRepository) Create(ctx context.Context, article *models.Article) (*models.Article, error) {
	article.ID = uuid.New().String()

	now := time.Now()
	article.CreatedAt = now
	article.UpdatedAt = now

	if article.Status == "" {
		article.Status = models.ArticleStatusPending
	}

	query := `
		INSERT INTO articles (id, title, content, author_name, category_name, image_url, slug, status, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, title, content, author_name, category_name, image_url, slug, status, published_at, created_at, updated_at
	`

	return scanArticleRow(r.pool.QueryRow(ctx, query,
		article.ID, article.Title, article.Content, article.AuthorName, article.CategoryName,
		article.ImageURL, article.Slug, article.Status, article.PublishedAt, article.CreatedAt, article.UpdatedAt,
	))
}

// MarkPublished transitions a pending article to published, stamping
// published_at. Only pending articles can be published.
func (r *ArticleRepository) MarkPublished(ctx context.Context, id string) (*models.Article, error) {
	query := `
		UPDATE articles SET status = $1, published_at = now(), updated_at = now()
		WHERE id = $2 AND status = $3
		RETURNING id, title, content, author_name, category_name, image_url, slug, status, published_at, created_at, updated_at
	`

	return scanArticleRow(r.pool.QueryRow(ctx, query,
		models.ArticleStatusPublished, id, models.ArticleStatusPending,
	))
}
