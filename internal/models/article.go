package models

import "time"

// Article statuses
const (
	ArticleStatusPending   = "pending"
	ArticleStatusPublished = "published"
	ArticleStatusRejected  = "rejected"
)

type Article struct {
	ID           string
	Title        string
	Content      string
	AuthorName   string
	CategoryName string
	ImageURL     string // optional
	Slug         string
	Status       string // "pending", "published", "rejected"
	PublishedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
