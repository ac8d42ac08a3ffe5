package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"newswire/internal/models"
	"newswire/internal/notify"
	pkghttp "newswire/pkg/http"
)

// ArticlePublisher marks pending articles published.
type ArticlePublisher interface {
	MarkPublished(ctx context.Context, id string) (*models.Article, error)
}

// UserDisabler disables an account and cascades session termination.
type UserDisabler interface {
	Disable(ctx context.Context, id string) error
}

// NotificationQueue accepts dispatch jobs for published articles.
type NotificationQueue interface {
	Enqueue(job notify.Job) error
	Metrics() notify.Metrics
}

// AdminHandler handles moderation actions: article approval and account
// disabling.
type AdminHandler struct {
	articles ArticlePublisher
	users    UserDisabler
	queue    NotificationQueue
	baseURL  string
}

func NewAdminHandler(articles ArticlePublisher, users UserDisabler, queue NotificationQueue, baseURL string) *AdminHandler {
	return &AdminHandler{
		articles: articles,
		users:    users,
		queue:    queue,
		baseURL:  baseURL,
	}
}

// ApproveArticle handles POST /admin/articles/{id}/approve. Approval marks
// the article published and enqueues the subscriber notification; the
// response never waits on email delivery.
func (h *AdminHandler) ApproveArticle(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")
	if articleID == "" {
		pkghttp.WriteBadRequest(w, "Article ID is required")
		return
	}

	article, err := h.articles.MarkPublished(r.Context(), articleID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Article not found or not pending approval")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to approve article")
		return
	}

	job := notify.Job{
		ArticleID:    article.ID,
		Title:        article.Title,
		Content:      article.Content,
		AuthorName:   article.AuthorName,
		CategoryName: article.CategoryName,
		ImageURL:     article.ImageURL,
		ArticleURL:   fmt.Sprintf("%s/articles/%s", h.baseURL, article.Slug),
	}
	if article.PublishedAt != nil {
		job.PublishedAt = *article.PublishedAt
	}

	// A full queue does not un-publish the article; the admin is told the
	// notification did not go out.
	notified := true
	if err := h.queue.Enqueue(job); err != nil {
		notified = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"status":   article.Status,
		"notified": notified,
	})
}

// DisableUser handles POST /admin/users/{id}/disable. Disabling the account
// and terminating its sessions happen in one transaction, so a disabled user
// cannot ride out an existing session.
func (h *AdminHandler) DisableUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	if err := h.users.Disable(r.Context(), userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to disable user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// NotifyStatus handles GET /admin/notifications/status, exposing the last
// dispatch run's counters.
func (h *AdminHandler) NotifyStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.queue.Metrics())
}
