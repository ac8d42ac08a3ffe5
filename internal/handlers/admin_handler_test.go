package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newswire/internal/handlers"
	"newswire/internal/models"
	"newswire/internal/notify"
)

type stubArticlePublisher struct {
	article *models.Article
	err     error
	gotID   string
}

func (s *stubArticlePublisher) MarkPublished(_ context.Context, id string) (*models.Article, error) {
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.article, nil
}

type stubUserDisabler struct {
	err   error
	gotID string
}

func (s *stubUserDisabler) Disable(_ context.Context, id string) error {
	s.gotID = id
	return s.err
}

type stubQueue struct {
	jobs    []notify.Job
	err     error
	metrics notify.Metrics
}

func (s *stubQueue) Enqueue(job notify.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *stubQueue) Metrics() notify.Metrics {
	return s.metrics
}

// withURLParam wires a chi route parameter into the request context, the way
// the router would.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func publishedArticle() *models.Article {
	now := time.Now()
	return &models.Article{
		ID:           "art-1",
		Title:        "Council Approves Budget",
		Content:      "The city council voted...",
		AuthorName:   "R. Alvarez",
		CategoryName: "Local",
		Slug:         "council-approves-budget",
		Status:       models.ArticleStatusPublished,
		PublishedAt:  &now,
	}
}

func TestApproveArticle_PublishesAndEnqueues(t *testing.T) {
	articles := &stubArticlePublisher{article: publishedArticle()}
	queue := &stubQueue{}
	handler := handlers.NewAdminHandler(articles, &stubUserDisabler{}, queue, "https://news.example.com")

	req := withURLParam(httptest.NewRequest("POST", "/admin/articles/art-1/approve", nil), "id", "art-1")
	w := httptest.NewRecorder()
	handler.ApproveArticle(w, req)

	var resp map[string]any
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["notified"])

	assert.Equal(t, "art-1", articles.gotID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "art-1", queue.jobs[0].ArticleID)
	assert.Equal(t, "https://news.example.com/articles/council-approves-budget", queue.jobs[0].ArticleURL)
}

func TestApproveArticle_NotFound(t *testing.T) {
	articles := &stubArticlePublisher{err: models.ErrNotFound}
	handler := handlers.NewAdminHandler(articles, &stubUserDisabler{}, &stubQueue{}, "")

	req := withURLParam(httptest.NewRequest("POST", "/admin/articles/ghost/approve", nil), "id", "ghost")
	w := httptest.NewRecorder()
	handler.ApproveArticle(w, req)

	handlers.AssertErrorResponse(t, w, 404, "not_found")
}

func TestApproveArticle_QueueFullStillPublishes(t *testing.T) {
	articles := &stubArticlePublisher{article: publishedArticle()}
	queue := &stubQueue{err: notify.ErrQueueFull}
	handler := handlers.NewAdminHandler(articles, &stubUserDisabler{}, queue, "")

	req := withURLParam(httptest.NewRequest("POST", "/admin/articles/art-1/approve", nil), "id", "art-1")
	w := httptest.NewRecorder()
	handler.ApproveArticle(w, req)

	var resp map[string]any
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, true, resp["success"], "publication is not rolled back on queue failure")
	assert.Equal(t, false, resp["notified"])
}

func TestDisableUser_Success(t *testing.T) {
	users := &stubUserDisabler{}
	handler := handlers.NewAdminHandler(&stubArticlePublisher{}, users, &stubQueue{}, "")

	req := withURLParam(httptest.NewRequest("POST", "/admin/users/user-9/disable", nil), "id", "user-9")
	w := httptest.NewRecorder()
	handler.DisableUser(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "user-9", users.gotID)
}

func TestDisableUser_NotFound(t *testing.T) {
	users := &stubUserDisabler{err: models.ErrNotFound}
	handler := handlers.NewAdminHandler(&stubArticlePublisher{}, users, &stubQueue{}, "")

	req := withURLParam(httptest.NewRequest("POST", "/admin/users/ghost/disable", nil), "id", "ghost")
	w := httptest.NewRecorder()
	handler.DisableUser(w, req)

	handlers.AssertErrorResponse(t, w, 404, "not_found")
}

func TestNotifyStatus(t *testing.T) {
	queue := &stubQueue{metrics: notify.Metrics{
		TotalSubscribers: 42,
		LastSuccessCount: 40,
		LastFailCount:    2,
		Status:           "completed",
	}}
	handler := handlers.NewAdminHandler(&stubArticlePublisher{}, &stubUserDisabler{}, queue, "")

	req := httptest.NewRequest("GET", "/admin/notifications/status", nil)
	w := httptest.NewRecorder()
	handler.NotifyStatus(w, req)

	var resp notify.Metrics
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, 42, resp.TotalSubscribers)
	assert.Equal(t, "completed", resp.Status)
}
