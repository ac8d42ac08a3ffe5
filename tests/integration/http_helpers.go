package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"newswire/internal/auth"
	"newswire/internal/cache"
	"newswire/internal/database"
	"newswire/internal/handlers"
	"newswire/internal/notify"
	"newswire/internal/repositories"
	"newswire/internal/routes"
	"newswire/internal/services"
	pkghttp "newswire/pkg/http"
	pkglogger "newswire/pkg/logger"
)

// SentEmail represents a captured email message
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// MockMailer captures sent emails for test assertions
type MockMailer struct {
	mu         sync.Mutex
	SentEmails []SentEmail
}

func (m *MockMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEmails = append(m.SentEmails, SentEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

// Sent returns a snapshot of captured emails.
func (m *MockMailer) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentEmail, len(m.SentEmails))
	copy(out, m.SentEmails)
	return out
}

const TestJWTSecret = "test-secret-32-characters-long-for-testing"

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server      *httptest.Server
	DB          *database.DB
	Mailer      *MockMailer
	Dispatcher  *notify.Dispatcher
	Queue       *notify.Queue
	SessionRepo *repositories.SessionRepository

	stopWorker context.CancelFunc
}

// NewTestServer initializes a complete HTTP server with real database and a
// captured mail transport.
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	articleRepo := repositories.NewArticleRepository(db)

	auditLogger := pkglogger.NewAuditLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	lockoutGuard := services.NewLockoutGuard(cache.NewMemoryStore(), logger)
	sessionService := services.NewSessionService(sessionRepo, logger)
	principalManager := auth.NewPrincipalManager(TestJWTSecret)
	authService := services.NewAuthService(userRepo, sessionService, lockoutGuard, principalManager, logger, auditLogger)

	cookieConfig := auth.CookieConfig{}

	mailer := &MockMailer{}
	dispatcher := notify.NewDispatcher(subscriptionRepo, mailer, "http://localhost:3000", logger)
	queue := notify.NewQueue(dispatcher, 16, logger)

	ipConfig := &pkghttp.IPConfig{}
	authHandler := handlers.NewAuthHandler(authService, cookieConfig, ipConfig)
	adminHandler := handlers.NewAdminHandler(articleRepo, userRepo, queue, "http://localhost:3000")
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionRepo)
	healthHandler := handlers.NewHealthHandler(db)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)

	routes.RegisterRoutes(router, authHandler, adminHandler, subscriptionHandler, healthHandler,
		principalManager, sessionService, cookieConfig, userRepo, logger)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	go queue.Start(workerCtx)

	return &TestServer{
		Server:      httptest.NewServer(router),
		DB:          db,
		Mailer:      mailer,
		Dispatcher:  dispatcher,
		Queue:       queue,
		SessionRepo: sessionRepo,
		stopWorker:  stopWorker,
	}
}

// Close shuts down the HTTP server and the notification worker.
func (ts *TestServer) Close() {
	ts.stopWorker()
	ts.Server.Close()
}

// PostJSON sends a JSON POST and returns the response. Cookies are the
// caller's responsibility.
func (ts *TestServer) PostJSON(path string, body any, cookies ...*http.Cookie) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest("POST", ts.Server.URL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	return http.DefaultClient.Do(req)
}

// Get sends a GET and returns the response.
func (ts *TestServer) Get(path string, cookies ...*http.Cookie) (*http.Response, error) {
	req, err := http.NewRequest("GET", ts.Server.URL+path, nil)
	if err != nil {
		return nil, err
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return client.Do(req)
}

// GetJSON sends a GET with an API Accept header, so auth failures come back
// as JSON instead of a redirect.
func (ts *TestServer) GetJSON(path string, cookies ...*http.Cookie) (*http.Response, error) {
	req, err := http.NewRequest("GET", ts.Server.URL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return http.DefaultClient.Do(req)
}

// Login performs a login and returns the session cookie.
func (ts *TestServer) Login(email, password string, remember bool) (*http.Cookie, *http.Response, error) {
	resp, err := ts.PostJSON("/auth/login", map[string]any{
		"email":    email,
		"password": password,
		"remember": remember,
	})
	if err != nil {
		return nil, nil, err
	}

	for _, c := range resp.Cookies() {
		if c.Name == "newswire_session" {
			return c, resp, nil
		}
	}
	return nil, resp, nil
}

// DecodeJSON decodes a response body into target and closes it.
func DecodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
