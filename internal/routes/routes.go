package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newswire/internal/auth"
	"newswire/internal/handlers"
	"newswire/internal/middleware"
	"newswire/internal/repositories"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	healthHandler *handlers.HealthHandler,
	pm *auth.PrincipalManager,
	sessions auth.SessionValidator,
	cookieConfig auth.CookieConfig,
	userRepo *repositories.UserRepository,
	logger *slog.Logger,
) {
	// Rate limiting config for auth endpoints
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)
	router.Post("/subscriptions", subscriptionHandler.Subscribe)
	router.Get("/subscriptions/unsubscribe", subscriptionHandler.Unsubscribe)
	router.Get("/health", healthHandler.Health)
	router.Handle("/metrics", promhttp.Handler())

	// Protected routes - valid principal AND live server-side session
	router.Group(func(r chi.Router) {
		r.Use(auth.Principal(pm))
		r.Use(auth.SessionGate(sessions, cookieConfig, logger))

		r.Get("/auth/session", authHandler.SessionCheck)
		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/auth/logout-all", authHandler.LogoutAll)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(userRepo, "admin"))
			r.Post("/admin/articles/{id}/approve", adminHandler.ApproveArticle)
			r.Post("/admin/users/{id}/disable", adminHandler.DisableUser)
			r.Get("/admin/notifications/status", adminHandler.NotifyStatus)
		})
	})
}
