package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"newswire/internal/auth"
	"newswire/internal/background"
	"newswire/internal/cache"
	"newswire/internal/config"
	"newswire/internal/database"
	"newswire/internal/handlers"
	middlewareCustom "newswire/internal/middleware"
	"newswire/internal/models"
	"newswire/internal/notify"
	"newswire/internal/repositories"
	"newswire/internal/routes"
	"newswire/internal/services"
	pkgauth "newswire/pkg/auth"
	pkghttp "newswire/pkg/http"
	pkglogger "newswire/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Lockout store: in-process map or shared redis, per config
	var lockoutStore cache.Store
	switch cfg.Cache.Driver {
	case "redis":
		redisStore, err := cache.NewRedisStore(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisStore.Close()
		lockoutStore = redisStore
	default:
		lockoutStore = cache.NewMemoryStore()
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	articleRepo := repositories.NewArticleRepository(db)

	// Initialize services
	auditLogger := pkglogger.NewAuditLogger(logger)
	lockoutGuard := services.NewLockoutGuard(lockoutStore, logger)
	sessionService := services.NewSessionService(sessionRepo, logger)
	principalManager := auth.NewPrincipalManager(cfg.Auth.JWTSecret)
	authService := services.NewAuthService(userRepo, sessionService, lockoutGuard, principalManager, logger, auditLogger)

	cookieConfig := auth.CookieConfig{
		Domain: cfg.Auth.CookieDomain,
		Secure: cfg.Auth.CookieSecure,
	}

	// Mail transport and notification pipeline. The dispatcher holds its own
	// repository and mailer handles; notification runs never share
	// request-scoped resources.
	mailer, err := services.NewMailer(cfg.Mail, logger)
	if err != nil {
		logger.Error("failed to initialize mailer", slog.Any("error", err))
		os.Exit(1)
	}
	dispatcher := notify.NewDispatcher(subscriptionRepo, mailer, cfg.Server.BaseURL, logger)
	queue := notify.NewQueue(dispatcher, cfg.Notify.QueueSize, logger)

	// Session janitor
	janitor := background.NewSessionJanitor(sessionRepo, logger, cfg.Auth.JanitorInterval)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: []string{"127.0.0.1/32", "10.0.0.0/8"}}
	authHandler := handlers.NewAuthHandler(authService, cookieConfig, ipConfig)
	adminHandler := handlers.NewAdminHandler(articleRepo, userRepo, queue, cfg.Server.BaseURL)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionRepo)
	healthHandler := handlers.NewHealthHandler(db)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.Env)
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, adminHandler, subscriptionHandler, healthHandler,
		principalManager, sessionService, cookieConfig, userRepo, logger)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go janitor.Start(workerCtx)
	go queue.Start(workerCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	workerCancel()
	janitor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	// Check if admin already exists
	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	// Hash password
	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	// Create admin user
	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Name:         "Admin",
		Role:         models.RoleAdmin,
		Status:       models.UserStatusActive,
	}

	_, err = userRepo.Create(ctx, admin)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
