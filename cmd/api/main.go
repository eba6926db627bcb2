package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/parley-chat/identity/internal/auth"
	"github.com/parley-chat/identity/internal/config"
	"github.com/parley-chat/identity/internal/database"
	"github.com/parley-chat/identity/internal/handlers"
	middlewareCustom "github.com/parley-chat/identity/internal/middleware"
	"github.com/parley-chat/identity/internal/repositories"
	"github.com/parley-chat/identity/internal/routes"
	"github.com/parley-chat/identity/internal/services"
	pkgauth "github.com/parley-chat/identity/pkg/auth"
	pkghttp "github.com/parley-chat/identity/pkg/http"
	pkglogger "github.com/parley-chat/identity/pkg/logger"
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

	// Run migrations before opening the pool
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, cfg.Database.DSN()); err != nil {
		migrateCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize credential codec and store
	codec := pkgauth.NewCodec(cfg.Auth.BcryptCost)
	userRepo := repositories.NewUserRepository(db, codec)

	// Initialize token manager
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTokenTTL)

	// Audit logging
	auditLogger := pkglogger.NewAuditLogger(logger)

	// AWS SES mailer
	mailer, err := services.NewAWSSESMailer(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Email.SendTimeout,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize mailer", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, codec, tokenManager, mailer, logger, auditLogger, cfg.Auth.OTPTTL)
	resetService := services.NewPasswordResetService(userRepo, codec, tokenManager, mailer, logger, auditLogger, cfg.Auth.ResetTokenTTL, cfg.Email.ResetURLBase)

	// Session cookies mirror the token lifetime
	cookieConfig := auth.CookieConfig{
		Secure:   cfg.Server.Env == "production",
		SameSite: "lax",
	}
	cookieMaxAge := int(cfg.Auth.SessionTokenTTL.Seconds())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, resetService, cookieConfig, cookieMaxAge)
	userHandler := handlers.NewUserHandler(userRepo)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.Env)
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger, cfg.Server.TrustedProxies))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteNotFound(w, "Route not found")
	})

	// Register routes
	routes.RegisterRoutes(router, authHandler, userHandler, tokenManager, userRepo)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
