package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/parley-chat/identity/internal/auth"
	"github.com/parley-chat/identity/internal/handlers"
	"github.com/parley-chat/identity/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tokenManager *auth.TokenManager,
	userRepo auth.UserRepository,
) {
	// Rate limiting config for credential endpoints
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes - no authentication required
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimitConfig))

		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/send-otp", authHandler.SendOTP)
		r.Post("/auth/verify-otp", authHandler.VerifyOTP)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/forgot-password", authHandler.ForgotPassword)
		r.Post("/auth/reset-password", authHandler.ResetPassword)
	})

	// Logout touches no credentials, so it sits outside the rate limiter
	router.Post("/auth/logout", authHandler.Logout)

	// Protected routes - session token required
	router.Group(func(r chi.Router) {
		r.Use(auth.Protect(tokenManager, userRepo))

		r.Get("/me", userHandler.Me)
		r.Patch("/me", userHandler.UpdateMe)
	})
}
