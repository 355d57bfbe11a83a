package api

import (
	"github.com/gin-gonic/gin"
	"github.com/lyricforge/lyricforge-api/internal/api/handlers"
	apimiddleware "github.com/lyricforge/lyricforge-api/internal/api/middleware"
	"github.com/lyricforge/lyricforge-api/internal/config"
	"github.com/lyricforge/lyricforge-api/internal/jobs"
	"github.com/lyricforge/lyricforge-api/internal/llm"
	"github.com/lyricforge/lyricforge-api/internal/metrics"
	"github.com/lyricforge/lyricforge-api/internal/middleware"
	"github.com/lyricforge/lyricforge-api/internal/services"
	"gorm.io/gorm"
)

func SetupRouter(
	db *gorm.DB,
	cfg *config.Config,
	version string,
	runner *jobs.Runner,
	sentryMetrics *metrics.SentryMetrics,
	cwMetrics *metrics.Client,
) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking())

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(db)
	router.GET("/health", healthHandler.HealthCheck)

	// Bootstrap endpoint (one-time admin setup, disabled unless BOOTSTRAP_SECRET is set)
	bootstrapHandler := handlers.NewBootstrapHandler(db)
	router.POST("/api/bootstrap/set-admin", bootstrapHandler.SetAdminRole)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// Supported genres and their presets (public, no auth)
	router.GET("/api/genres", handlers.GenresHandler)

	// Shared services
	emailService := services.NewEmailService(db, cfg)
	creditsService := services.NewCreditsService(db)
	providerFactory := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey)
	lyricsService := services.NewLyricsService(providerFactory, sentryMetrics, cwMetrics)

	// Auth routes (public)
	auth := router.Group("/api/auth")
	{
		authHandler := handlers.NewAuthHandler(db, cfg, emailService)
		auth.POST("/register", authHandler.Register)
		auth.POST("/accept-invitation", authHandler.AcceptInvitation) // Accept invitation and create account
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout) // Logout (clears cookies)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/verify-email", authHandler.VerifyEmail)                 // Email verification
		auth.POST("/resend-verification", authHandler.ResendVerification) // Resend verification email

		// OAuth routes
		oauthHandler := handlers.NewOAuthHandler(db, cfg)
		auth.GET("/:provider", oauthHandler.BeginAuth)         // /api/auth/google or /api/auth/github
		auth.GET("/:provider/callback", oauthHandler.Callback) // OAuth callback
	}

	// Protected API routes v1
	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(db, cfg))
	{
		// Song composition endpoints
		songsHandler := handlers.NewSongsHandler(db, runner, creditsService, sentryMetrics, cwMetrics)
		v1.POST("/songs", songsHandler.Compose)
		v1.GET("/songs", songsHandler.ListSongs)
		v1.GET("/songs/:id", songsHandler.GetSong)

		// Lyric generation (LLM-backed)
		lyricsHandler := handlers.NewLyricsHandler(lyricsService, creditsService)
		v1.POST("/lyrics", lyricsHandler.Generate)

		// Track analysis (uploaded WAV)
		analyzeHandler := handlers.NewAnalyzeHandler(creditsService)
		v1.POST("/analyze", analyzeHandler.Analyze)

		// User/dashboard endpoints
		userHandler := handlers.NewUserHandler(db)
		v1.GET("/me", userHandler.GetProfile)
		v1.GET("/credits", userHandler.GetCredits)
		v1.GET("/usage/stats", userHandler.GetUsageStats)
		v1.GET("/usage/history", userHandler.GetUsageHistory)
	}

	// Admin API routes (admin only)
	admin := router.Group("/api/admin")
	admin.Use(middleware.JWTAuth(db, cfg), middleware.AdminRequired())
	{
		adminHandler := handlers.NewAdminHandler(db)
		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/users/:id", adminHandler.GetUserDetails)
		admin.PUT("/users/:id/role", adminHandler.UpdateUserRole)
		admin.PUT("/users/:id/toggle-active", adminHandler.ToggleUserActive)
		admin.PUT("/users/:id/credits", adminHandler.UpdateUserCredits)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)

		// Invitation management
		invitationHandler := handlers.NewInvitationHandler(db, emailService)
		admin.POST("/invitations", invitationHandler.CreateInvitation)
		admin.POST("/invitations/send", invitationHandler.SendInvitation)
		admin.POST("/invitations/:id/resend", invitationHandler.ResendInvitation)
		admin.GET("/invitations", invitationHandler.ListInvitations)
		admin.GET("/invitations/stats", invitationHandler.GetInvitationStats)
		admin.DELETE("/invitations/:id", invitationHandler.DeleteInvitation)
	}

	return router
}

// authMiddleware picks the authentication strategy for the protected API
// based on AUTH_MODE: locally issued JWTs (default), trusted X-User-*
// headers behind the billing gateway, or none for self-hosted setups.
func authMiddleware(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	switch cfg.AuthMode {
	case "gateway":
		return apimiddleware.GatewayAuth()
	case "none":
		return apimiddleware.NoAuth()
	default:
		return middleware.JWTAuth(db, cfg)
	}
}
