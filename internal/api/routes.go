package api

import (
	"github.com/gin-gonic/gin"
	"github.com/kickwager/kickwager-api/internal/auth"
	"github.com/kickwager/kickwager-api/internal/services"
	"github.com/kickwager/kickwager-api/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps holds what the routes need
type RouterDeps struct {
	Services *services.Services
	Pipeline *services.ScoringPipeline
	Config   *config.Config
	DB       HealthChecker
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, deps RouterDeps) {
	svc := deps.Services
	jwtService := auth.NewJWTService(deps.Config.JWTSecret, deps.Config.TokenTTL)

	authHandler := NewAuthHandler(svc.Auth)
	gameHandler := NewGameHandler(svc.Games, svc.Bets, svc.Scoring)
	betHandler := NewBetHandler(svc.Bets)
	groupHandler := NewGroupHandler(svc.Groups, svc.Leaderboard)
	leaderboardHandler := NewLeaderboardHandler(svc.Leaderboard)
	adminHandler := NewAdminHandler(svc.Admin)
	healthHandler := NewHealthHandler(deps.DB)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	public := r.Group("/api/v1")
	{
		public.GET("/health", healthHandler.Health)
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/logout", authHandler.Logout)

		public.GET("/leaderboard", leaderboardHandler.Global)
	}

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(auth.JWTMiddleware(jwtService))
	protected.Use(auth.CSRFMiddleware())
	protected.Use(CurrentUserMiddleware(svc.Auth))
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.DELETE("/auth/me", authHandler.DeleteAccount)

		protected.GET("/games", gameHandler.List)
		protected.GET("/games/:id", gameHandler.Get)
		protected.GET("/games/:id/bets", gameHandler.Bets)

		protected.POST("/bets", betHandler.Place)
		protected.GET("/bets/mine", betHandler.Mine)
		protected.GET("/users/:id/bets", betHandler.ByUser)

		protected.POST("/groups", groupHandler.Create)
		protected.GET("/groups", groupHandler.ListMine)
		protected.POST("/groups/join", groupHandler.Join)
		protected.GET("/groups/:id", groupHandler.Get)
		protected.DELETE("/groups/:id", groupHandler.Delete)
		protected.POST("/groups/:id/leave", groupHandler.Leave)
		protected.DELETE("/groups/:id/members/:userId", groupHandler.Kick)
		protected.GET("/groups/:id/games/:gameId/bets", groupHandler.GameBets)
		protected.GET("/groups/:id/leaderboard", groupHandler.Leaderboard)
	}

	// Admin routes
	admin := protected.Group("")
	admin.Use(RequireAdmin())
	{
		admin.POST("/games", gameHandler.Create)
		admin.PUT("/games/:id", gameHandler.Update)
		admin.POST("/games/:id/rescore", gameHandler.Rescore)
		admin.DELETE("/games/:id", gameHandler.Delete)

		admin.GET("/admin/users", adminHandler.ListUsers)
		admin.POST("/admin/users/:id/admin", adminHandler.MakeAdmin)

		if deps.Pipeline != nil {
			pipelineHandler := NewPipelineHandler(deps.Pipeline)
			admin.GET("/admin/pipeline/status", pipelineHandler.Status)
			admin.POST("/admin/pipeline/start", pipelineHandler.Start)
			admin.POST("/admin/pipeline/stop", pipelineHandler.Stop)
			admin.POST("/admin/pipeline/run-once", pipelineHandler.RunOnce)
		}
	}
}
