package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kickwager/kickwager-api/internal/api"
	"github.com/kickwager/kickwager-api/internal/cache"
	"github.com/kickwager/kickwager-api/internal/database"
	"github.com/kickwager/kickwager-api/internal/events"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/middleware"
	"github.com/kickwager/kickwager-api/internal/repository"
	"github.com/kickwager/kickwager-api/internal/services"
	"github.com/kickwager/kickwager-api/pkg/config"
)

const (
	rateLimitPerMinute = 100
	shutdownTimeout    = 15 * time.Second
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()
	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.JWTSecret == "" {
		appLogger.Fatal("JWT_SECRET must be set", nil)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		appLogger.Fatal("Failed to run migrations", err)
	}

	deps := services.Dependencies{
		Repos:  repository.NewRepositories(db.DB),
		Config: cfg,
		Logger: appLogger,
	}

	if cfg.HasLeaderboardCache() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := cache.Connect(ctx, cfg.RedisURL, cfg.LeaderboardCacheTTL)
		cancel()
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", err)
		}
		defer redisCache.Close()
		deps.Cache = redisCache
		appLogger.Info("Leaderboard cache enabled", "ttl", cfg.LeaderboardCacheTTL.String())
	}

	if cfg.HasEvents() {
		bus, err := events.Connect(events.Options{
			URL:           cfg.NATSURL,
			Token:         cfg.NATSToken,
			SubjectPrefix: cfg.NATSSubjectPrefix,
			Name:          "kickwager-api",
		}, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to NATS", err)
		}
		defer bus.Close()
		deps.Events = bus
		appLogger.Info("Scoring events enabled", "subject", bus.Subject(events.ScoredSubject))
	}

	svc := services.NewServices(deps)
	if err := svc.Auth.SeedAdmin(context.Background()); err != nil {
		appLogger.Fatal("Failed to seed admin account", err)
	}
	pipeline := services.NewScoringPipeline(deps.Repos, svc.Scoring, appLogger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if proxies := cfg.GetTrustedProxies(); len(proxies) > 0 {
		if err := r.SetTrustedProxies(proxies); err != nil {
			appLogger.Fatal("Invalid TRUSTED_PROXIES", err)
		}
	} else if err := r.SetTrustedProxies(nil); err != nil {
		appLogger.Fatal("Failed to disable proxy trust", err)
	}

	r.Use(gin.Recovery())
	r.Use(middleware.LoggingMiddleware(appLogger))
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize))
	if cfg.EnableRateLimit {
		r.Use(middleware.RateLimitingMiddleware(rateLimitPerMinute))
	}

	api.SetupRoutes(r, api.RouterDeps{
		Services: svc,
		Pipeline: pipeline,
		Config:   cfg,
		DB:       db,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutdown signal received")

	if pipeline.IsRunning() {
		if err := pipeline.Stop(); err != nil {
			appLogger.Error("Failed to stop scoring pipeline", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server shutdown failed", err)
	}
	appLogger.Info("Server stopped")
}
