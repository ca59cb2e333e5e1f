package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kickwager/kickwager-api/internal/cache"
	"github.com/kickwager/kickwager-api/internal/database"
	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/events"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/repository"
	"github.com/kickwager/kickwager-api/internal/services"
	"github.com/kickwager/kickwager-api/pkg/config"
)

// finalizeTimeout bounds one scoring transaction triggered over NATS
const finalizeTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()
	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}).With("component", "scorer")

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

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
	}

	var bus *events.Bus
	if cfg.HasEvents() {
		bus, err = events.Connect(events.Options{
			URL:           cfg.NATSURL,
			Token:         cfg.NATSToken,
			SubjectPrefix: cfg.NATSSubjectPrefix,
			Name:          "kickwager-scorer",
		}, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to NATS", err)
		}
		defer bus.Close()
		deps.Events = bus
	}

	scoringSvc := services.NewScoringService(deps)
	pipeline := services.NewScoringPipeline(deps.Repos, scoringSvc, appLogger)
	pipelineConfig := parsePipelineConfig()

	appLogger.Info("Scorer configuration",
		"batch_size", pipelineConfig.BatchSize,
		"interval", pipelineConfig.Interval.String(),
		"max_concurrent", pipelineConfig.MaxConcurrent,
		"nats", cfg.HasEvents(),
	)

	if len(os.Args) > 1 && os.Args[1] == "--once" {
		stats, err := pipeline.RunOnce(context.Background(), pipelineConfig)
		if err != nil {
			appLogger.Fatal("One-time scoring sweep failed", err)
		}
		appLogger.Info("One-time scoring sweep completed", "summary", stats.Summary())
		return
	}

	if bus != nil {
		sub, err := bus.ServeFinalize(newFinalizeHandler(scoringSvc, appLogger), errors.CodeOf, finalizeTimeout)
		if err != nil {
			appLogger.Fatal("Failed to subscribe to finalize requests", err)
		}
		defer sub.Unsubscribe()
		appLogger.Info("Listening for finalize requests", "subject", bus.Subject(events.FinalizeSubject), "queue", events.ScorerQueue)
	}

	if err := pipeline.Start(pipelineConfig); err != nil {
		appLogger.Fatal("Failed to start scoring pipeline", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	appLogger.Info("Shutdown signal received, stopping scorer")

	if err := pipeline.Stop(); err != nil {
		appLogger.Error("Error stopping scoring pipeline", err)
	}
}

// newFinalizeHandler routes NATS finalize requests to the scoring service
func newFinalizeHandler(scoringSvc services.ScoringService, log logger.Logger) events.FinalizeHandler {
	return func(ctx context.Context, req events.FinalizeRequest) error {
		var (
			result *services.ScoringResult
			err    error
		)
		if req.Rescore {
			result, err = scoringSvc.RescoreGame(ctx, req.GameID, req.HomeScore, req.AwayScore)
		} else {
			result, err = scoringSvc.FinalizeGame(ctx, req.GameID, req.HomeScore, req.AwayScore)
		}
		if err != nil {
			log.Warn("Finalize request rejected", "game_id", req.GameID.String(), "code", errors.CodeOf(err), "error", err.Error())
			return err
		}

		log.Info("Finalize request completed", "game_id", req.GameID.String(), "bets_scored", result.BetsScored)
		return nil
	}
}

// parsePipelineConfig reads PIPELINE_* overrides from the environment
func parsePipelineConfig() services.PipelineConfig {
	config := services.DefaultPipelineConfig()

	if val := os.Getenv("PIPELINE_BATCH_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			config.BatchSize = parsed
		}
	}

	if val := os.Getenv("PIPELINE_INTERVAL"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil && parsed > 0 {
			config.Interval = parsed
		}
	}

	if val := os.Getenv("PIPELINE_MAX_CONCURRENT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			config.MaxConcurrent = parsed
		}
	}

	return config
}
