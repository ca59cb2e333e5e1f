package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kickwager/kickwager-api/internal/cache"
	"github.com/kickwager/kickwager-api/internal/database"
	"github.com/kickwager/kickwager-api/internal/events"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/repository"
	"github.com/kickwager/kickwager-api/internal/schedule"
	"github.com/kickwager/kickwager-api/internal/services"
	"github.com/kickwager/kickwager-api/pkg/config"
)

func main() {
	file := flag.String("file", "", "TOML fixture file to import")
	urls := flag.String("url", "", "Comma-separated schedule page URLs to import")
	season := flag.String("season", "", "Season for pages that do not declare one")
	finalize := flag.Bool("finalize", false, "Score finished games now instead of leaving them for the scorer")
	dryRun := flag.Bool("dry-run", false, "Report what would change without writing")
	rps := flag.Int("rps", 2, "Page fetches per second")
	flag.Parse()

	if (*file == "") == (*urls == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -file or -url is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()
	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}).With("component", "schedule-import")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		entries []schedule.Entry
		client  *schedule.Client
		err     error
	)
	if *file != "" {
		entries, err = schedule.LoadFixture(*file)
		if err != nil {
			appLogger.Fatal("Failed to load fixture", err, "file", *file)
		}
	} else {
		client = schedule.NewClient(*rps, schedule.NewMonitor())
		defer client.Close()

		entries, err = schedule.FetchEntries(ctx, client, splitURLs(*urls), *season, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to fetch schedule", err)
		}
	}
	appLogger.Info("Schedule loaded", "games", len(entries))

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
	if *finalize && cfg.HasLeaderboardCache() && !cfg.HasEvents() {
		redisCache, err := cache.Connect(ctx, cfg.RedisURL, cfg.LeaderboardCacheTTL)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", err)
		}
		defer redisCache.Close()
		deps.Cache = redisCache
	}

	svc := services.NewServices(deps)
	scoringSvc := svc.Scoring
	if *finalize && cfg.HasEvents() {
		bus, err := events.Connect(events.Options{
			URL:           cfg.NATSURL,
			Token:         cfg.NATSToken,
			SubjectPrefix: cfg.NATSSubjectPrefix,
			Name:          "kickwager-import",
		}, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to NATS", err)
		}
		defer bus.Close()
		scoringSvc = &remoteScoring{bus: bus}
		appLogger.Info("Finalizing through scorer workers", "subject", bus.Subject(events.FinalizeSubject))
	}
	importer := schedule.NewImporter(deps.Repos, svc.Games, scoringSvc, appLogger)

	stats, importErr := importer.Import(ctx, entries, schedule.Options{Finalize: *finalize, DryRun: *dryRun})

	out, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(out))
	if client != nil {
		status := client.Monitor().Status()
		appLogger.Info("Fetch health", "healthy", status.IsHealthy, "success_rate", status.SuccessRate, "issues", strings.Join(status.Issues, "; "))
	}

	if importErr != nil {
		appLogger.Fatal("Schedule import incomplete", importErr)
	}
}

func splitURLs(raw string) []string {
	var urls []string
	for _, u := range strings.Split(raw, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
