package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
)

// ScoringPipeline periodically finalizes games that are finished with both
// scores recorded but were never scored, such as results brought in by the
// schedule importer. Different games are scored concurrently.
type ScoringPipeline struct {
	repos     *repository.Repositories
	scoring   ScoringService
	logger    logger.Logger
	isRunning bool
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
}

// NewScoringPipeline creates a new scoring sweep
func NewScoringPipeline(repos *repository.Repositories, scoringSvc ScoringService, log logger.Logger) *ScoringPipeline {
	return &ScoringPipeline{
		repos:   repos,
		scoring: scoringSvc,
		logger:  log,
	}
}

// PipelineConfig contains configuration for the scoring sweep
type PipelineConfig struct {
	BatchSize     int           `json:"batch_size"`
	Interval      time.Duration `json:"interval"`
	MaxConcurrent int           `json:"max_concurrent"`
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		BatchSize:     50,
		Interval:      5 * time.Minute,
		MaxConcurrent: 4,
	}
}

// Start begins the sweep loop
func (p *ScoringPipeline) Start(config PipelineConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("pipeline is already running")
	}
	if config.Interval <= 0 {
		return fmt.Errorf("pipeline interval must be positive")
	}

	p.isRunning = true
	p.stopChan = make(chan struct{})
	p.wg.Add(1)
	go p.runPipeline(config, p.stopChan)

	p.logger.Info("Scoring pipeline started",
		"batch_size", config.BatchSize,
		"interval", config.Interval.String(),
		"max_concurrent", config.MaxConcurrent,
	)
	return nil
}

// Stop waits for the current cycle to finish and stops the loop
func (p *ScoringPipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return fmt.Errorf("pipeline is not running")
	}

	close(p.stopChan)
	p.wg.Wait()
	p.isRunning = false

	p.logger.Info("Scoring pipeline stopped")
	return nil
}

// IsRunning returns whether the loop is active
func (p *ScoringPipeline) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isRunning
}

// RunOnce executes a single sweep
func (p *ScoringPipeline) RunOnce(ctx context.Context, config PipelineConfig) (*PipelineStats, error) {
	return p.executeCycle(ctx, config)
}

func (p *ScoringPipeline) runPipeline(config PipelineConfig, stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(config.Interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	for {
		if stats, err := p.executeCycle(ctx, config); err != nil {
			p.logger.Error("Scoring cycle failed", err)
		} else if stats.GamesFound > 0 {
			p.logger.Info("Scoring cycle completed", "summary", stats.Summary())
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (p *ScoringPipeline) executeCycle(ctx context.Context, config PipelineConfig) (*PipelineStats, error) {
	stats := &PipelineStats{StartTime: time.Now()}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultPipelineConfig().BatchSize
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}

	games, err := p.repos.Game.ListPendingScoring(ctx, config.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("failed to find games pending scoring: %w", err)
	}
	stats.GamesFound = len(games)

	semaphore := make(chan struct{}, config.MaxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, game := range games {
		wg.Add(1)
		go func(game models.Game) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			result, err := p.scoring.FinalizeGame(ctx, game.ID, *game.HomeScore, *game.AwayScore)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				stats.GamesScored++
				stats.BetsScored += result.BetsScored
			case errors.HasCode(err, errors.ErrCodeConflict):
				// scored by another worker since the query ran
				stats.GamesSkipped++
			default:
				stats.GamesFailed++
				p.logger.Error("Failed to finalize pending game", err, "game_id", game.ID.String())
			}
		}(game)
	}

	wg.Wait()
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	return stats, nil
}

// PipelineStats describes one sweep
type PipelineStats struct {
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
	GamesFound   int           `json:"games_found"`
	GamesScored  int           `json:"games_scored"`
	GamesSkipped int           `json:"games_skipped"`
	GamesFailed  int           `json:"games_failed"`
	BetsScored   int           `json:"bets_scored"`
}

func (s *PipelineStats) Summary() string {
	return fmt.Sprintf("found=%d, scored=%d, skipped=%d, failed=%d, bets=%d, duration=%v",
		s.GamesFound, s.GamesScored, s.GamesSkipped, s.GamesFailed, s.BetsScored, s.Duration.Round(time.Millisecond))
}
