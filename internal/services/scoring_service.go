package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/cache"
	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/events"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/metrics"
	"github.com/kickwager/kickwager-api/internal/repository"
	"github.com/kickwager/kickwager-api/internal/scoring"
)

// ScoringResult summarizes one scoring run
type ScoringResult struct {
	GameID       uuid.UUID `json:"game_id"`
	HomeScore    int       `json:"home_score"`
	AwayScore    int       `json:"away_score"`
	BetsScored   int       `json:"bets_scored"`
	UsersUpdated int       `json:"users_updated"`
	Rescore      bool      `json:"rescore"`
	ScoredAt     time.Time `json:"scored_at"`
}

// scoringServiceImpl implements ScoringService
type scoringServiceImpl struct {
	repos  *repository.Repositories
	engine *scoring.Engine
	cache  cache.LeaderboardCache
	events events.Publisher
	logger logger.Logger
	now    func() time.Time
}

// newScoringService creates a new scoring service implementation
func newScoringService(deps Dependencies) *scoringServiceImpl {
	return &scoringServiceImpl{
		repos:  deps.Repos,
		engine: scoring.NewEngine(),
		cache:  deps.Cache,
		events: deps.Events,
		logger: deps.Logger,
		now:    deps.Now,
	}
}

// FinalizeGame records the final score and scores the game's bets
func (s *scoringServiceImpl) FinalizeGame(ctx context.Context, gameID uuid.UUID, homeScore, awayScore int) (*ScoringResult, error) {
	return s.score(ctx, gameID, scoring.FinalScore{Home: homeScore, Away: awayScore}, false)
}

// RescoreGame applies corrected scores to an already finalized game
func (s *scoringServiceImpl) RescoreGame(ctx context.Context, gameID uuid.UUID, homeScore, awayScore int) (*ScoringResult, error) {
	return s.score(ctx, gameID, scoring.FinalScore{Home: homeScore, Away: awayScore}, true)
}

// score runs in one transaction: lock the game row, check the scored_at
// guard, score each bet, mark the game finished and recompute the totals of
// every user who bet on it.
func (s *scoringServiceImpl) score(ctx context.Context, gameID uuid.UUID, final scoring.FinalScore, rescore bool) (*ScoringResult, error) {
	operation := "FinalizeGame"
	if rescore {
		operation = "RescoreGame"
	}

	if err := final.Validate(); err != nil {
		metrics.FinalizationsTotal.WithLabelValues(operation, "invalid").Inc()
		return nil, errors.ValidationError("invalid final score", err).WithOperation(operation)
	}

	result := &ScoringResult{
		GameID:    gameID,
		HomeScore: final.Home,
		AwayScore: final.Away,
		Rescore:   rescore,
		ScoredAt:  s.now(),
	}
	var points []int

	err := s.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
		game, err := repos.Game.GetForUpdate(ctx, gameID)
		if err != nil {
			return repoError(err, "game", operation)
		}

		if rescore && !game.IsScored() {
			return errors.Conflict("game has not been finalized", nil).WithOperation(operation)
		}
		if !rescore && game.IsScored() {
			return errors.Conflict("game has already been finalized", nil).
				WithOperation(operation).
				WithDetails(fmt.Sprintf("scored at %s", game.ScoredAt.Format(time.RFC3339)))
		}

		bets, err := repos.Bet.FindByGame(ctx, gameID)
		if err != nil {
			return repoError(err, "bets", operation)
		}

		points = points[:0]

		for _, bet := range bets {
			betScore := s.engine.ScoreBet(bet, final)
			if err := repos.Bet.UpdatePoints(ctx, bet.ID, betScore); err != nil {
				return repoError(err, "bet", operation)
			}
			points = append(points, betScore.Points)
		}

		if err := repos.Game.MarkFinished(ctx, gameID, final.Home, final.Away, result.ScoredAt); err != nil {
			return repoError(err, "game", operation)
		}

		userIDs := distinctUsers(bets)
		for _, userID := range userIDs {
			if _, err := repos.User.RecomputeTotalPoints(ctx, userID); err != nil {
				return repoError(err, "user", operation)
			}
		}

		result.BetsScored = len(bets)
		result.UsersUpdated = len(userIDs)
		return nil
	})
	if err != nil {
		metrics.FinalizationsTotal.WithLabelValues(operation, errors.CodeOf(err)).Inc()
		s.logger.Warn("Scoring failed", "operation", operation, "game_id", gameID.String(), "error", err.Error())
		return nil, err
	}

	metrics.FinalizationsTotal.WithLabelValues(operation, "ok").Inc()
	for _, p := range points {
		metrics.BetPointsHistogram.Observe(float64(p))
	}

	s.logger.Info("Game scored",
		"operation", operation,
		"game_id", gameID.String(),
		"final_score", fmt.Sprintf("%d-%d", final.Home, final.Away),
		"bets_scored", result.BetsScored,
		"users_updated", result.UsersUpdated,
	)

	s.afterCommit(ctx, result)
	return result, nil
}

// afterCommit invalidates cached leaderboards and announces the result.
// Failures here are logged; the scoring itself is already durable.
func (s *scoringServiceImpl) afterCommit(ctx context.Context, result *ScoringResult) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Error("Failed to invalidate leaderboard cache", err, "game_id", result.GameID.String())
	}

	event := events.GameScored{
		GameID:       result.GameID,
		HomeScore:    result.HomeScore,
		AwayScore:    result.AwayScore,
		BetsScored:   result.BetsScored,
		UsersUpdated: result.UsersUpdated,
		Rescore:      result.Rescore,
		ScoredAt:     result.ScoredAt,
	}
	if err := s.events.PublishGameScored(ctx, event); err != nil {
		s.logger.Error("Failed to publish game scored event", err, "game_id", result.GameID.String())
	}
}
