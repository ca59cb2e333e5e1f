package services

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/cache"
	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
)

const maxGameListLimit = 100

// gameServiceImpl implements GameService
type gameServiceImpl struct {
	repos   *repository.Repositories
	scoring ScoringService
	cache   cache.LeaderboardCache
	logger  logger.Logger
}

func newGameService(deps Dependencies, scoringSvc ScoringService) GameService {
	return &gameServiceImpl{
		repos:   deps.Repos,
		scoring: scoringSvc,
		cache:   deps.Cache,
		logger:  deps.Logger,
	}
}

// List returns games ordered by kickoff
func (s *gameServiceImpl) List(ctx context.Context, filters models.GameFilters) ([]models.Game, error) {
	if filters.Limit <= 0 || filters.Limit > maxGameListLimit {
		filters.Limit = maxGameListLimit
	}

	games, err := s.repos.Game.List(ctx, filters)
	if err != nil {
		return nil, repoError(err, "games", "ListGames")
	}
	return games, nil
}

// Get returns one game
func (s *gameServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	game, err := s.repos.Game.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "game", "GetGame")
	}
	return game, nil
}

// Create schedules a new game
func (s *gameServiceImpl) Create(ctx context.Context, req *models.CreateGameRequest) (*models.Game, error) {
	game := &models.Game{
		ID:           uuid.New(),
		HomeTeam:     req.HomeTeam,
		AwayTeam:     req.AwayTeam,
		HomeTeamAbbr: req.HomeTeamAbbr,
		AwayTeamAbbr: req.AwayTeamAbbr,
		GameDate:     req.GameDate.UTC(),
		Week:         req.Week,
		Season:       req.Season,
		Status:       models.GameScheduled,
	}
	if game.Week == 0 {
		game.Week = 1
	}
	if game.Season == "" {
		game.Season = seasonOf(game)
	}

	if err := models.Validate(game); err != nil {
		return nil, errors.ValidationError("invalid game", err).WithOperation("CreateGame")
	}

	if err := s.repos.Game.Create(ctx, game); err != nil {
		return nil, repoError(err, "game", "CreateGame")
	}

	s.logger.Info("Game created", "game_id", game.ID.String(), "home", game.HomeTeamAbbr, "away", game.AwayTeamAbbr)
	return game, nil
}

// Update moves a game through its lifecycle. Setting status to finished
// with both scores hands over to the scoring service; scores cannot be
// set any other way.
func (s *gameServiceImpl) Update(ctx context.Context, id uuid.UUID, req *models.UpdateGameRequest) (*models.Game, error) {
	game, err := s.repos.Game.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "game", "UpdateGame")
	}

	if req.Status == nil {
		return nil, errors.ValidationError("status is required", nil).WithOperation("UpdateGame")
	}
	status := *req.Status
	if !status.Valid() {
		return nil, errors.ValidationError("invalid status", nil).
			WithOperation("UpdateGame").
			WithDetails(string(status))
	}

	if status == models.GameFinished {
		if req.HomeScore == nil || req.AwayScore == nil {
			return nil, errors.ValidationError("both scores are required to finish a game", nil).WithOperation("UpdateGame")
		}
		if _, err := s.scoring.FinalizeGame(ctx, id, *req.HomeScore, *req.AwayScore); err != nil {
			return nil, err
		}
		return s.Get(ctx, id)
	}

	if req.HomeScore != nil || req.AwayScore != nil {
		return nil, errors.ValidationError("scores can only be set when finishing a game", nil).WithOperation("UpdateGame")
	}
	if game.IsFinished() {
		return nil, errors.ValidationError("a finished game cannot change status; rescore it instead", nil).WithOperation("UpdateGame")
	}

	game.Status = status
	if err := s.repos.Game.Update(ctx, game); err != nil {
		return nil, repoError(err, "game", "UpdateGame")
	}
	return game, nil
}

// Delete removes a game. Its bets cascade, so the totals of everyone who
// bet on it are recomputed in the same transaction.
func (s *gameServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
		if _, err := repos.Game.GetForUpdate(ctx, id); err != nil {
			return repoError(err, "game", "DeleteGame")
		}

		bets, err := repos.Bet.FindByGame(ctx, id)
		if err != nil {
			return repoError(err, "bets", "DeleteGame")
		}

		if err := repos.Game.Delete(ctx, id); err != nil {
			return repoError(err, "game", "DeleteGame")
		}

		for _, userID := range distinctUsers(bets) {
			if _, err := repos.User.RecomputeTotalPoints(ctx, userID); err != nil {
				return repoError(err, "user", "DeleteGame")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Error("Failed to invalidate leaderboard cache", err, "game_id", id.String())
	}
	s.logger.Info("Game deleted", "game_id", id.String())
	return nil
}

// distinctUsers returns the bettors in a fixed order so that concurrent
// transactions lock user rows in the same sequence
func distinctUsers(bets []models.Bet) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, bet := range bets {
		if !seen[bet.UserID] {
			seen[bet.UserID] = true
			ids = append(ids, bet.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids
}

// seasonOf derives the season label from the kickoff year
func seasonOf(game *models.Game) string {
	return game.GameDate.Format("2006")
}
