package services

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/cache"
	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/metrics"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
)

// betServiceImpl implements BetService
type betServiceImpl struct {
	repos  *repository.Repositories
	cache  cache.LeaderboardCache
	logger logger.Logger
}

func newBetService(deps Dependencies) BetService {
	return &betServiceImpl{
		repos:  deps.Repos,
		cache:  deps.Cache,
		logger: deps.Logger,
	}
}

// Place records a prediction on a scheduled game. The game row stays locked
// from the status check to the insert, so a finalization either sees the bet
// or makes the game reject it.
func (s *betServiceImpl) Place(ctx context.Context, user *models.User, req *models.PlaceBetRequest) (*models.Bet, error) {
	gameID, err := uuid.Parse(req.GameID)
	if err != nil {
		return nil, errors.ValidationError("invalid game id", err).WithOperation("PlaceBet")
	}
	if req.HomeScorePrediction == nil || req.AwayScorePrediction == nil {
		return nil, errors.ValidationError("both score predictions are required", nil).WithOperation("PlaceBet")
	}

	bet := &models.Bet{
		ID:                  uuid.New(),
		UserID:              user.ID,
		Username:            user.Username,
		GameID:              gameID,
		HomeScorePrediction: *req.HomeScorePrediction,
		AwayScorePrediction: *req.AwayScorePrediction,
	}
	if err := models.Validate(bet); err != nil {
		return nil, errors.ValidationError("invalid bet", err).WithOperation("PlaceBet")
	}

	err = s.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
		game, err := repos.Game.GetForUpdate(ctx, gameID)
		if err != nil {
			return repoError(err, "game", "PlaceBet")
		}
		if !game.AcceptsBets() {
			return errors.ValidationError("game is no longer accepting bets", nil).
				WithOperation("PlaceBet").
				WithDetails("status " + string(game.Status))
		}

		if err := repos.Bet.Create(ctx, bet); err != nil {
			if stderrors.Is(err, repository.ErrDuplicate) {
				return errors.Conflict("you have already bet on this game", err).WithOperation("PlaceBet")
			}
			return repoError(err, "bet", "PlaceBet")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Error("Failed to invalidate leaderboard cache", err, "bet_id", bet.ID.String())
	}

	metrics.BetsPlacedTotal.Inc()
	s.logger.Debug("Bet placed", "bet_id", bet.ID.String(), "user_id", user.ID.String(), "game_id", gameID.String())
	return bet, nil
}

// ListByGame returns all bets on a game in placement order
func (s *betServiceImpl) ListByGame(ctx context.Context, gameID uuid.UUID) ([]models.Bet, error) {
	if _, err := s.repos.Game.GetByID(ctx, gameID); err != nil {
		return nil, repoError(err, "game", "ListBetsByGame")
	}

	bets, err := s.repos.Bet.FindByGame(ctx, gameID)
	if err != nil {
		return nil, repoError(err, "bets", "ListBetsByGame")
	}
	return bets, nil
}

// ListByUser returns a user's bets, newest first
func (s *betServiceImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Bet, error) {
	bets, err := s.repos.Bet.FindByUser(ctx, userID)
	if err != nil {
		return nil, repoError(err, "bets", "ListBetsByUser")
	}
	return bets, nil
}
