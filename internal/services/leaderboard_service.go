package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/cache"
	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/metrics"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
	"github.com/kickwager/kickwager-api/internal/scoring"
)

// leaderboardServiceImpl implements LeaderboardService
type leaderboardServiceImpl struct {
	repos  *repository.Repositories
	cache  cache.LeaderboardCache
	logger logger.Logger
}

func newLeaderboardService(deps Dependencies) LeaderboardService {
	return &leaderboardServiceImpl{
		repos:  deps.Repos,
		cache:  deps.Cache,
		logger: deps.Logger,
	}
}

// Global ranks every user who has placed a bet
func (s *leaderboardServiceImpl) Global(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return s.cached(ctx, "global", cache.GlobalKey(), repository.AllBets())
}

// ForGroup ranks the group's current members over all their bets, including
// bets placed before they joined. Only members may read it.
func (s *leaderboardServiceImpl) ForGroup(ctx context.Context, groupID, requesterID uuid.UUID) ([]models.LeaderboardEntry, error) {
	group, err := s.repos.Group.GetByID(ctx, groupID)
	if err != nil {
		return nil, repoError(err, "group", "GroupLeaderboard")
	}
	if !group.HasMember(requesterID) {
		return nil, errors.Forbidden("not a member of this group", nil).WithOperation("GroupLeaderboard")
	}

	return s.cached(ctx, "group", cache.GroupKey(groupID), repository.MemberBets(group.MemberIDs()))
}

// Compute builds a leaderboard from the bets matching filter
func (s *leaderboardServiceImpl) Compute(ctx context.Context, filter repository.BetFilter) ([]models.LeaderboardEntry, error) {
	bets, err := s.repos.Bet.Find(ctx, filter)
	if err != nil {
		return nil, repoError(err, "bets", "ComputeLeaderboard")
	}
	return scoring.BuildLeaderboard(bets), nil
}

// cached reads through the cache. The generation is read before the bets so
// that a scoring commit landing during Compute keeps the result out of the
// cache.
func (s *leaderboardServiceImpl) cached(ctx context.Context, scope, key string, filter repository.BetFilter) ([]models.LeaderboardEntry, error) {
	generation, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.logger.Warn("Leaderboard cache generation read failed", "key", key, "error", genErr.Error())
	}

	entries, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Leaderboard cache read failed", "key", key, "error", err.Error())
	}
	if ok {
		metrics.LeaderboardRequestsTotal.WithLabelValues(scope, "hit").Inc()
		return entries, nil
	}
	metrics.LeaderboardRequestsTotal.WithLabelValues(scope, "miss").Inc()

	entries, err = s.Compute(ctx, filter)
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		return entries, nil
	}
	stored, err := s.cache.Set(ctx, key, entries, generation)
	if err != nil {
		s.logger.Warn("Leaderboard cache write failed", "key", key, "error", err.Error())
	} else if !stored {
		s.logger.Debug("Leaderboard changed while computing, not cached", "key", key)
	}
	return entries, nil
}
