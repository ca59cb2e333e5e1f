package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/auth"
	"github.com/kickwager/kickwager-api/internal/cache"
	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/events"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
	"github.com/kickwager/kickwager-api/pkg/config"
)

// Services contains all application services
type Services struct {
	Auth        AuthService
	Games       GameService
	Bets        BetService
	Groups      GroupService
	Scoring     ScoringService
	Leaderboard LeaderboardService
	Admin       AdminService
}

// AuthService handles accounts and credentials
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// DeleteAccount removes the user with their bets, memberships and administered groups
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
	// SeedAdmin creates the configured default admin when it does not exist
	SeedAdmin(ctx context.Context) error
}

// GameService manages the schedule
type GameService interface {
	List(ctx context.Context, filters models.GameFilters) ([]models.Game, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Game, error)
	Create(ctx context.Context, req *models.CreateGameRequest) (*models.Game, error)
	// Update changes status or scores. Finishing a game with both scores finalizes it.
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateGameRequest) (*models.Game, error)
	// Delete removes the game and its bets and recomputes affected totals
	Delete(ctx context.Context, id uuid.UUID) error
}

// BetService handles bet placement and listing
type BetService interface {
	Place(ctx context.Context, user *models.User, req *models.PlaceBetRequest) (*models.Bet, error)
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]models.Bet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Bet, error)
}

// GroupService manages private leagues
type GroupService interface {
	Create(ctx context.Context, user *models.User, req *models.CreateGroupRequest) (*models.Group, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.Group, error)
	Get(ctx context.Context, groupID, requesterID uuid.UUID) (*models.Group, error)
	Join(ctx context.Context, user *models.User, inviteCode string) (*models.Group, error)
	Leave(ctx context.Context, groupID, userID uuid.UUID) error
	Kick(ctx context.Context, groupID, requesterID, memberID uuid.UUID) error
	Delete(ctx context.Context, groupID, requesterID uuid.UUID) error
	// BetsForGame returns the members' bets on one game
	BetsForGame(ctx context.Context, groupID, requesterID, gameID uuid.UUID) ([]models.Bet, error)
}

// ScoringService finalizes games and scores their bets
type ScoringService interface {
	// FinalizeGame scores every bet on the game once. A second call fails with CONFLICT.
	FinalizeGame(ctx context.Context, gameID uuid.UUID, homeScore, awayScore int) (*ScoringResult, error)
	// RescoreGame re-applies scoring to a finalized game with corrected scores
	RescoreGame(ctx context.Context, gameID uuid.UUID, homeScore, awayScore int) (*ScoringResult, error)
}

// LeaderboardService ranks users by points
type LeaderboardService interface {
	Global(ctx context.Context) ([]models.LeaderboardEntry, error)
	ForGroup(ctx context.Context, groupID, requesterID uuid.UUID) ([]models.LeaderboardEntry, error)
	Compute(ctx context.Context, filter repository.BetFilter) ([]models.LeaderboardEntry, error)
}

// AdminService holds user administration
type AdminService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	MakeAdmin(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// Dependencies wires the services together
type Dependencies struct {
	Repos  *repository.Repositories
	Config *config.Config
	Logger logger.Logger
	Cache  cache.LeaderboardCache
	Events events.Publisher
	// PasswordCost overrides the bcrypt cost; zero uses auth.DefaultCost
	PasswordCost int
	// Now overrides the clock
	Now func() time.Time
}

func (d *Dependencies) defaults() {
	if d.Config == nil {
		d.Config = config.New()
	}
	if d.Logger == nil {
		d.Logger = logger.NewSimpleLogger()
	}
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.PasswordCost == 0 {
		d.PasswordCost = auth.DefaultCost
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
}

// NewServices creates a new Services instance with all dependencies
func NewServices(deps Dependencies) *Services {
	deps.defaults()

	scoringSvc := newScoringService(deps)
	return &Services{
		Auth:        newAuthService(deps),
		Games:       newGameService(deps, scoringSvc),
		Bets:        newBetService(deps),
		Groups:      newGroupService(deps),
		Scoring:     scoringSvc,
		Leaderboard: newLeaderboardService(deps),
		Admin:       newAdminService(deps),
	}
}

// NewScoringService creates a standalone scoring service for the scorer worker
func NewScoringService(deps Dependencies) ScoringService {
	deps.defaults()
	return newScoringService(deps)
}

// repoError converts repository sentinels into application errors about
// what. Errors that already are AppErrors pass through unchanged.
func repoError(err error, what, operation string) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}

	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NotFound(what+" not found", err).WithOperation(operation)
	case stderrors.Is(err, repository.ErrDuplicate):
		return errors.Conflict(what+" already exists", err).WithOperation(operation)
	default:
		return errors.DatabaseError("failed to access "+what, err).WithOperation(operation)
	}
}
