package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/scoring"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated
	ErrDuplicate = errors.New("duplicate record")
	// ErrAlreadyScored is returned when a result is written to a game that was already scored
	ErrAlreadyScored = errors.New("game already scored")
)

// GameRepository defines the interface for game data access
type GameRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
	// GetForUpdate locks the game row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Game, error)
	List(ctx context.Context, filters models.GameFilters) ([]models.Game, error)
	Create(ctx context.Context, game *models.Game) error
	Update(ctx context.Context, game *models.Game) error
	MarkFinished(ctx context.Context, id uuid.UUID, homeScore, awayScore int, scoredAt time.Time) error
	// RecordResult stores a final score on a game that was never scored and
	// returns ErrAlreadyScored otherwise
	RecordResult(ctx context.Context, id uuid.UUID, homeScore, awayScore int) error
	// ListPendingScoring returns finished games with both scores that were never scored
	ListPendingScoring(ctx context.Context, limit int) ([]models.Game, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bet, error)
	Create(ctx context.Context, bet *models.Bet) error
	FindByGame(ctx context.Context, gameID uuid.UUID) ([]models.Bet, error)
	// FindByUser returns the user's bets, newest first
	FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Bet, error)
	// Find returns bets matching the filter in placement order
	Find(ctx context.Context, filter BetFilter) ([]models.Bet, error)
	// UpdatePoints writes all scoring fields of a bet in one statement
	UpdatePoints(ctx context.Context, betID uuid.UUID, score scoring.BetScore) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error
	// RecomputeTotalPoints sets total_points to the sum of the user's bet points
	RecomputeTotalPoints(ctx context.Context, id uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// GroupRepository defines the interface for group data access
type GroupRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	GetByInviteCode(ctx context.Context, code string) (*models.Group, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Group, error)
	// Create stores the group and its initial members
	Create(ctx context.Context, group *models.Group) error
	AddMember(ctx context.Context, groupID uuid.UUID, member models.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAdministeredBy(ctx context.Context, userID uuid.UUID) error
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Game  GameRepository
	Bet   BetRepository
	User  UserRepository
	Group GroupRepository
	Tx    TransactionManager
}

// BetFilter selects the bets a leaderboard is computed from
type BetFilter struct {
	// Scoped restricts the result to UserIDs; an unscoped filter matches all bets
	Scoped  bool
	UserIDs []uuid.UUID
}

// AllBets matches every bet
func AllBets() BetFilter {
	return BetFilter{}
}

// MemberBets matches bets placed by the given users
func MemberBets(userIDs []uuid.UUID) BetFilter {
	return BetFilter{Scoped: true, UserIDs: userIDs}
}

// Matches reports whether a bet passes the filter
func (f BetFilter) Matches(bet models.Bet) bool {
	if !f.Scoped {
		return true
	}
	for _, id := range f.UserIDs {
		if id == bet.UserID {
			return true
		}
	}
	return false
}
