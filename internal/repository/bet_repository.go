package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/scoring"
)

const betColumns = `id, user_id, username, game_id, home_score_prediction, away_score_prediction,
	points_earned, outcome_correct, home_score_exact, away_score_exact, created_at`

// betRepository implements BetRepository
type betRepository struct {
	db dbExecutor
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db dbExecutor) BetRepository {
	return &betRepository{db: db}
}

// GetByID retrieves a bet by ID
func (r *betRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Bet, error) {
	bet := &models.Bet{}
	err := sqlx.GetContext(ctx, r.db, bet, `SELECT `+betColumns+` FROM bets WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("bet %s", id))
	}
	return bet, nil
}

// Create stores a new bet. A second bet by the same user on the same game
// violates bets_user_game_unique and yields ErrDuplicate.
func (r *betRepository) Create(ctx context.Context, bet *models.Bet) error {
	if bet.ID == uuid.Nil {
		bet.ID = uuid.New()
	}
	bet.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO bets (id, user_id, username, game_id, home_score_prediction, away_score_prediction,
			points_earned, outcome_correct, home_score_exact, away_score_exact, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		bet.ID, bet.UserID, bet.Username, bet.GameID, bet.HomeScorePrediction, bet.AwayScorePrediction,
		bet.PointsEarned, bet.OutcomeCorrect, bet.HomeScoreExact, bet.AwayScoreExact, bet.CreatedAt,
	)
	return translate(err, "failed to create bet")
}

// FindByGame retrieves all bets on a game in placement order
func (r *betRepository) FindByGame(ctx context.Context, gameID uuid.UUID) ([]models.Bet, error) {
	bets := []models.Bet{}
	err := sqlx.SelectContext(ctx, r.db, &bets,
		`SELECT `+betColumns+` FROM bets WHERE game_id = $1 ORDER BY created_at, id`, gameID)
	if err != nil {
		return nil, translate(err, "failed to find bets by game")
	}
	return bets, nil
}

// FindByUser retrieves a user's bets, newest first
func (r *betRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Bet, error) {
	bets := []models.Bet{}
	err := sqlx.SelectContext(ctx, r.db, &bets,
		`SELECT `+betColumns+` FROM bets WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, translate(err, "failed to find bets by user")
	}
	return bets, nil
}

// Find retrieves bets matching the filter in placement order
func (r *betRepository) Find(ctx context.Context, filter BetFilter) ([]models.Bet, error) {
	bets := []models.Bet{}

	if !filter.Scoped {
		err := sqlx.SelectContext(ctx, r.db, &bets,
			`SELECT `+betColumns+` FROM bets ORDER BY created_at, id`)
		if err != nil {
			return nil, translate(err, "failed to find bets")
		}
		return bets, nil
	}

	if len(filter.UserIDs) == 0 {
		return bets, nil
	}

	err := sqlx.SelectContext(ctx, r.db, &bets,
		`SELECT `+betColumns+` FROM bets WHERE user_id = ANY($1::uuid[]) ORDER BY created_at, id`,
		pq.StringArray(uuidStrings(filter.UserIDs)))
	if err != nil {
		return nil, translate(err, "failed to find bets")
	}
	return bets, nil
}

// UpdatePoints writes the scoring result of one bet
func (r *betRepository) UpdatePoints(ctx context.Context, betID uuid.UUID, score scoring.BetScore) error {
	query := `
		UPDATE bets SET
			points_earned = $2, outcome_correct = $3, home_score_exact = $4, away_score_exact = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		betID, score.Points, score.OutcomeCorrect, score.HomeScoreExact, score.AwayScoreExact)
	if err != nil {
		return translate(err, "failed to update bet points")
	}
	return expectRows(result, fmt.Sprintf("bet %s", betID))
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
