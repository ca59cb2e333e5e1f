package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kickwager/kickwager-api/internal/models"
)

const (
	gameColumns = `id, home_team, away_team, home_team_abbr, away_team_abbr, game_date, week, season,
		home_score, away_score, status, scored_at, created_at, updated_at`

	defaultGameLimit = 100
)

// gameRepository implements GameRepository
type gameRepository struct {
	db dbExecutor
}

// NewGameRepository creates a new game repository
func NewGameRepository(db dbExecutor) GameRepository {
	return &gameRepository{db: db}
}

// GetByID retrieves a game by ID
func (r *gameRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	game := &models.Game{}
	err := sqlx.GetContext(ctx, r.db, game, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("game %s", id))
	}
	return game, nil
}

// GetForUpdate retrieves a game and locks its row
func (r *gameRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	game := &models.Game{}
	err := sqlx.GetContext(ctx, r.db, game, `SELECT `+gameColumns+` FROM games WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("game %s", id))
	}
	return game, nil
}

// List retrieves games ordered by kickoff
func (r *gameRepository) List(ctx context.Context, filters models.GameFilters) ([]models.Game, error) {
	var conditions []string
	var args []interface{}

	if filters.Week > 0 {
		args = append(args, filters.Week)
		conditions = append(conditions, fmt.Sprintf("week = $%d", len(args)))
	}
	if filters.Season != "" {
		args = append(args, filters.Season)
		conditions = append(conditions, fmt.Sprintf("season = $%d", len(args)))
	}

	query := `SELECT ` + gameColumns + ` FROM games`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filters.Limit
	if limit <= 0 || limit > defaultGameLimit {
		limit = defaultGameLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY game_date, id LIMIT $%d", len(args))

	games := []models.Game{}
	if err := sqlx.SelectContext(ctx, r.db, &games, query, args...); err != nil {
		return nil, translate(err, "failed to list games")
	}
	return games, nil
}

// Create creates a new game
func (r *gameRepository) Create(ctx context.Context, game *models.Game) error {
	if game.ID == uuid.Nil {
		game.ID = uuid.New()
	}
	if game.Status == "" {
		game.Status = models.GameScheduled
	}

	now := time.Now().UTC()
	game.CreatedAt = now
	game.UpdatedAt = now

	query := `
		INSERT INTO games (id, home_team, away_team, home_team_abbr, away_team_abbr, game_date, week, season,
			home_score, away_score, status, scored_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		game.ID, game.HomeTeam, game.AwayTeam, game.HomeTeamAbbr, game.AwayTeamAbbr,
		game.GameDate, game.Week, game.Season, game.HomeScore, game.AwayScore,
		game.Status, game.ScoredAt, game.CreatedAt, game.UpdatedAt,
	)
	return translate(err, "failed to create game")
}

// Update updates the mutable fields of a game. scored_at is left alone.
func (r *gameRepository) Update(ctx context.Context, game *models.Game) error {
	game.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE games SET
			home_team = $2, away_team = $3, home_team_abbr = $4, away_team_abbr = $5,
			game_date = $6, week = $7, season = $8, home_score = $9, away_score = $10,
			status = $11, updated_at = $12
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		game.ID, game.HomeTeam, game.AwayTeam, game.HomeTeamAbbr, game.AwayTeamAbbr,
		game.GameDate, game.Week, game.Season, game.HomeScore, game.AwayScore,
		game.Status, game.UpdatedAt,
	)
	if err != nil {
		return translate(err, "failed to update game")
	}
	return expectRows(result, fmt.Sprintf("game %s", game.ID))
}

// MarkFinished records the final score and the scoring timestamp
func (r *gameRepository) MarkFinished(ctx context.Context, id uuid.UUID, homeScore, awayScore int, scoredAt time.Time) error {
	query := `
		UPDATE games SET
			home_score = $2, away_score = $3, status = $4, scored_at = $5, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, homeScore, awayScore, models.GameFinished, scoredAt)
	if err != nil {
		return translate(err, "failed to finish game")
	}
	return expectRows(result, fmt.Sprintf("game %s", id))
}

// RecordResult stores a final score without scoring it. The scored_at guard
// keeps a late import from rewriting the score of a game already scored.
func (r *gameRepository) RecordResult(ctx context.Context, id uuid.UUID, homeScore, awayScore int) error {
	query := `
		UPDATE games SET
			home_score = $2, away_score = $3, status = $4, updated_at = NOW()
		WHERE id = $1 AND scored_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, homeScore, awayScore, models.GameFinished)
	if err != nil {
		return translate(err, "failed to record game result")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS(SELECT 1 FROM games WHERE id = $1)`, id); err != nil {
		return translate(err, "failed to check game")
	}
	if !exists {
		return fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("game %s: %w", id, ErrAlreadyScored)
}

// ListPendingScoring retrieves finished, unscored games oldest first
func (r *gameRepository) ListPendingScoring(ctx context.Context, limit int) ([]models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games
		WHERE status = $1 AND scored_at IS NULL AND home_score IS NOT NULL AND away_score IS NOT NULL
		ORDER BY game_date, id
		LIMIT $2`

	games := []models.Game{}
	if err := sqlx.SelectContext(ctx, r.db, &games, query, models.GameFinished, limit); err != nil {
		return nil, translate(err, "failed to list games pending scoring")
	}
	return games, nil
}

// Delete deletes a game; its bets cascade
func (r *gameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return translate(err, "failed to delete game")
	}
	return expectRows(result, fmt.Sprintf("game %s", id))
}
