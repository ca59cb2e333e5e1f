package models

import (
	"time"

	"github.com/google/uuid"
)

// Bet is a user's score prediction for one game. Only the scoring fields
// change after placement.
type Bet struct {
	ID                  uuid.UUID `json:"id" db:"id"`
	UserID              uuid.UUID `json:"user_id" db:"user_id"`
	Username            string    `json:"username" db:"username" validate:"required"`
	GameID              uuid.UUID `json:"game_id" db:"game_id"`
	HomeScorePrediction int       `json:"home_score_prediction" db:"home_score_prediction" validate:"gte=0"`
	AwayScorePrediction int       `json:"away_score_prediction" db:"away_score_prediction" validate:"gte=0"`
	PointsEarned        int       `json:"points_earned" db:"points_earned" validate:"gte=0"`
	OutcomeCorrect      bool      `json:"outcome_correct" db:"outcome_correct"`
	HomeScoreExact      bool      `json:"home_score_exact" db:"home_score_exact"`
	AwayScoreExact      bool      `json:"away_score_exact" db:"away_score_exact"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// PlaceBetRequest represents a bet placement request
type PlaceBetRequest struct {
	GameID              string `json:"game_id" binding:"required,uuid"`
	HomeScorePrediction *int   `json:"home_score_prediction" binding:"required,gte=0"`
	AwayScorePrediction *int   `json:"away_score_prediction" binding:"required,gte=0"`
}
