package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus is the lifecycle state of a game
type GameStatus string

const (
	GameScheduled GameStatus = "scheduled"
	GameLive      GameStatus = "live"
	GameFinished  GameStatus = "finished"
)

// Valid reports whether s is a known status
func (s GameStatus) Valid() bool {
	switch s {
	case GameScheduled, GameLive, GameFinished:
		return true
	}
	return false
}

// Game is a scheduled fixture. Scores are set only once the game is
// finished; ScoredAt marks that its bets have been scored.
type Game struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	HomeTeam     string     `json:"home_team" db:"home_team" validate:"required,max=64"`
	AwayTeam     string     `json:"away_team" db:"away_team" validate:"required,max=64,nefield=HomeTeam"`
	HomeTeamAbbr string     `json:"home_team_abbr" db:"home_team_abbr" validate:"required,max=5"`
	AwayTeamAbbr string     `json:"away_team_abbr" db:"away_team_abbr" validate:"required,max=5"`
	GameDate     time.Time  `json:"game_date" db:"game_date" validate:"required"`
	Week         int        `json:"week" db:"week" validate:"gte=1"`
	Season       string     `json:"season" db:"season" validate:"required"`
	HomeScore    *int       `json:"home_score" db:"home_score" validate:"omitempty,gte=0"`
	AwayScore    *int       `json:"away_score" db:"away_score" validate:"omitempty,gte=0"`
	Status       GameStatus `json:"status" db:"status" validate:"oneof=scheduled live finished"`
	ScoredAt     *time.Time `json:"scored_at,omitempty" db:"scored_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// IsFinished returns true once the game has a final result
func (g *Game) IsFinished() bool {
	return g.Status == GameFinished
}

// IsScored returns true if the game's bets have been scored
func (g *Game) IsScored() bool {
	return g.ScoredAt != nil
}

// AcceptsBets returns true while predictions can still be placed
func (g *Game) AcceptsBets() bool {
	return g.Status == GameScheduled
}

// CreateGameRequest represents a game creation request
type CreateGameRequest struct {
	HomeTeam     string    `json:"home_team" binding:"required" toml:"home_team"`
	AwayTeam     string    `json:"away_team" binding:"required" toml:"away_team"`
	HomeTeamAbbr string    `json:"home_team_abbr" binding:"required,max=5" toml:"home_team_abbr"`
	AwayTeamAbbr string    `json:"away_team_abbr" binding:"required,max=5" toml:"away_team_abbr"`
	GameDate     time.Time `json:"game_date" binding:"required" toml:"game_date"`
	Week         int       `json:"week" toml:"week"`
	Season       string    `json:"season" toml:"season"`
}

// UpdateGameRequest represents a partial game update. Setting status to
// finished together with both scores finalizes the game.
type UpdateGameRequest struct {
	HomeScore *int        `json:"home_score" binding:"omitempty,gte=0"`
	AwayScore *int        `json:"away_score" binding:"omitempty,gte=0"`
	Status    *GameStatus `json:"status"`
}

// FinalScoreRequest carries a final result for scoring or rescoring
type FinalScoreRequest struct {
	HomeScore *int `json:"home_score" binding:"required,gte=0"`
	AwayScore *int `json:"away_score" binding:"required,gte=0"`
}

// GameFilters defines filters for listing games
type GameFilters struct {
	Week   int
	Season string
	Limit  int
}
