package models

import "github.com/google/uuid"

// LeaderboardEntry holds per-user statistics over a bet collection.
//
// CorrectWinners counts bets with any points and CorrectScores bets with at
// least 3 points; both are thresholds on the points value. OutcomesCorrect
// and ExactScores are counted from the per-bet scoring flags instead.
type LeaderboardEntry struct {
	Rank            int       `json:"rank"`
	UserID          uuid.UUID `json:"user_id"`
	Username        string    `json:"username"`
	TotalPoints     int       `json:"total_points"`
	TotalBets       int       `json:"total_bets"`
	CorrectWinners  int       `json:"correct_winners"`
	CorrectScores   int       `json:"correct_scores"`
	OutcomesCorrect int       `json:"outcomes_correct"`
	ExactScores     int       `json:"exact_scores"`
}
