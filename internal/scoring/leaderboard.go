package scoring

import (
	"sort"

	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/models"
)

// Thresholds on points_earned used by the legacy leaderboard counters
const (
	correctWinnerMinPoints = 1
	correctScoreMinPoints  = 3
)

// BuildLeaderboard groups bets by user in order of first appearance, sums
// their statistics and sorts by total points, keeping that order for ties.
// Ranks follow competition ranking, so equal totals share a rank.
func BuildLeaderboard(bets []models.Bet) []models.LeaderboardEntry {
	index := make(map[uuid.UUID]int)
	entries := make([]models.LeaderboardEntry, 0)

	for _, bet := range bets {
		i, ok := index[bet.UserID]
		if !ok {
			i = len(entries)
			index[bet.UserID] = i
			entries = append(entries, models.LeaderboardEntry{
				UserID:   bet.UserID,
				Username: bet.Username,
			})
		}

		e := &entries[i]
		e.TotalPoints += bet.PointsEarned
		e.TotalBets++
		if bet.PointsEarned >= correctWinnerMinPoints {
			e.CorrectWinners++
		}
		if bet.PointsEarned >= correctScoreMinPoints {
			e.CorrectScores++
		}
		if bet.OutcomeCorrect {
			e.OutcomesCorrect++
		}
		if bet.HomeScoreExact && bet.AwayScoreExact {
			e.ExactScores++
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].TotalPoints > entries[b].TotalPoints
	})

	for i := range entries {
		if i > 0 && entries[i].TotalPoints == entries[i-1].TotalPoints {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}

	return entries
}
