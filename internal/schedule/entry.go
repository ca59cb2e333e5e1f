// Package schedule imports games from TOML fixture files and HTML schedule
// pages.
package schedule

import (
	"fmt"
	"strings"

	"github.com/kickwager/kickwager-api/internal/models"
)

// Entry is one game read from a source, with its result when the source
// already has one
type Entry struct {
	models.CreateGameRequest
	HomeScore *int              `toml:"home_score"`
	AwayScore *int              `toml:"away_score"`
	Status    models.GameStatus `toml:"status"`
}

// HasResult reports whether the entry carries a final score
func (e *Entry) HasResult() bool {
	return e.Status == models.GameFinished && e.HomeScore != nil && e.AwayScore != nil
}

// Key identifies a game within a season
func (e *Entry) Key() string {
	return gameKey(e.Season, e.Week, e.HomeTeamAbbr, e.AwayTeamAbbr)
}

func gameKey(season string, week int, home, away string) string {
	return fmt.Sprintf("%s/%d/%s@%s", season, week, strings.ToUpper(away), strings.ToUpper(home))
}

func (e *Entry) check() error {
	switch {
	case e.HomeTeam == "" || e.AwayTeam == "":
		return fmt.Errorf("both team names are required")
	case e.HomeTeamAbbr == "" || e.AwayTeamAbbr == "":
		return fmt.Errorf("both team abbreviations are required")
	case e.GameDate.IsZero():
		return fmt.Errorf("game date is required")
	case e.Week < 1:
		return fmt.Errorf("week must be at least 1")
	}

	if e.Status == "" {
		e.Status = models.GameScheduled
	}
	if !e.Status.Valid() {
		return fmt.Errorf("invalid status %q", e.Status)
	}
	if (e.HomeScore == nil) != (e.AwayScore == nil) {
		return fmt.Errorf("both scores or neither are required")
	}
	if e.HomeScore != nil && (*e.HomeScore < 0 || *e.AwayScore < 0) {
		return fmt.Errorf("scores must be non-negative")
	}
	return nil
}
