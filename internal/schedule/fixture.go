package schedule

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Fixture is the TOML layout of a schedule file:
//
//	season = "2025"
//
//	[[games]]
//	home_team = "Kansas City Chiefs"
//	home_team_abbr = "KC"
//	away_team = "Baltimore Ravens"
//	away_team_abbr = "BAL"
//	game_date = 2025-09-05T00:20:00Z
//	week = 1
//	home_score = 27   # optional, with away_score and status = "finished"
type Fixture struct {
	Season string  `toml:"season"`
	Games  []Entry `toml:"games"`
}

// LoadFixture reads a fixture file
func LoadFixture(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()

	return ParseFixture(f)
}

// ParseFixture decodes a fixture. Unknown keys are rejected so typos in
// hand-written files surface instead of silently dropping data.
func ParseFixture(r io.Reader) ([]Entry, error) {
	var fixture Fixture
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}

	entries := make([]Entry, 0, len(fixture.Games))
	for i, entry := range fixture.Games {
		if entry.Season == "" {
			entry.Season = fixture.Season
		}
		if entry.Season == "" {
			entry.Season = fmt.Sprintf("%d", entry.GameDate.Year())
		}
		if err := entry.check(); err != nil {
			return nil, fmt.Errorf("game %d (%s vs %s): %w", i+1, entry.HomeTeamAbbr, entry.AwayTeamAbbr, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
