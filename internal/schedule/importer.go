package schedule

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
	"github.com/kickwager/kickwager-api/internal/services"
)

// Options controls an import run
type Options struct {
	// Finalize scores finished games right away instead of leaving them
	// for the scoring sweep
	Finalize bool
	// DryRun reports what would change without writing
	DryRun bool
}

// Stats summarizes an import run
type Stats struct {
	Read            int `json:"read"`
	Created         int `json:"created"`
	Existing        int `json:"existing"`
	ResultsRecorded int `json:"results_recorded"`
	Finalized       int `json:"finalized"`
	AlreadyScored   int `json:"already_scored"`
	Failed          int `json:"failed"`
}

// Summary renders the stats on one line
func (s *Stats) Summary() string {
	return fmt.Sprintf("read=%d, created=%d, existing=%d, results=%d, finalized=%d, already_scored=%d, failed=%d",
		s.Read, s.Created, s.Existing, s.ResultsRecorded, s.Finalized, s.AlreadyScored, s.Failed)
}

// Importer writes schedule entries into the games table. Games are matched on
// season, week and team abbreviations, so re-running an import only adds what
// is new and records results that came in since.
type Importer struct {
	repos   *repository.Repositories
	games   services.GameService
	scoring services.ScoringService
	logger  logger.Logger
}

// NewImporter creates an importer
func NewImporter(repos *repository.Repositories, games services.GameService, scoring services.ScoringService, log logger.Logger) *Importer {
	return &Importer{repos: repos, games: games, scoring: scoring, logger: log}
}

// Import applies entries in order
func (im *Importer) Import(ctx context.Context, entries []Entry, opts Options) (*Stats, error) {
	stats := &Stats{Read: len(entries)}
	known := make(map[string]map[string]models.Game)

	for i := range entries {
		entry := &entries[i]
		log := im.logger.With("game", entry.Key())

		week, err := im.weekIndex(ctx, known, entry.Season, entry.Week)
		if err != nil {
			return stats, err
		}

		game, exists := week[entry.Key()]
		if exists {
			stats.Existing++
		} else {
			if opts.DryRun {
				stats.Created++
				continue
			}
			created, err := im.games.Create(ctx, &entry.CreateGameRequest)
			if err != nil {
				stats.Failed++
				log.Error("Failed to create game", err)
				continue
			}
			game = *created
			week[entry.Key()] = game
			stats.Created++
		}

		if !entry.HasResult() || opts.DryRun {
			continue
		}
		if game.IsScored() {
			stats.AlreadyScored++
			continue
		}

		if opts.Finalize {
			_, err := im.scoring.FinalizeGame(ctx, game.ID, *entry.HomeScore, *entry.AwayScore)
			switch {
			case err == nil:
				stats.Finalized++
			case errors.HasCode(err, errors.ErrCodeConflict):
				stats.AlreadyScored++
			default:
				stats.Failed++
				log.Error("Failed to finalize game", err)
			}
			continue
		}

		if err := im.recordResult(ctx, &game, entry); err != nil {
			if stderrors.Is(err, repository.ErrAlreadyScored) {
				stats.AlreadyScored++
				continue
			}
			stats.Failed++
			log.Error("Failed to record result", err)
			continue
		}
		week[entry.Key()] = game
		stats.ResultsRecorded++
	}

	im.logger.Info("Schedule import finished", "summary", stats.Summary(), "dry_run", opts.DryRun)
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d of %d games failed to import", stats.Failed, stats.Read)
	}
	return stats, nil
}

// recordResult stores a final score without scoring it; the scoring sweep
// picks the game up. A game scored since the week was listed is left alone.
func (im *Importer) recordResult(ctx context.Context, game *models.Game, entry *Entry) error {
	result := *game
	result.Status = models.GameFinished
	result.HomeScore = entry.HomeScore
	result.AwayScore = entry.AwayScore
	if err := models.Validate(&result); err != nil {
		return err
	}
	if err := im.repos.Game.RecordResult(ctx, game.ID, *entry.HomeScore, *entry.AwayScore); err != nil {
		return err
	}
	*game = result
	return nil
}

func (im *Importer) weekIndex(ctx context.Context, known map[string]map[string]models.Game, season string, week int) (map[string]models.Game, error) {
	key := fmt.Sprintf("%s/%d", season, week)
	if idx, ok := known[key]; ok {
		return idx, nil
	}

	games, err := im.repos.Game.List(ctx, models.GameFilters{Season: season, Week: week, Limit: 100})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s week %d: %w", season, week, err)
	}

	idx := make(map[string]models.Game, len(games))
	for _, g := range games {
		idx[gameKey(g.Season, g.Week, g.HomeTeamAbbr, g.AwayTeamAbbr)] = g
	}
	known[key] = idx
	return idx, nil
}

// FetchEntries downloads and parses each schedule page. A page that fails
// to download aborts the run; rows that fail to parse are logged and skipped.
func FetchEntries(ctx context.Context, client *Client, urls []string, season string, log logger.Logger) ([]Entry, error) {
	parser := NewParser()
	var entries []Entry

	for _, url := range urls {
		doc, err := client.Get(ctx, url)
		if err != nil {
			return entries, fmt.Errorf("failed to fetch %s: %w", url, err)
		}

		page, err := parser.ParseSchedulePage(doc, season)
		if err != nil {
			log.Warn("Skipped unreadable schedule rows", "url", url, "error", err.Error())
		}
		log.Info("Parsed schedule page", "url", url, "games", len(page))
		entries = append(entries, page...)
	}
	return entries, nil
}
