package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kickwager/kickwager-api/internal/models"
)

// Parser extracts games from schedule pages laid out as
//
//	<table class="schedule" data-season="2025" data-week="1">
//	  <tr class="game" data-week="1">
//	    <td class="kickoff"><time datetime="2025-09-05T00:20:00Z">Thu 8:20 PM</time></td>
//	    <td class="away"><span class="abbr">BAL</span><span class="name">Baltimore Ravens</span></td>
//	    <td class="home"><span class="abbr">KC</span><span class="name">Kansas City Chiefs</span></td>
//	    <td class="away-score">20</td><td class="home-score">27</td>
//	    <td class="status">Final</td>
//	  </tr>
//	</table>
//
// Row-level data-week overrides the table's.
type Parser struct{}

// NewParser creates a new parser instance
func NewParser() *Parser {
	return &Parser{}
}

// ParseSchedulePage returns every game row it could read. Rows that fail to
// parse are skipped and reported together in the returned error.
func (p *Parser) ParseSchedulePage(doc *goquery.Document, defaultSeason string) ([]Entry, error) {
	var entries []Entry
	var errs []error

	doc.Find("table.schedule").Each(func(_ int, table *goquery.Selection) {
		season := attrOr(table, "data-season", defaultSeason)
		tableWeek := attrOr(table, "data-week", "")

		table.Find("tr.game").Each(func(i int, row *goquery.Selection) {
			entry, err := p.parseRow(row, season, attrOr(row, "data-week", tableWeek))
			if err != nil {
				errs = append(errs, fmt.Errorf("row %d: %w", i+1, err))
				return
			}
			entries = append(entries, entry)
		})
	})

	return entries, errors.Join(errs...)
}

func (p *Parser) parseRow(row *goquery.Selection, season, week string) (Entry, error) {
	var entry Entry

	kickoff := row.Find("td.kickoff time")
	datetime, ok := kickoff.Attr("datetime")
	if !ok {
		datetime = strings.TrimSpace(row.Find("td.kickoff").Text())
	}
	gameDate, err := time.Parse(time.RFC3339, datetime)
	if err != nil {
		return entry, fmt.Errorf("invalid kickoff %q: %w", datetime, err)
	}

	weekNum, err := strconv.Atoi(strings.TrimSpace(week))
	if err != nil {
		return entry, fmt.Errorf("invalid week %q", week)
	}

	entry.HomeTeam = text(row.Find("td.home .name"))
	entry.HomeTeamAbbr = strings.ToUpper(text(row.Find("td.home .abbr")))
	entry.AwayTeam = text(row.Find("td.away .name"))
	entry.AwayTeamAbbr = strings.ToUpper(text(row.Find("td.away .abbr")))
	entry.GameDate = gameDate.UTC()
	entry.Week = weekNum
	entry.Season = season
	if entry.Season == "" {
		entry.Season = strconv.Itoa(entry.GameDate.Year())
	}
	entry.Status = parseStatus(text(row.Find("td.status")))

	if home, away := text(row.Find("td.home-score")), text(row.Find("td.away-score")); home != "" || away != "" {
		h, herr := strconv.Atoi(home)
		a, aerr := strconv.Atoi(away)
		if herr != nil || aerr != nil {
			return entry, fmt.Errorf("invalid score %q-%q", home, away)
		}
		entry.HomeScore = &h
		entry.AwayScore = &a
	}

	if err := entry.check(); err != nil {
		return entry, err
	}
	return entry, nil
}

// parseStatus maps the page's status labels; unknown labels mean scheduled
func parseStatus(label string) models.GameStatus {
	switch strings.ToLower(label) {
	case "final", "final/ot", "finished", "ft":
		return models.GameFinished
	case "live", "in progress", "halftime":
		return models.GameLive
	default:
		return models.GameScheduled
	}
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.First().Text())
}

func attrOr(s *goquery.Selection, name, fallback string) string {
	if v, ok := s.Attr(name); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
