package scoring

import (
	"fmt"

	"github.com/kickwager/kickwager-api/internal/models"
)

// Points awarded per matched prediction fact
const (
	ExactHomeScorePoints = 3
	ExactAwayScorePoints = 3
	CorrectOutcomePoints = 1

	// MaxPoints is the best possible result for a single bet
	MaxPoints = ExactHomeScorePoints + ExactAwayScorePoints + CorrectOutcomePoints
)

// Outcome is the categorical result of a game
type Outcome int

const (
	Tie Outcome = iota
	HomeWin
	AwayWin
)

func (o Outcome) String() string {
	switch o {
	case HomeWin:
		return "home"
	case AwayWin:
		return "away"
	default:
		return "tie"
	}
}

// DetermineOutcome compares two scores
func DetermineOutcome(home, away int) Outcome {
	switch {
	case home > away:
		return HomeWin
	case away > home:
		return AwayWin
	default:
		return Tie
	}
}

// FinalScore is a game's final result
type FinalScore struct {
	Home int
	Away int
}

// Validate rejects negative scores
func (s FinalScore) Validate() error {
	if s.Home < 0 || s.Away < 0 {
		return fmt.Errorf("scores must be non-negative, got %d-%d", s.Home, s.Away)
	}
	return nil
}

// BetScore is the outcome of scoring one prediction
type BetScore struct {
	Points         int  `json:"points"`
	OutcomeCorrect bool `json:"outcome_correct"`
	HomeScoreExact bool `json:"home_score_exact"`
	AwayScoreExact bool `json:"away_score_exact"`
}

// ExactScore is true when both sides were predicted exactly
func (s BetScore) ExactScore() bool {
	return s.HomeScoreExact && s.AwayScoreExact
}

// Engine scores predictions against final results
type Engine struct{}

// NewEngine creates a new scoring engine instance
func NewEngine() *Engine {
	return &Engine{}
}

// ScorePrediction checks each prediction fact independently and sums the
// points. An exact score always implies the correct outcome.
func (e *Engine) ScorePrediction(predictedHome, predictedAway int, final FinalScore) BetScore {
	result := BetScore{
		HomeScoreExact: predictedHome == final.Home,
		AwayScoreExact: predictedAway == final.Away,
		OutcomeCorrect: DetermineOutcome(predictedHome, predictedAway) == DetermineOutcome(final.Home, final.Away),
	}

	if result.HomeScoreExact {
		result.Points += ExactHomeScorePoints
	}
	if result.AwayScoreExact {
		result.Points += ExactAwayScorePoints
	}
	if result.OutcomeCorrect {
		result.Points += CorrectOutcomePoints
	}

	return result
}

// ScoreBet scores a stored bet
func (e *Engine) ScoreBet(bet models.Bet, final FinalScore) BetScore {
	return e.ScorePrediction(bet.HomeScorePrediction, bet.AwayScorePrediction, final)
}

// Apply copies a score onto the bet
func (s BetScore) Apply(bet *models.Bet) {
	bet.PointsEarned = s.Points
	bet.OutcomeCorrect = s.OutcomeCorrect
	bet.HomeScoreExact = s.HomeScoreExact
	bet.AwayScoreExact = s.AwayScoreExact
}
