package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
)

func TestBets_Place(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	g := f.game()

	bet := f.bet(alice, g, 2, 1)
	assert.Equal(t, alice.ID, bet.UserID)
	assert.Equal(t, "alice", bet.Username)
	assert.Equal(t, 0, bet.PointsEarned)

	_, err := f.svc.Bets.Place(f.ctx, alice, &models.PlaceBetRequest{
		GameID: g.ID.String(), HomeScorePrediction: intPtr(0), AwayScorePrediction: intPtr(0),
	})
	assert.True(t, errors.HasCode(err, errors.ErrCodeConflict), "one bet per user and game")
}

func TestBets_PlaceRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	g := f.game()

	tests := []struct {
		name string
		req  models.PlaceBetRequest
		code string
	}{
		{"unknown game", models.PlaceBetRequest{GameID: uuid.NewString(), HomeScorePrediction: intPtr(1), AwayScorePrediction: intPtr(0)}, errors.ErrCodeNotFound},
		{"malformed game id", models.PlaceBetRequest{GameID: "nope", HomeScorePrediction: intPtr(1), AwayScorePrediction: intPtr(0)}, errors.ErrCodeValidationError},
		{"negative prediction", models.PlaceBetRequest{GameID: g.ID.String(), HomeScorePrediction: intPtr(-1), AwayScorePrediction: intPtr(0)}, errors.ErrCodeValidationError},
		{"missing prediction", models.PlaceBetRequest{GameID: g.ID.String(), HomeScorePrediction: intPtr(1)}, errors.ErrCodeValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Bets.Place(f.ctx, alice, &tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestBets_OnlyScheduledGamesAcceptBets(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")

	live := f.game()
	status := models.GameLive
	_, err := f.svc.Games.Update(f.ctx, live.ID, &models.UpdateGameRequest{Status: &status})
	require.NoError(t, err)

	finished := f.game()
	_, err = f.svc.Scoring.FinalizeGame(f.ctx, finished.ID, 1, 0)
	require.NoError(t, err)

	for _, g := range []*models.Game{live, finished} {
		_, err := f.svc.Bets.Place(f.ctx, alice, &models.PlaceBetRequest{
			GameID: g.ID.String(), HomeScorePrediction: intPtr(1), AwayScorePrediction: intPtr(0),
		})
		assert.True(t, errors.HasCode(err, errors.ErrCodeValidationError), string(g.Status))
	}
}

func TestBets_Listing(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	g1, g2 := f.game(), f.game()

	first := f.bet(alice, g1, 1, 0)
	f.bet(bob, g1, 0, 0)
	second := f.bet(alice, g2, 2, 2)

	byGame, err := f.svc.Bets.ListByGame(f.ctx, g1.ID)
	require.NoError(t, err)
	require.Len(t, byGame, 2)
	assert.Equal(t, alice.ID, byGame[0].UserID)

	byUser, err := f.svc.Bets.ListByUser(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, second.ID, byUser[0].ID, "newest first")
	assert.Equal(t, first.ID, byUser[1].ID)

	_, err = f.svc.Bets.ListByGame(f.ctx, uuid.New())
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

// hookedTx runs before once, ahead of the next transaction
type hookedTx struct {
	repository.TransactionManager
	before func()
}

func (h *hookedTx) WithTransaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	if hook := h.before; hook != nil {
		h.before = nil
		hook()
	}
	return h.TransactionManager.WithTransaction(ctx, fn)
}

func TestBets_PlaceRechecksGameInsideTransaction(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	g := f.game()

	// the game is finalized after the request was read but before the insert
	f.repos.Tx = &hookedTx{TransactionManager: f.repos.Tx, before: func() {
		_, err := f.svc.Scoring.FinalizeGame(f.ctx, g.ID, 21, 14)
		require.NoError(t, err)
	}}

	_, err := f.svc.Bets.Place(f.ctx, alice, &models.PlaceBetRequest{
		GameID: g.ID.String(), HomeScorePrediction: intPtr(21), AwayScorePrediction: intPtr(14),
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationError, errors.CodeOf(err))

	bets, err := f.repos.Bet.FindByGame(f.ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, bets, "no bet may land on a finished game")
}

func TestBets_PlaceConcurrentWithFinalize(t *testing.T) {
	f := newFixture(t)
	g := f.game()

	users := make([]*models.User, 8)
	for i := range users {
		users[i] = f.user(fmt.Sprintf("user%d", i))
	}

	var (
		wg       sync.WaitGroup
		result   *ScoringResult
		finalErr error
	)
	start := make(chan struct{})
	for _, u := range users {
		wg.Add(1)
		go func(u *models.User) {
			defer wg.Done()
			<-start
			_, _ = f.svc.Bets.Place(f.ctx, u, &models.PlaceBetRequest{
				GameID: g.ID.String(), HomeScorePrediction: intPtr(1), AwayScorePrediction: intPtr(0),
			})
		}(u)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		result, finalErr = f.svc.Scoring.FinalizeGame(f.ctx, g.ID, 1, 0)
	}()
	close(start)
	wg.Wait()

	require.NoError(t, finalErr)
	bets, err := f.repos.Bet.FindByGame(f.ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, bets, result.BetsScored, "every stored bet was seen by the scorer")
	for _, b := range bets {
		assert.Equal(t, 7, b.PointsEarned)
		assert.Equal(t, 7, f.totalPoints(&models.User{ID: b.UserID}))
	}
}
