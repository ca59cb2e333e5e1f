package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/services"
)

func TestGames_AdminOnlyWrites(t *testing.T) {
	s := newTestServer(t)
	userToken, _ := s.login("alice")
	adminToken, _ := s.admin("boss")

	w := s.do(http.MethodPost, "/api/v1/games", userToken, gin.H{"home_team": "A"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	game := s.createGame(adminToken)
	assert.Equal(t, models.GameScheduled, game.Status)

	w = s.do(http.MethodDelete, "/api/v1/games/"+game.ID.String(), userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGames_ListAndGet(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.admin("boss")
	game := s.createGame(adminToken)

	w := s.do(http.MethodGet, "/api/v1/games?week=1&season=2025", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Games []models.Game `json:"games"`
		Count int           `json:"count"`
	}
	decode(t, w, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, game.ID, list.Games[0].ID)

	w = s.do(http.MethodGet, "/api/v1/games?week=2", adminToken, nil)
	decode(t, w, &list)
	assert.Equal(t, 0, list.Count)

	w = s.do(http.MethodGet, "/api/v1/games?week=abc", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/games/"+game.ID.String(), adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/games/"+uuid.NewString(), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))

	w = s.do(http.MethodGet, "/api/v1/games/not-a-uuid", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBets_PlaceAndList(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.admin("boss")
	aliceToken, alice := s.login("alice")
	game := s.createGame(adminToken)

	w := s.placeBet(aliceToken, game, 24, 17)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.placeBet(aliceToken, game, 10, 10)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.placeBet(aliceToken, game, -1, 3)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.placeBet(aliceToken, models.Game{ID: uuid.New()}, 1, 0)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/bets/mine", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Bets []models.Bet `json:"bets"`
	}
	decode(t, w, &mine)
	require.Len(t, mine.Bets, 1)
	assert.Equal(t, alice.ID, mine.Bets[0].UserID)

	w = s.do(http.MethodGet, "/api/v1/users/"+alice.ID.String()+"/bets", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/games/"+game.ID.String()+"/bets", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestGames_FinishScoresBets(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.admin("boss")
	aliceToken, _ := s.login("alice")
	bobToken, _ := s.login("bob")
	game := s.createGame(adminToken)

	require.Equal(t, http.StatusCreated, s.placeBet(aliceToken, game, 24, 17).Code)
	require.Equal(t, http.StatusCreated, s.placeBet(bobToken, game, 17, 24).Code)

	path := "/api/v1/games/" + game.ID.String()
	w := s.do(http.MethodPut, path, adminToken, gin.H{"status": "finished", "home_score": 24, "away_score": 17})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated struct {
		Game models.Game `json:"game"`
	}
	decode(t, w, &updated)
	assert.Equal(t, models.GameFinished, updated.Game.Status)
	assert.True(t, updated.Game.IsScored())

	// Finalizing twice is rejected
	w = s.do(http.MethodPut, path, adminToken, gin.H{"status": "finished", "home_score": 24, "away_score": 17})
	assert.Equal(t, http.StatusConflict, w.Code)

	// No more bets on a finished game
	carolToken, _ := s.login("carol")
	assert.Equal(t, http.StatusBadRequest, s.placeBet(carolToken, game, 1, 0).Code)

	w = s.do(http.MethodGet, "/api/v1/leaderboard", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var board struct {
		Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
	}
	decode(t, w, &board)
	require.Len(t, board.Leaderboard, 2)
	assert.Equal(t, "alice", board.Leaderboard[0].Username)
	assert.Equal(t, 7, board.Leaderboard[0].TotalPoints)
	assert.Equal(t, 1, board.Leaderboard[0].Rank)
	assert.Equal(t, 0, board.Leaderboard[1].TotalPoints)
	assert.Equal(t, 2, board.Leaderboard[1].Rank)
}

func TestLeaderboard_IsPublic(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.admin("boss")
	aliceToken, _ := s.login("alice")
	game := s.createGame(adminToken)
	require.Equal(t, http.StatusCreated, s.placeBet(aliceToken, game, 24, 17).Code)

	w := s.do(http.MethodGet, "/api/v1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var board struct {
		Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
	}
	decode(t, w, &board)
	require.Len(t, board.Leaderboard, 1)
	assert.Equal(t, "alice", board.Leaderboard[0].Username)

	// the rest of the API still needs a token
	w = s.do(http.MethodGet, "/api/v1/games", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGames_UpdateValidation(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.admin("boss")
	game := s.createGame(adminToken)
	path := "/api/v1/games/" + game.ID.String()

	w := s.do(http.MethodPut, path, adminToken, gin.H{"status": "finished", "home_score": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, path, adminToken, gin.H{"status": "live", "home_score": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, path, adminToken, gin.H{"status": "live"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGames_Rescore(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.admin("boss")
	aliceToken, alice := s.login("alice")
	game := s.createGame(adminToken)
	path := "/api/v1/games/" + game.ID.String()

	require.Equal(t, http.StatusCreated, s.placeBet(aliceToken, game, 2, 1).Code)

	// Rescoring a game that was never finalized is a conflict
	w := s.do(http.MethodPost, path+"/rescore", adminToken, gin.H{"home_score": 2, "away_score": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPut, path, adminToken, gin.H{"status": "finished", "home_score": 3, "away_score": 0})
	require.Equal(t, http.StatusOK, w.Code)

	for i := 0; i < 2; i++ {
		w = s.do(http.MethodPost, path+"/rescore", adminToken, gin.H{"home_score": 2, "away_score": 1})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Result services.ScoringResult `json:"result"`
		}
		decode(t, w, &resp)
		assert.True(t, resp.Result.Rescore)
		assert.Equal(t, 1, resp.Result.BetsScored)
	}

	w = s.do(http.MethodGet, "/api/v1/auth/me", aliceToken, nil)
	var me struct {
		User models.User `json:"user"`
	}
	decode(t, w, &me)
	assert.Equal(t, alice.ID, me.User.ID)
	assert.Equal(t, 7, me.User.TotalPoints)

	w = s.do(http.MethodPost, path+"/rescore", adminToken, gin.H{"home_score": -1, "away_score": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGames_DeleteRecomputesTotals(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.admin("boss")
	aliceToken, _ := s.login("alice")
	game := s.createGame(adminToken)
	path := "/api/v1/games/" + game.ID.String()

	require.Equal(t, http.StatusCreated, s.placeBet(aliceToken, game, 1, 0).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, path, adminToken, gin.H{"status": "finished", "home_score": 1, "away_score": 0}).Code)

	w := s.do(http.MethodDelete, path, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/auth/me", aliceToken, nil)
	var me struct {
		User models.User `json:"user"`
	}
	decode(t, w, &me)
	assert.Equal(t, 0, me.User.TotalPoints)

	w = s.do(http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
