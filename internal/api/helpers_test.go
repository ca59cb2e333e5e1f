package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
	"github.com/kickwager/kickwager-api/internal/repository/memory"
	"github.com/kickwager/kickwager-api/internal/services"
	"github.com/kickwager/kickwager-api/pkg/config"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	svc    *services.Services
	repos  *repository.Repositories
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos, _ := memory.NewRepositories()
	cfg := &config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour, Environment: "development"}
	log := logger.Discard()
	svc := services.NewServices(services.Dependencies{
		Repos:        repos,
		Config:       cfg,
		Logger:       log,
		PasswordCost: bcrypt.MinCost,
	})

	r := gin.New()
	SetupRoutes(r, RouterDeps{
		Services: svc,
		Pipeline: services.NewScoringPipeline(repos, svc.Scoring, log),
		Config:   cfg,
	})

	return &testServer{t: t, router: r, svc: svc, repos: repos}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// login registers a user and returns a bearer token for it
func (s *testServer) login(name string) (string, models.User) {
	s.t.Helper()

	w := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": name,
		"email":    name + "@kickwager.test",
		"password": "password123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    name + "@kickwager.test",
		"password": "password123",
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(s.t, w, &resp)
	require.NotEmpty(s.t, resp.Token)
	return resp.Token, resp.User
}

// admin returns a token for a user with admin rights
func (s *testServer) admin(name string) (string, models.User) {
	s.t.Helper()
	token, user := s.login(name)
	require.NoError(s.t, s.repos.User.SetAdmin(context.Background(), user.ID, true))
	return token, user
}

// createGame creates a scheduled game through the admin endpoint
func (s *testServer) createGame(adminToken string) models.Game {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/games", adminToken, gin.H{
		"home_team":      "Kansas City Chiefs",
		"away_team":      "Baltimore Ravens",
		"home_team_abbr": "KC",
		"away_team_abbr": "BAL",
		"game_date":      time.Date(2025, 9, 5, 0, 20, 0, 0, time.UTC),
		"week":           1,
		"season":         "2025",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Game models.Game `json:"game"`
	}
	decode(s.t, w, &resp)
	return resp.Game
}

func (s *testServer) placeBet(token string, game models.Game, home, away int) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.do(http.MethodPost, "/api/v1/bets", token, gin.H{
		"game_id":               game.ID.String(),
		"home_score_prediction": home,
		"away_score_prediction": away,
	})
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decode(t, w, &body)
	return body.Code
}
