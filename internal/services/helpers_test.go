package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kickwager/kickwager-api/internal/events"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
	"github.com/kickwager/kickwager-api/internal/repository/memory"
	"github.com/kickwager/kickwager-api/pkg/config"
)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	svc    *Services
	repos  *repository.Repositories
	store  *memory.Store
	cache  *recordingCache
	events *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repos, store := memory.NewRepositories()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		repos:  repos,
		store:  store,
		cache:  newRecordingCache(),
		events: &recordingPublisher{},
	}

	f.svc = NewServices(Dependencies{
		Repos: repos,
		Config: &config.Config{
			JWTSecret:     "test-secret",
			TokenTTL:      time.Hour,
			AdminEmail:    "admin@kickwager.test",
			AdminUsername: "admin",
			AdminPassword: "changeme",
		},
		Logger:       logger.Discard(),
		Cache:        f.cache,
		Events:       f.events,
		PasswordCost: bcrypt.MinCost,
	})
	return f
}

func (f *fixture) user(name string) *models.User {
	f.t.Helper()
	u, err := f.svc.Auth.Register(f.ctx, &models.RegisterRequest{
		Username: name,
		Email:    name + "@kickwager.test",
		Password: "password123",
	})
	require.NoError(f.t, err)
	return u
}

var gameSeq int

func (f *fixture) game() *models.Game {
	f.t.Helper()
	gameSeq++
	g, err := f.svc.Games.Create(f.ctx, &models.CreateGameRequest{
		HomeTeam:     "Home Team",
		AwayTeam:     "Away Team",
		HomeTeamAbbr: "HOM",
		AwayTeamAbbr: "AWY",
		GameDate:     time.Date(2025, 9, 7, 13, 0, 0, 0, time.UTC).AddDate(0, 0, gameSeq),
		Week:         1,
		Season:       "2025",
	})
	require.NoError(f.t, err)
	return g
}

func (f *fixture) bet(u *models.User, g *models.Game, home, away int) *models.Bet {
	f.t.Helper()
	b, err := f.svc.Bets.Place(f.ctx, u, &models.PlaceBetRequest{
		GameID:              g.ID.String(),
		HomeScorePrediction: &home,
		AwayScorePrediction: &away,
	})
	require.NoError(f.t, err)
	return b
}

func (f *fixture) totalPoints(u *models.User) int {
	f.t.Helper()
	got, err := f.repos.User.GetByID(f.ctx, u.ID)
	require.NoError(f.t, err)
	return got.TotalPoints
}

func (f *fixture) storedBet(b *models.Bet) *models.Bet {
	f.t.Helper()
	got, err := f.repos.Bet.GetByID(f.ctx, b.ID)
	require.NoError(f.t, err)
	return got
}

func intPtr(v int) *int { return &v }

// recordingCache is an in-memory LeaderboardCache that records invalidations
type recordingCache struct {
	mu            sync.Mutex
	entries       map[string][]models.LeaderboardEntry
	generation    int64
	invalidated   []string
	invalidateAll int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string][]models.LeaderboardEntry)}
}

func (c *recordingCache) Get(ctx context.Context, key string) ([]models.LeaderboardEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok, nil
}

func (c *recordingCache) Generation(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *recordingCache) Set(ctx context.Context, key string, entries []models.LeaderboardEntry, generation int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return false, nil
	}
	c.entries[key] = entries
	return true, nil
}

func (c *recordingCache) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	for _, k := range keys {
		delete(c.entries, k)
		c.invalidated = append(c.invalidated, k)
	}
	return nil
}

func (c *recordingCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]models.LeaderboardEntry)
	c.generation++
	c.invalidateAll++
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	scored []events.GameScored
}

func (p *recordingPublisher) PublishGameScored(ctx context.Context, event events.GameScored) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scored = append(p.scored, event)
	return nil
}
