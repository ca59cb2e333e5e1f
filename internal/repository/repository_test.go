package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kickwager/kickwager-api/internal/database"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
	"github.com/kickwager/kickwager-api/internal/scoring"
)

// setupRepos starts PostgreSQL, applies the embedded migrations and returns
// repositories over it
func setupRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("kickwager"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.RunMigrations(dsn))

	db, err := database.New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return repository.NewRepositories(db.DB)
}

func newUser(t *testing.T, repos *repository.Repositories, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@kickwager.test", PasswordHash: "hash"}
	require.NoError(t, repos.User.Create(context.Background(), u))
	return u
}

func newGame(t *testing.T, repos *repository.Repositories, week int, kickoff time.Time) *models.Game {
	t.Helper()
	g := &models.Game{
		HomeTeam: "Kansas City Chiefs", HomeTeamAbbr: "KC",
		AwayTeam: "Baltimore Ravens", AwayTeamAbbr: "BAL",
		GameDate: kickoff, Week: week, Season: "2025",
		Status: models.GameScheduled,
	}
	require.NoError(t, repos.Game.Create(context.Background(), g))
	return g
}

func newBet(t *testing.T, repos *repository.Repositories, u *models.User, g *models.Game, home, away int) *models.Bet {
	t.Helper()
	b := &models.Bet{
		UserID: u.ID, Username: u.Username, GameID: g.ID,
		HomeScorePrediction: home, AwayScorePrediction: away,
	}
	require.NoError(t, repos.Bet.Create(context.Background(), b))
	return b
}

func TestPostgresRepositories(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	kickoff := time.Date(2025, 9, 5, 0, 20, 0, 0, time.UTC)

	t.Run("users", func(t *testing.T) {
		u := newUser(t, repos, "alice")

		got, err := repos.User.GetByEmail(ctx, "alice@kickwager.test")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.False(t, got.IsAdmin)

		dup := &models.User{Username: "alice2", Email: "alice@kickwager.test", PasswordHash: "hash"}
		assert.ErrorIs(t, repos.User.Create(ctx, dup), repository.ErrDuplicate)

		require.NoError(t, repos.User.SetAdmin(ctx, u.ID, true))
		got, err = repos.User.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, got.IsAdmin)

		_, err = repos.User.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("games", func(t *testing.T) {
		first := newGame(t, repos, 10, kickoff.AddDate(0, 2, 0))
		newGame(t, repos, 10, kickoff.AddDate(0, 2, 1))
		newGame(t, repos, 11, kickoff.AddDate(0, 2, 7))

		games, err := repos.Game.List(ctx, models.GameFilters{Season: "2025", Week: 10})
		require.NoError(t, err)
		require.Len(t, games, 2)
		assert.Equal(t, first.ID, games[0].ID, "ordered by kickoff")

		home, away := 24, 17
		first.Status = models.GameFinished
		first.HomeScore = &home
		first.AwayScore = &away
		require.NoError(t, repos.Game.Update(ctx, first))

		pending, err := repos.Game.ListPendingScoring(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, first.ID, pending[0].ID)

		require.NoError(t, repos.Game.MarkFinished(ctx, first.ID, home, away, time.Now().UTC()))
		got, err := repos.Game.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, got.IsScored())

		// a late result must not rewrite a scored game
		assert.ErrorIs(t, repos.Game.RecordResult(ctx, first.ID, 3, 0), repository.ErrAlreadyScored)
		got, err = repos.Game.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 24, *got.HomeScore)
		assert.ErrorIs(t, repos.Game.RecordResult(ctx, uuid.New(), 3, 0), repository.ErrNotFound)

		pending, err = repos.Game.ListPendingScoring(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)

		second := newGame(t, repos, 12, kickoff.AddDate(0, 2, 14))
		require.NoError(t, repos.Game.RecordResult(ctx, second.ID, 10, 3))
		got, err = repos.Game.GetByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, models.GameFinished, got.Status)
		assert.False(t, got.IsScored())

		assert.ErrorIs(t, repos.Game.Delete(ctx, uuid.New()), repository.ErrNotFound)
	})

	t.Run("bets and totals", func(t *testing.T) {
		bob := newUser(t, repos, "bob")
		carol := newUser(t, repos, "carol")
		g1 := newGame(t, repos, 1, kickoff)
		g2 := newGame(t, repos, 2, kickoff.AddDate(0, 0, 7))

		b1 := newBet(t, repos, bob, g1, 27, 20)
		b2 := newBet(t, repos, bob, g2, 10, 13)
		newBet(t, repos, carol, g1, 0, 3)

		dup := &models.Bet{UserID: bob.ID, Username: bob.Username, GameID: g1.ID}
		assert.ErrorIs(t, repos.Bet.Create(ctx, dup), repository.ErrDuplicate)

		require.NoError(t, repos.Bet.UpdatePoints(ctx, b1.ID, scoring.BetScore{Points: 7, OutcomeCorrect: true, HomeScoreExact: true, AwayScoreExact: true}))
		require.NoError(t, repos.Bet.UpdatePoints(ctx, b2.ID, scoring.BetScore{Points: 1, OutcomeCorrect: true}))

		stored, err := repos.Bet.GetByID(ctx, b1.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, stored.PointsEarned)
		assert.True(t, stored.HomeScoreExact)

		// recomputing twice gives the same sum
		for i := 0; i < 2; i++ {
			total, err := repos.User.RecomputeTotalPoints(ctx, bob.ID)
			require.NoError(t, err)
			assert.Equal(t, 8, total)
		}

		onGame, err := repos.Bet.FindByGame(ctx, g1.ID)
		require.NoError(t, err)
		assert.Len(t, onGame, 2)

		mine, err := repos.Bet.FindByUser(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, b2.ID, mine[0].ID, "newest first")

		scoped, err := repos.Bet.Find(ctx, repository.MemberBets([]uuid.UUID{carol.ID}))
		require.NoError(t, err)
		require.Len(t, scoped, 1)
		assert.Equal(t, carol.ID, scoped[0].UserID)

		none, err := repos.Bet.Find(ctx, repository.MemberBets(nil))
		require.NoError(t, err)
		assert.Empty(t, none)

		// deleting a game cascades to its bets
		require.NoError(t, repos.Game.Delete(ctx, g2.ID))
		total, err := repos.User.RecomputeTotalPoints(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, total)
	})

	t.Run("groups", func(t *testing.T) {
		dave := newUser(t, repos, "dave")
		erin := newUser(t, repos, "erin")

		group := &models.Group{
			Name: "Office", InviteCode: "ABCD1234",
			AdminID: dave.ID, AdminUsername: dave.Username,
			Members: []models.GroupMember{{UserID: dave.ID, Username: dave.Username, JoinedAt: time.Now().UTC()}},
		}
		require.NoError(t, repos.Group.Create(ctx, group))
		require.NoError(t, repos.Group.AddMember(ctx, group.ID, models.GroupMember{UserID: erin.ID, Username: erin.Username, JoinedAt: time.Now().UTC()}))

		err := repos.Group.AddMember(ctx, group.ID, models.GroupMember{UserID: erin.ID, Username: erin.Username, JoinedAt: time.Now().UTC()})
		assert.ErrorIs(t, err, repository.ErrDuplicate)

		got, err := repos.Group.GetByInviteCode(ctx, "ABCD1234")
		require.NoError(t, err)
		require.Len(t, got.Members, 2)
		assert.Equal(t, dave.ID, got.Members[0].UserID, "members in join order")

		mine, err := repos.Group.ListForUser(ctx, erin.ID)
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		require.NoError(t, repos.Group.RemoveMember(ctx, group.ID, erin.ID))
		assert.ErrorIs(t, repos.Group.RemoveMember(ctx, group.ID, erin.ID), repository.ErrNotFound)

		require.NoError(t, repos.Group.DeleteAdministeredBy(ctx, dave.ID))
		_, err = repos.Group.GetByID(ctx, group.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("transaction rollback", func(t *testing.T) {
		boom := errors.New("boom")
		var created uuid.UUID

		err := repos.Tx.WithTransaction(ctx, func(tx *repository.Repositories) error {
			u := newUser(t, tx, "frank")
			created = u.ID
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = repos.User.GetByID(ctx, created)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
