//go:build integration

package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Dosada05/esports-tournament-engine/db"
	"github.com/Dosada05/esports-tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Run with: go test -tags integration ./repositories/...
func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("engine"),
		postgres.WithUsername("engine"),
		postgres.WithPassword("engine"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := db.Connect(dsn, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.EnsureSchema(ctx, conn))
	return conn
}

func TestPostgresRepositories(t *testing.T) {
	conn := setupPostgres(t)
	ctx := context.Background()
	tournaments := NewPostgresTournamentRepository(conn)
	matches := NewPostgresMatchRepository(conn)
	txm := NewPostgresTxManager(conn)

	tr := &models.Tournament{
		Name:   "Integration Cup",
		Status: models.StatusAnnounced,
		Phases: []models.Phase{
			{Name: "Qualifiers", Status: models.PhaseInProgress, Teams: []int{1, 2}},
			{Name: "Finals", Status: models.PhaseUpcoming},
		},
	}
	require.NoError(t, tournaments.Create(ctx, nil, tr))
	require.NotZero(t, tr.ID)

	first := 1
	require.NoError(t, matches.Create(ctx, nil, &models.Match{
		TournamentID: tr.ID, PhaseName: "Qualifiers", MatchNumber: 1, Status: models.MatchStatusCompleted,
		Results: []models.TeamResult{{TeamID: 1, Position: &first, Kills: 4}, {TeamID: 2, Kills: 0}},
	}))
	require.NoError(t, matches.Create(ctx, nil, &models.Match{
		TournamentID: tr.ID, PhaseName: "Qualifiers", MatchNumber: 2, Status: models.MatchStatusInProgress,
		Results: []models.TeamResult{{TeamID: 2, Position: &first, Kills: 9}},
	}))

	t.Run("only completed matches are listed", func(t *testing.T) {
		completed := models.MatchStatusCompleted
		list, err := matches.ListByPhase(ctx, nil, MatchFilter{TournamentID: tr.ID, PhaseName: "Qualifiers", Status: &completed})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 1, list[0].MatchNumber)
		require.Len(t, list[0].Results, 2)
		assert.Equal(t, 1, *list[0].Results[0].Position)
		assert.Nil(t, list[0].Results[1].Position)

		all, err := matches.ListByPhase(ctx, nil, MatchFilter{TournamentID: tr.ID, PhaseName: "Qualifiers"})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("duplicate match number", func(t *testing.T) {
		err := matches.Create(ctx, nil, &models.Match{TournamentID: tr.ID, PhaseName: "Qualifiers", MatchNumber: 1, Status: models.MatchStatusCompleted})
		assert.ErrorIs(t, err, ErrMatchNumberConflict)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		stale, err := tournaments.GetByID(ctx, nil, tr.ID)
		require.NoError(t, err)

		err = txm.RunInTx(ctx, func(ctx context.Context, exec SQLExecutor) error {
			fresh, err := tournaments.GetByIDForUpdate(ctx, exec, tr.ID)
			if err != nil {
				return err
			}
			fresh.Status = models.StatusOngoing
			return tournaments.Update(ctx, exec, fresh)
		})
		require.NoError(t, err)

		stale.Status = models.StatusCancelled
		assert.ErrorIs(t, tournaments.Update(ctx, nil, stale), ErrTournamentVersionConflict)

		stored, err := tournaments.GetByID(ctx, nil, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOngoing, stored.Status)
		assert.Equal(t, tr.Version+1, stored.Version)
	})

	t.Run("duplicate name", func(t *testing.T) {
		err := tournaments.Create(ctx, nil, &models.Tournament{Name: "Integration Cup", Status: models.StatusAnnounced})
		assert.ErrorIs(t, err, ErrTournamentNameConflict)
	})
}
