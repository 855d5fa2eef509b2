package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/esports-tournament-engine/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var matchRowColumns = []string{"id", "tournament_id", "phase_name", "match_number", "status", "created_at"}

var resultRowColumns = []string{"match_id", "team_id", "position", "kills", "damage", "survival_seconds"}

func TestMatchRepository_ListByPhaseFiltersByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresMatchRepository(db)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM matches WHERE tournament_id = \$1 AND phase_name = \$2 AND status = \$3 ORDER BY match_number`).
		WithArgs(1, "Qualifiers", "completed").
		WillReturnRows(sqlmock.NewRows(matchRowColumns).
			AddRow(10, 1, "Qualifiers", 1, "completed", now).
			AddRow(11, 1, "Qualifiers", 2, "completed", now))
	mock.ExpectQuery(`FROM match_team_results WHERE match_id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(resultRowColumns).
			AddRow(10, 101, 1, 5, 320, nil).
			AddRow(10, 103, nil, 0, nil, nil).
			AddRow(11, 102, 1, 4, nil, 900))

	completed := models.MatchStatusCompleted
	matches, err := repo.ListByPhase(context.Background(), nil, MatchFilter{
		TournamentID: 1,
		PhaseName:    "Qualifiers",
		Status:       &completed,
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	first := matches[0]
	assert.Equal(t, models.MatchStatusCompleted, first.Status)
	require.Len(t, first.Results, 2)
	require.NotNil(t, first.Results[0].Position)
	assert.Equal(t, 1, *first.Results[0].Position)
	require.NotNil(t, first.Results[0].Damage)
	assert.Equal(t, 320, *first.Results[0].Damage)
	assert.Nil(t, first.Results[0].SurvivalSeconds)

	unplaced := first.Results[1]
	assert.Equal(t, 103, unplaced.TeamID)
	assert.Nil(t, unplaced.Position, "NULL position must decode as nil")
	assert.Nil(t, unplaced.Damage)

	require.Len(t, matches[1].Results, 1)
	require.NotNil(t, matches[1].Results[0].SurvivalSeconds)
	assert.Equal(t, 900, *matches[1].Results[0].SurvivalSeconds)
}

func TestMatchRepository_ListByPhaseWithoutStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresMatchRepository(db)

	mock.ExpectQuery(`FROM matches WHERE tournament_id = \$1 AND phase_name = \$2 ORDER BY`).
		WithArgs(1, "Finals").
		WillReturnRows(sqlmock.NewRows(matchRowColumns))

	matches, err := repo.ListByPhase(context.Background(), nil, MatchFilter{TournamentID: 1, PhaseName: "Finals"})
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestMatchRepository_CreateInsertsResultsInOrder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresMatchRepository(db)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO matches`).
		WithArgs(1, "Qualifiers", 3, "completed").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(42, now))
	mock.ExpectExec(`INSERT INTO match_team_results`).
		WithArgs(42, 0, 101, 1, 5, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO match_team_results`).
		WithArgs(42, 1, 102, nil, 0, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	position := 1
	m := &models.Match{
		TournamentID: 1,
		PhaseName:    "Qualifiers",
		MatchNumber:  3,
		Status:       models.MatchStatusCompleted,
		Results: []models.TeamResult{
			{TeamID: 101, Position: &position, Kills: 5},
			{TeamID: 102},
		},
	}
	require.NoError(t, repo.Create(context.Background(), nil, m))
	assert.Equal(t, 42, m.ID)
}

func TestMatchRepository_CreateErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    pq.ErrorCode
		wantErr error
	}{
		{name: "duplicate match number", code: "23505", wantErr: ErrMatchNumberConflict},
		{name: "unknown tournament", code: "23503", wantErr: ErrMatchTournamentInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPostgresMatchRepository(db)
			mock.ExpectQuery(`INSERT INTO matches`).WillReturnError(&pq.Error{Code: tt.code})

			err := repo.Create(context.Background(), nil, &models.Match{TournamentID: 1, PhaseName: "Qualifiers", MatchNumber: 1})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
