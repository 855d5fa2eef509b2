package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/esports-tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNumberConflict    = errors.New("match number already used in this phase")
	ErrMatchTournamentInvalid = errors.New("match tournament reference is invalid")
)

// MatchFilter narrows ListByPhase. A nil Status returns matches in any status.
type MatchFilter struct {
	TournamentID int
	PhaseName    string
	Status       *models.MatchStatus
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	ListByPhase(ctx context.Context, exec SQLExecutor, filter MatchFilter) ([]*models.Match, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (tournament_id, phase_name, match_number, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		match.TournamentID, match.PhaseName, match.MatchNumber, match.Status,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return r.handleMatchError(err)
	}

	resultQuery := `
		INSERT INTO match_team_results
			(match_id, ordinal, team_id, position, kills, damage, survival_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i, res := range match.Results {
		if _, err := executor.ExecContext(ctx, resultQuery,
			match.ID, i, res.TeamID, res.Position, res.Kills, res.Damage, res.SurvivalSeconds,
		); err != nil {
			return fmt.Errorf("failed to insert result of team %d for match %d: %w", res.TeamID, match.ID, r.handleMatchError(err))
		}
	}
	return nil
}

func (r *postgresMatchRepository) ListByPhase(ctx context.Context, exec SQLExecutor, filter MatchFilter) ([]*models.Match, error) {
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, tournament_id, phase_name, match_number, status, created_at
		FROM matches
		WHERE tournament_id = $1 AND phase_name = $2`)
	args := []interface{}{filter.TournamentID, filter.PhaseName}
	if filter.Status != nil {
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(len(args)+1))
		args = append(args, *filter.Status)
	}
	queryBuilder.WriteString(" ORDER BY match_number ASC, id ASC")

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d phase %q: %w", filter.TournamentID, filter.PhaseName, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	byID := make(map[int]*models.Match)
	ids := make([]int64, 0)
	for rows.Next() {
		m := &models.Match{Results: []models.TeamResult{}}
		if err := rows.Scan(&m.ID, &m.TournamentID, &m.PhaseName, &m.MatchNumber, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
		byID[m.ID] = m
		ids = append(ids, int64(m.ID))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return matches, nil
	}

	if err := r.loadResults(ctx, executor, ids, byID); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) loadResults(ctx context.Context, executor SQLExecutor, ids []int64, byID map[int]*models.Match) error {
	query := `
		SELECT match_id, team_id, position, kills, damage, survival_seconds
		FROM match_team_results
		WHERE match_id = ANY($1)
		ORDER BY match_id ASC, ordinal ASC`
	rows, err := executor.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load match results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			matchID                   int
			res                       models.TeamResult
			position, damage, survive sql.NullInt64
		)
		if err := rows.Scan(&matchID, &res.TeamID, &position, &res.Kills, &damage, &survive); err != nil {
			return fmt.Errorf("failed to scan match result: %w", err)
		}
		res.Position = nullIntPtr(position)
		res.Damage = nullIntPtr(damage)
		res.SurvivalSeconds = nullIntPtr(survive)
		if m, ok := byID[matchID]; ok {
			m.Results = append(m.Results, res)
		}
	}
	return rows.Err()
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrMatchNumberConflict
		case "23503":
			return ErrMatchTournamentInvalid
		}
	}
	return err
}
