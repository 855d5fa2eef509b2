package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/esports-tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound        = errors.New("tournament not found")
	ErrTournamentNameConflict    = errors.New("tournament name already exists")
	ErrTournamentVersionConflict = errors.New("tournament was modified concurrently")
)

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	// GetByIDForUpdate locks the tournament row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	// Update writes the whole document if the stored version still matches
	// tournament.Version and bumps the version on success.
	Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, name, status, phases, participating_teams, prize_distribution,
	final_standings, version, created_at, updated_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	docs, err := encodeTournamentDocuments(t)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tournaments (name, status, phases, participating_teams, prize_distribution, final_standings)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version, created_at, updated_at`

	err = r.getExecutor(exec).QueryRowContext(ctx, query,
		t.Name, t.Status, docs.phases, docs.teams, docs.prizes, docs.finals,
	).Scan(&t.ID, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 FOR UPDATE`
	return r.scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	docs, err := encodeTournamentDocuments(t)
	if err != nil {
		return err
	}
	query := `
		UPDATE tournaments SET
			name = $1,
			status = $2,
			phases = $3,
			participating_teams = $4,
			prize_distribution = $5,
			final_standings = $6,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $7 AND version = $8
		RETURNING version, updated_at`

	err = r.getExecutor(exec).QueryRowContext(ctx, query,
		t.Name, t.Status, docs.phases, docs.teams, docs.prizes, docs.finals,
		t.ID, t.Version,
	).Scan(&t.Version, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTournamentVersionConflict
	}
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) scanTournament(row *sql.Row) (*models.Tournament, error) {
	var (
		t                             models.Tournament
		phases, teams, prizes, finals []byte
	)
	err := row.Scan(
		&t.ID, &t.Name, &t.Status, &phases, &teams, &prizes,
		&finals, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament: %w", err)
	}

	if err := unmarshalDocument(phases, &t.Phases); err != nil {
		return nil, fmt.Errorf("failed to decode phases of tournament %d: %w", t.ID, err)
	}
	if err := unmarshalDocument(teams, &t.ParticipatingTeams); err != nil {
		return nil, fmt.Errorf("failed to decode participating teams of tournament %d: %w", t.ID, err)
	}
	if err := unmarshalDocument(prizes, &t.PrizeDistribution); err != nil {
		return nil, fmt.Errorf("failed to decode prize distribution of tournament %d: %w", t.ID, err)
	}
	if finals != nil {
		if err := unmarshalDocument(finals, &t.FinalStandings); err != nil {
			return nil, fmt.Errorf("failed to decode final standings of tournament %d: %w", t.ID, err)
		}
	}
	return &t, nil
}

type tournamentDocuments struct {
	phases, teams, prizes []byte
	finals                []byte
}

func encodeTournamentDocuments(t *models.Tournament) (*tournamentDocuments, error) {
	var (
		docs tournamentDocuments
		err  error
	)
	if docs.phases, err = marshalDocument(t.Phases); err != nil {
		return nil, fmt.Errorf("failed to encode phases: %w", err)
	}
	if docs.teams, err = marshalDocument(t.ParticipatingTeams); err != nil {
		return nil, fmt.Errorf("failed to encode participating teams: %w", err)
	}
	if docs.prizes, err = marshalDocument(t.PrizeDistribution); err != nil {
		return nil, fmt.Errorf("failed to encode prize distribution: %w", err)
	}
	if t.FinalStandings != nil {
		if docs.finals, err = marshalDocument(t.FinalStandings); err != nil {
			return nil, fmt.Errorf("failed to encode final standings: %w", err)
		}
	}
	return &docs, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrTournamentNameConflict
	}
	return err
}
