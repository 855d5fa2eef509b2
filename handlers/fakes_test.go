package handlers

import (
	"context"

	"github.com/Dosada05/esports-tournament-engine/models"
	"github.com/Dosada05/esports-tournament-engine/services"
)

type fakeProgressionService struct {
	AdvancePhaseFunc   func(ctx context.Context, tournamentID int, phaseName string) (*services.AdvanceResult, error)
	PhaseStandingsFunc func(ctx context.Context, tournamentID int, phaseName string) (*services.PhaseStandingsView, error)
	GetTournamentFunc  func(ctx context.Context, tournamentID int) (*models.Tournament, error)
	SeedTournamentFunc func(ctx context.Context, t *models.Tournament, matches []*models.Match) (*models.Tournament, error)

	trace []string
}

func (f *fakeProgressionService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *fakeProgressionService) AdvancePhase(ctx context.Context, tournamentID int, phaseName string) (*services.AdvanceResult, error) {
	f.record("AdvancePhase")
	if f.AdvancePhaseFunc != nil {
		return f.AdvancePhaseFunc(ctx, tournamentID, phaseName)
	}
	return &services.AdvanceResult{TournamentID: tournamentID, PhaseName: phaseName}, nil
}

func (f *fakeProgressionService) PhaseStandings(ctx context.Context, tournamentID int, phaseName string) (*services.PhaseStandingsView, error) {
	f.record("PhaseStandings")
	if f.PhaseStandingsFunc != nil {
		return f.PhaseStandingsFunc(ctx, tournamentID, phaseName)
	}
	return &services.PhaseStandingsView{TournamentID: tournamentID, PhaseName: phaseName}, nil
}

func (f *fakeProgressionService) GetTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	f.record("GetTournament")
	if f.GetTournamentFunc != nil {
		return f.GetTournamentFunc(ctx, tournamentID)
	}
	return &models.Tournament{ID: tournamentID, Name: "Test Cup"}, nil
}

func (f *fakeProgressionService) SeedTournament(ctx context.Context, t *models.Tournament, matches []*models.Match) (*models.Tournament, error) {
	f.record("SeedTournament")
	if f.SeedTournamentFunc != nil {
		return f.SeedTournamentFunc(ctx, t, matches)
	}
	t.ID = 1
	return t, nil
}
