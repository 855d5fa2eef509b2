package services

import (
	"context"
	"time"

	"github.com/Dosada05/esports-tournament-engine/models"
	"github.com/Dosada05/esports-tournament-engine/standings"
	"github.com/google/uuid"
)

const EventTypePhaseAdvanced = "PHASE_ADVANCED"

// PhaseAdvancedEvent summarizes a committed advancement for notification consumers.
type PhaseAdvancedEvent struct {
	ID                  string                  `json:"id"`
	TournamentID        int                     `json:"tournament_id"`
	PhaseName           string                  `json:"phase_name"`
	TeamsAdvanced       int                     `json:"teams_advanced"`
	Destinations        []standings.Destination `json:"destinations"`
	SkippedRules        []standings.SkippedRule `json:"skipped_rules,omitempty"`
	TournamentCompleted bool                    `json:"tournament_completed"`
	FinalStandings      []models.FinalStanding  `json:"final_standings,omitempty"`
	OccurredAt          time.Time               `json:"occurred_at"`
}

func newPhaseAdvancedEvent(res *AdvanceResult, now time.Time) PhaseAdvancedEvent {
	return PhaseAdvancedEvent{
		ID:                  uuid.NewString(),
		TournamentID:        res.TournamentID,
		PhaseName:           res.PhaseName,
		TeamsAdvanced:       res.TeamsAdvanced,
		Destinations:        res.Destinations,
		SkippedRules:        res.SkippedRules,
		TournamentCompleted: res.TournamentCompleted,
		FinalStandings:      res.FinalStandings,
		OccurredAt:          now.UTC(),
	}
}

// EventPublisher delivers PhaseAdvancedEvent to an outside audience.
type EventPublisher interface {
	Name() string
	PublishPhaseAdvanced(ctx context.Context, event PhaseAdvancedEvent) error
}

// StandingsArchiver stores the final standings of a completed tournament and
// returns where they can be fetched.
type StandingsArchiver interface {
	ArchiveFinalStandings(ctx context.Context, tournament *models.Tournament) (string, error)
}
