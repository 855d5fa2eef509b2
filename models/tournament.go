package models

import "time"

// TournamentStatus представляет жизненный цикл турнира.
type TournamentStatus string

const (
	StatusAnnounced          TournamentStatus = "announced"
	StatusRegistrationOpen   TournamentStatus = "registration_open"
	StatusRegistrationClosed TournamentStatus = "registration_closed"
	StatusOngoing            TournamentStatus = "ongoing"
	StatusCompleted          TournamentStatus = "completed"
	StatusCancelled          TournamentStatus = "cancelled"
)

// IsFinished reports whether the tournament can no longer change.
func (s TournamentStatus) IsFinished() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsPreStart reports whether no phase has been played yet.
func (s TournamentStatus) IsPreStart() bool {
	switch s {
	case StatusAnnounced, StatusRegistrationOpen, StatusRegistrationClosed:
		return true
	}
	return false
}

// ParticipatingTeam is a team registered for the tournament together with
// the stage it currently plays in and its running totals.
type ParticipatingTeam struct {
	TeamID           int    `json:"team_id" yaml:"team_id"`
	CurrentStage     string `json:"current_stage,omitempty" yaml:"current_stage,omitempty"`
	TournamentPoints int    `json:"tournament_points" yaml:"tournament_points"`
	TournamentKills  int    `json:"tournament_kills" yaml:"tournament_kills"`
}

type PrizeEntry struct {
	Position int     `json:"position" yaml:"position"`
	Amount   float64 `json:"amount" yaml:"amount"`
}

type FinalStanding struct {
	Position                int     `json:"position"`
	TeamID                  int     `json:"team_id"`
	TournamentPointsAwarded int     `json:"tournament_points_awarded"`
	Prize                   float64 `json:"prize"`
}

// Tournament is the document the progression engine reads and writes as one unit.
type Tournament struct {
	ID                 int                 `json:"id" db:"id" yaml:"id"`
	Name               string              `json:"name" db:"name" yaml:"name"`
	Status             TournamentStatus    `json:"status" db:"status" yaml:"status"`
	Phases             []Phase             `json:"phases" db:"phases" yaml:"phases"`
	ParticipatingTeams []ParticipatingTeam `json:"participating_teams" db:"participating_teams" yaml:"participating_teams"`
	PrizeDistribution  []PrizeEntry        `json:"prize_distribution" db:"prize_distribution" yaml:"prize_distribution"`
	FinalStandings     []FinalStanding     `json:"final_standings,omitempty" db:"final_standings" yaml:"-"`
	Version            int                 `json:"version" db:"version" yaml:"-"`
	CreatedAt          time.Time           `json:"created_at" db:"created_at" yaml:"-"`
	UpdatedAt          time.Time           `json:"updated_at" db:"updated_at" yaml:"-"`
}

// PhaseIndex returns the position of the named phase in declaration order, or -1.
func (t *Tournament) PhaseIndex(name string) int {
	for i := range t.Phases {
		if t.Phases[i].Name == name {
			return i
		}
	}
	return -1
}

// PrizeFor returns the prize for a final position, 0 when none is declared.
func (t *Tournament) PrizeFor(position int) float64 {
	for _, p := range t.PrizeDistribution {
		if p.Position == position {
			return p.Amount
		}
	}
	return 0
}

// ParticipatingTeam returns a pointer into ParticipatingTeams, appending a new entry if the team is unknown.
func (t *Tournament) ParticipatingTeam(teamID int) *ParticipatingTeam {
	for i := range t.ParticipatingTeams {
		if t.ParticipatingTeams[i].TeamID == teamID {
			return &t.ParticipatingTeams[i]
		}
	}
	t.ParticipatingTeams = append(t.ParticipatingTeams, ParticipatingTeam{TeamID: teamID})
	return &t.ParticipatingTeams[len(t.ParticipatingTeams)-1]
}
