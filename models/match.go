package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCancelled  MatchStatus = "cancelled"
)

// TeamResult is one team's reported outcome in a match. Position stays nil
// until the result is reported.
type TeamResult struct {
	TeamID          int  `json:"team_id" yaml:"team_id"`
	Position        *int `json:"position,omitempty" yaml:"position,omitempty"`
	Kills           int  `json:"kills" yaml:"kills"`
	Damage          *int `json:"damage,omitempty" yaml:"damage,omitempty"`
	SurvivalSeconds *int `json:"survival_seconds,omitempty" yaml:"survival_seconds,omitempty"`
}

type Match struct {
	ID           int          `json:"id" db:"id" yaml:"-"`
	TournamentID int          `json:"tournament_id" db:"tournament_id" yaml:"-"`
	PhaseName    string       `json:"phase_name" db:"phase_name" yaml:"phase"`
	MatchNumber  int          `json:"match_number" db:"match_number" yaml:"match_number"`
	Status       MatchStatus  `json:"status" db:"status" yaml:"status"`
	Results      []TeamResult `json:"results" db:"results" yaml:"results"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at" yaml:"-"`
}
