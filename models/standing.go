package models

// Standing is a team's computed rank within a group or a whole phase.
type Standing struct {
	TeamID         int `json:"team_id"`
	Position       int `json:"position"`
	MatchesPlayed  int `json:"matches_played"`
	Points         int `json:"points"`
	Kills          int `json:"kills"`
	ChickenDinners int `json:"chicken_dinners"`
}
