package services

import (
	"github.com/Dosada05/esports-tournament-engine/models"
	"github.com/Dosada05/esports-tournament-engine/standings"
)

// AdvanceResult is the summary returned to the organizer after a phase is advanced.
type AdvanceResult struct {
	TournamentID        int                     `json:"tournament_id"`
	PhaseName           string                  `json:"phase_name"`
	TeamsAdvanced       int                     `json:"teams_advanced"`
	StandingsComputed   int                     `json:"standings_computed"`
	MatchesProcessed    int                     `json:"matches_processed"`
	Destinations        []standings.Destination `json:"destinations"`
	SkippedRules        []standings.SkippedRule `json:"skipped_rules,omitempty"`
	TournamentCompleted bool                    `json:"tournament_completed"`
	FinalStandings      []models.FinalStanding  `json:"final_standings,omitempty"`
	ArchiveURL          string                  `json:"archive_url,omitempty"`

	Tournament *models.Tournament `json:"-"`
}

// checkAdvanceable validates the tournament against a request to advance
// phaseName and returns the phase index.
func checkAdvanceable(t *models.Tournament, phaseName string) (int, error) {
	seen := make(map[string]struct{}, len(t.Phases))
	for _, p := range t.Phases {
		if _, dup := seen[p.Name]; dup {
			return -1, ErrDuplicatePhaseName
		}
		seen[p.Name] = struct{}{}
	}

	idx := t.PhaseIndex(phaseName)
	if idx < 0 {
		return -1, ErrPhaseNotFound
	}
	if t.Phases[idx].Status == models.PhaseCompleted {
		return -1, ErrPhaseAlreadyCompleted
	}
	if t.Status.IsFinished() {
		return -1, ErrTournamentNotAdvanceable
	}
	return idx, nil
}

// applyAdvancement computes standings for the phase at phaseIdx from its
// completed matches and moves the tournament forward in place.
func applyAdvancement(t *models.Tournament, phaseIdx int, matches []*models.Match) *AdvanceResult {
	phase := &t.Phases[phaseIdx]

	overall := standings.Aggregate(matches, nil)

	groups := make([]standings.GroupStandings, 0, len(phase.Groups))
	for i := range phase.Groups {
		g := &phase.Groups[i]
		g.Standings = standings.Aggregate(matches, standings.NewTeamSet(g.Teams))
		groups = append(groups, standings.GroupStandings{Name: g.Name, Standings: g.Standings})
	}

	if phase.Overall == nil {
		phase.Overall = &models.Group{Name: models.OverallGroupName}
	}
	phase.Overall.Teams = standingTeamIDs(overall)
	phase.Overall.Standings = overall
	phase.Status = models.PhaseCompleted

	for _, s := range overall {
		pt := t.ParticipatingTeam(s.TeamID)
		pt.TournamentPoints += s.Points
		pt.TournamentKills += s.Kills
	}

	res := &AdvanceResult{
		TournamentID:      t.ID,
		PhaseName:         phase.Name,
		StandingsComputed: len(overall),
		MatchesProcessed:  len(matches),
		Destinations:      []standings.Destination{},
		Tournament:        t,
	}

	if phaseIdx == len(t.Phases)-1 {
		finals := make([]models.FinalStanding, 0, len(overall))
		for _, s := range overall {
			finals = append(finals, models.FinalStanding{
				Position:                s.Position,
				TeamID:                  s.TeamID,
				TournamentPointsAwarded: s.Points,
				Prize:                   t.PrizeFor(s.Position),
			})
		}
		t.FinalStandings = finals
		t.Status = models.StatusCompleted
		res.TournamentCompleted = true
		res.FinalStandings = finals
		return res
	}

	next := t.Phases[phaseIdx+1].Name
	var q standings.Qualification
	if len(phase.QualificationRules) == 0 {
		q.Destinations = []standings.Destination{{Phase: next, TeamIDs: phase.Roster()}}
	} else {
		q = standings.Resolve(phase.QualificationRules, overall, groups, func(name string) bool {
			return t.PhaseIndex(name) >= 0
		})
	}

	for _, d := range q.Destinations {
		dest := &t.Phases[t.PhaseIndex(d.Phase)]
		dest.MergeTeams(d.TeamIDs)
		dest.Status = models.PhaseUpcoming
		for _, id := range d.TeamIDs {
			t.ParticipatingTeam(id).CurrentStage = d.Phase
		}
	}
	if t.Status.IsPreStart() {
		t.Status = models.StatusOngoing
	}

	res.Destinations = q.Destinations
	res.SkippedRules = q.Skipped
	res.TeamsAdvanced = q.TeamCount()
	return res
}

func standingTeamIDs(list []models.Standing) []int {
	ids := make([]int, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.TeamID)
	}
	return ids
}
