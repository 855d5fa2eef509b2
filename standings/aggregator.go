package standings

import (
	"cmp"
	"slices"

	"github.com/Dosada05/esports-tournament-engine/models"
)

// TeamSet restricts aggregation to a subset of teams. A nil set means no filter.
type TeamSet map[int]struct{}

func NewTeamSet(ids []int) TeamSet {
	set := make(TeamSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s TeamSet) allows(teamID int) bool {
	if s == nil {
		return true
	}
	_, ok := s[teamID]
	return ok
}

// Compare orders two standings: points desc, kills desc, chicken dinners
// desc, then matches played asc. Zero means a residual tie.
func Compare(a, b models.Standing) int {
	if c := cmp.Compare(b.Points, a.Points); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Kills, a.Kills); c != 0 {
		return c
	}
	if c := cmp.Compare(b.ChickenDinners, a.ChickenDinners); c != 0 {
		return c
	}
	return cmp.Compare(a.MatchesPlayed, b.MatchesPlayed)
}

// Aggregate builds a ranked standings list from the given matches. Matches
// are taken as they are; callers filter by status beforehand. Residual ties
// keep the order in which teams were first seen.
func Aggregate(matches []*models.Match, teamFilter TeamSet) []models.Standing {
	index := make(map[int]int)
	result := make([]models.Standing, 0)

	for _, m := range matches {
		if m == nil {
			continue
		}
		for _, r := range m.Results {
			if !teamFilter.allows(r.TeamID) || !HasResult(r) {
				continue
			}
			i, ok := index[r.TeamID]
			if !ok {
				i = len(result)
				index[r.TeamID] = i
				result = append(result, models.Standing{TeamID: r.TeamID})
			}
			s := &result[i]
			s.MatchesPlayed++
			s.Points += MatchPoints(r.Position, r.Kills)
			s.Kills += r.Kills
			if isChickenDinner(r.Position) {
				s.ChickenDinners++
			}
		}
	}

	slices.SortStableFunc(result, Compare)
	for i := range result {
		result[i].Position = i + 1
	}
	return result
}
