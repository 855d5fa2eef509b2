package standings

import (
	"fmt"

	"github.com/Dosada05/esports-tournament-engine/models"
)

// GroupStandings is the ranking of one organizer-defined group.
type GroupStandings struct {
	Name      string            `json:"name"`
	Standings []models.Standing `json:"standings"`
}

// Destination lists the teams qualified into one phase, in selection order.
type Destination struct {
	Phase   string `json:"phase"`
	TeamIDs []int  `json:"team_ids"`
}

// SkippedRule is a rule that could not be applied.
type SkippedRule struct {
	Rule   models.QualificationRule `json:"rule"`
	Reason string                   `json:"reason"`
}

type Qualification struct {
	Destinations []Destination `json:"destinations"`
	Skipped      []SkippedRule `json:"skipped,omitempty"`
}

// TeamCount returns the number of distinct teams across all destinations.
func (q Qualification) TeamCount() int {
	seen := make(map[int]struct{})
	for _, d := range q.Destinations {
		for _, id := range d.TeamIDs {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

type destinationSet struct {
	phase string
	ids   []int
	seen  map[int]struct{}
}

func (d *destinationSet) add(id int) {
	if _, ok := d.seen[id]; ok {
		return
	}
	d.seen[id] = struct{}{}
	d.ids = append(d.ids, id)
}

// Resolve applies qualification rules in declaration order. A rule whose
// destination phaseExists rejects is skipped and reported; the remaining
// rules still apply. Deduplication happens on each destination's final set,
// so a team picked by an earlier rule stays eligible for later ones.
func Resolve(
	rules []models.QualificationRule,
	overall []models.Standing,
	groups []GroupStandings,
	phaseExists func(name string) bool,
) Qualification {
	var q Qualification
	sets := make(map[string]*destinationSet)
	order := make([]*destinationSet, 0)

	target := func(phase string) *destinationSet {
		if d, ok := sets[phase]; ok {
			return d
		}
		d := &destinationSet{phase: phase, ids: make([]int, 0), seen: make(map[int]struct{})}
		sets[phase] = d
		order = append(order, d)
		return d
	}

	for _, rule := range rules {
		if phaseExists != nil && !phaseExists(rule.NextPhase) {
			q.Skipped = append(q.Skipped, SkippedRule{
				Rule:   rule,
				Reason: fmt.Sprintf("destination phase %q does not exist", rule.NextPhase),
			})
			continue
		}

		switch rule.Source {
		case models.SourceOverall:
			d := target(rule.NextPhase)
			for _, s := range top(overall, rule.NumberOfTeams) {
				d.add(s.TeamID)
			}
		case models.SourceFromEachGroup:
			d := target(rule.NextPhase)
			for _, g := range groups {
				for _, s := range top(g.Standings, rule.NumberOfTeams) {
					d.add(s.TeamID)
				}
			}
		default:
			q.Skipped = append(q.Skipped, SkippedRule{
				Rule:   rule,
				Reason: fmt.Sprintf("unknown qualification source %q", rule.Source),
			})
		}
	}

	q.Destinations = make([]Destination, 0, len(order))
	for _, d := range order {
		q.Destinations = append(q.Destinations, Destination{Phase: d.phase, TeamIDs: d.ids})
	}
	return q
}

func top(list []models.Standing, n int) []models.Standing {
	if n <= 0 {
		return nil
	}
	if n > len(list) {
		n = len(list)
	}
	return list[:n]
}
