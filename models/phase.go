package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

type PhaseType string

const (
	PhaseTypeQualifier   PhaseType = "qualifier"
	PhaseTypeGroupStage  PhaseType = "group_stage"
	PhaseTypeElimination PhaseType = "elimination"
	PhaseTypeFinal       PhaseType = "final"
)

type PhaseStatus string

const (
	PhaseUpcoming   PhaseStatus = "upcoming"
	PhaseInProgress PhaseStatus = "in_progress"
	PhaseCompleted  PhaseStatus = "completed"
)

// OverallGroupName is the name carried by the reserved whole-phase ranking.
const OverallGroupName = "overall"

// Phase is one stage of a tournament. Name is unique within the tournament.
type Phase struct {
	Name               string              `json:"name" yaml:"name"`
	Type               PhaseType           `json:"type" yaml:"type"`
	Status             PhaseStatus         `json:"status" yaml:"status"`
	Groups             []Group             `json:"groups" yaml:"groups"`
	Teams              []int               `json:"teams" yaml:"teams"`
	QualificationRules []QualificationRule `json:"qualification_rules" yaml:"qualification_rules"`

	// Overall is kept apart from Groups so an organizer group literally
	// named "overall" never collides with it.
	Overall *Group `json:"overall,omitempty" yaml:"-"`
}

// Roster returns every team assigned to the phase: the flat list first, then
// group members not already listed.
func (p *Phase) Roster() []int {
	seen := make(map[int]struct{}, len(p.Teams))
	roster := make([]int, 0, len(p.Teams))
	add := func(id int) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		roster = append(roster, id)
	}
	for _, id := range p.Teams {
		add(id)
	}
	for _, g := range p.Groups {
		for _, id := range g.Teams {
			add(id)
		}
	}
	return roster
}

// MergeTeams appends ids not yet present in Teams and returns how many were added.
func (p *Phase) MergeTeams(ids []int) int {
	present := make(map[int]struct{}, len(p.Teams))
	for _, id := range p.Teams {
		present[id] = struct{}{}
	}
	added := 0
	for _, id := range ids {
		if _, ok := present[id]; ok {
			continue
		}
		present[id] = struct{}{}
		p.Teams = append(p.Teams, id)
		added++
	}
	return added
}

// Group is a named partition of teams inside a phase.
type Group struct {
	Name      string     `json:"name" yaml:"name"`
	Teams     []int      `json:"teams" yaml:"teams"`
	Standings []Standing `json:"standings" yaml:"-"`
}

// QualificationSource selects the ranking a rule draws teams from.
type QualificationSource string

const (
	SourceOverall       QualificationSource = "overall"
	SourceFromEachGroup QualificationSource = "from_each_group"
)

func (s QualificationSource) Valid() bool {
	return s == SourceOverall || s == SourceFromEachGroup
}

func (s *QualificationSource) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return s.set(raw)
}

func (s *QualificationSource) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return s.set(raw)
}

func (s *QualificationSource) set(raw string) error {
	src := QualificationSource(raw)
	if !src.Valid() {
		return fmt.Errorf("unknown qualification source %q", raw)
	}
	*s = src
	return nil
}

// QualificationRule moves NumberOfTeams teams from Source into the phase named NextPhase.
type QualificationRule struct {
	NumberOfTeams int                 `json:"number_of_teams" yaml:"number_of_teams"`
	Source        QualificationSource `json:"source" yaml:"source"`
	NextPhase     string              `json:"next_phase" yaml:"next_phase"`
}
