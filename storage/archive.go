package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/Dosada05/esports-tournament-engine/models"
)

const defaultArchivePrefix = "final-standings"

// FinalStandingsArchiver writes the final standings of a completed tournament
// as a JSON document into object storage.
type FinalStandingsArchiver struct {
	uploader ObjectUploader
	prefix   string
	now      func() time.Time
}

func NewFinalStandingsArchiver(uploader ObjectUploader, prefix string) *FinalStandingsArchiver {
	if prefix == "" {
		prefix = defaultArchivePrefix
	}
	return &FinalStandingsArchiver{uploader: uploader, prefix: prefix, now: time.Now}
}

type archivedStandings struct {
	TournamentID   int                    `json:"tournament_id"`
	Name           string                 `json:"name"`
	ArchivedAt     time.Time              `json:"archived_at"`
	Phases         []archivedPhase        `json:"phases"`
	FinalStandings []models.FinalStanding `json:"final_standings"`
}

type archivedPhase struct {
	Name    string            `json:"name"`
	Overall []models.Standing `json:"overall"`
}

// ArchiveKey is the object key used for a tournament's final standings.
func (a *FinalStandingsArchiver) ArchiveKey(tournamentID int) string {
	return path.Join(a.prefix, fmt.Sprintf("tournament-%d.json", tournamentID))
}

func (a *FinalStandingsArchiver) ArchiveFinalStandings(ctx context.Context, t *models.Tournament) (string, error) {
	if t == nil || t.Status != models.StatusCompleted {
		return "", errors.New("only completed tournaments can be archived")
	}

	doc := archivedStandings{
		TournamentID:   t.ID,
		Name:           t.Name,
		ArchivedAt:     a.now().UTC(),
		Phases:         make([]archivedPhase, 0, len(t.Phases)),
		FinalStandings: t.FinalStandings,
	}
	for _, p := range t.Phases {
		ap := archivedPhase{Name: p.Name, Overall: []models.Standing{}}
		if p.Overall != nil {
			ap.Overall = p.Overall.Standings
		}
		doc.Phases = append(doc.Phases, ap)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode final standings of tournament %d: %w", t.ID, err)
	}

	res, err := a.uploader.Upload(ctx, a.ArchiveKey(t.ID), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return res.Location, nil
}
