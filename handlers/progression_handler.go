package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Dosada05/esports-tournament-engine/middleware"
	"github.com/Dosada05/esports-tournament-engine/models"
	"github.com/Dosada05/esports-tournament-engine/services"
)

type ProgressionHandler struct {
	progressionService services.ProgressionService
}

func NewProgressionHandler(ps services.ProgressionService) *ProgressionHandler {
	return &ProgressionHandler{progressionService: ps}
}

// GetTournament godoc
// @Summary Get a tournament with its phases and standings
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID} [get]
func (h *ProgressionHandler) GetTournament(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.progressionService.GetTournament(r.Context(), id)
	if err != nil {
		mapProgressionErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PhaseStandings godoc
// @Summary Live standings of a phase
// @Description Computed from completed matches without saving anything.
// @Tags phases
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param phaseName path string true "Phase name"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/phases/{phaseName}/standings [get]
func (h *ProgressionHandler) PhaseStandings(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	phaseName, err := getNameFromURL(r, "phaseName")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.progressionService.PhaseStandings(r.Context(), id, phaseName)
	if err != nil {
		mapProgressionErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AdvancePhase godoc
// @Summary Advance a phase
// @Description Computes final standings of the phase, marks it completed and moves qualified teams into the next phase. Advancing the last phase completes the tournament.
// @Tags phases
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param phaseName path string true "Phase name"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Phase already advanced or tournament busy"
// @Failure 500 {object} map[string]string "Save failed"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/phases/{phaseName}/advance [post]
func (h *ProgressionHandler) AdvancePhase(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	phaseName, err := getNameFromURL(r, "phaseName")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err == nil {
		slog.InfoContext(r.Context(), "phase advancement requested",
			slog.Int("tournament_id", id),
			slog.String("phase", phaseName),
			slog.Int("user_id", userID),
		)
	}

	result, err := h.progressionService.AdvancePhase(r.Context(), id, phaseName)
	if err != nil {
		mapProgressionErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"message": advanceMessage(result),
		"result":  result,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func advanceMessage(res *services.AdvanceResult) string {
	if res.TournamentCompleted {
		return "tournament completed"
	}
	if len(res.Destinations) == 1 {
		return fmt.Sprintf("%d teams advanced to %s", res.TeamsAdvanced, res.Destinations[0].Phase)
	}
	return fmt.Sprintf("%d teams advanced to %d phases", res.TeamsAdvanced, len(res.Destinations))
}

type seedTournamentInput struct {
	Tournament *models.Tournament `json:"tournament"`
	Matches    []*models.Match    `json:"matches"`
}

// SeedTournament godoc
// @Summary Create a tournament with its structure and reported matches
// @Tags tournaments
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments [post]
func (h *ProgressionHandler) SeedTournament(w http.ResponseWriter, r *http.Request) {
	var input seedTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Tournament == nil {
		badRequestResponse(w, r, errors.New("tournament is required"))
		return
	}

	created, err := h.progressionService.SeedTournament(r.Context(), input.Tournament, input.Matches)
	if err != nil {
		mapProgressionErrorToHTTP(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/tournaments/%d", created.ID))
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": created}, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}
