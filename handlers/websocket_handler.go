package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/Dosada05/esports-tournament-engine/realtime"
	"github.com/Dosada05/esports-tournament-engine/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub                *realtime.Hub
	progressionService services.ProgressionService
	upgrader           websocket.Upgrader
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" allows any origin.
func NewWebSocketHandler(hub *realtime.Hub, ps services.ProgressionService, allowedOrigins []string) *WebSocketHandler {
	allowAll := slices.Contains(allowedOrigins, "*")
	return &WebSocketHandler{
		hub:                hub,
		progressionService: ps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// ServeWs subscribes the caller to PHASE_ADVANCED events of one tournament.
// Clients connect to /ws/tournaments/{tournamentID}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.progressionService.GetTournament(r.Context(), tournamentID); err != nil {
		mapProgressionErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		slog.WarnContext(r.Context(), "websocket upgrade failed",
			slog.Int("tournament_id", tournamentID),
			slog.Any("error", err),
		)
		return
	}

	client := realtime.NewClient(h.hub, conn, realtime.RoomForTournament(tournamentID))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
