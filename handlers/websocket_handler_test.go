package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/esports-tournament-engine/models"
	"github.com/Dosada05/esports-tournament-engine/realtime"
	"github.com/Dosada05/esports-tournament-engine/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebSocketServer(t *testing.T, svc services.ProgressionService, origins []string) (*realtime.Hub, *httptest.Server) {
	t.Helper()
	hub := realtime.NewHub(slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	r := chi.NewRouter()
	r.Get("/ws/tournaments/{tournamentID}", NewWebSocketHandler(hub, svc, origins).ServeWs)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestServeWs_ReceivesPhaseAdvanced(t *testing.T) {
	hub, srv := newWebSocketServer(t, &fakeProgressionService{}, []string{"*"})

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/tournaments/7"), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	// Registration is asynchronous; retry until the client is in the room.
	event := services.PhaseAdvancedEvent{ID: "evt-9", TournamentID: 7, PhaseName: "Qualifiers", TeamsAdvanced: 4}
	room := realtime.RoomForTournament(7)
	require.Eventually(t, func() bool {
		delivered, err := hub.BroadcastToRoom(room, realtime.Message{
			Type:    services.EventTypePhaseAdvanced,
			Payload: event,
			RoomID:  room,
		})
		return err == nil && delivered == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string                      `json:"type"`
		Payload services.PhaseAdvancedEvent `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, services.EventTypePhaseAdvanced, msg.Type)
	assert.Equal(t, "evt-9", msg.Payload.ID)
	assert.Equal(t, 4, msg.Payload.TeamsAdvanced)
}

func TestServeWs_UnknownTournament(t *testing.T) {
	svc := &fakeProgressionService{
		GetTournamentFunc: func(context.Context, int) (*models.Tournament, error) {
			return nil, services.ErrTournamentNotFound
		},
	}
	_, srv := newWebSocketServer(t, svc, []string{"*"})

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/tournaments/7"), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeWs_RejectsForeignOrigin(t *testing.T) {
	_, srv := newWebSocketServer(t, &fakeProgressionService{}, []string{"https://scores.example.com"})

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/tournaments/7"), header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://scores.example.com")
	conn, resp2, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/tournaments/7"), header)
	require.NoError(t, err)
	defer resp2.Body.Close()
	conn.Close()
}
