package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Dosada05/esports-tournament-engine/services"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Message is the envelope pushed to websocket clients.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

// RoomForTournament names the room clients of a tournament join.
func RoomForTournament(tournamentID int) string {
	return "tournament_" + strconv.Itoa(tournamentID)
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string

	mu     sync.Mutex
	closed bool
}

// NewClient prepares a client for room. conn may be nil for clients that
// only read the send queue.
func NewClient(hub *Hub, conn *websocket.Conn, room string) *Client {
	return &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer), room: room}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// trySend queues msg without blocking and reports whether it was queued.
func (c *Client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Hub fans tournament events out to websocket rooms.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run processes registrations until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			size := len(h.rooms[client.room])
			h.mu.Unlock()
			h.logger.Debug("websocket client joined", slog.String("room", client.room), slog.Int("clients", size))

		case client := <-h.unregister:
			h.removeClient(client)

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for room, clients := range h.rooms {
				for client := range clients {
					client.closeSend()
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[client.room]
	if !ok || !clients[client] {
		return
	}
	client.closeSend()
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.rooms, client.room)
	}
	h.logger.Debug("websocket client left", slog.String("room", client.room), slog.Int("clients", len(clients)))
}

// Register adds client to its room. After Run has returned the client is
// closed immediately.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.closeSend()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// roomSize returns the number of clients currently in room.
func (h *Hub) roomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// BroadcastToRoom sends message to every client in roomID and returns how
// many clients received it. Slow clients are skipped.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}) (int, error) {
	payload, err := json.Marshal(message)
	if err != nil {
		return 0, fmt.Errorf("failed to encode message for room %s: %w", roomID, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.rooms[roomID] {
		if client.trySend(payload) {
			delivered++
		} else {
			h.logger.Warn("websocket client send queue full, message dropped", slog.String("room", roomID))
		}
	}
	return delivered, nil
}

func (h *Hub) Name() string { return "websocket" }

// PublishPhaseAdvanced pushes the event to the tournament's room.
func (h *Hub) PublishPhaseAdvanced(ctx context.Context, event services.PhaseAdvancedEvent) error {
	room := RoomForTournament(event.TournamentID)
	_, err := h.BroadcastToRoom(room, Message{
		Type:    services.EventTypePhaseAdvanced,
		Payload: event,
		RoomID:  room,
	})
	return err
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// Clients only listen; anything they send is discarded.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", slog.String("room", c.room), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One frame per message so clients can decode each as JSON.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Warn("websocket write failed", slog.String("room", c.room), slog.Any("error", err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
