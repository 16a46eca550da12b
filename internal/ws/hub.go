package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans out room notifications to every connected participant. It keeps
// at most one live connection per participant per room: a newer connection
// for the same participant replaces the old one.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*websocket.Conn]string // conn -> participant id
	conns map[string]map[string]*websocket.Conn // participant id -> conn
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]string),
		conns: make(map[string]map[string]*websocket.Conn),
	}
}

// AddConnection registers conn for a participant in a room, closing any
// previous connection the participant had there.
func (h *Hub) AddConnection(roomCode, participantID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomCode] == nil {
		h.rooms[roomCode] = make(map[*websocket.Conn]string)
		h.conns[roomCode] = make(map[string]*websocket.Conn)
	}
	if old, ok := h.conns[roomCode][participantID]; ok {
		delete(h.rooms[roomCode], old)
		old.Close()
	}
	h.rooms[roomCode][conn] = participantID
	h.conns[roomCode][participantID] = conn

	log.Debug().Str("kitchen", roomCode).Str("user", participantID).
		Int("total", len(h.rooms[roomCode])).Msg("ws connected")
}

// RemoveConnection drops conn and reports whether the participant is now
// fully disconnected from the room (i.e. conn was their current one).
func (h *Hub) RemoveConnection(roomCode string, conn *websocket.Conn) (participantID string, gone bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[roomCode]
	if !ok {
		return "", false
	}
	participantID, ok = conns[conn]
	if !ok {
		return "", false
	}
	delete(conns, conn)
	conn.Close()

	if current, ok := h.conns[roomCode][participantID]; ok && current == conn {
		delete(h.conns[roomCode], participantID)
		gone = true
	}
	if len(conns) == 0 {
		delete(h.rooms, roomCode)
		delete(h.conns, roomCode)
	}

	log.Debug().Str("kitchen", roomCode).Str("user", participantID).Msg("ws disconnected")
	return participantID, gone
}

func (h *Hub) Broadcast(roomCode, event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.rooms[roomCode]
	if !ok {
		return
	}

	payload, err := json.Marshal(Message{Type: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("ws marshal error")
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Warn().Err(err).Str("kitchen", roomCode).Msg("ws write error")
			conn.Close()
		}
	}
}

// SendTo delivers an event to a single participant in the room, dropping it
// silently when they have no live connection.
func (h *Hub) SendTo(roomCode, participantID, event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conn, ok := h.conns[roomCode][participantID]
	if !ok {
		return
	}

	payload, err := json.Marshal(Message{Type: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("ws marshal error")
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Warn().Err(err).Str("kitchen", roomCode).Msg("ws write error")
		conn.Close()
	}
}
