package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/EthanBrewster/potatodoro/internal/services"
	"github.com/EthanBrewster/potatodoro/internal/store"
	"github.com/EthanBrewster/potatodoro/internal/ws"
)

type WSHandler struct {
	hub      *ws.Hub
	sessions *services.SessionService
	store    store.Store
}

func NewWSHandler(hub *ws.Hub, sessions *services.SessionService, st store.Store) *WSHandler {
	return &WSHandler{hub: hub, sessions: sessions, store: st}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleRoomWebSocket attaches a participant's notification stream. The
// connection doubles as the presence signal: attach resumes the member,
// losing the last connection marks them disconnected and may arm the
// holder reclaim.
func (h *WSHandler) HandleRoomWebSocket(c *gin.Context) {
	code := c.Param("code")
	participantID := c.Query("participant_id")
	if participantID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "participant_id required"})
		return
	}

	ctx := context.Background()
	if _, err := h.store.Member(ctx, code, participantID); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not a member of this kitchen"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade error")
		return
	}

	h.hub.AddConnection(code, participantID, conn)
	h.sessions.HandleConnect(ctx, participantID)

	defer func() {
		if id, gone := h.hub.RemoveConnection(code, conn); gone {
			h.sessions.HandleDisconnect(context.Background(), id)
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
