package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EthanBrewster/potatodoro/internal/middleware"
	"github.com/EthanBrewster/potatodoro/internal/services"
)

type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type StartSessionRequest struct {
	DurationMinutes int `json:"duration_minutes" binding:"omitempty,min=1,max=180"`
}

type TossRequest struct {
	TargetID string `json:"target_id"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	var req StartSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
	}

	override := time.Duration(req.DurationMinutes) * time.Minute
	result, err := h.sessions.StartHeating(c.Request.Context(), middleware.ParticipantID(c), override)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) Toss(c *gin.Context) {
	var req TossRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
	}

	result, err := h.sessions.Toss(c.Request.Context(), middleware.ParticipantID(c), req.TargetID)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) Cancel(c *gin.Context) {
	if err := h.sessions.CancelSession(c.Request.Context(), middleware.ParticipantID(c)); err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "session cancelled"})
}

func (h *SessionHandler) State(c *gin.Context) {
	snap, err := h.sessions.State(c.Request.Context(), middleware.ParticipantID(c))
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}
