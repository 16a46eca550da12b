package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EthanBrewster/potatodoro/internal/middleware"
	"github.com/EthanBrewster/potatodoro/internal/services"
)

type RoomHandler struct {
	rooms *services.RoomService
}

func NewRoomHandler(rooms *services.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

type CreateRoomRequest struct {
	Nickname      string `json:"nickname" binding:"required,min=1,max=50"`
	ParticipantID string `json:"participant_id"`
}

type JoinRoomRequest struct {
	Code          string `json:"code" binding:"required"`
	Nickname      string `json:"nickname" binding:"required,min=1,max=50"`
	ParticipantID string `json:"participant_id"`
}

type ReactionRequest struct {
	TargetID string `json:"target_id" binding:"required"`
	Type     string `json:"type" binding:"required,oneof=ice salt"`
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.rooms.CreateRoom(c.Request.Context(), req.Nickname, req.ParticipantID)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.rooms.JoinRoom(c.Request.Context(), req.Code, req.Nickname, req.ParticipantID)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	if err := h.rooms.LeaveRoom(c.Request.Context(), middleware.ParticipantID(c)); err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "left kitchen"})
}

func (h *RoomHandler) SendReaction(c *gin.Context) {
	var req ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.rooms.SendReaction(c.Request.Context(), middleware.ParticipantID(c), req.TargetID, req.Type); err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "reaction sent"})
}
