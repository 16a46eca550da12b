package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/EthanBrewster/potatodoro/internal/services"
)

type UserHandler struct {
	accounting services.Accounting
}

func NewUserHandler(accounting services.Accounting) *UserHandler {
	return &UserHandler{accounting: accounting}
}

func (h *UserHandler) GetStats(c *gin.Context) {
	user, err := h.accounting.UserStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "failed to fetch user stats"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetToppings(c *gin.Context) {
	earned, err := h.accounting.UserToppings(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "failed to fetch toppings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"toppings": earned})
}
