package handlers

import (
	"errors"
	"net/http"

	"github.com/EthanBrewster/potatodoro/internal/services"
	"github.com/EthanBrewster/potatodoro/internal/store"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// statusFor maps domain errors onto HTTP statuses. Infrastructure failures
// surface as 503 after retries are exhausted; everything else is the
// caller's to correct.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrRoomNotFound),
		errors.Is(err, services.ErrNotInRoom),
		errors.Is(err, store.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrRoomFull),
		errors.Is(err, services.ErrAlreadyHeating),
		errors.Is(err, services.ErrNotHolder):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
