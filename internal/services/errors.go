package services

import "errors"

// Domain errors reported synchronously to the calling participant. These are
// never broadcast to the room.
var (
	ErrNotInRoom      = errors.New("not in a kitchen")
	ErrRoomNotFound   = errors.New("kitchen not found")
	ErrRoomFull       = errors.New("kitchen is full")
	ErrAlreadyHeating = errors.New("someone else is holding the potato")
	ErrNotHolder      = errors.New("you're not holding the potato")

	// ErrUnavailable covers store and accounting infrastructure failures
	// after retries are exhausted.
	ErrUnavailable = errors.New("service unavailable")
)
