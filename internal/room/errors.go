package room

import "errors"

// Validation errors. They are reported to the caller only and never change state.
var (
	ErrMissingIdentity = errors.New("userId and nickname are required")
	ErrInvalidCapacity = errors.New("invalid room capacity")
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
	ErrRoomNotFound    = errors.New("room does not exist")
	ErrRoomNotWaiting  = errors.New("a game is already in progress in this room")
	ErrRoomFull        = errors.New("room is full")
	ErrWrongPassword   = errors.New("incorrect password")
)

// Precondition errors for starting a match.
var (
	ErrNotHost          = errors.New("only the host can start the game")
	ErrAlreadyPlaying   = errors.New("the game has already started")
	ErrNotEnoughPlayers = errors.New("not enough players to start the game")
)
