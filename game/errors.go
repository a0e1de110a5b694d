package game

import "errors"

var (
	ErrRoomNotFound = errors.New("room-not-found")
	ErrRoomFull     = errors.New("room-full")
	ErrBanned       = errors.New("banned-from-room")
	ErrGameStarted  = errors.New("game-already-started")
)
