package apperror

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPlayerNotInRoom  = errors.New("player is not in the room")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrGridAlreadySet   = errors.New("grid is already set")
	ErrBadGridShape     = errors.New("grid has the wrong shape")
	ErrGridNotReady     = errors.New("grid is not generated yet")
	ErrWordAlreadyFound = errors.New("word was already found")
	ErrGameFinished     = errors.New("game is already finished")
	ErrActionPending    = errors.New("an action is required before flipping again")
)
