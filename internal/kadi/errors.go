// internal/kadi/errors.go
package kadi

import "errors"

// Sentinel errors for every failure class the engine can surface. A rejected
// operation never mutates persisted state; callers classify with errors.Is.
var (
	// ErrInvalidMove rejects an illegal move shape. Recoverable; the player
	// may submit a different move.
	ErrInvalidMove = errors.New("invalid move")

	// ErrTurnViolation rejects an action from a player who is not the
	// current player.
	ErrTurnViolation = errors.New("not your turn")

	// ErrRoomNotFound is returned when no room exists for the given id.
	ErrRoomNotFound = errors.New("room not found")

	// ErrPlayerNotFound is returned when the acting user is not seated in
	// the room.
	ErrPlayerNotFound = errors.New("player not found in room")

	// ErrStateConflict rejects an operation incompatible with the room's
	// current phase, e.g. a normal move while a suit declaration is pending.
	ErrStateConflict = errors.New("operation conflicts with current game phase")

	// ErrGameTerminated rejects any operation on a finished room.
	ErrGameTerminated = errors.New("game terminated")

	// ErrRoomFull rejects a join once every seat is taken.
	ErrRoomFull = errors.New("room is full")

	// ErrInvalidCode rejects a join with a wrong room code.
	ErrInvalidCode = errors.New("invalid room code")

	// ErrInsufficientCards signals that a deal could not be satisfied even
	// after a reshuffle. With the fixed 52-card deck this is unreachable;
	// observing it means the card-conservation invariant broke.
	ErrInsufficientCards = errors.New("insufficient cards in deck")
)
