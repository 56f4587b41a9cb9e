// internal/kadi/engine.go
package kadi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store is the persistence gateway contract. Implementations must round-trip
// every Room field exactly.
type Store interface {
	SaveRoom(ctx context.Context, room *Room) error
	LoadRoom(ctx context.Context, roomID uuid.UUID) (*Room, error)
	ListActiveRooms(ctx context.Context) ([]*Room, error)
}

// Notifier is the notification gateway contract: after every accepted
// operation the engine hands it the per-player redacted views.
type Notifier interface {
	PushRoomUpdate(roomID uuid.UUID, views map[string]RoomView)
}

// MoveRecord is the audit entry published for every accepted operation.
type MoveRecord struct {
	RoomID    uuid.UUID `json:"room_id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	CardCount int       `json:"card_count"`
	Timestamp int64     `json:"timestamp"`
}

// Sessions is the collaborator keeping the user→active-room lookup and the
// move audit queue outside the core. All methods are best-effort from the
// engine's point of view.
type Sessions interface {
	SetActiveRoom(ctx context.Context, userID string, roomID uuid.UUID) error
	ClearActiveRoom(ctx context.Context, userID string) error
	RecordMove(ctx context.Context, rec MoveRecord) error
}

// JoinRequest carries one player's attempt to enter a room. Non-owners must
// present the room code unless their join was vouched by an invite token.
type JoinRequest struct {
	UserID      string
	DisplayName string
	RoomCode    string
	HasInvite   bool
}

// Engine drives the room state machine: load → validate → process → persist →
// notify, serialized per room. Rooms are independent; operations on different
// rooms run in parallel.
type Engine struct {
	store    Store
	sessions Sessions // may be nil
	notifier Notifier // may be nil
	log      *logrus.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewEngine wires the engine to its collaborators. sessions and notifier are
// optional.
func NewEngine(store Store, sessions Sessions, notifier Notifier, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		store:    store,
		sessions: sessions,
		notifier: notifier,
		log:      log,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockRoom serializes operations for a single room: at most one in flight at
// a time, held across the whole validate→process→persist span.
func (e *Engine) lockRoom(roomID uuid.UUID) func() {
	e.mu.Lock()
	l, ok := e.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[roomID] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// CreateRoom builds, persists, and announces a fresh room with the owner
// seated and dealt.
func (e *Engine) CreateRoom(ctx context.Context, numPlayers, numToDeal int, ownerID, ownerName string) (*Room, error) {
	room, err := NewRoom(numPlayers, numToDeal, ownerID, ownerName)
	if err != nil {
		return nil, err
	}
	if err := e.store.SaveRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("save new room: %w", err)
	}
	e.touchSession(ctx, ownerID, room.RoomID)
	e.log.WithFields(logrus.Fields{
		"room_id": room.RoomID,
		"owner":   ownerID,
		"players": numPlayers,
		"deal":    numToDeal,
	}).Info("room created")
	e.notify(room)
	return room, nil
}

// JoinRoom seats a player. Rejoining an already-seated player returns the
// room unchanged.
func (e *Engine) JoinRoom(ctx context.Context, roomID uuid.UUID, req JoinRequest) (*Room, error) {
	defer e.lockRoom(roomID)()

	room, err := e.store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.IsTerminated {
		return nil, ErrGameTerminated
	}
	if room.FindPlayer(req.UserID) != nil {
		e.touchSession(ctx, req.UserID, roomID)
		return room, nil
	}
	if req.UserID != room.OwnerID && !req.HasInvite && req.RoomCode != room.RoomCode {
		return nil, ErrInvalidCode
	}

	next := room.Clone()
	if err := next.addPlayer(req.UserID, req.DisplayName); err != nil {
		return nil, err
	}
	next.LastActiveAt = time.Now().UTC()

	if err := e.store.SaveRoom(ctx, next); err != nil {
		return nil, fmt.Errorf("save room after join: %w", err)
	}
	e.touchSession(ctx, req.UserID, roomID)
	e.log.WithFields(logrus.Fields{
		"room_id": roomID,
		"user":    req.UserID,
		"seats":   len(next.PlayerList),
	}).Info("player joined")
	e.notify(next)
	return next, nil
}

// GetRoom loads the full room state.
func (e *Engine) GetRoom(ctx context.Context, roomID uuid.UUID) (*Room, error) {
	return e.store.LoadRoom(ctx, roomID)
}

// MakeMove routes a MoveRequest from userID to the processor. The state
// transition happens on a clone and is persisted only when accepted.
func (e *Engine) MakeMove(ctx context.Context, roomID uuid.UUID, userID string, req MoveRequest) (*Room, error) {
	switch req.Type {
	case MoveDeclareSuit:
		return e.DeclareSuit(ctx, roomID, userID, req.Suit)
	case MoveResolveAceDrop:
		return e.ResolveAceDrop(ctx, roomID, userID, req.Drop)
	}
	return e.apply(ctx, roomID, userID, string(req.Type), len(req.Cards), func(next *Room) error {
		return ProcessMove(next, userID, req)
	})
}

// DeclareSuit resolves a pending Ace suit declaration.
func (e *Engine) DeclareSuit(ctx context.Context, roomID uuid.UUID, userID string, suit Suit) (*Room, error) {
	return e.apply(ctx, roomID, userID, string(MoveDeclareSuit), 0, func(next *Room) error {
		return DeclareSuit(next, userID, suit)
	})
}

// ResolveAceDrop resolves either an endgame ace counter or an Ace played
// atop a feeding debt.
func (e *Engine) ResolveAceDrop(ctx context.Context, roomID uuid.UUID, userID string, drop bool) (*Room, error) {
	return e.apply(ctx, roomID, userID, string(MoveResolveAceDrop), 0, func(next *Room) error {
		return ResolveAceDrop(next, userID, drop)
	})
}

// AnnounceKadi toggles the player's one-card announcement.
func (e *Engine) AnnounceKadi(ctx context.Context, roomID uuid.UUID, userID string) (*Room, error) {
	return e.apply(ctx, roomID, userID, "announce_kadi", 0, func(next *Room) error {
		return AnnounceKadi(next, userID)
	})
}

// TerminateRoom is the administrative termination path: it finalizes the room
// without a winner. The same single-shot transition a win uses.
func (e *Engine) TerminateRoom(ctx context.Context, roomID uuid.UUID) (*Room, error) {
	defer e.lockRoom(roomID)()

	room, err := e.store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.IsTerminated {
		return nil, ErrGameTerminated
	}
	next := room.Clone()
	next.terminate(nil)
	next.LastActiveAt = time.Now().UTC()
	if err := e.store.SaveRoom(ctx, next); err != nil {
		return nil, fmt.Errorf("save terminated room: %w", err)
	}
	for _, p := range next.PlayerList {
		e.clearSession(ctx, p.UserID)
	}
	e.log.WithField("room_id", roomID).Info("room terminated administratively")
	e.notify(next)
	return next, nil
}

// apply runs one serialized state transition: load the room, mutate a clone,
// persist, record, notify. A mutate error leaves the stored state untouched.
func (e *Engine) apply(ctx context.Context, roomID uuid.UUID, userID, action string, cardCount int, mutate func(*Room) error) (*Room, error) {
	defer e.lockRoom(roomID)()

	room, err := e.store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	next := room.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.LastActiveAt = time.Now().UTC()

	if err := e.store.SaveRoom(ctx, next); err != nil {
		return nil, fmt.Errorf("save room after %s: %w", action, err)
	}

	e.touchSession(ctx, userID, roomID)
	e.record(ctx, MoveRecord{
		RoomID:    roomID,
		UserID:    userID,
		Action:    action,
		CardCount: cardCount,
		Timestamp: time.Now().Unix(),
	})
	if next.IsTerminated {
		for _, p := range next.PlayerList {
			e.clearSession(ctx, p.UserID)
		}
		winner := ""
		if next.Winner != nil {
			winner = next.Winner.UserID
		}
		e.log.WithFields(logrus.Fields{
			"room_id": roomID,
			"winner":  winner,
		}).Info("game over")
	}
	e.notify(next)
	return next, nil
}

func (e *Engine) notify(room *Room) {
	if e.notifier == nil {
		return
	}
	e.notifier.PushRoomUpdate(room.RoomID, Views(room))
}

func (e *Engine) touchSession(ctx context.Context, userID string, roomID uuid.UUID) {
	if e.sessions == nil {
		return
	}
	if err := e.sessions.SetActiveRoom(ctx, userID, roomID); err != nil {
		e.log.WithError(err).Warn("session update failed")
	}
}

func (e *Engine) clearSession(ctx context.Context, userID string) {
	if e.sessions == nil {
		return
	}
	if err := e.sessions.ClearActiveRoom(ctx, userID); err != nil {
		e.log.WithError(err).Warn("session clear failed")
	}
}

func (e *Engine) record(ctx context.Context, rec MoveRecord) {
	if e.sessions == nil {
		return
	}
	if err := e.sessions.RecordMove(ctx, rec); err != nil {
		e.log.WithError(err).Warn("move audit publish failed")
	}
}
