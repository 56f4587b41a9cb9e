// internal/handlers/api_server.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nikokadi/kadi/internal/invite"
	"github.com/nikokadi/kadi/internal/kadi"
)

// Server bundles the HTTP handlers with their collaborators.
type Server struct {
	Engine *kadi.Engine
	Hub    *Hub
	Log    *logrus.Logger
}

func NewServer(engine *kadi.Engine, hub *Hub, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{Engine: engine, Hub: hub, Log: log}
}

// Routes registers every endpoint on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/rooms/create", s.CreateRoomHandler)
	mux.HandleFunc("/rooms/join", s.JoinRoomHandler)
	mux.HandleFunc("/rooms/get", s.GetRoomHandler)
	mux.HandleFunc("/rooms/move", s.MoveHandler)
	mux.HandleFunc("/rooms/suit", s.DeclareSuitHandler)
	mux.HandleFunc("/rooms/ace", s.ResolveAceDropHandler)
	mux.HandleFunc("/rooms/kadi", s.AnnounceKadiHandler)
	mux.HandleFunc("/rooms/invite", s.CreateInviteHandler)
	mux.HandleFunc("/rooms/terminate", s.TerminateRoomHandler)
	mux.HandleFunc("/rooms/ws/", s.RoomWSHandler)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps engine sentinels onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, kadi.ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, kadi.ErrInvalidCode):
		status = http.StatusForbidden
	case errors.Is(err, kadi.ErrRoomFull), errors.Is(err, kadi.ErrStateConflict), errors.Is(err, kadi.ErrTurnViolation):
		status = http.StatusConflict
	case errors.Is(err, kadi.ErrGameTerminated):
		status = http.StatusGone
	case errors.Is(err, kadi.ErrInvalidMove), errors.Is(err, kadi.ErrPlayerNotFound), errors.Is(err, kadi.ErrInsufficientCards):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.Log.WithError(err).Error("request failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

type createRoomRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	NumPlayers  int    `json:"num_players"`
	NumToDeal   int    `json:"num_to_deal"`
}

type roomResponse struct {
	Room *kadi.Room    `json:"room"`
	View kadi.RoomView `json:"view"`
}

// CreateRoomHandler handles POST /rooms/create.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req createRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing user_id"})
		return
	}
	room, err := s.Engine.CreateRoom(r.Context(), req.NumPlayers, req.NumToDeal, req.UserID, req.DisplayName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, roomResponse{
		Room: room,
		View: kadi.NewRoomView(room, req.UserID),
	})
}

type joinRoomRequest struct {
	RoomID      uuid.UUID `json:"room_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	RoomCode    string    `json:"room_code,omitempty"`
	InviteToken string    `json:"invite_token,omitempty"`
}

// JoinRoomHandler handles POST /rooms/join. An invite token substitutes for
// the room code; it must name the room being joined.
func (s *Server) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req joinRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing user_id"})
		return
	}
	hasInvite := false
	if req.InviteToken != "" {
		roomID, err := invite.Verify(req.InviteToken)
		if err != nil || roomID != req.RoomID {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "invalid invite token"})
			return
		}
		hasInvite = true
	}
	room, err := s.Engine.JoinRoom(r.Context(), req.RoomID, kadi.JoinRequest{
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		RoomCode:    req.RoomCode,
		HasInvite:   hasInvite,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roomResponse{
		Room: room,
		View: kadi.NewRoomView(room, req.UserID),
	})
}

// GetRoomHandler handles GET /rooms/get?id=<uuid>&user_id=<id>. With a
// user_id it returns that player's redacted view, otherwise the full state.
func (s *Server) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	roomID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid room id"})
		return
	}
	room, err := s.Engine.GetRoom(r.Context(), roomID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		writeJSON(w, http.StatusOK, kadi.NewRoomView(room, userID))
		return
	}
	writeJSON(w, http.StatusOK, room)
}

type moveRequest struct {
	RoomID uuid.UUID        `json:"room_id"`
	UserID string           `json:"user_id"`
	Move   kadi.MoveRequest `json:"move"`
}

// MoveHandler handles POST /rooms/move, the single entry point for pick,
// drop, declare_suit, and resolve_ace_drop.
func (s *Server) MoveHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	room, err := s.Engine.MakeMove(r.Context(), req.RoomID, req.UserID, req.Move)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kadi.NewRoomView(room, req.UserID))
}

type declareSuitRequest struct {
	RoomID uuid.UUID `json:"room_id"`
	UserID string    `json:"user_id"`
	Suit   kadi.Suit `json:"suit"`
}

// DeclareSuitHandler handles POST /rooms/suit.
func (s *Server) DeclareSuitHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req declareSuitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	room, err := s.Engine.DeclareSuit(r.Context(), req.RoomID, req.UserID, req.Suit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kadi.NewRoomView(room, req.UserID))
}

type resolveAceDropRequest struct {
	RoomID uuid.UUID `json:"room_id"`
	UserID string    `json:"user_id"`
	Drop   bool      `json:"drop"`
}

// ResolveAceDropHandler handles POST /rooms/ace.
func (s *Server) ResolveAceDropHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req resolveAceDropRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	room, err := s.Engine.ResolveAceDrop(r.Context(), req.RoomID, req.UserID, req.Drop)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kadi.NewRoomView(room, req.UserID))
}

type announceKadiRequest struct {
	RoomID uuid.UUID `json:"room_id"`
	UserID string    `json:"user_id"`
}

// AnnounceKadiHandler handles POST /rooms/kadi.
func (s *Server) AnnounceKadiHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req announceKadiRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	room, err := s.Engine.AnnounceKadi(r.Context(), req.RoomID, req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kadi.NewRoomView(room, req.UserID))
}

type createInviteRequest struct {
	RoomID uuid.UUID `json:"room_id"`
	UserID string    `json:"user_id"`
}

type createInviteResponse struct {
	Token string `json:"token"`
}

// CreateInviteHandler handles POST /rooms/invite. Only the room owner may
// mint invite tokens.
func (s *Server) CreateInviteHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req createInviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	room, err := s.Engine.GetRoom(r.Context(), req.RoomID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.UserID != room.OwnerID {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "only the room owner can create invites"})
		return
	}
	token, err := invite.Create(req.RoomID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createInviteResponse{Token: token})
}

type terminateRoomRequest struct {
	RoomID uuid.UUID `json:"room_id"`
	UserID string    `json:"user_id"`
}

// TerminateRoomHandler handles POST /rooms/terminate, the administrative
// shutdown path. Only the room owner may terminate.
func (s *Server) TerminateRoomHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req terminateRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	room, err := s.Engine.GetRoom(r.Context(), req.RoomID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.UserID != room.OwnerID {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "only the room owner can terminate"})
		return
	}
	terminated, err := s.Engine.TerminateRoom(r.Context(), req.RoomID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, terminated)
}
