// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nikokadi/kadi/internal/kadi"
	"github.com/nikokadi/kadi/internal/middleware"
)

// Custom close codes in the 3000-3999 application range.
const (
	CloseCodeRoomNotFound  = 3000
	CloseCodeNotSeated     = 3001
	CloseCodeBadMessage    = 3002
	CloseCodeServerRestart = 3003
)

// writeTimeout bounds each outbound push so one stalled client cannot block
// the hub.
const writeTimeout = 3 * time.Second

// Hub tracks live WebSocket connections per room and fans redacted views out
// to them after every accepted operation. It implements kadi.Notifier.
type Hub struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]map[string]*websocket.Conn

	Log *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.New()
	}
	return &Hub{
		rooms: make(map[uuid.UUID]map[string]*websocket.Conn),
		Log:   log,
	}
}

func (h *Hub) register(roomID uuid.UUID, userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[roomID]
	if !ok {
		conns = make(map[string]*websocket.Conn)
		h.rooms[roomID] = conns
	}
	if old, ok := conns[userID]; ok {
		// A reconnect supersedes the previous socket.
		go old.Close(websocket.StatusNormalClosure, "superseded by new connection")
	}
	conns[userID] = conn
}

func (h *Hub) unregister(roomID uuid.UUID, userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[roomID]; ok {
		if cur, ok := conns[userID]; ok && cur == conn {
			delete(conns, userID)
		}
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// PushRoomUpdate sends each seated player their own redacted view. Sends are
// asynchronous so the engine never waits on a slow socket.
func (h *Hub) PushRoomUpdate(roomID uuid.UUID, views map[string]kadi.RoomView) {
	h.mu.Lock()
	targets := make(map[string]*websocket.Conn, len(views))
	for userID := range views {
		if conn, ok := h.rooms[roomID][userID]; ok {
			targets[userID] = conn
		}
	}
	h.mu.Unlock()

	for userID, conn := range targets {
		view := views[userID]
		data, err := json.Marshal(map[string]interface{}{
			"type": "room_update",
			"room": view,
		})
		if err != nil {
			h.Log.WithError(err).Warn("marshal room view failed")
			continue
		}
		go func(c *websocket.Conn, payload []byte) {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			if err := c.Write(ctx, websocket.MessageText, payload); err != nil {
				h.Log.WithError(err).Debug("ws push failed")
			}
		}(conn, data)
	}
}

// Shutdown closes every live connection, used on server restart.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.rooms {
		for _, conn := range conns {
			conn.Close(websocket.StatusCode(CloseCodeServerRestart), "server restarting")
		}
	}
	h.rooms = make(map[uuid.UUID]map[string]*websocket.Conn)
}

// wsEnvelope is the inbound message layout. Moves carry the same payload as
// POST /rooms/move.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Cards []kadi.Card `json:"cards,omitempty"`
	Suit  kadi.Suit   `json:"suit,omitempty"`
	Drop  bool        `json:"drop,omitempty"`
}

// RoomWSHandler upgrades GET /rooms/ws/{room_id} and routes inbound move
// messages into the engine. Only seated players may subscribe.
func (s *Server) RoomWSHandler(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/rooms/ws/")
	roomID, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{"kadi"},
	})
	if err != nil {
		s.Log.WithError(err).Warn("ws accept failed")
		return
	}
	if conn.Subprotocol() != "kadi" {
		conn.Close(websocket.StatusPolicyViolation, "client must speak the kadi subprotocol")
		return
	}

	ctx := r.Context()
	room, err := s.Engine.GetRoom(ctx, roomID)
	if err != nil {
		conn.Close(websocket.StatusCode(CloseCodeRoomNotFound), "room not found")
		return
	}
	if room.FindPlayer(userID) == nil {
		conn.Close(websocket.StatusCode(CloseCodeNotSeated), "join the room before subscribing")
		return
	}

	middleware.LogWebSocketConnect(s.Log, r.RemoteAddr, r.URL.Path)
	s.Hub.register(roomID, userID, conn)
	defer s.Hub.unregister(roomID, userID, conn)

	// Initial snapshot so the client does not wait for the next move.
	s.Hub.PushRoomUpdate(roomID, map[string]kadi.RoomView{
		userID: kadi.NewRoomView(room, userID),
	})

	readErr := s.readLoop(ctx, conn, roomID, userID)
	middleware.LogWebSocketDisconnect(s.Log, r.RemoteAddr, r.URL.Path, readErr)
	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, roomID uuid.UUID, userID string) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.wsError(ctx, conn, "malformed message")
			continue
		}
		switch env.Type {
		case "ping":
			s.wsSend(ctx, conn, map[string]interface{}{"type": "pong"})
		case string(kadi.MovePick), string(kadi.MoveDrop), string(kadi.MoveDeclareSuit), string(kadi.MoveResolveAceDrop):
			req := kadi.MoveRequest{
				Type:  kadi.MoveType(env.Type),
				Cards: env.Cards,
				Suit:  env.Suit,
				Drop:  env.Drop,
			}
			if _, err := s.Engine.MakeMove(ctx, roomID, userID, req); err != nil {
				s.wsError(ctx, conn, err.Error())
			}
		case "announce_kadi":
			if _, err := s.Engine.AnnounceKadi(ctx, roomID, userID); err != nil {
				s.wsError(ctx, conn, err.Error())
			}
		default:
			s.wsError(ctx, conn, "unknown message type")
		}
	}
}

func (s *Server) wsSend(ctx context.Context, conn *websocket.Conn, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := conn.Write(wctx, websocket.MessageText, data); err != nil {
		s.Log.WithError(err).Debug("ws write failed")
	}
}

func (s *Server) wsError(ctx context.Context, conn *websocket.Conn, msg string) {
	s.wsSend(ctx, conn, map[string]interface{}{
		"type":  "error",
		"error": msg,
	})
}
