// package server hosts the realtime channel: a WebSocket hub that broadcasts
// named events to every connected browser session and feeds inbound commands
// to the dispatcher, plus the HTTP router that serves the page.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/hollowtree-labs/harmonia/internal/events"
	"github.com/hollowtree-labs/harmonia/internal/shared"
)

const sendBuffer = 64

// frame is the wire format in both directions: a named event with a payload.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// session is one connected browser tab.
type session struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans outbound events out to every connected session. It implements
// [events.Emitter].
type Hub struct {
	mu         sync.Mutex
	sessions   map[string]*session
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
	logger     *log.Logger
}

// NewHub creates a hub that hands inbound frames to the dispatcher.
func NewHub(dispatcher *Dispatcher, logger *log.Logger) *Hub {
	return &Hub{
		sessions:   make(map[string]*session),
		dispatcher: dispatcher,
		logger:     logger,
		upgrader: websocket.Upgrader{
			// The page and the socket share an origin; cross-origin use is
			// covered by the CORS middleware on the router.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Emit serializes the event and queues it on every connected session.
// Sessions whose send buffer is full are dropped rather than allowed to
// stall the broadcast.
func (h *Hub) Emit(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal event payload", "event", event, "err", err)
		return
	}
	msg, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		h.logger.Error("failed to marshal event frame", "event", event, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.sessions {
		select {
		case s.send <- msg:
		default:
			h.logger.Warn("dropping slow session", "session", id)
			close(s.send)
			delete(h.sessions, id)
		}
	}
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// ServeWS upgrades the request and runs the session until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	s := &session{
		id:   shared.GenerateID(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()

	h.logger.Info("session connected", "session", s.id)
	h.dispatcher.Dispatch(events.CmdConnect, nil)

	go h.writeLoop(s)
	h.readLoop(s)
}

// readLoop decodes inbound frames and hands them to the dispatcher. Runs on
// the ServeWS goroutine, so the HTTP handler stays alive for the connection's
// lifetime.
func (h *Hub) readLoop(s *session) {
	defer h.drop(s)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("session read failed", "session", s.id, "err", err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			h.logger.Warn("malformed frame", "session", s.id, "err", err)
			continue
		}
		h.dispatcher.Dispatch(f.Event, f.Data)
	}
}

// writeLoop drains the session's send channel to the socket.
func (h *Hub) writeLoop(s *session) {
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Warn("session write failed", "session", s.id, "err", err)
			break
		}
	}
	s.conn.Close()
}

// drop unregisters the session and reports the disconnect.
func (h *Hub) drop(s *session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.id]; ok {
		close(s.send)
		delete(h.sessions, s.id)
	}
	h.mu.Unlock()

	s.conn.Close()
	h.logger.Info("session disconnected", "session", s.id)
	h.dispatcher.Dispatch(events.CmdDisconnect, nil)
}
