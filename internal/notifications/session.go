package notifications

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"evcircle/internal/middleware"
	"evcircle/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInboundSize = 4096
	outboxSize     = 256
)

var (
	droppedFrame = mustEncode(Event{Type: "messages_dropped", Payload: map[string]string{"reason": "buffer_full"}})
	pongFrame    = mustEncode(Event{Type: "pong"})
)

// wsConn is the part of a WebSocket connection a Session drives.
type wsConn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session is one open notification socket of a user. Events reach it through
// its outbox; a full outbox drops the event and tells the client to re-fetch.
type Session struct {
	UserID string

	hub    *Hub
	conn   wsConn
	outbox chan []byte

	closeOnce   sync.Once
	closeReason string
	closed      chan struct{}
}

func newSession(hub *Hub, conn wsConn, userID string) *Session {
	return &Session{
		UserID: userID,
		hub:    hub,
		conn:   conn,
		outbox: make(chan []byte, outboxSize),
		closed: make(chan struct{}),
	}
}

// Run pumps the socket until the peer goes away or the hub shuts down.
func (s *Session) Run() {
	go s.writeLoop()
	s.readLoop()
}

// Deliver queues frame without blocking. It reports false when the frame was
// dropped.
func (s *Session) Deliver(frame []byte) bool {
	select {
	case <-s.closed:
		observability.WebSocketBackpressureDrops.WithLabelValues(s.hub.Name(), "closed").Inc()
		return false
	default:
	}

	select {
	case s.outbox <- frame:
		return true
	default:
	}

	observability.WebSocketBackpressureDrops.WithLabelValues(s.hub.Name(), "full").Inc()
	middleware.Logger.Warn("notification outbox full, dropped event", slog.String("user_id", s.UserID))
	select {
	case s.outbox <- droppedFrame:
	default:
	}
	return false
}

// readLoop answers application pings and keeps the read deadline alive.
// Anything else a client sends is ignored.
func (s *Session) readLoop() {
	defer s.hub.detach(s)

	s.conn.SetReadLimit(maxInboundSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Warn("notification socket read failed",
					slog.String("user_id", s.UserID), slog.String("error", err.Error()))
			}
			return
		}
		var in Event
		if json.Unmarshal(raw, &in) == nil && in.Type == "ping" {
			s.Deliver(pongFrame)
		}
	}
}

// writeLoop is the only writer on the socket. It owns closing the
// connection once the session is closed.
func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close("")
		s.hangUp()
	}()

	for {
		select {
		case <-s.closed:
			return
		case frame := <-s.outbox:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) hangUp() {
	if s.closeReason != "" {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, s.closeReason))
	}
	if err := s.conn.Close(); err != nil {
		middleware.Logger.Debug("closing notification socket",
			slog.String("user_id", s.UserID), slog.String("error", err.Error()))
	}
}

// close marks the session finished. The write loop then sends a close frame
// carrying reason, when given, and closes the socket. Safe to call more than
// once; only the first reason counts.
func (s *Session) close(reason string) {
	s.closeOnce.Do(func() {
		s.closeReason = reason
		close(s.closed)
	})
}

func mustEncode(e Event) []byte {
	raw, err := json.Marshal(e)
	if err != nil {
		panic(err)
	}
	return raw
}
