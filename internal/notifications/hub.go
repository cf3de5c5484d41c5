package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"evcircle/internal/middleware"
	"evcircle/internal/observability"
)

const (
	maxSessionsPerUser = 12
	maxSessions        = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
	ErrShutdown   = errors.New("notification hub is shutting down")
)

// Hub tracks the open notification sessions of every connected user and fans
// events published through a Notifier out to them.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Session]struct{}
	total    int
	stopping bool
	done     chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[*Session]struct{}),
		done:     make(chan struct{}),
	}
}

// Name labels the hub in metrics and logs.
func (h *Hub) Name() string { return "notifications" }

// Attach opens a session for userID on conn. The caller runs it with
// Session.Run.
func (h *Hub) Attach(userID string, conn wsConn) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.stopping:
		return nil, ErrShutdown
	case h.total >= maxSessions:
		return nil, ErrServerFull
	case len(h.sessions[userID]) >= maxSessionsPerUser:
		return nil, ErrUserFull
	}

	if h.sessions[userID] == nil {
		h.sessions[userID] = make(map[*Session]struct{})
	}
	s := newSession(h, conn, userID)
	h.sessions[userID][s] = struct{}{}
	h.total++
	observability.WebSocketConnectionsTotal.Inc()
	return s, nil
}

// detach forgets s and closes it. Unknown sessions are ignored.
func (h *Hub) detach(s *Session) {
	h.mu.Lock()
	if set, ok := h.sessions[s.UserID]; ok {
		if _, ok := set[s]; ok {
			delete(set, s)
			h.total--
			observability.WebSocketConnectionsTotal.Dec()
		}
		if len(set) == 0 {
			delete(h.sessions, s.UserID)
		}
	}
	h.mu.Unlock()
	s.close("")
}

// SendToUser delivers frame to every session of userID and returns how many
// accepted it.
func (h *Hub) SendToUser(userID string, frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for s := range h.sessions[userID] {
		if s.Deliver(frame) {
			n++
		}
	}
	return n
}

// SendToAll delivers frame to every open session.
func (h *Hub) SendToAll(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.sessions {
		for s := range set {
			s.Deliver(frame)
		}
	}
}

// Online reports whether userID has at least one open session.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID]) > 0
}

// Count returns the number of open sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Listen subscribes to n and routes every published event to the sessions
// of the user it was addressed to, until ctx is cancelled.
func (h *Hub) Listen(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		if channel == broadcastChannel {
			h.SendToAll([]byte(payload))
			return
		}
		userID, ok := userFromChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid notification channel", slog.String("channel", channel))
			return
		}
		h.SendToUser(userID, []byte(payload))
	})
}

// Shutdown refuses new sessions and closes the open ones with a going-away
// frame. Calling it again is a no-op.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	if h.stopping {
		h.mu.Unlock()
		return nil
	}
	h.stopping = true
	open := h.sessions
	h.sessions = make(map[string]map[*Session]struct{})
	observability.WebSocketConnectionsTotal.Sub(float64(h.total))
	h.total = 0
	h.mu.Unlock()

	for _, set := range open {
		for s := range set {
			s.close("Server shutting down")
		}
	}
	close(h.done)
	return nil
}

// Done is closed once Shutdown has finished.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
