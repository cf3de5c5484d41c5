package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory socket. Frames pushed into inbound are read by the
// session; everything the session writes is recorded.
type fakeConn struct {
	inbound chan []byte

	mu      sync.Mutex
	written [][]byte
	kinds   []int
	closed  bool
	once    sync.Once
}

func newFakeConn() *fakeConn { return &fakeConn{inbound: make(chan []byte, 8)} }

func (f *fakeConn) SetReadLimit(int64) {}
func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	raw, ok := <-f.inbound
	if !ok {
		return 0, nil, errors.New("connection closed")
	}
	return websocket.TextMessage, raw, nil
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("write on closed connection")
	}
	f.kinds = append(f.kinds, kind)
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.once.Do(func() { close(f.inbound) })
	return nil
}

func (f *fakeConn) frames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for i, w := range f.written {
		if f.kinds[i] == websocket.TextMessage {
			out = append(out, string(w))
		}
	}
	return out
}

func (f *fakeConn) sawClose() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range f.kinds {
		if k == websocket.CloseMessage {
			return true
		}
	}
	return f.closed
}

func TestHub_AttachAndDetach(t *testing.T) {
	hub := NewHub()

	a, err := hub.Attach("u1", nil)
	require.NoError(t, err)
	b, err := hub.Attach("u1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Count())
	assert.True(t, hub.Online("u1"))

	hub.detach(a)
	hub.detach(a)
	assert.Equal(t, 1, hub.Count())

	hub.detach(b)
	assert.False(t, hub.Online("u1"))
	assert.Equal(t, 0, hub.Count())
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxSessionsPerUser; i++ {
		_, err := hub.Attach("u1", nil)
		require.NoError(t, err)
	}
	_, err := hub.Attach("u1", nil)
	assert.ErrorIs(t, err, ErrUserFull)

	_, err = hub.Attach("u2", nil)
	assert.NoError(t, err)
}

func TestHub_SendToUserTargetsSessions(t *testing.T) {
	hub := NewHub()
	a, _ := hub.Attach("u1", nil)
	b, _ := hub.Attach("u2", nil)

	assert.Equal(t, 1, hub.SendToUser("u1", []byte("hello")))
	assert.Equal(t, 0, hub.SendToUser("nobody", []byte("hello")))
	assert.Equal(t, []byte("hello"), <-a.outbox)
	assert.Len(t, b.outbox, 0)

	hub.SendToAll([]byte("all"))
	assert.Equal(t, []byte("all"), <-a.outbox)
	assert.Equal(t, []byte("all"), <-b.outbox)
}

func TestSession_DeliverDropsWhenFullOrClosed(t *testing.T) {
	hub := NewHub()
	s, _ := hub.Attach("u1", nil)

	for i := 0; i < outboxSize; i++ {
		require.True(t, s.Deliver([]byte(fmt.Sprintf("m%d", i))))
	}
	assert.False(t, s.Deliver([]byte("overflow")))
	assert.Len(t, s.outbox, outboxSize)

	s.close("")
	assert.False(t, s.Deliver([]byte("after close")))
}

func TestSession_RunDeliversAndAnswersPing(t *testing.T) {
	hub := NewHub()
	conn := newFakeConn()
	s, err := hub.Attach("u1", conn)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()

	conn.inbound <- []byte(`{"type":"ping"}`)
	hub.SendToUser("u1", []byte(`{"type":"notification"}`))
	assert.Eventually(t, func() bool { return len(conn.frames()) == 2 }, testEventuallyTimeout, testPollInterval)
	assert.ElementsMatch(t, []string{`{"type":"pong","payload":null}`, `{"type":"notification"}`}, conn.frames())

	// Peer hangs up.
	_ = conn.Close()
	<-done
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, testEventuallyTimeout, testPollInterval)
}

func TestHub_ShutdownClosesSessions(t *testing.T) {
	hub := NewHub()
	conn := newFakeConn()
	s, err := hub.Attach("u1", conn)
	require.NoError(t, err)
	go s.Run()

	require.NoError(t, hub.Shutdown(context.Background()))
	<-hub.Done()
	assert.Equal(t, 0, hub.Count())
	assert.Eventually(t, conn.sawClose, testEventuallyTimeout, testPollInterval)

	_, err = hub.Attach("u1", newFakeConn())
	assert.ErrorIs(t, err, ErrShutdown)
	require.NoError(t, hub.Shutdown(context.Background()))
}

func TestHub_ListenForwardsToUser(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.Listen(ctx, n))

	a, _ := hub.Attach("u1", nil)
	b, _ := hub.Attach("u2", nil)

	require.NoError(t, n.PublishUser(ctx, "u1", `{"type":"notification"}`))
	assert.Eventually(t, func() bool { return len(a.outbox) == 1 }, testEventuallyTimeout, testPollInterval)
	assert.Len(t, b.outbox, 0)

	require.NoError(t, n.PublishBroadcast(ctx, "all"))
	assert.Eventually(t, func() bool { return len(b.outbox) == 1 }, testEventuallyTimeout, testPollInterval)
}
