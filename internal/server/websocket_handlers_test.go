package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"evcircle/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsFrame struct {
	Type    string              `json:"type"`
	Payload models.Notification `json:"payload"`
}

// listen serves the test app on a loopback port and starts the hub's
// Redis subscriber. It returns the ws:// base address.
func (e *testEnv) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = e.app.Listener(ln) }()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, e.srv.hub.Listen(ctx, e.srv.notifier))
	t.Cleanup(func() {
		cancel()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		_ = e.srv.Shutdown(shutdownCtx)
	})
	return "ws://" + ln.Addr().String()
}

func dialWS(t *testing.T, base, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, resp, err := dialer.Dial(base+"/api/ws", header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

func TestWebsocketDeliversNotifications(t *testing.T) {
	env := newTestServer(t, "")
	alice, _ := env.register(t, "alice")
	bob, bobID := env.register(t, "bob")
	base := env.listen(t)

	conn, _, err := dialWS(t, base, bob)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return env.srv.hub.Online(bobID) }, 2*time.Second, 10*time.Millisecond)

	resp := env.do(t, http.MethodPost, "/api/users/"+bobID+"/follow", alice, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "notification", frame.Type)
	assert.Equal(t, bobID, frame.Payload.UserID)
}

func TestWebsocketAnswersPing(t *testing.T) {
	env := newTestServer(t, "")
	token, _ := env.register(t, "carol")
	base := env.listen(t)

	conn, _, err := dialWS(t, base, token)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame struct {
		Type string `json:"type"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "pong", frame.Type)
}

func TestWebsocketRequiresToken(t *testing.T) {
	env := newTestServer(t, "")
	base := env.listen(t)

	_, resp, err := dialWS(t, base, "")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
