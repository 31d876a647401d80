package overlay_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/ppather/internal/event"
	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/overlay"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil {
		t.Cleanup(func() { resp.Body.Close() })
	}
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, kind)

	var out map[string]any
	require.NoError(t, json.Unmarshal(payload, &out))
	return out
}

func TestHubRelaysBusEvents(t *testing.T) {
	hub := overlay.NewHub()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)

	bus := event.NewBus()
	detach := hub.Attach(bus)

	a, b := dial(t, srv), dial(t, srv)
	require.Eventually(t, func() bool { return hub.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	bus.Publish(event.Sphere(1, geo.Location{X: 1, Y: 2, Z: 3}, 2, "goal"))
	bus.Publish(event.Lines(1, []geo.Location{{X: 0}, {X: 3}}, "path"))

	for _, conn := range []*websocket.Conn{a, b} {
		first := readEvent(t, conn)
		assert.Equal(t, "sphere_added", first["type"])
		assert.Equal(t, "goal", first["label"])

		second := readEvent(t, conn)
		assert.Equal(t, "lines_added", second["type"])
		assert.Len(t, second["points"], 2)
	}

	detach()
	assert.Zero(t, bus.Len())
}

func TestHubForgetsDisconnectedClients(t *testing.T) {
	hub := overlay.NewHub()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(event.Event{Type: event.SearchBegan})
}

func TestHubCloseDisconnects(t *testing.T) {
	hub := overlay.NewHub()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Zero(t, hub.Len())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	late := dial(t, srv)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
