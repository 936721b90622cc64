package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelboard/internal/shared/testutil"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(nil)
	hub := NewHub(logger, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func decode(t *testing.T, raw []byte) Message {
	t.Helper()
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	hub, _ := startHub(t)
	conn := newMockConnection()

	client := Serve(hub, conn, "trace-123", nil)
	require.NotNil(t, client)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(conn.textFrames()) == 1 }, time.Second, 5*time.Millisecond)

	hello := decode(t, conn.textFrames()[0])
	assert.Equal(t, TypeConnection, hello.Type)
	assert.Equal(t, "trace-123", hello.TraceID)
	assert.Equal(t, client.ID(), hello.Data.(map[string]interface{})["client_id"])

	hub.Broadcast("dataset.reloaded", map[string]int{"trips": 4})
	require.Eventually(t, func() bool { return len(conn.textFrames()) == 2 }, time.Second, 5*time.Millisecond)

	event := decode(t, conn.textFrames()[1])
	assert.Equal(t, "dataset.reloaded", event.Type)
	assert.Equal(t, float64(4), event.Data.(map[string]interface{})["trips"])
	assert.False(t, event.Timestamp.IsZero())

	conn.queueRead(`{"type":"heartbeat"}`)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_Shutdown(t *testing.T) {
	hub, cancel := startHub(t)
	conn := newMockConnection()
	require.NotNil(t, Serve(hub, conn, "", nil))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	late := newMockConnection()
	assert.Nil(t, Serve(hub, late, "", nil))
	assert.True(t, late.isClosed())

	assert.NotPanics(t, func() { hub.Broadcast("dataset.reloaded", nil) })
}

func TestHub_BroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)

	// Run is not started, so the queue fills up.
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(hub.broadcast)+1; i++ {
			hub.Broadcast("dataset.reloaded", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked")
	}
	testutil.AssertLogged(t, logs, slog.LevelWarn, "broadcast queue full")
}

func TestServe_EndToEnd(t *testing.T) {
	hub, _ := startHub(t)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		Serve(hub, Wrap(conn), "", nil)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, TypeConnection, decode(t, raw).Type)

	hub.Broadcast("dataset.reloaded", map[string]bool{"loaded": true})
	_, raw, err = ws.ReadMessage()
	require.NoError(t, err)
	event := decode(t, raw)
	assert.Equal(t, "dataset.reloaded", event.Type)
	assert.Equal(t, true, event.Data.(map[string]interface{})["loaded"])

	require.NoError(t, ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_SetKeepalive(t *testing.T) {
	hub := NewHub(nil, nil)
	hub.SetKeepalive(time.Minute, time.Second)
	assert.Equal(t, defaultPingPeriod, hub.pingPeriod)

	hub.SetKeepalive(5*time.Second, 10*time.Second)
	client := NewClient(hub, newMockConnection(), "", nil)
	assert.Equal(t, 5*time.Second, client.pingPeriod)
	assert.Equal(t, 10*time.Second, client.pongWait)
	assert.NotEmpty(t, client.traceID)
}
