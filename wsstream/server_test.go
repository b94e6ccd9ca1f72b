package wsstream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_StreamsLogChunksToSubscriber(t *testing.T) {
	hub := NewHub()
	srv := NewServer(hub)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = srv.ServeTask(w, r, "task-1")
	}))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server side a moment to finish registering before we
	// broadcast, since Subscribe hands off to the hub asynchronously.
	time.Sleep(20 * time.Millisecond)
	hub.BroadcastLog("task-1", "hello world")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello world")
	assert.Contains(t, string(data), `"type":"log_chunk"`)
}

func TestServer_BroadcastToUnknownTaskIsNoop(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() { hub.BroadcastLog("nobody-watching", "x") })
}
