package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArrEssJay/chimera/internal/sim"
)

func TestHandleMetrics_ReturnsSnapshot(t *testing.T) {
	collector := sim.NewCollector()
	collector.Apply(sim.FrameDelta{Bits: 32, PreErrors: 4, PostErrors: 1, FrameError: true, Iterations: 6})
	h := NewHandlers(collector, log.New(io.Discard))
	defer h.Close()

	rec := httptest.NewRecorder()
	h.HandleMetrics(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap sim.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.TotalFrames)
	assert.Equal(t, int64(32), snap.TotalBits)
	assert.Equal(t, int64(1), snap.FrameErrors)
}

func TestHandleStatus_IncludesUptime(t *testing.T) {
	h := NewHandlers(sim.NewCollector(), log.New(io.Discard))
	defer h.Close()

	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "uptime_seconds")
	assert.Contains(t, body, "metrics")
}

func TestHandlers_CloseIsIdempotent(t *testing.T) {
	h := NewHandlers(sim.NewCollector(), log.New(io.Discard))
	h.Close()
	h.Close()

	// The endpoints keep working after the broadcast loop stops.
	rec := httptest.NewRecorder()
	h.HandleMetrics(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWSHub_AddRemoveBroadcast(t *testing.T) {
	hub := NewWSHub(log.New(io.Discard))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.AddClient(conn)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast(WSMessage{Type: "metrics", Payload: sim.Snapshot{TotalFrames: 3}})

	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "metrics", msg.Type)

	// Removing twice must be harmless.
	hub.mu.RLock()
	var server *websocket.Conn
	for c := range hub.clients {
		server = c
	}
	hub.mu.RUnlock()
	require.NotNil(t, server)
	hub.RemoveClient(server)
	hub.RemoveClient(server)
}
