package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ArrEssJay/chimera/internal/sim"
)

// broadcastInterval is how often connected WebSocket clients receive a
// fresh snapshot.
const broadcastInterval = 500 * time.Millisecond

// Handlers holds the HTTP handler state.
type Handlers struct {
	collector *sim.Collector
	hub       *WSHub
	started   time.Time
	logger    *log.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewHandlers creates the handler set and starts the broadcast loop.
// Call Close to stop the loop again.
func NewHandlers(collector *sim.Collector, logger *log.Logger) *Handlers {
	h := &Handlers{
		collector: collector,
		hub:       NewWSHub(logger),
		started:   time.Now(),
		logger:    logger,
		done:      make(chan struct{}),
	}
	go h.broadcastLoop()
	return h
}

// Close stops the broadcast loop. Safe to call more than once.
func (h *Handlers) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Handlers) broadcastLoop() {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.hub.Broadcast(WSMessage{Type: "metrics", Payload: h.collector.Snapshot()})
		case <-h.done:
			return
		}
	}
}

// HandleStatus reports uptime and the current totals.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"uptime_seconds": time.Since(h.started).Seconds(),
		"metrics":        h.collector.Snapshot(),
	})
}

// HandleMetrics returns the current snapshot as JSON.
func (h *Handlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.collector.Snapshot())
}

// HandleWebSocket upgrades the connection and registers it with the hub.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	h.hub.AddClient(conn)

	// Drain (and discard) client messages so pings are answered and
	// closes are noticed.
	go func() {
		defer h.hub.RemoveClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
