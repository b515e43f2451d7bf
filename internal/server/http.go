// Package server exposes a running simulation over HTTP: JSON snapshots
// for polling clients, a WebSocket stream for live dashboards, and a
// Prometheus endpoint. The simulator is fully functional without it.
package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ArrEssJay/chimera/internal/sim"
)

// Server is the HTTP server around a live metrics collector.
type Server struct {
	mux     *http.ServeMux
	handler *Handlers
	addr    string
	logger  *log.Logger
}

// NewServer creates a server publishing the given collector.
func NewServer(addr string, collector *sim.Collector, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)

	s := &Server{
		mux:     http.NewServeMux(),
		handler: NewHandlers(collector, logger),
		addr:    addr,
		logger:  logger,
	}
	s.mux.HandleFunc("/api/status", s.handler.HandleStatus)
	s.mux.HandleFunc("/api/metrics", s.handler.HandleMetrics)
	s.mux.HandleFunc("/ws", s.handler.HandleWebSocket)
	s.mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return s
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	s.logger.Info("metrics server listening", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

// Close stops the background broadcast loop.
func (s *Server) Close() {
	s.handler.Close()
}
