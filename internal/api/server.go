// Package api provides the HTTP and WebSocket surface of the chase engine.
//
// It exposes RESTful endpoints for dashboard statistics, clients, chase
// items, predictions, agent activity and analytics, plus a WebSocket feed
// of live agent activity. The API integrates with the agents, scheduler,
// messaging and store modules.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/agents"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/scheduler"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/store"
)

// Service identity served from the root banner.
const (
	AppName    = "ChaseFlow AI"
	AppVersion = "1.0.0"
)

// Default configuration constants
const (
	// DefaultAddr is the default API server listen address.
	DefaultAddr = ":8000"
	// DefaultListLimit caps client and chase item listings when the
	// request does not specify one.
	DefaultListLimit = 100
	// DefaultFeedLimit caps the activity and communication feeds.
	DefaultFeedLimit = 50
)

// Opts holds API server configuration options.
type Opts struct {
	Addr  string
	Clock func() time.Time
}

// Option configures API server construction.
type Option func(*Opts)

// WithAddr sets the server listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithClock overrides the server's time source. Tests use this to make
// aggregate and prediction output deterministic.
func WithClock(clock func() time.Time) Option {
	return func(o *Opts) {
		o.Clock = clock
	}
}

// Server hosts the HTTP API over the store, the agent fleet and the chase
// runner, and owns the WebSocket hub for live activity pushes.
type Server struct {
	addr         string
	st           store.Store
	orchestrator *agents.Orchestrator
	runner       *scheduler.Runner
	hub          *Hub
	clock        func() time.Time
	httpServer   *http.Server
}

// NewServer creates an API server over the given store, agent fleet,
// runner and activity hub.
func NewServer(st store.Store, orchestrator *agents.Orchestrator, runner *scheduler.Runner, hub *Hub, opts ...Option) *Server {
	cfg := Opts{
		Addr:  DefaultAddr,
		Clock: time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("Server config loaded", "addr", cfg.Addr)

	if hub == nil {
		hub = NewHub()
	}
	return &Server{
		addr:         cfg.Addr,
		st:           st,
		orchestrator: orchestrator,
		runner:       runner,
		hub:          hub,
		clock:        cfg.Clock,
	}
}

// Handler builds the route table. Exposed so tests can drive the API
// through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.rootHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/dashboard/stats", s.dashboardStatsHandler)
	mux.HandleFunc("/api/clients", s.clientsHandler)
	mux.HandleFunc("/api/clients/", s.clientHandler)
	mux.HandleFunc("/api/chase-items", s.chaseItemsHandler)
	mux.HandleFunc("/api/chase-items/", s.chaseItemHandler)
	mux.HandleFunc("/api/predictions/", s.predictionHandler)
	mux.HandleFunc("/api/activities", s.activitiesHandler)
	mux.HandleFunc("/api/communications", s.communicationsHandler)
	mux.HandleFunc("/api/agents/status", s.agentStatusHandler)
	mux.HandleFunc("/api/simulate/activity", s.simulateActivityHandler)
	mux.HandleFunc("/api/analytics/overview", s.analyticsHandler)
	mux.HandleFunc("/ws/agent-activity", s.hub.handleWS)
	return mux
}

// Hub returns the server's WebSocket activity hub, so callers can wire it
// into the agent fleet's activity sink.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run serves HTTP requests until Shutdown is called. A closed listener is
// reported as nil.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}
	slog.Info("API server listening", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the WebSocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.httpServer == nil {
		return nil
	}
	slog.Info("API server shutting down")
	return s.httpServer.Shutdown(ctx)
}
