package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/etesdev/etes/pkg/auth"
	"github.com/etesdev/etes/pkg/config"
	"github.com/etesdev/etes/pkg/events"
	"github.com/etesdev/etes/pkg/httperr"
	"github.com/etesdev/etes/pkg/log"
	"github.com/etesdev/etes/pkg/metrics"
	"github.com/etesdev/etes/pkg/registry"
	"github.com/etesdev/etes/pkg/types"
	"github.com/etesdev/etes/pkg/ws"
)

const shutdownTimeout = 10 * time.Second

// ServiceLister is the supervisor view behind the snapshot endpoint.
type ServiceLister interface {
	Snapshot() []types.ServiceData
}

// Metadata is the GitHub cache view: read the snapshot, force a refresh.
type Metadata interface {
	State() types.GitHubState
	Update(ctx context.Context) error
}

// MemoryGauge is the memory monitor view.
type MemoryGauge interface {
	State() types.MemoryState
}

// Server is the management HTTP server.
type Server struct {
	cfg      *config.Config
	broker   *events.Broker
	registry *registry.Registry
	services ServiceLister
	github   Metadata
	memory   MemoryGauge
	auth     *auth.Service
	ws       *ws.Handler
	logger   zerolog.Logger
	server   *http.Server
}

// New assembles the management server over its collaborators.
func New(
	cfg *config.Config,
	broker *events.Broker,
	reg *registry.Registry,
	services ServiceLister,
	github Metadata,
	memory MemoryGauge,
	authSvc *auth.Service,
) *Server {
	s := &Server{
		cfg:      cfg,
		broker:   broker,
		registry: reg,
		services: services,
		github:   github,
		memory:   memory,
		auth:     authSvc,
		ws:       ws.NewHandler(broker, authSvc),
		logger:   log.WithComponent("api"),
	}

	// No read or write timeouts: websocket sessions are long-lived and
	// CI uploads can be slow. The header timeout still bounds slowloris.
	s.server = &http.Server{
		Addr:              cfg.ManagementAddr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/etes/login", s.auth.Login)
	r.Get("/etes/logout", s.auth.Logout)
	r.Get("/etes/authorize", s.auth.Authorize)

	r.Route("/etes/api/v1", func(r chi.Router) {
		r.Get("/data/{caller}", s.handleData)
		r.Get("/ws/{caller}", s.handleWS)
		r.Put("/executable/{trigger_hash}/{build_hash}", s.handleUpload)
	})

	r.Handle("/metrics", metrics.Handler())

	frontend := newFrontend(s.cfg)
	r.NotFound(frontend.ServeHTTP)

	return r
}

// Run serves the management listener until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.ManagementAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ManagementAddr, err)
	}

	s.logger.Info().Str("addr", s.cfg.ManagementAddr).Msg("Management server listening")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("management server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to shut down management server")
	}
	return ctx.Err()
}

// handleData answers the initial-state snapshot the frontend loads on
// page load and after a websocket reconnect.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	user, err := types.UserFromRequest(chi.URLParam(r, "caller"), s.auth.SessionUser(r))
	if err != nil {
		httperr.Write(w, err)
		return
	}

	state := types.InitialState{
		IsAdmin:     user.IsAdmin(s.cfg.Admins),
		User:        user.HashAnonymous(),
		Title:       s.cfg.Title,
		BaseURL:     s.cfg.RepoURL(),
		Github:      s.github.State(),
		Memory:      s.memory.State(),
		Executables: s.registry.Executables(),
		Services:    s.services.Snapshot(),
		Words:       s.cfg.Words,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode initial state")
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.ws.Serve(w, r, chi.URLParam(r, "caller"))
}
