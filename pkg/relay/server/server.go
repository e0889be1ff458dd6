// Package server wires the relay's components together (spec §9 init
// order) and owns the HTTP listener: the websocket upgrade path served
// by the Connection Supervisor, plus two diagnostic-only routes.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/shadowmint/relay/pkg/relay/analytics"
	"github.com/shadowmint/relay/pkg/relay/auth"
	"github.com/shadowmint/relay/pkg/relay/config"
	"github.com/shadowmint/relay/pkg/relay/registry"
	"github.com/shadowmint/relay/pkg/relay/supervisor"
	"github.com/shadowmint/relay/pkg/relay/txn"
	utilctx "github.com/shadowmint/relay/pkg/utils/context"
	"github.com/shadowmint/relay/pkg/utils/log"
)

// Server owns the relay's shared collaborators and its HTTP listener.
type Server struct {
	cfg *config.C

	registry   *registry.Registry
	txn        *txn.Manager
	analytics  analytics.Analytics
	supervisor *supervisor.Supervisor

	httpServer *http.Server
}

// New wires the relay's collaborators in the order spec §9 names:
// registry, transaction manager, analytics, the connection-supervisor
// factory, then the HTTP server.
func New(cfg *config.C) *Server {
	reg := registry.New()

	manager := txn.New()

	an := analytics.New()
	manager.SetAnalytics(an)

	if cfg.TransactionTimeout() > 0 {
		manager.SetTimeout(cfg.TransactionTimeout(), cfg.TransactionPoll())
	}

	envelope := auth.New(auth.Config{
		MinKeyLength:     cfg.MinKeyLength,
		MaxTokenLifetime: cfg.MaxTokenLifetime(),
		Secrets:          cfg.SecretLookup(),
	})

	sup := supervisor.New(reg, manager, an, envelope, supervisor.Config{
		MaxMessageBytes: cfg.MaxMessageBytes,
		PingInterval:    supervisor.DefaultConfig().PingInterval,
		PongWait:        supervisor.DefaultConfig().PongWait,
	})

	s := &Server{
		cfg:        cfg,
		registry:   reg,
		txn:        manager,
		analytics:  an,
		supervisor: sup,
	}

	s.httpServer = &http.Server{
		Addr:    cfg.Bind,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Default().Handler)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		s.supervisor.ServeHTTP(req.Context(), w, req)
	})
	r.Get("/healthz", s.handleHealthz)
	r.Get("/analytics", s.handleAnalytics)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"sessions": s.registry.Len()})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	labels, err := s.analytics.QueryEventLabels(filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.analytics.QueryEvents(labels...))
}

// Start begins serving HTTP in the background and returns immediately;
// ListenAndServe errors other than http.ErrServerClosed are logged.
func (s *Server) Start() error {
	log.I.F("relay listening on %s", s.cfg.Bind)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.E.F("http server stopped: %v", err)
		}
	}()
	return nil
}

// Shutdown tears down the server in the reverse of New's init order:
// stop accepting new connections, force-close every live one so its bound
// participant receives a control-disconnect with reason "server
// shutdown" (spec §9), then stop the transaction sweeper.
func (s *Server) Shutdown(ctx utilctx.T) error {
	err := s.httpServer.Shutdown(ctx)
	s.supervisor.Shutdown("server shutdown")
	s.txn.Close()
	return err
}
