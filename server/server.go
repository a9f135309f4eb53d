// Package server exposes the desk over HTTP: the chat surface, the admin
// surface for clients and limit requests, health and metrics.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bancoagil/agentdesk/history"
	"github.com/bancoagil/agentdesk/logging"
	"github.com/bancoagil/agentdesk/service"
	"github.com/bancoagil/agentdesk/session"
)

// maxRequestBodySize bounds chat and admin payloads (1MB).
const maxRequestBodySize = 1 << 20

// Server wires the HTTP handlers to the desk's services.
type Server struct {
	sessions *session.Manager
	history  *history.Store
	clients  *service.ClientStore
	credit   *service.CreditService
	logger   logging.Logger
}

// New constructs a server. history may be nil when durable transcripts are
// disabled.
func New(sessions *session.Manager, hist *history.Store, clients *service.ClientStore, credit *service.CreditService, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Server{
		sessions: sessions,
		history:  hist,
		clients:  clients,
		credit:   credit,
		logger:   logger,
	}
}

// Router assembles the chi router with all routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/chat", func(r chi.Router) {
		r.Post("/", s.handleChat)
		r.Post("/new", s.handleNewSession)
		r.Delete("/{sessionID}", s.handleEndSession)
		r.Get("/{sessionID}/estado", s.handleSessionState)
		r.Get("/{sessionID}/historico", s.handleSessionHistory)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/clientes", s.handleAddClient)
		r.Get("/clientes", s.handleListClients)
		r.Get("/solicitacoes", s.handleListRequests)
		r.Get("/solicitacoes/{cpf}", s.handleListRequestsByCPF)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
