package api

import (
	"context"
	"net/http"
	"time"

	"owldoor/config"
	"owldoor/service"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Server is the HTTP surface over the matching engine and its CRUD workflows
type Server struct {
	httpServer *http.Server

	matchService  service.MatchService
	leadService   service.LeadService
	clientService service.ClientService
	creditService service.CreditService

	validate *validator.Validate
}

// NewServer wires the routes and returns a server ready to start
func NewServer(cfg *config.Config, matchService service.MatchService, leadService service.LeadService, clientService service.ClientService, creditService service.CreditService) *Server {
	s := &Server{
		matchService:  matchService,
		leadService:   leadService,
		clientService: clientService,
		creditService: creditService,
		validate:      validator.New(),
	}

	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/healthz", s.Healthz).Methods("GET")

	// Authenticated routes
	authed := r.PathPrefix("/api/v1").Subrouter()
	authed.Use(AuthMiddleware(cfg.JWTSecret))

	authed.HandleFunc("/leads", s.CreateLead).Methods("POST")
	authed.HandleFunc("/leads", s.ListLeads).Methods("GET")
	authed.HandleFunc("/leads/{id:[0-9]+}", s.GetLead).Methods("GET")
	authed.HandleFunc("/leads/{id:[0-9]+}/match-ready", s.MarkLeadMatchReady).Methods("POST")
	authed.HandleFunc("/leads/{id:[0-9]+}/archive", s.ArchiveLead).Methods("POST")
	authed.HandleFunc("/clients/{id:[0-9]+}", s.GetClient).Methods("GET")
	authed.HandleFunc("/clients/{id:[0-9]+}/ledger", s.GetLedger).Methods("GET")
	authed.HandleFunc("/matches", s.ListMatches).Methods("GET")

	// Admin-only routes
	admin := authed.NewRoute().Subrouter()
	admin.Use(AdminOnly)
	admin.HandleFunc("/matching/run", s.RunMatching).Methods("POST")
	admin.HandleFunc("/clients", s.CreateClient).Methods("POST")
	admin.HandleFunc("/clients/{id:[0-9]+}/credits", s.GrantCredits).Methods("POST")
	admin.HandleFunc("/clients/{id:[0-9]+}/criteria", s.UpdateClientCriteria).Methods("PUT")
	admin.HandleFunc("/clients/{id:[0-9]+}/deactivate", s.DeactivateClient).Methods("POST")

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
