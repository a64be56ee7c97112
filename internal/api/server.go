package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server represents the REST API server
type Server struct {
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server. Charts in chartsDir are served
// under /charts/ when chartsDir is not empty.
func NewServer(port int, src Source, chartsDir string, log logrus.FieldLogger) *Server {
	handler := NewHandler(src, log)

	return &Server{
		handler: handler,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           NewRouter(handler, chartsDir),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter wires the routes
func NewRouter(handler *Handler, chartsDir string) *mux.Router {
	router := mux.NewRouter()

	router.Use(handler.RecoveryMiddleware)
	router.Use(handler.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/heroes", handler.GetHeroes).Methods("GET")
	api.HandleFunc("/heroes/{name}", handler.GetHero).Methods("GET")

	if chartsDir != "" {
		router.PathPrefix("/charts/").Handler(
			http.StripPrefix("/charts/", http.FileServer(http.Dir(chartsDir))))
	}

	return router
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
