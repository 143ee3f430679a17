// Package web exposes the operator surface over HTTP: the read-only
// diagnostics reports, a manual trigger for the cleaning pipeline, and the
// raw-record ingest endpoint whose inserts feed the insertion hook.
package web

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/income-clean/internal/pipeline"
	"github.com/income-clean/internal/record"
	"github.com/income-clean/internal/store"
)

// Server serves the diagnostics and trigger endpoints.
type Server struct {
	db         *sql.DB
	raw        store.RawSource
	pipe       *pipeline.Pipeline
	inserts    chan<- record.RawRecord
	httpServer *http.Server
	router     *mux.Router
}

// NewServer wires the handlers. inserts receives every ingested raw row and
// is consumed by the insertion hook; it may be nil when no hook runs.
func NewServer(host string, port int, db *sql.DB, raw store.RawSource, pipe *pipeline.Pipeline, inserts chan<- record.RawRecord) *Server {
	s := &Server{db: db, raw: raw, pipe: pipe, inserts: inserts}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Read-only diagnostics
	api.HandleFunc("/report/duplicates", s.handleDuplicateReport).Methods("GET")
	api.HandleFunc("/report/counts", s.handleCounts).Methods("GET")
	api.HandleFunc("/report/states", s.handleStateCounts).Methods("GET")

	// Ingest and manual trigger
	api.HandleFunc("/records", s.handleIngest).Methods("POST")
	api.HandleFunc("/clean", s.handleClean).Methods("POST")
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		fmt.Printf("Listening on http://%s\n", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server error: %v\n", err)
		}
	}()

	<-stop
	fmt.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Handler returns the route tree, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
