// Package http exposes the service's HTTP surface: health and readiness
// probes, Prometheus metrics, and the extracted table / means results.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/weather-measurements-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline is the processor surface the server reads from.
type Pipeline interface {
	CheckReadiness(ctx context.Context) error
	Table() *domain.StationTable
	CalculateMeans() (*domain.MeansTable, error)
}

// Server exposes health, readiness, metrics, and result HTTP endpoints.
type Server struct {
	httpServer *http.Server
	pipe       Pipeline
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /v1/table, and /v1/means routes.
func NewServer(addr string, pipe Pipeline, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		pipe:   pipe,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/table", s.handleTable)
	mux.HandleFunc("GET /v1/means", s.handleMeans)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.pipe.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// tableResponse is the JSON shape of /v1/table.
type tableResponse struct {
	LoadedAt    time.Time           `json:"loaded_at"`
	ExtractedAt time.Time           `json:"extracted_at"`
	Rows        []domain.StationRow `json:"rows"`
}

func (s *Server) handleTable(w http.ResponseWriter, _ *http.Request) {
	table := s.pipe.Table()
	if table == nil || !table.Extracted() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "station table not loaded",
		})
		return
	}
	writeJSON(w, http.StatusOK, tableResponse{
		LoadedAt:    table.LoadedAt(),
		ExtractedAt: table.ExtractedAt(),
		Rows:        table.Rows(),
	})
}

func (s *Server) handleMeans(w http.ResponseWriter, _ *http.Request) {
	means, err := s.pipe.CalculateMeans()
	if err != nil {
		var notLoaded *domain.NotLoadedError
		if errors.As(err, &notLoaded) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": err.Error(),
			})
			return
		}
		s.logger.Error("calculate means failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal error",
		})
		return
	}
	writeJSON(w, http.StatusOK, means)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
