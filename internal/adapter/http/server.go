// Package http exposes the hazemap API surface: ingestion endpoints, the
// combined map snapshot, bulk erase, and the usual health/metrics routes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazemap/hazemap-api/internal/config"
	"github.com/hazemap/hazemap-api/internal/domain"
	"github.com/hazemap/hazemap-api/internal/report"
)

// Request bodies are small JSON objects; anything larger is abuse.
const maxBodyBytes = 1 << 20

// ReportService is the orchestration layer behind the API routes.
type ReportService interface {
	Ingest(ctx context.Context, kind domain.Kind, payload map[string]any) (string, error)
	Snapshot(ctx context.Context) (domain.Snapshot, error)
	EraseAll(ctx context.Context) report.EraseResult
	CheckReadiness(ctx context.Context) error
}

// Server serves the API. svc may be nil when the store handle could not be
// initialized at bootstrap; every /api route then short-circuits to a 500
// instead of the process crashing mid-request.
type Server struct {
	httpServer *http.Server
	svc        ReportService
	logger     *slog.Logger
}

// NewServer creates the HTTP server with all API and operational routes.
func NewServer(cfg *config.Config, svc ReportService, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         cfg.HTTPAddr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		logger: logger,
	}

	mux.HandleFunc("GET /api/data", s.guard(s.handleData))
	mux.HandleFunc("GET /api/stream/sensor", s.guard(s.handleData))
	mux.HandleFunc("POST /api/add/sensor", s.guard(s.handleAdd(domain.KindSensor)))
	mux.HandleFunc("POST /api/add/citizen", s.guard(s.handleAdd(domain.KindCitizen)))
	mux.HandleFunc("POST /api/add/pre", s.guard(s.handleAdd(domain.KindPre)))
	mux.HandleFunc("DELETE /api/delete/all", s.guard(s.handleDeleteAll))
	mux.HandleFunc("POST /api/delete/all", s.guard(s.handleDeleteAll))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer.Handler = requestLogger(logger, cors(cfg.CORSAllowedOrigin, mux))

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

// guard short-circuits API routes when the store handle was unavailable at
// bootstrap. Operational routes (health, metrics) stay reachable.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.svc == nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage unavailable"})
			return
		}
		next(w, r)
	}
}

var addMessages = map[domain.Kind]string{
	domain.KindSensor:  "sensor reading stored",
	domain.KindCitizen: "citizen report stored",
	domain.KindPre:     "pre-report stored",
}

func (s *Server) handleAdd(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		id, err := s.svc.Ingest(r.Context(), kind, payload)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store record"})
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"message": addMessages[kind],
			"id":      id,
		})
	}
}

// dataResponse flattens the snapshot fields next to an optional error, so a
// failed combined read still carries empty arrays the frontend can render.
type dataResponse struct {
	domain.Snapshot
	Error string `json:"error,omitempty"`
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dataResponse{
			Snapshot: snap,
			Error:    "failed to read one or more collections",
		})
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Snapshot: snap})
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	res := s.svc.EraseAll(r.Context())
	if !res.OK() {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok":      false,
			"error":   "bulk erase failed",
			"detail":  res.Failed,
			"deleted": res.Deleted,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"deleted": res.Deleted,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "store handle not initialized",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.svc.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
