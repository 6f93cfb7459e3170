package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/indicacoes-heatmap/internal/domain"
	"github.com/couchcryptid/indicacoes-heatmap/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// filterParam is the query parameter carrying the age bracket label.
const filterParam = "faixa"

// Dashboard is the service surface the HTTP API exposes.
// It is implemented by *pipeline.Pipeline.
type Dashboard interface {
	sharedobs.ReadinessChecker
	Load(ctx context.Context) (domain.Dataset, error)
	Render(ctx context.Context, label string) (pipeline.Result, error)
	Options(ctx context.Context) ([]string, error)
	Unmatched(ctx context.Context, label string) ([]domain.UnmatchedCity, error)
	Export(ctx context.Context, label string) (int, error)
}

// Server exposes the dashboard API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	dashboard  Dashboard
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API routes mounted under /api.
func NewServer(addr string, dashboard Dashboard, allowedOrigins []string, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dashboard: dashboard,
		logger:    logger,
	}

	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(dashboard))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/filters", s.handleFilters)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/heatmap", s.handleHeatMap)
		r.Get("/unmatched", s.handleUnmatched)
		r.Post("/export", s.handleExport)
		r.Post("/reload", s.handleReload)
	})

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

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := s.dashboard.Options(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": opts})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	res, err := s.dashboard.Render(r.Context(), r.URL.Query().Get(filterParam))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type heatMapResponse struct {
	RenderID string             `json:"render_id"`
	Filter   string             `json:"filter"`
	Points   []domain.HeatPoint `json:"points"`
	Legend   domain.Legend      `json:"legend"`
	Warnings []string           `json:"warnings,omitempty"`
}

func (s *Server) handleHeatMap(w http.ResponseWriter, r *http.Request) {
	res, err := s.dashboard.Render(r.Context(), r.URL.Query().Get(filterParam))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, heatMapResponse{
		RenderID: res.RenderID,
		Filter:   res.Filter,
		Points:   res.HeatMap,
		Legend:   res.Legend,
		Warnings: res.Warnings,
	})
}

func (s *Server) handleUnmatched(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get(filterParam)
	cities, err := s.dashboard.Unmatched(r.Context(), label)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cities == nil {
		cities = []domain.UnmatchedCity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cities": cities})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	n, err := s.dashboard.Export(r.Context(), r.URL.Query().Get(filterParam))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exported_rows": n})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dashboard.Load(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "reloaded",
		"loaded_at":          ds.LoadedAt,
		"measurement_report": ds.MeasurementReport,
		"coordinate_report":  ds.CoordinateReport,
	})
}

// writeError maps service errors to status codes: missing sources are a
// service outage, unknown brackets a bad request.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrMissingSource):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUnknownBracket):
		status = http.StatusBadRequest
	case errors.Is(err, pipeline.ErrExportDisabled):
		status = http.StatusNotImplemented
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "req_id", middleware.GetReqID(r.Context()), "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// requestLogger logs one line per request with status and latency.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.LogAttrs(r.Context(), slog.LevelDebug, "http request",
				slog.String("req_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("latency", time.Since(start)),
			)
		})
	}
}

// writeJSON encodes before writing the header so an unencodable body
// becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		json.NewEncoder(&buf).Encode(map[string]string{"error": fmt.Sprintf("encode response: %v", err)}) //nolint:errcheck // plain strings always encode
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck // best-effort response
}
