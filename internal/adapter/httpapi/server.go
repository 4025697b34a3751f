// Package httpapi exposes the service over HTTP: reading ingestion and
// listing, threshold management, exports, and the health, readiness, and
// metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
	"github.com/couchcryptid/water-quality-monitor/internal/export"
	"github.com/couchcryptid/water-quality-monitor/internal/pipeline"
)

const defaultListLimit = 100

// Ingester runs a raw reading through the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, raw domain.RawReading) (pipeline.Result, error)
}

// ReadingLister reads back stored readings, newest first.
type ReadingLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.StoredReading, error)
	ListAll(ctx context.Context) ([]domain.StoredReading, error)
}

// ThresholdManager reads and updates the threshold set.
type ThresholdManager interface {
	Get() domain.Thresholds
	Update(ctx context.Context, partial domain.Thresholds) error
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the water quality API plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	ingester   Ingester
	readings   ReadingLister
	thresholds ThresholdManager
	geocoder   domain.Geocoder // nil when geocoding is disabled
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers all routes. geocoder may
// be nil, in which case place names in submissions are ignored.
func NewServer(addr string, ingester Ingester, readings ReadingLister, thresholds ThresholdManager, ready ReadinessChecker, geocoder domain.Geocoder, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ingester:   ingester,
		readings:   readings,
		thresholds: thresholds,
		geocoder:   geocoder,
		logger:     logger,
	}

	mux.HandleFunc("POST /api/v1/readings", s.handleSubmitReading)
	mux.HandleFunc("GET /api/v1/readings", s.handleListReadings)
	mux.HandleFunc("GET /api/v1/readings/export.csv", s.handleExportCSV)
	mux.HandleFunc("GET /api/v1/readings.geojson", s.handleExportGeoJSON)
	mux.HandleFunc("GET /api/v1/thresholds", s.handleGetThresholds)
	mux.HandleFunc("PUT /api/v1/thresholds", s.handleUpdateThresholds)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

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

// submitRequest is a raw reading plus an optional place name. All
// measurement fields arrive as strings; unparseable values are treated as
// absent rather than rejected.
type submitRequest struct {
	domain.RawReading
	Place string `json:"place,omitempty"`
}

func (s *Server) handleSubmitReading(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	raw := req.RawReading
	if req.Place != "" && raw.Lat == "" && raw.Lon == "" && s.geocoder != nil {
		s.resolvePlace(r.Context(), req.Place, &raw)
	}

	result, err := s.ingester.Ingest(r.Context(), raw)
	if err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable"})
			return
		}
		s.logger.Error("ingest failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// resolvePlace fills coordinates from a place name. Best effort: a lookup
// failure leaves the reading unlocated instead of failing the submission.
func (s *Server) resolvePlace(ctx context.Context, place string, raw *domain.RawReading) {
	result, err := s.geocoder.ForwardGeocode(ctx, place)
	if err != nil {
		s.logger.Warn("geocode lookup failed", "place", place, "error", err)
		return
	}
	if result.PlaceName == "" {
		s.logger.Debug("place not found", "place", place)
		return
	}
	raw.Lat = strconv.FormatFloat(result.Lat, 'f', -1, 64)
	raw.Lon = strconv.FormatFloat(result.Lon, 'f', -1, 64)
}

func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	readings, err := s.readings.ListRecent(r.Context(), limit)
	if err != nil {
		s.logger.Error("list readings failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable"})
		return
	}
	if readings == nil {
		readings = []domain.StoredReading{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"readings": readings})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	readings, err := s.readings.ListAll(r.Context())
	if err != nil {
		s.logger.Error("export csv failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable"})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="readings.csv"`)
	if err := export.WriteCSV(w, readings); err != nil {
		s.logger.Error("write csv failed", "error", err)
	}
}

func (s *Server) handleExportGeoJSON(w http.ResponseWriter, r *http.Request) {
	readings, err := s.readings.ListAll(r.Context())
	if err != nil {
		s.logger.Error("export geojson failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable"})
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	if err := export.WriteGeoJSON(w, readings); err != nil {
		s.logger.Error("write geojson failed", "error", err)
	}
}

func (s *Server) handleGetThresholds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.thresholds.Get())
}

func (s *Server) handleUpdateThresholds(w http.ResponseWriter, r *http.Request) {
	var partial domain.Thresholds
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if err := s.thresholds.Update(r.Context(), partial); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidThreshold):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		case errors.Is(err, domain.ErrStorageUnavailable):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable"})
		default:
			s.logger.Error("threshold update failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, s.thresholds.Get())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
