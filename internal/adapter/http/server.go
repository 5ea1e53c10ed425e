package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/geo"
	"github.com/couchcryptid/flood-risk-service/internal/history"
	"github.com/couchcryptid/flood-risk-service/internal/spatial"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes health, readiness, metrics, and the read API: the gauge
// registry, recurrence lookups, and spatial risk products.
type Server struct {
	httpServer  *http.Server
	gauges      domain.GaugeStore
	assessments domain.AssessmentReader
	recurrence  *history.Service
	logger      *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// the /api routes.
func NewServer(addr string, ready ReadinessChecker, gauges domain.GaugeStore, assessments domain.AssessmentReader, recurrence *history.Service, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		gauges:      gauges,
		assessments: assessments,
		recurrence:  recurrence,
		logger:      logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/gauges", s.handleGauges)
	mux.HandleFunc("GET /api/gauges/{siteID}/return-period", s.handleReturnPeriod)
	mux.HandleFunc("GET /api/risk-surface", s.handleRiskSurface)
	mux.HandleFunc("GET /api/basins", s.handleBasins)

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

type gaugeResponse struct {
	SiteID          string    `json:"site_id"`
	Name            string    `json:"name"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	CurrentFlowCFS  *float64  `json:"current_flow_cfs,omitempty"`
	CurrentHeightFt *float64  `json:"current_height_ft,omitempty"`
	CurrentStage    string    `json:"current_stage"`
	LastUpdated     time.Time `json:"last_updated"`
}

func (s *Server) handleGauges(w http.ResponseWriter, r *http.Request) {
	gauges, err := s.gauges.ActiveGauges(r.Context())
	if err != nil {
		s.logger.Error("listing gauges failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	out := make([]gaugeResponse, 0, len(gauges))
	for _, g := range gauges {
		out = append(out, gaugeResponse{
			SiteID:          g.SiteID,
			Name:            g.Name,
			Latitude:        g.Latitude,
			Longitude:       g.Longitude,
			CurrentFlowCFS:  g.CurrentFlowCFS,
			CurrentHeightFt: g.CurrentHeightFt,
			CurrentStage:    string(g.CurrentStage),
			LastUpdated:     g.LastUpdated,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type returnPeriodResponse struct {
	SiteID                      string   `json:"site_id"`
	DischargeCFS                float64  `json:"discharge_cfs"`
	ReturnPeriodYears           *int     `json:"return_period_years"`
	AnnualExceedanceProbability *float64 `json:"annual_exceedance_probability,omitempty"`
}

func (s *Server) handleReturnPeriod(w http.ResponseWriter, r *http.Request) {
	siteID := r.PathValue("siteID")
	discharge, err := strconv.ParseFloat(r.URL.Query().Get("discharge"), 64)
	if err != nil || discharge < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "discharge must be a non-negative number"})
		return
	}

	gauge, err := s.findGauge(r.Context(), siteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown gauge"})
			return
		}
		s.logger.Error("gauge lookup failed", "site_id", siteID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	years, err := s.recurrence.ReturnPeriod(r.Context(), gauge.ID, discharge)
	if err != nil {
		s.logger.Error("return period lookup failed", "site_id", siteID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	resp := returnPeriodResponse{
		SiteID:            siteID,
		DischargeCFS:      discharge,
		ReturnPeriodYears: years,
	}
	if years != nil {
		p := history.AnnualExceedanceProbability(*years)
		resp.AnnualExceedanceProbability = &p
	}
	writeJSON(w, http.StatusOK, resp)
}

const (
	defaultSurfaceResolution = 50
	maxSurfaceResolution     = 200
)

// handleRiskSurface interpolates the latest per-gauge composite scores into
// a grid. Gauges without an assessment yet are left out of the sample set.
func (s *Server) handleRiskSurface(w http.ResponseWriter, r *http.Request) {
	resolution := defaultSurfaceResolution
	if raw := r.URL.Query().Get("resolution"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2 || v > maxSurfaceResolution {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "resolution must be an integer between 2 and 200",
			})
			return
		}
		resolution = v
	}

	gauges, err := s.gauges.ActiveGauges(r.Context())
	if err != nil {
		s.logger.Error("listing gauges failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	latest, err := s.assessments.LatestAssessments(r.Context())
	if err != nil {
		s.logger.Error("loading assessments failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	samples := make([]spatial.Sample, 0, len(gauges))
	for _, g := range gauges {
		assessment, ok := latest[g.ID]
		if !ok {
			continue
		}
		samples = append(samples, spatial.Sample{
			Location: geo.Point{Lon: g.Longitude, Lat: g.Latitude},
			Value:    assessment.CompositeScore,
		})
	}

	surface, err := spatial.InterpolateSurface(samples, resolution)
	if err != nil {
		s.logger.Error("surface interpolation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, surface)
}

type basinResponse struct {
	Basins []geo.Polygon `json:"basins"`
	Count  int           `json:"count"`
}

// handleBasins returns the Voronoi drainage basins around the active
// gauges, optionally clipped to a bounding box given as
// min_lon,min_lat,max_lon,max_lat query parameters (all four or none).
func (s *Server) handleBasins(w http.ResponseWriter, r *http.Request) {
	bbox, err := parseBBox(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	gauges, err := s.gauges.ActiveGauges(r.Context())
	if err != nil {
		s.logger.Error("listing gauges failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	locations := make([]geo.Point, len(gauges))
	for i, g := range gauges {
		locations[i] = geo.Point{Lon: g.Longitude, Lat: g.Latitude}
	}

	basins := spatial.BuildDrainageBasins(locations, bbox)
	writeJSON(w, http.StatusOK, basinResponse{Basins: basins, Count: len(basins)})
}

func parseBBox(r *http.Request) (*geo.BBox, error) {
	keys := [4]string{"min_lon", "min_lat", "max_lon", "max_lat"}
	var values [4]float64
	present := 0
	for i, key := range keys {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", key)
		}
		values[i] = v
		present++
	}
	switch present {
	case 0:
		return nil, nil
	case 4:
		return &geo.BBox{MinLon: values[0], MinLat: values[1], MaxLon: values[2], MaxLat: values[3]}, nil
	default:
		return nil, errors.New("bounding box requires all of min_lon, min_lat, max_lon, max_lat")
	}
}

func (s *Server) findGauge(ctx context.Context, siteID string) (domain.Gauge, error) {
	gauges, err := s.gauges.ActiveGauges(ctx)
	if err != nil {
		return domain.Gauge{}, err
	}
	for _, g := range gauges {
		if g.SiteID == siteID {
			return g, nil
		}
	}
	return domain.Gauge{}, domain.ErrNotFound
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
