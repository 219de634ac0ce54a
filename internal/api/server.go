// Package api serves the tracker over HTTP and streams map ops to browsers
// over a websocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unklstewy/planefinder/internal/maplayer"
	"github.com/unklstewy/planefinder/internal/scan"
	"github.com/unklstewy/planefinder/pkg/config"
	"github.com/unklstewy/planefinder/pkg/tracking"
)

// Scanner is the part of the scan scheduler the API drives.
type Scanner interface {
	ForceScan() bool
	Stats() scan.Stats
}

// Server holds the HTTP router and its dependencies.
type Server struct {
	router  *chi.Mux
	cfg     *config.Config
	tracker *tracking.Tracker
	layer   *maplayer.Layer
	scanner Scanner
	hub     *Hub
	source  string
	logger  *slog.Logger
}

// NewServer wires the routes. hub may be nil to disable /ws.
func NewServer(cfg *config.Config, tr *tracking.Tracker, layer *maplayer.Layer, scanner Scanner, hub *Hub, source string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:  chi.NewRouter(),
		cfg:     cfg,
		tracker: tr,
		layer:   layer,
		scanner: scanner,
		hub:     hub,
		source:  source,
		logger:  logger.With("component", "http"),
	}
	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	// Websocket upgrades need the unwrapped ResponseWriter
	if s.hub != nil {
		r.Get("/ws", s.hub.HandleWebSocket)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Compress(5))

		r.Get("/aircraft", s.handleGetAircraft)
		r.Get("/aircraft/{icao}", s.handleGetAircraftByICAO)
		r.Get("/map.geojson", s.handleGetGeoJSON)
		r.Post("/scan", s.handleForceScan)
		r.Get("/config/prediction", s.handleGetPredictionConfig)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.scanner.Stats()
	status := "ok"
	if stats.Ticks == 0 && stats.Failures > 0 {
		status = "degraded"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
		"source": s.source,
		"scan":   stats,
	})
}

func (s *Server) handleGetAircraft(w http.ResponseWriter, r *http.Request) {
	entities := s.tracker.Snapshot()

	if r.URL.Query().Get("history") != "true" {
		for i := range entities {
			entities[i].History = nil
		}
	}

	center, radiusKm := s.tracker.Area()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(entities),
		"center":    center,
		"radius_km": radiusKm,
		"aircraft":  entities,
	})
}

func (s *Server) handleGetAircraftByICAO(w http.ResponseWriter, r *http.Request) {
	icao := strings.ToLower(chi.URLParam(r, "icao"))

	entity, ok := s.tracker.Entity(icao)
	if !ok {
		http.Error(w, "Aircraft not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, entity)
}

func (s *Server) handleGetGeoJSON(w http.ResponseWriter, r *http.Request) {
	data, err := s.layer.GeoJSON().MarshalJSON()
	if err != nil {
		http.Error(w, "Failed to encode map", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleForceScan(w http.ResponseWriter, r *http.Request) {
	queued := s.scanner.ForceScan()
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"queued": queued,
	})
}

func (s *Server) handleGetPredictionConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.cfg.Prediction)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
