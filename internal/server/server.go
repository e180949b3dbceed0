package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aerolab/winddaq/internal/acquire"
	"github.com/aerolab/winddaq/internal/model"
)

// Config holds the HTTP listener settings.
type Config struct {
	Addr        string
	MetricsPath string
}

// Server is the HTTP/WebSocket transport over one orchestrator.
type Server struct {
	cfg    Config
	logger *slog.Logger
	orch   *acquire.Orchestrator
	http   *http.Server
}

// New creates the transport server around a shared orchestrator handle.
func New(cfg Config, orch *acquire.Orchestrator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		orch:   orch,
	}
	s.http = &http.Server{
		Addr:    cfg.Addr,
		Handler: s.routes(),
	}
	return s
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/readings", s.handleReadings)
	mux.HandleFunc("DELETE /api/readings", s.handleClear)
	mux.HandleFunc("POST /api/recording/start", s.handleRecordingStart)
	mux.HandleFunc("POST /api/recording/stop", s.handleRecordingStop)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWS)

	metricsPath := s.cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	mux.Handle("GET "+metricsPath, promhttp.Handler())

	return mux
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Status())
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a non-negative integer",
			})
			return
		}
		limit = n
	}

	readings, err := s.orch.RecentReadings(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read back readings", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to read readings",
		})
		return
	}
	if readings == nil {
		readings = []model.Reading{}
	}
	writeJSON(w, http.StatusOK, readings)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.ClearReadings(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to clear readings",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	s.orch.StartRecording()
	writeJSON(w, http.StatusOK, map[string]string{"status": "recording_started"})
}

func (s *Server) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.StopRecording(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to flush readings",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recording_stopped"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.orch.Status()

	health := struct {
		Status          string `json:"status"`
		Running         bool   `json:"running"`
		SensorConnected bool   `json:"sensor_connected"`
		Subscribers     int    `json:"subscribers"`
	}{
		Status:          "healthy",
		Running:         s.orch.IsRunning(),
		SensorConnected: status.Connected,
		Subscribers:     status.SubscriberCount,
	}
	if !health.Running {
		health.Status = "stopped"
	} else if !status.Connected {
		health.Status = "degraded"
	}

	writeJSON(w, http.StatusOK, health)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// writeTimeout bounds one WebSocket write.
const writeTimeout = 5 * time.Second
