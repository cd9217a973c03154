package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gateway-dashboard/internal/dashboard"
	"gateway-dashboard/internal/logger"
	"gateway-dashboard/internal/models"
	"gateway-dashboard/internal/render"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})
)

const version = "1.0.0"

var errBadQuery = errors.New("bad query")

type Server struct {
	router           *mux.Router
	service          *dashboard.Service
	renderer         *render.Renderer
	log              *logger.Logger
	defaultThreshold float64
}

func New(service *dashboard.Service, renderer *render.Renderer, defaultThreshold float64, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		router:           mux.NewRouter(),
		service:          service,
		renderer:         renderer,
		log:              log,
		defaultThreshold: defaultThreshold,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.instrument("/", s.dashboardHandler)).Methods("GET")
	s.router.HandleFunc("/health", s.instrument("/health", s.healthHandler)).Methods("GET")
	s.router.HandleFunc("/api/report", s.instrument("/api/report", s.reportHandler)).Methods("GET")
	s.router.HandleFunc("/api/summary", s.instrument("/api/summary", s.summaryHandler)).Methods("GET")
	s.router.HandleFunc("/api/explain", s.instrument("/api/explain", s.explainHandler)).Methods("GET")
	s.router.Handle("/metrics/prometheus", promhttp.Handler())
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// statusRecorder remembers the status code a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		h(rec, r)

		duration := time.Since(start).Seconds()
		requestDuration.WithLabelValues(r.Method, endpoint).Observe(duration)
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version,
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	// The page still renders its KPIs and charts when no risk column is loaded.
	req.OptionalExplanation = true

	report, err := s.service.Report(r.Context(), req)
	if err != nil {
		s.renderError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Dashboard(&buf, report); err != nil {
		s.log.Error("failed to render dashboard", "session_id", report.SessionID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	report, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	report, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Summary)
}

func (s *Server) explainHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("row") == "" {
		writeError(w, http.StatusBadRequest, dashboard.KindBadRequest, fmt.Errorf("row is required"))
		return
	}
	report, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Explanation)
}

func (s *Server) buildReport(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	req, err := s.parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, dashboard.KindBadRequest, err)
		return nil, false
	}
	report, err := s.service.Report(r.Context(), req)
	if err != nil {
		writeError(w, dashboard.StatusCode(err), dashboard.ErrorKind(err), err)
		return nil, false
	}
	return report, true
}

// parseRequest reads the threshold and row controls from the query string.
func (s *Server) parseRequest(r *http.Request) (dashboard.Request, error) {
	q := r.URL.Query()
	req := dashboard.Request{Threshold: s.defaultThreshold}

	if raw := q.Get("threshold"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("%w: threshold %q is not a number", errBadQuery, raw)
		}
		req.Threshold = t
	}
	if raw := q.Get("row"); raw != "" {
		row, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: row %q is not an integer", errBadQuery, raw)
		}
		req.Row = &row
	}
	return req, nil
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	status, kind := dashboard.StatusCode(err), dashboard.ErrorKind(err)
	if errors.Is(err, errBadQuery) {
		status, kind = http.StatusBadRequest, dashboard.KindBadRequest
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if rerr := s.renderer.Error(w, status, kind, err); rerr != nil {
		s.log.Error("failed to render error page", "error", rerr)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  kind,
	})
}

func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		s.log.Info("server is shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(ctx); err != nil {
			s.log.Error("could not gracefully shutdown the server", "error", err)
		}
		close(done)
	}()

	s.log.Info("server is ready to handle requests", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("could not listen on %s: %w", addr, err)
	}

	<-done
	s.log.Info("server stopped")
	return nil
}
