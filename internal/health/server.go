// Package health exposes a lightweight HTTP health endpoint for container probes
// and the Prometheus scrape endpoint.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"course_catalog_bot/internal/logging"
)

const (
	pingTimeout        = 2 * time.Second
	readHeaderTimeout  = 2 * time.Second
	healthListenPrefix = ":"
)

// Checker is anything that can report its backing connection is alive.
type Checker interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators probed or exposed by the server. Sessions
// is optional and only set when pending actions live in Redis. A nil Gatherer
// leaves /metrics unregistered.
type Dependencies struct {
	Mongo    Checker
	Sessions Checker
	Gatherer prometheus.Gatherer
}

// Server hosts the health endpoint and owns the underlying HTTP server.
type Server struct {
	server *http.Server
	logger *logrus.Entry
	deps   Dependencies
}

type response struct {
	Status   string `json:"status"`
	Mongo    string `json:"mongo,omitempty"`
	Sessions string `json:"sessions,omitempty"`
}

// NewServer constructs a health server that exposes GET /healthz and GET
// /metrics on the provided port.
func NewServer(port int, deps Dependencies, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logging.Logger()
	}

	srv := &Server{
		logger: logger,
		deps:   deps,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	if deps.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf("%s%d", healthListenPrefix, port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv
}

// ListenAndServe starts the health server and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.WithFields(logging.Fields{
		"event": "health_listen",
		"addr":  s.server.Addr,
	}).Info("starting health server")

	if err := s.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			s.logger.WithField("event", "health_stopped").Info("health server stopped")
			return nil
		}

		return fmt.Errorf("health server listen: %w", err)
	}

	s.logger.WithField("event", "health_stopped").Info("health server stopped")
	return nil
}

// Shutdown gracefully stops the health server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := response{Status: "ok"}

	ctx := r.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if s.deps.Mongo == nil {
		resp.Mongo = "error"
		s.logger.WithField("event", "health_mongo_missing").Warn("mongo checker is not configured for health endpoint")
	} else if err := s.ping(ctx, s.deps.Mongo); err != nil {
		resp.Mongo = "error"
		s.logger.WithFields(logging.Fields{
			"event": "health_mongo_error",
		}).WithError(err).Warn("mongo ping failed during health check")
	}

	if s.deps.Sessions != nil {
		if err := s.ping(ctx, s.deps.Sessions); err != nil {
			resp.Sessions = "error"
			s.logger.WithFields(logging.Fields{
				"event": "health_sessions_error",
			}).WithError(err).Warn("session store ping failed during health check")
		}
	}

	if resp.Mongo != "" || resp.Sessions != "" {
		resp.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WithField("event", "health_write_error").WithError(err).Error("failed to encode health response")
	}
}

func (s *Server) ping(ctx context.Context, checker Checker) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return checker.Ping(pingCtx)
}
