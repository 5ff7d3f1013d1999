package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/whoknowsbruh3425/BDA/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadyFunc reports whether the service can answer API requests
type ReadyFunc func() bool

// Server handles health checks, metrics and the dashboard API
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	ready      ReadyFunc
}

// New creates a new server. api is mounted under /api/ when not nil.
func New(addr string, l *logger.Logger, api http.Handler, ready ReadyFunc) *Server {
	mux := http.NewServeMux()

	if ready == nil {
		ready = func() bool { return true }
	}
	s := &Server{
		logger: l,
		ready:  ready,
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	if api != nil {
		mux.Handle("/api/", api)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Handler exposes the root handler for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// Start runs the HTTP server until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("starting dashboard server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve runs the HTTP server on an existing listener
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting dashboard server", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
