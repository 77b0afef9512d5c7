// Package api exposes the status HTTP interface for a pipeline run.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
	"github.com/kruzhok-data/org-enricher/internal/metrics"
)

// ProgressSource reports the state of the running pipeline.
type ProgressSource interface {
	Progress() enrich.RunProgress
}

// Server serves health, metrics, and run-progress endpoints while a
// pipeline run is in flight.
type Server struct {
	addr     string
	progress ProgressSource
	logger   *zap.Logger
	router   chi.Router
}

// NewServer constructs a Server listening on the given port.
func NewServer(port int, progress ProgressSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		addr:     fmt.Sprintf(":%d", port),
		progress: progress,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/progress", s.getProgress)
	s.router = r
	return s
}

// Handler returns the router so callers can mount or test it directly.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context finishes, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.logger.Info("status server listening", zap.String("addr", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown status server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("status server: %w", err)
		}
		return nil
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getProgress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.progress.Progress())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
