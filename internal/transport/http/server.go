package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/errs"
	"reviewflow/internal/ports"
	"reviewflow/internal/usecase/trends"
)

// Server exposes a read-only view of the pipeline: health, trend rows,
// and the processed-response count. No mutation endpoints exist.
type Server struct {
	trends *trends.Service
	repo   ports.ReviewRepository
}

func NewServer(trendsService *trends.Service, repo ports.ReviewRepository) *Server {
	return &Server{trends: trendsService, repo: repo}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/trends", s.handleTrends)
		r.Get("/stats", s.handleStats)
	})
	return r
}

// Listen serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "http.server"))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(logCtx, "http server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errs.Wrap(err, "serve http")
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	onlyAnomalies := r.URL.Query().Get("anomaly") == "true"

	rows, err := s.trends.ListTrends(r.Context(), onlyAnomalies)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"trends": rows})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.repo.CountProcessedResponses(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"processed_responses": count})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Warn(ctx, "encode response failed", slog.Any("err", errs.Loggable(err)))
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	logging.Error(ctx, "request failed", slog.Any("err", errs.Loggable(err)))
	writeJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
