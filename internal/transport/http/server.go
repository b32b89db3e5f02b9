// Package http serves the live view: a websocket stream, the latest
// snapshot and recent history as JSON.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"mqtt-monitor/internal/logger"
	"mqtt-monitor/internal/storage/snapshot"
	"mqtt-monitor/internal/storage/sqlite"
)

const (
	shutdownTimeout = 5 * time.Second

	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// HistoryReader returns recent readings of one metric, newest first.
type HistoryReader interface {
	Recent(ctx context.Context, metric string, limit int) ([]sqlite.Point, error)
}

type Server struct {
	addr    string
	latest  *snapshot.Latest
	history HistoryReader
	ws      http.Handler
	log     logger.Logger
	srv     *http.Server
}

func NewServer(addr string, latest *snapshot.Latest, ws http.Handler, log logger.Logger) *Server {
	return &Server{addr: addr, latest: latest, ws: ws, log: log.With("component", "http")}
}

// WithHistory enables GET /history backed by h.
func (s *Server) WithHistory(h HistoryReader) *Server {
	s.history = h
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /ws", s.ws)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /history", s.handleHistory)
	return mux
}

// Start listens until ctx ends, then shuts the server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting http server", "addr", ln.Addr().String())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := s.latest.Get()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "no snapshot collected yet"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "history is disabled"})
		return
	}

	q := r.URL.Query()
	metric := q.Get("metric")
	if metric == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "metric is required"})
		return
	}

	limit := defaultHistoryLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	points, err := s.history.Recent(r.Context(), metric, limit)
	if err != nil {
		s.log.Error("failed to read history", "metric", metric, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "failed to read history"})
		return
	}
	if points == nil {
		points = []sqlite.Point{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"metric": metric, "points": points})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "internal server error: failed to encode response", http.StatusInternalServerError)
	}
}
