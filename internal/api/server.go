package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AaronLay10/TreasureLand/internal/events"
	"github.com/AaronLay10/TreasureLand/internal/session"
	"github.com/AaronLay10/TreasureLand/internal/storage/postgres"
	"github.com/AaronLay10/TreasureLand/internal/wire"
)

// EventLog serves persisted events for /events.
type EventLog interface {
	Query(ctx context.Context, limit int, sessionID string) ([]postgres.EventRow, error)
}

// Options configures a Server.
type Options struct {
	Name           string
	Port           int
	AllowedOrigins []string
	TLS            *TLSConfig
	Auth           *AuthConfig

	// RateLimit is game requests per second per client IP; 0 disables it.
	RateLimit float64
	RateBurst int

	// EventLog is optional; without it /events serves the in-memory buffer.
	EventLog EventLog

	// MQTTConnected reports broker state for /ready. Nil means MQTT is off.
	MQTTConnected func() bool
}

// Server is the HTTP front end of the game.
type Server struct {
	game    *session.Service
	opts    Options
	metrics *Metrics
	limiter *clientLimiter
	mux     *http.ServeMux
}

// New builds a Server around game.
func New(game *session.Service, metrics *Metrics, opts Options) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	s := &Server{
		game:    game,
		opts:    opts,
		metrics: metrics,
		mux:     http.NewServeMux(),
	}
	if opts.RateLimit > 0 {
		s.limiter = newClientLimiter(opts.RateLimit, opts.RateBurst)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/game/start", s.limiter.wrap(s.startHandler))
	s.mux.HandleFunc("POST /api/game/{session_id}/choice", s.limiter.wrap(s.choiceHandler))
	s.mux.HandleFunc("GET /api/game/status/{session_id}", s.limiter.wrap(s.statusHandler))
	s.mux.HandleFunc("GET /api/game/leaderboard", s.limiter.wrap(s.leaderboardHandler))

	s.mux.HandleFunc("GET /health", s.healthHandler)
	s.mux.HandleFunc("GET /ready", s.readyHandler)
	s.mux.HandleFunc("GET /metrics", s.metrics.handler)

	s.mux.HandleFunc("GET /events", s.opts.Auth.Require(s.eventsHandler))
	s.mux.HandleFunc("GET /ws/events", s.opts.Auth.Require(wsEventsHandler))

	s.mux.HandleFunc("GET /{$}", playHandler)
}

// Handler returns the root handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return withCORS(s.opts.AllowedOrigins, s.mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.opts.TLS.Enabled() {
			tlsCfg, err := s.opts.TLS.Load()
			if err != nil {
				errCh <- err
				return
			}
			srv.TLSConfig = tlsCfg
			log.Info().Str("addr", srv.Addr).Msg("HTTPS listening")
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		log.Info().Str("addr", srv.Addr).Msg("HTTP listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		events.CloseAllSubscribers()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, wire.ErrorResponse{Detail: detail})
}

// writeGameError maps service errors onto HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "Game session not found")
	case errors.Is(err, session.ErrAlreadyOver):
		writeError(w, http.StatusBadRequest, "Game is already over")
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func withCORS(origins []string, next http.Handler) http.Handler {
	if len(origins) == 0 {
		return next
	}
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
