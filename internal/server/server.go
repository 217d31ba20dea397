// Package server exposes the health endpoints deploy platforms probe.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// StatusSource reports runtime facts for the status endpoint.
type StatusSource interface {
	GuildCount() int
}

type Server struct {
	http    *http.Server
	log     *zerolog.Logger
	source  StatusSource
	started time.Time
}

func New(addr string, source StatusSource, log *zerolog.Logger) *Server {
	l := log.With().Str("component", "server").Logger()
	s := &Server{
		log:     &l,
		source:  source,
		started: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)

	s.http = &http.Server{Addr: addr, Handler: r}
	return s
}

// Start serves in the background; listen errors other than a clean shutdown
// are logged, not fatal.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.http.Addr).Msg("health server listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("health server stopped")
		}
	}()
}

func (s *Server) Close() error {
	return s.http.Close()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"uptime": time.Since(s.started).String(),
		"guilds": s.source.GuildCount(),
	})
}
