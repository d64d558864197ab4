package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/foodgram/backend/internal/logging"
)

// Server represents the HTTP server
type Server struct {
	http     *http.Server
	listener net.Listener
}

// New creates a server for handler listening on addr.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}()
	logging.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
	return nil
}

// Addr returns the bound address once the server has started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.http.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info().Msg("stopping HTTP server")
	return s.http.Shutdown(ctx)
}
