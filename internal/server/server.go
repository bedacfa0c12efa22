// Package server exposes the relay hub over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/BioHazard786/syncwatch/internal/signaling"
)

const shutdownTimeout = 5 * time.Second

// Server bundles the hub, its janitor and the HTTP listener.
type Server struct {
	hub *signaling.Hub
	log *slog.Logger
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr and prepares the server. addr may use port 0, in which
// case Addr reports the port the system picked.
func Listen(addr string, hub *signaling.Hub, allowedOrigins []string, log *slog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	return &Server{
		hub: hub,
		log: log,
		ln:  ln,
		srv: &http.Server{
			Handler:           NewRouter(hub, allowedOrigins, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Addr is the actual listening address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Serve runs the janitor and the HTTP server until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(s.ln)
	}()

	s.log.Info("relay listening", "addr", s.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	s.log.Info("relay shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
