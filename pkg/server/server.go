package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the HTTP listener
type Options struct {
	Addr              string
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

// Server is a running HTTP listener
type Server struct {
	srv    *http.Server
	ln     net.Listener
	opts   Options
	logger zerolog.Logger
	done   chan error
}

// Start binds opts.Addr and serves handler in the background.
// It returns once the listener is bound so bind errors surface immediately.
func Start(opts Options, handler http.Handler, logger zerolog.Logger) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = ":3000"
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", opts.Addr, err)
	}

	s := &Server{
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
		},
		ln:     ln,
		opts:   opts,
		logger: logger,
		done:   make(chan error, 1),
	}

	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("HTTP serve error")
		}
		s.done <- err
	}()

	return s, nil
}

// Addr returns the bound address, useful when listening on port 0
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return <-s.done
}

// Run serves until ctx is cancelled, then shuts down within the
// configured timeout
func Run(ctx context.Context, opts Options, handler http.Handler, logger zerolog.Logger) error {
	s, err := Start(opts, handler, logger)
	if err != nil {
		return err
	}
	return s.Wait(ctx)
}

// Wait blocks until ctx is cancelled or the server fails
func (s *Server) Wait(ctx context.Context) error {
	select {
	case err := <-s.done:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP server")

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.Shutdown(shutdownCtx)
}
