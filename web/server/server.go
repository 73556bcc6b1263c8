package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server wraps an [http.Server] with context-driven graceful shutdown.
type Server struct {
	srv             *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration
	logger          *slog.Logger
	shutdownFuncs   []shutdownFunc
}

// New creates a Server for handler.
func New(handler http.Handler, optFns ...Option) *Server {
	o := options{
		host:            ":8080",
		readTimeout:     5 * time.Second,
		writeTimeout:    10 * time.Second,
		idleTimeout:     120 * time.Second,
		shutdownTimeout: 20 * time.Second,
		logger:          slog.Default(),
	}
	for _, opt := range optFns {
		opt(&o)
	}

	return &Server{
		srv: &http.Server{
			Addr:         o.host,
			Handler:      handler,
			ReadTimeout:  o.readTimeout,
			WriteTimeout: o.writeTimeout,
			IdleTimeout:  o.idleTimeout,
			ErrorLog:     slog.NewLogLogger(o.logger.Handler(), slog.LevelError),
		},
		listener:        o.listener,
		shutdownTimeout: o.shutdownTimeout,
		logger:          o.logger,
		shutdownFuncs:   o.shutdownFuncs,
	}
}

// Run serves until ctx ends, then shuts down gracefully. It returns nil
// on a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln := s.listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", s.srv.Addr); err != nil {
			return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
		}
	}

	serverErrs := make(chan error, 1)
	go func() {
		s.logger.Info("server started", "addr", ln.Addr().String())
		serverErrs <- s.srv.Serve(ln)
	}()

	select {
	case err := <-serverErrs:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown started", "cause", context.Cause(ctx))

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}

		s.logger.Info("shutdown complete")
		return nil
	}
}

// Shutdown runs the registered shutdown functions in order, then drains
// in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, fn := range s.shutdownFuncs {
		if err := fn(ctx); err != nil {
			s.logger.Error("shutdown func", "error", err)
		}
	}

	if err := s.srv.Shutdown(ctx); err != nil {
		_ = s.srv.Close()
		return fmt.Errorf("server didn't stop gracefully: %w", err)
	}

	return nil
}
