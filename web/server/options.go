package server

import (
	"context"
	"log/slog"
	"net"
	"time"
)

// Option configures a Server.
type Option func(*options)

type options struct {
	host            string
	listener        net.Listener
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	shutdownFuncs   []shutdownFunc
}

type shutdownFunc func(ctx context.Context) error

// WithHost sets the listen address. Default is ":8080".
func WithHost(host string) Option {
	return func(opts *options) {
		opts.host = host
	}
}

// WithListener serves on an already bound listener instead of the host.
func WithListener(ln net.Listener) Option {
	return func(opts *options) {
		opts.listener = ln
	}
}

// WithReadTimeout bounds reading a whole request. Default is 5s.
func WithReadTimeout(d time.Duration) Option {
	return func(opts *options) {
		opts.readTimeout = d
	}
}

// WithWriteTimeout bounds writing a response. Default is 10s.
func WithWriteTimeout(d time.Duration) Option {
	return func(opts *options) {
		opts.writeTimeout = d
	}
}

// WithIdleTimeout bounds keep-alive idle time. Default is 120s.
func WithIdleTimeout(d time.Duration) Option {
	return func(opts *options) {
		opts.idleTimeout = d
	}
}

// WithShutdownTimeout bounds how long [Server.Run] drains in-flight
// requests once its context ends. Default is 20s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(opts *options) {
		opts.shutdownTimeout = d
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = log
	}
}

// WithShutdownFunc registers fn to run before the listener is closed.
// Functions run in registration order.
func WithShutdownFunc(fn func(ctx context.Context) error) Option {
	return func(opts *options) {
		opts.shutdownFuncs = append(opts.shutdownFuncs, fn)
	}
}
