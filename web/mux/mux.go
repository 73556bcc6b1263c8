// Package mux routes requests to error-returning handlers wrapped in a
// middleware stack, and seeds each request context with trace values.
package mux

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// RequestIDHeader carries the caller's request id. It is echoed back on
// every response.
const RequestIDHeader = "X-Request-ID"

// Handler is an http.Handler that returns an error.
type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// Middleware wraps a Handler.
type Middleware func(handler Handler) Handler

// App registers routes on an [http.ServeMux] and runs each one through
// the configured middleware.
type App struct {
	mux    *http.ServeMux
	mw     []Middleware
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates an App. A no-op tracer and slog.Default are used unless
// overridden.
func New(optFns ...Option) *App {
	var opts options
	for _, opt := range optFns {
		opt(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if opts.tracer == nil {
		opts.tracer = noop.NewTracerProvider().Tracer("")
	}

	return &App{
		mux:    http.NewServeMux(),
		mw:     opts.mw,
		logger: opts.logger,
		tracer: opts.tracer,
	}
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Use appends mw to the stack applied to routes registered afterwards.
func (a *App) Use(mw ...Middleware) {
	a.mw = append(a.mw, mw...)
}

// Get registers fn for GET requests at path.
func (a *App) Get(path string, fn Handler, mw ...Middleware) {
	a.Handle(http.MethodGet, path, fn, mw...)
}

// Post registers fn for POST requests at path.
func (a *App) Post(path string, fn Handler, mw ...Middleware) {
	a.Handle(http.MethodPost, path, fn, mw...)
}

// Handle registers handler for method and path. Route middleware runs
// inside the App's stack.
func (a *App) Handle(method, path string, handler Handler, mw ...Middleware) {
	handler = wrap(mw, handler)
	handler = wrap(a.mw, handler)

	h := func(w http.ResponseWriter, r *http.Request) {
		ctx, span := a.startSpan(w, r)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		if !span.SpanContext().TraceID().IsValid() {
			traceID = uuid.NewString()
		}

		requestID := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		span.SetAttributes(attribute.String("request_id", requestID))

		v := BaseValues{
			TraceID:   traceID,
			RequestID: requestID,
			Now:       time.Now().UTC(),
			Tracer:    a.tracer,
		}

		r = r.WithContext(setValues(ctx, &v))

		if err := handler(r.Context(), w, r); err != nil {
			a.logger.Error("mux handle", "path", r.URL.Path, "error", err)
		}
	}

	a.mux.HandleFunc(method+" "+path, h)
}

// HandleRaw registers a standard [http.Handler] behind the App's stack.
func (a *App) HandleRaw(method, path string, handler http.Handler, mw ...Middleware) {
	a.Handle(method, path, Adapt(handler), mw...)
}

// startSpan opens the request span and injects its context into the
// response headers.
func (a *App) startSpan(w http.ResponseWriter, r *http.Request) (context.Context, trace.Span) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	ctx, span := a.tracer.Start(ctx, "mux.handler")
	span.SetAttributes(attribute.String("path", r.URL.Path), attribute.String("method", r.Method))

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(w.Header()))

	return ctx, span
}

// Adapt converts a standard http.Handler into a Handler.
func Adapt(h http.Handler) Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		h.ServeHTTP(w, r)
		return nil
	}
}

// wrap applies mw so that mw[0] runs first.
func wrap(mw []Middleware, handler Handler) Handler {
	for _, mwFn := range slices.Backward(mw) {
		if mwFn != nil {
			handler = mwFn(handler)
		}
	}

	return handler
}
