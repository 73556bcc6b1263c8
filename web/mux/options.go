package mux

import (
	"log/slog"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Option configures an [App].
type Option func(*options)

type options struct {
	tracer trace.Tracer
	logger *slog.Logger
	mw     []Middleware
}

// priorities orders the known middleware by the name of the constructor
// that built them. Anything else runs between Errors and Panics.
var priorities = map[string]int{
	"Logger":  1,
	"Metrics": 2,
	"Errors":  3,
	"Panics":  100,
}

const customPriority = 4

// WithMiddleware sets the App's stack. Known middleware is sorted so
// Logger wraps Metrics, which wraps Errors, with Panics innermost and
// custom middleware kept in the order given.
func WithMiddleware(mw ...Middleware) Option {
	sorted := slices.Clone(mw)
	slices.SortStableFunc(sorted, func(a, b Middleware) int {
		return priority(a) - priority(b)
	})

	return func(opts *options) {
		opts.mw = sorted
	}
}

// WithTracer sets the tracer used for request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *options) {
		opts.tracer = tracer
	}
}

// WithLogger sets the logger for errors that escape the stack.
func WithLogger(log *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = log
	}
}

func priority(mw Middleware) int {
	if p, ok := priorities[name(mw)]; ok {
		return p
	}
	return customPriority
}

// name returns the enclosing constructor of mw, so a closure built by
// middleware.Logger reports "Logger".
func name(mw Middleware) string {
	fnName := runtime.FuncForPC(reflect.ValueOf(mw).Pointer()).Name()

	if i := strings.LastIndex(fnName, "/"); i >= 0 {
		fnName = fnName[i+1:]
	}

	parts := strings.Split(fnName, ".")
	if len(parts) >= 2 {
		return parts[1]
	}

	return fnName
}
