package mux

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type ctxKey int

const base ctxKey = 1

// BaseValues are the per-request values shared by middleware and handlers.
type BaseValues struct {
	TraceID    string
	RequestID  string
	Now        time.Time
	Tracer     trace.Tracer
	StatusCode int
}

// SetStatusCode records the response status for the current request.
func SetStatusCode(ctx context.Context, statusCode int) {
	v, ok := ctx.Value(base).(*BaseValues)
	if !ok {
		return
	}

	v.StatusCode = statusCode
}

// GetValues returns the request's BaseValues. Outside a request it
// returns placeholder values with nil ids.
func GetValues(ctx context.Context) *BaseValues {
	v, ok := ctx.Value(base).(*BaseValues)
	if !ok {
		return &BaseValues{
			TraceID:   uuid.Nil.String(),
			RequestID: uuid.Nil.String(),
			Tracer:    noop.NewTracerProvider().Tracer(""),
			Now:       time.Now(),
		}
	}

	return v
}

// GetRequestID returns the request id, or the nil uuid outside a request.
func GetRequestID(ctx context.Context) string {
	return GetValues(ctx).RequestID
}

// AddSpan starts a child span with the request's tracer.
func AddSpan(ctx context.Context, spanName string, keyValues ...attribute.KeyValue) (context.Context, trace.Span) {
	v, ok := ctx.Value(base).(*BaseValues)
	if !ok || v.Tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	ctx, span := v.Tracer.Start(ctx, spanName)
	span.SetAttributes(keyValues...)

	return ctx, span
}

func setValues(ctx context.Context, v *BaseValues) context.Context {
	return context.WithValue(ctx, base, v)
}
