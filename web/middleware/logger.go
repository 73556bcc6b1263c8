package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamwoolhether/crpt/web/mux"
)

// Logger logs the start and completion of every request.
func Logger(log *slog.Logger) mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v := mux.GetValues(ctx)

			path := r.URL.Path
			if r.URL.RawQuery != "" {
				path += "?" + r.URL.RawQuery
			}

			reqLog := log.With("request_id", v.RequestID, "method", r.Method, "path", path)
			reqLog.Info("request started", "remoteaddr", r.RemoteAddr)

			err := handler(ctx, w, r)

			reqLog.Info("request completed", "statusCode", v.StatusCode, "since", time.Since(v.Now).String())

			return err
		}

		return h
	}

	return m
}
