package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/adamwoolhether/crpt/web/mux"
)

// Panics turns a handler panic into an error carrying the stack, so the
// Errors middleware reports it as a 500.
func Panics() mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("PANIC [%v] TRACE[%s]", rec, debug.Stack())
				}
			}()

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
