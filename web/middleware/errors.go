package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"

	"github.com/adamwoolhether/crpt/web"
	"github.com/adamwoolhether/crpt/web/errs"
	"github.com/adamwoolhether/crpt/web/mux"
)

// Errors renders handler errors. Field errors become a 422, *errs.Error
// keeps its status and anything else is logged and hidden behind a 500.
func Errors(log *slog.Logger) mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			if fieldErr, ok := errors.AsType[errs.FieldErrors](err); ok {
				return web.RespondJSON(ctx, w, http.StatusUnprocessableEntity, fieldErr)
			}

			appErr, ok := errors.AsType[*errs.Error](err)
			if !ok {
				appErr = errs.NewInternal(err)
			}

			log.Error(err.Error(),
				"request_id", mux.GetRequestID(ctx),
				"status", appErr.Code,
				"source_err_file", path.Base(appErr.FileName),
				"source_err_func", path.Base(appErr.FuncName),
			)

			if appErr.IsInternal() {
				appErr.Message = http.StatusText(appErr.Code)
			}

			return web.RespondError(ctx, w, appErr)
		}

		return h
	}

	return m
}
