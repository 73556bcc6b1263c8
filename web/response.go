package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/crpt/web/errs"
	"github.com/adamwoolhether/crpt/web/mux"
)

// RespondJSON writes data as the JSON body with the given status and
// records the status for request logging.
func RespondJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) error {
	mux.SetStatusCode(ctx, statusCode)

	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err = w.Write(jsonData); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

// RespondError renders err with its own status code.
func RespondError(ctx context.Context, w http.ResponseWriter, err *errs.Error) error {
	return RespondJSON(ctx, w, err.Code, err)
}
