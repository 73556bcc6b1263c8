package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// maxBodySize bounds how much of a request body Decode will read.
const maxBodySize = 1 << 20 // 1MB

// QueryBool extracts a query parameter by key and parses it as a bool.
// A missing parameter yields false without error.
func QueryBool(r *http.Request, key string) (bool, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return false, nil
	}

	v, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("query param[%s] must be boolean: %w", key, err)
	}

	return v, nil
}

// Decode reads a JSON document from the request body into val, rejecting
// unknown fields, then checks val's validate tags.
func Decode[T any](r *http.Request, val *T) error {
	return decode(r, val, true)
}

// DecodeAllowUnknownFields is like Decode but ignores fields val does
// not declare.
func DecodeAllowUnknownFields[T any](r *http.Request, val *T) error {
	return decode(r, val, false)
}

func decode(r *http.Request, val any, strict bool) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if strict {
		decoder.DisallowUnknownFields()
	}

	if err := decoder.Decode(val); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if err := Validate(val); err != nil {
		return err
	}

	return nil
}
