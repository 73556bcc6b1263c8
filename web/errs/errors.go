// Package errs defines the errors handlers return to the web layer and
// how they are rendered to callers.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// Error is a handler error carrying the HTTP status it should be
// reported with. The source location is logged but never rendered.
type Error struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	FuncName string `json:"-"`
	FileName string `json:"-"`
	internal bool
}

// New wraps err as a client-visible error with the given status.
func New(code int, err error) *Error {
	return newError(code, err, false)
}

// NewInternal wraps err as a 500 whose message is replaced before it
// reaches the caller.
func NewInternal(err error) *Error {
	return newError(http.StatusInternalServerError, err, true)
}

func newError(code int, err error, internal bool) *Error {
	pc, filename, line, _ := runtime.Caller(2)

	return &Error{
		Code:     code,
		Message:  err.Error(),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
		internal: internal,
	}
}

func (e *Error) Error() string {
	return e.Message
}

// IsInternal reports whether the message must be hidden from callers.
func (e *Error) IsInternal() bool {
	return e.internal
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors is returned by validation and rendered as a 422.
type FieldErrors []FieldError

// NewFieldsError reports a single invalid field.
func NewFieldsError(field string, err error) error {
	return FieldErrors{{Field: field, Err: err.Error()}}
}

func (fe FieldErrors) Error() string {
	d, err := json.Marshal(fe)
	if err != nil {
		return err.Error()
	}
	return string(d)
}

// Fields maps each failed field to its message.
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, fld := range fe {
		m[fld.Field] = fld.Err
	}
	return m
}

// GetFieldErrors returns the FieldErrors in err's chain, or nil.
func GetFieldErrors(err error) FieldErrors {
	fe, ok := errors.AsType[FieldErrors](err)
	if !ok {
		return nil
	}
	return fe
}
