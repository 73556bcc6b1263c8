// Package crpt exposes the throttled document registry client.
package crpt

import (
	"time"

	"github.com/adamwoolhether/crpt/documents"
)

// NewAPI instantiates a *documents.API allowing at most requestLimit
// calls to start within any period. Options are those of [documents.New].
func NewAPI(period time.Duration, requestLimit int, opts ...documents.Option) (*documents.API, error) {
	return documents.New(period, requestLimit, opts...)
}
