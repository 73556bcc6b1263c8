package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/crpt/client"
	"github.com/adamwoolhether/crpt/throttle"
)

// ErrMissingSignature is returned when CreateDocument is called without
// a signature. No throttle slot is used.
var ErrMissingSignature = errors.New("signature must not be empty")

const tracerName = "github.com/adamwoolhether/crpt/documents"

// API submits documents to the registry. Every call on one API shares a
// single sliding window, so the process never starts more than the
// configured number of calls per period.
type API struct {
	client   *client.Client
	window   *throttle.Window
	endpoint *url.URL
	expected int
	log      *slog.Logger
	tracer   trace.Tracer
}

// New returns an API allowing at most requestLimit calls to start within
// any trailing period. Callers over the limit block until a slot frees.
func New(period time.Duration, requestLimit int, optFns ...Option) (*API, error) {
	if err := (throttle.Config{Capacity: requestLimit, Period: period}).Validate(); err != nil {
		return nil, err
	}

	opts := defaultOptions()
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying documents option: %w", err)
		}
	}

	window, err := throttle.New(requestLimit, period,
		throttle.WithPollInterval(opts.poll),
		throttle.WithMetrics(opts.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}

	clientOpts := []client.Option{
		client.WithLimiter(window),
		client.WithLogger(opts.logger),
	}
	if opts.rt != nil {
		clientOpts = append(clientOpts, client.WithTransport(opts.rt))
	}
	if opts.timeout != nil {
		clientOpts = append(clientOpts, client.WithTimeout(*opts.timeout))
	}
	if opts.userAgent != "" {
		clientOpts = append(clientOpts, client.WithUserAgent(opts.userAgent))
	}

	c, err := client.Build(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("building client: %w", err)
	}

	api := API{
		client:   c,
		window:   window,
		endpoint: opts.baseURL.JoinPath(createPath),
		expected: opts.expected,
		log:      opts.logger,
		tracer:   otel.Tracer(tracerName),
	}

	return &api, nil
}

// Window returns the limiter shared by this API's calls.
func (a *API) Window() *throttle.Window {
	return a.window
}

// CreateDocument submits doc with the given detached signature and returns
// the registry's response body as received. doc is encoded as JSON unless
// it is already a []byte or [json.RawMessage].
//
// The call blocks while the window is full. If ctx ends first the error
// wraps [throttle.ErrWaitingFailed] and no slot is used.
//
// Only the expected status (200 unless set with [WithExpectedStatus])
// yields a body. Any other status, including other 2xx codes, returns
// an empty string and *[client.UnexpectedStatusError], which carries the
// start of the response body.
func (a *API) CreateDocument(ctx context.Context, doc any, signature string) (string, error) {
	if signature == "" {
		return "", ErrMissingSignature
	}

	body, err := encode(doc)
	if err != nil {
		return "", err
	}

	requestID := uuid.NewString()

	ctx, span := a.tracer.Start(ctx, "documents.create", trace.WithAttributes(
		attribute.String("request_id", requestID),
		attribute.Int("document.bytes", len(body)),
	))
	defer span.End()

	req, err := client.Request(ctx, a.endpoint, http.MethodPost,
		client.WithRawPayload(body),
		client.WithHeaders(map[string][]string{
			"Signature":    {signature},
			"X-Request-ID": {requestID},
		}),
	)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}

	var resp bytes.Buffer
	if err := a.client.Do(req, a.expected, client.WithRawBody(&resp)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create document failed")

		if statusErr, ok := errors.AsType[*client.UnexpectedStatusError](err); ok {
			a.log.Warn("document rejected", "request_id", requestID, "status", statusErr.StatusCode)
			return "", statusErr
		}

		return "", fmt.Errorf("create document: %w", err)
	}

	a.log.Debug("document created", "request_id", requestID, "response_bytes", resp.Len())

	return resp.String(), nil
}

func encode(doc any) ([]byte, error) {
	switch v := doc.(type) {
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, errors.New("document is not valid JSON")
		}
		return v, nil
	case []byte:
		if !json.Valid(v) {
			return nil, errors.New("document is not valid JSON")
		}
		return v, nil
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	return b, nil
}
