package throttle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestNewRoundTripper_Validation(t *testing.T) {
	if _, err := NewRoundTripper(nil, nil, http.DefaultTransport); err == nil {
		t.Error("exp error for nil limiter")
	}

	w, err := New(1, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	rt, err := NewRoundTripper(w, nil, nil)
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}
	if rt.(*throttle).next != http.DefaultTransport {
		t.Error("exp nil next to fall back to http.DefaultTransport")
	}
}

func TestThrottleRoundTripper_Behavior(t *testing.T) {
	checkWaitingFailed := func(t *testing.T, err error, caseName string) {
		if !errors.Is(err, ErrWaitingFailed) {
			t.Errorf("%s should have returned ErrWaitingFailed, got: %v", caseName, err)
		}
	}
	checkContextEnded := func(t *testing.T, err error, caseName string) {
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			t.Errorf("%s should have returned context.DeadlineExceeded or context.Canceled, got %v", caseName, err)
		}
		if !errors.Is(err, ErrContextEnded) {
			t.Errorf("%s should have returned ErrContextEnded, got: %v", caseName, err)
		}
	}
	checkFast := func(t *testing.T, duration time.Duration, threshold time.Duration, caseName string) {
		if duration > threshold {
			t.Errorf("[%s] should be fast (< %v); but took %v", caseName, threshold, duration)
		}
	}
	checkSlowedDown := func(t *testing.T, duration time.Duration, minThreshold time.Duration, caseName string) {
		if duration < minThreshold {
			t.Errorf("[%s] execution should be slowed down by throttle (>= %v), but took %v", caseName, minThreshold, duration)
		}
	}

	testCases := []struct {
		name             string
		capacity         int
		period           time.Duration
		numRequests      int
		reqTimeout       time.Duration
		overallTimeout   time.Duration
		serverDelay      time.Duration // Simulate server processing time
		cancelContextIdx int           // Index of request to pre-cancel context for (-1 means none)
		expectReqErrs    int
		errorCheck       func(t *testing.T, err error, caseName string)
		timingCheck      func(t *testing.T, duration time.Duration, caseName string)
	}{
		{
			name:             "High Capacity - Concurrent Load",
			capacity:         100,
			period:           time.Second,
			numRequests:      50,
			overallTimeout:   time.Second,
			serverDelay:      2 * time.Millisecond,
			cancelContextIdx: -1,
			timingCheck: func(t *testing.T, duration time.Duration, caseName string) {
				checkFast(t, duration, 200*time.Millisecond, caseName)
			},
		},
		{
			name:             "Low Capacity - Saturated & Timeout Waiting",
			capacity:         2,
			period:           time.Second,
			numRequests:      5, // 2 admitted, 3 wait past their 50ms deadline
			reqTimeout:       50 * time.Millisecond,
			overallTimeout:   time.Second,
			serverDelay:      time.Millisecond,
			cancelContextIdx: -1,
			expectReqErrs:    3,
			errorCheck:       checkWaitingFailed,
		},
		{
			name:             "Low Capacity - Saturated - Succeed Waiting",
			capacity:         3,
			period:           200 * time.Millisecond,
			numRequests:      8, // batches of 3, 3, 2
			reqTimeout:       2 * time.Second,
			overallTimeout:   3 * time.Second,
			serverDelay:      2 * time.Millisecond,
			cancelContextIdx: -1,
			timingCheck: func(t *testing.T, duration time.Duration, caseName string) {
				// The third batch cannot start before two full periods elapse.
				checkSlowedDown(t, duration, 2*200*time.Millisecond, caseName)
			},
		},
		{
			name:             "Low Capacity - Within Window",
			capacity:         5,
			period:           time.Second,
			numRequests:      5,
			overallTimeout:   500 * time.Millisecond,
			serverDelay:      2 * time.Millisecond,
			cancelContextIdx: -1,
			timingCheck: func(t *testing.T, duration time.Duration, caseName string) {
				checkFast(t, duration, 100*time.Millisecond, caseName)
			},
		},
		{
			name:             "Pre-Cancelled Context Fails Early",
			capacity:         10,
			period:           time.Second,
			numRequests:      1,
			reqTimeout:       time.Second,
			overallTimeout:   500 * time.Millisecond,
			serverDelay:      5 * time.Millisecond,
			cancelContextIdx: 0,
			expectReqErrs:    1,
			errorCheck:       checkContextEnded,
			timingCheck: func(t *testing.T, duration time.Duration, caseName string) {
				checkFast(t, duration, 50*time.Millisecond, caseName)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var callCount int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.serverDelay > 0 {
					time.Sleep(tc.serverDelay)
				}

				atomic.AddInt32(&callCount, 1)

				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"status":"ok"}`))
			}))
			defer server.Close()

			w, err := New(tc.capacity, tc.period, WithPollInterval(10*time.Millisecond))
			if err != nil {
				t.Fatal(err)
			}

			rt, err := NewRoundTripper(w, func() *slog.Logger { return nil }, http.DefaultTransport)
			if err != nil {
				t.Fatal(err)
			}

			client := &http.Client{Transport: rt}

			var wg sync.WaitGroup
			errs := make([]error, tc.numRequests)
			overallCtx, overallCancel := context.WithTimeout(context.Background(), tc.overallTimeout)
			defer overallCancel()

			start := time.Now()

			for i := 0; i < tc.numRequests; i++ {
				wg.Add(1)
				go func(idx int) {
					defer wg.Done()

					var reqCtx context.Context
					var reqCancel context.CancelFunc = func() {}

					if idx == tc.cancelContextIdx {
						reqCtx, reqCancel = context.WithCancel(overallCtx)
						reqCancel()
					} else if tc.reqTimeout > 0 {
						reqCtx, reqCancel = context.WithTimeout(overallCtx, tc.reqTimeout)
					} else {
						reqCtx = overallCtx
					}
					defer reqCancel()

					req, reqErr := http.NewRequestWithContext(reqCtx, http.MethodGet, server.URL, nil)
					if reqErr != nil {
						errs[idx] = fmt.Errorf("failed create req %d: %w", idx, reqErr)
						return
					}

					resp, doErr := client.Do(req)
					errs[idx] = doErr

					if doErr == nil && resp != nil && resp.Body != nil {
						resp.Body.Close()
					} else if doErr == nil && resp == nil {
						errs[idx] = fmt.Errorf("request %d: got nil response and nil error", idx)
					}
				}(i)
			}

			wg.Wait()
			duration := time.Since(start)

			failedRequests := 0
			for i, err := range errs {
				if err != nil {
					failedRequests++
					t.Logf("Request %d failed with: %v", i, err)
					if tc.errorCheck != nil {
						tc.errorCheck(t, err, tc.name)
					}
				}
			}

			if tc.expectReqErrs != failedRequests {
				t.Errorf("expected %d failed requests; got %d", tc.expectReqErrs, failedRequests)
			}

			// Requests that failed in the throttle never reach the server.
			expectedServerCalls := int32(tc.numRequests - failedRequests)
			if got := atomic.LoadInt32(&callCount); expectedServerCalls != got {
				t.Errorf("[%s] Unexpected number of calls reached the server; exp %d, got %d", tc.name, expectedServerCalls, got)
			}

			// Failed waits must not have consumed slots.
			if got := w.Len(); got > tc.numRequests-failedRequests {
				t.Errorf("[%s] window holds %d admissions; only %d requests were sent", tc.name, got, tc.numRequests-failedRequests)
			}

			if tc.timingCheck != nil {
				tc.timingCheck(t, duration, tc.name)
			}
		})
	}
}

func TestThrottleRoundTripper_PassesThroughNextError(t *testing.T) {
	errTransport := errors.New("dial refused")

	w, err := New(5, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	next := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errTransport
	})

	rt, err := NewRoundTripper(w, nil, next)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "http://registry.invalid/create", nil)
	if _, err := rt.RoundTrip(req); !errors.Is(err, errTransport) {
		t.Errorf("exp transport error to pass through unchanged, got: %v", err)
	}

	// The request was admitted before it failed downstream.
	if got := w.Len(); got != 1 {
		t.Errorf("len = %d; want 1", got)
	}
}

func TestThrottleRoundTripper_SampledSaturationLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	w, err := New(1, 50*time.Millisecond, WithPollInterval(5*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	next := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})

	rt, err := NewRoundTripper(w, func() *slog.Logger { return logger }, next)
	if err != nil {
		t.Fatal(err)
	}

	for range 4 {
		req := httptest.NewRequest(http.MethodGet, "http://registry.invalid/create", nil)
		if _, err := rt.RoundTrip(req); err != nil {
			t.Fatalf("round trip: %v", err)
		}
	}

	out := buf.String()
	if got := strings.Count(out, "throttle window saturated"); got != 1 {
		t.Errorf("saturation logged %d times; want 1 per second\n%s", got, out)
	}
	if got := strings.Count(out, "throttle wait complete"); got != 3 {
		t.Errorf("wait completion logged %d times; want 3\n%s", got, out)
	}
}
