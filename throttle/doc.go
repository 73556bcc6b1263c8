// Package throttle caps how many outbound operations a process may start
// within a sliding time window.
//
// # Sliding window
//
// [Window] records the start time of each admission. A caller is admitted
// only while fewer than capacity admissions fall within the trailing
// period; otherwise [Window.Acquire] blocks until the oldest one ages out
// or the context ends:
//
//	w, err := throttle.New(3, time.Second)
//	if err != nil {
//		return err
//	}
//
//	if err := w.Acquire(ctx); err != nil {
//		return err // ctx ended, nothing was counted
//	}
//	// start the operation
//
// Admission order under contention is best-effort FIFO.
//
// # HTTP
//
// Wrap an existing transport with [NewRoundTripper] so every request
// passes through a shared limiter:
//
//	rt, err := throttle.NewRoundTripper(w,
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
//
// [Bucket] offers the same interface on top of a token bucket from
// [golang.org/x/time/rate] when smoothing is preferred over a hard window.
package throttle
