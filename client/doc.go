// Package client provides a configurable HTTP client built on [net/http]
// whose transport can be gated by a limiter from
// [github.com/adamwoolhether/crpt/throttle].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(10 * time.Second),
//		client.WithUserAgent("myapp/1.0"),
//		client.WithThrottle(100, time.Minute),
//	)
//
// With [WithThrottle], at most 100 requests start within any trailing
// minute; the rest block in the transport until a slot frees up or the
// request context ends. [WithLimiter] shares one limiter between several
// clients and [WithTokenBucket] swaps the window for a token bucket.
//
// # Making Requests
//
// Construct a [URL] and [Request], then execute with [Client.Do]:
//
//	u := client.URL("https", "api.example.com", "/v1/resource")
//	req, err := client.Request(ctx, u, http.MethodGet)
//	err = c.Do(req, http.StatusOK, client.WithDestination(&result))
//
// Use [WithRawBody] to keep the response bytes as they arrived.
package client
