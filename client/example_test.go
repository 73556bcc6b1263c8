package client_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	"github.com/adamwoolhether/crpt/client"
	"github.com/adamwoolhether/crpt/throttle"
)

func ExampleBuild() {
	c, err := client.Build(
		client.WithTimeout(10*time.Second),
		client.WithUserAgent("crpt-example/1.0"),
		client.WithThrottle(5, time.Second),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("throttled by", c.Limiter())
	// Output: throttled by 5 per 1s
}

func ExampleURL() {
	u := client.URL("https", "ismp.crpt.ru", "/api/v3/lk/documents/create",
		client.WithQueryStrings(map[string]string{"pg": "milk"}),
	)

	fmt.Println(u.String())
	// Output: https://ismp.crpt.ru/api/v3/lk/documents/create?pg=milk
}

func ExampleRequest() {
	u := client.URL("https", "ismp.crpt.ru", "/api/v3/lk/documents/create")

	req, err := client.Request(context.Background(), u, http.MethodPost,
		client.WithRawPayload([]byte(`{"doc_id":"abc"}`)),
		client.WithHeaders(map[string][]string{"Signature": {"c2lnbmVk"}}),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(req.Method, req.URL.Path, req.Header.Get("Signature"))
	// Output: POST /api/v3/lk/documents/create c2lnbmVk
}

func ExampleClient_Do() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value":"42"}`)
	}))
	defer ts.Close()

	c, _ := client.Build()
	u, _ := url.Parse(ts.URL)
	req, _ := client.Request(context.Background(), u, http.MethodGet)

	var resp struct{ Value string }
	if err := c.Do(req, http.StatusOK, client.WithDestination(&resp)); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(resp.Value)
	// Output: 42
}

func ExampleWithRawBody() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value":"42"}`)
	}))
	defer ts.Close()

	c, _ := client.Build()
	u, _ := url.Parse(ts.URL)
	req, _ := client.Request(context.Background(), u, http.MethodGet)

	var buf bytes.Buffer
	if err := c.Do(req, http.StatusOK, client.WithRawBody(&buf)); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(buf.String())
	// Output: {"value":"42"}
}

func ExampleWithLimiter() {
	shared, err := throttle.New(100, time.Minute)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	a, _ := client.Build(client.WithLimiter(shared))
	b, _ := client.Build(client.WithLimiter(shared))

	fmt.Println(a.Limiter() == b.Limiter())
	// Output: true
}

func ExampleWithTokenBucket() {
	c, err := client.Build(client.WithTokenBucket(10, 5))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(c.Limiter())
	// Output: rps[10] burst[5]
}
