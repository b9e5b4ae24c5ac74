package provider_test

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r), nil }

func httpClient(resBody string, code int) *http.Client {
	return &http.Client{
		Timeout: 2 * time.Second,
		Transport: roundTripFunc(func(r *http.Request) *http.Response {
			return &http.Response{
				StatusCode: code,
				Body:       io.NopCloser(strings.NewReader(resBody)),
				Header:     make(http.Header),
			}
		}),
	}
}

// countingClient records every request that reaches the transport.
type countingClient struct {
	mu    sync.Mutex
	calls int
	last  *http.Request
}

func (c *countingClient) client(resBody string, code int) *http.Client {
	return &http.Client{
		Timeout: 2 * time.Second,
		Transport: roundTripFunc(func(r *http.Request) *http.Response {
			c.mu.Lock()
			c.calls++
			c.last = r
			c.mu.Unlock()
			return &http.Response{
				StatusCode: code,
				Body:       io.NopCloser(strings.NewReader(resBody)),
				Header:     make(http.Header),
			}
		}),
	}
}

func (c *countingClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *countingClient) lastReq() *http.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
