// Package rest holds the outbound HTTP client instances used to talk to the
// backend and the binder that keeps their Authorization header in step with
// the current session.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophboard/internal/common"
)

// Client is one outbound client instance: a base URL plus a set of default
// headers stamped on every request. Per-request headers win over defaults.
type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.RWMutex
	headers http.Header
}

type Option func(*Client)

// WithTransport replaces the underlying round tripper. The default header
// stamping still wraps it.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = &headerTransport{client: c, next: rt}
	}
}

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New returns a client rooted at baseURL that sends apiKey in the apikey
// header and JSON content type on every request.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: http.Header{},
	}
	c.headers.Set(common.APIKeyHeaderName, apiKey)
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")

	c.http = &http.Client{Transport: &headerTransport{client: c, next: http.DefaultTransport}}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// SetAuthorization makes every following request carry "Bearer <token>".
func (c *Client) SetAuthorization(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
}

// ClearAuthorization removes the default Authorization header.
func (c *Client) ClearAuthorization() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Del(common.AuthorizationHeaderName)
}

// Header returns the current default value of the named header.
func (c *Client) Header(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Get(name)
}

func (c *Client) defaults() http.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Clone()
}

type headerTransport struct {
	client *Client
	next   http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.client.defaults() {
		if _, ok := r.Header[k]; ok {
			continue
		}
		r.Header[k] = v
	}
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(r)
}

// Request describes one call relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the body into out. An empty body leaves out untouched.
func (r *Response) Decode(out any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Do sends req and reads the whole response. Only transport failures are
// returned as errors; non-2xx statuses are left to the caller.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	u := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Header {
		httpReq.Header[http.CanonicalHeaderKey(k)] = v
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s %s: %w", method, req.Path, errors.Join(common.ErrUnavailable, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}
