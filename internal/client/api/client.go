// Package api implements the REST client for the Guardget backend. It owns
// request encoding, bearer-token attachment from the session store, per-call
// timeouts and the translation of error responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guardget/guardget/internal/client/session"
)

// Client talks to the backend REST API. Every call attaches the bearer token
// from the session store when one is present and runs under the configured
// timeout. A 401 from the server clears the session and fires the
// onUnauthorized hook; nothing is retried automatically.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	sessions       session.Store
	onUnauthorized func()
}

type Option func(*Client)

// WithHTTPClient substitutes the underlying transport. Tests use it to point
// the client at an httptest server with a custom transport if needed.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithOnUnauthorized installs a hook invoked after any 401 response, once
// the session has been cleared.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, timeout time.Duration, sessions session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
		sessions:   sessions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	sess, err := c.sessions.Load()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if sess.LoggedIn() {
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}
	return req, nil
}

// do executes one API call. When out is non-nil the 2xx response body is
// decoded into it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// stream executes one API call and hands the raw 2xx body to the caller,
// who must close it to release the request's deadline timer.
func (c *Client) stream(ctx context.Context, method, path string) (io.ReadCloser, error) {
	resp, err := c.send(ctx, method, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		cancel()
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	}

	defer cancel()
	defer resp.Body.Close()
	return nil, c.responseError(resp)
}

// responseError turns a non-2xx response into an *Error carrying the server
// message. A 401 additionally tears the session down.
func (c *Client) responseError(resp *http.Response) error {
	msg := fmt.Sprintf("request failed: %s", resp.Status)

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil && body.Message != "" {
		msg = body.Message
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = c.sessions.Clear()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}

	return &Error{StatusCode: resp.StatusCode, Message: msg}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	c.cancel()
	return c.ReadCloser.Close()
}
