// Package authclient attaches a bearer credential to outbound calls, refreshes
// it when it is missing, about to expire, or rejected once, and turns non-2xx
// responses into *RemoteCallError.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.temporal.io/sdk/log"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// refreshTimeout bounds a shared refresh. The flight runs detached from the
// caller that started it, so one caller giving up does not fail the others.
const refreshTimeout = 30 * time.Second

// Request describes one outbound call. Path is joined to the client's base URL.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header
}

// Response is a fully read successful response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client is safe for concurrent use. The credential is the only state shared
// between callers; refreshes are single-flight.
type Client struct {
	baseURL    string
	httpClient *http.Client
	refresher  Refresher
	logger     log.Logger
	now        func() time.Time

	mu    sync.RWMutex
	token Token
	group singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, refresher Refresher, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		refresher:  refresher,
		logger:     log.NewStructuredLogger(slog.Default()),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req with a valid credential. A 401 triggers exactly one refresh and
// one retry; a second 401 is returned as *RemoteCallError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	tok, err := c.validToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, tok)
	if err != nil {
		return nil, err
	}

	if resp.Status == http.StatusUnauthorized {
		c.logger.Warn("Credential rejected, refreshing and retrying once",
			"method", req.Method,
			"path", req.Path,
		)
		tok, err = c.forceRefresh(ctx, tok)
		if err != nil {
			return nil, err
		}
		resp, err = c.send(ctx, req, tok)
		if err != nil {
			return nil, err
		}
	}

	if resp.Status < 200 || resp.Status >= 300 {
		return nil, newRemoteCallError(resp.Status, resp.Body)
	}
	return resp, nil
}

// JSON marshals in (when non-nil), sends the request and decodes the response
// into out (when non-nil and the body is not empty).
func (c *Client) JSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	resp, err := c.Do(ctx, Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) currentToken() Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// validToken returns the cached credential, refreshing first if it is absent or
// inside the expiry skew.
func (c *Client) validToken(ctx context.Context) (Token, error) {
	if tok := c.currentToken(); tok.validAt(c.now()) {
		return tok, nil
	}
	return c.refresh(ctx, func(cur Token) bool { return cur.validAt(c.now()) })
}

// forceRefresh replaces a credential the server rejected. If a concurrent
// caller already swapped in a different valid token, that one is reused.
func (c *Client) forceRefresh(ctx context.Context, rejected Token) (Token, error) {
	return c.refresh(ctx, func(cur Token) bool {
		return cur.AccessToken != rejected.AccessToken && cur.validAt(c.now())
	})
}

func (c *Client) refresh(ctx context.Context, reusable func(Token) bool) (Token, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		if cur := c.currentToken(); reusable(cur) {
			return cur, nil
		}
		rctx, cancel := context.WithTimeout(detached, refreshTimeout)
		defer cancel()
		tok, err := c.refresher.Refresh(rctx)
		if err != nil {
			return Token{}, err
		}
		c.mu.Lock()
		c.token = tok
		c.mu.Unlock()
		c.logger.Debug("Credential refreshed", "expiresAt", tok.ExpiresAt)
		return tok, nil
	})

	select {
	case <-ctx.Done():
		return Token{}, fmt.Errorf("failed to refresh credential: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Token{}, fmt.Errorf("failed to refresh credential: %w", res.Err)
		}
		if res.Shared {
			c.logger.Debug("Joined in-flight credential refresh")
		}
		return res.Val.(Token), nil
	}
}

func (c *Client) send(ctx context.Context, req Request, tok Token) (*Response, error) {
	url := c.baseURL + req.Path

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s %s: %w", req.Method, req.Path, err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}
