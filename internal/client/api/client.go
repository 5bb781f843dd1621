// Package api is the single choke point for calls to the monitoring backend.
// Every request re-reads the bearer token, and a 401 clears the stored
// credentials before the error reaches the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/dryerwatch/internal/common"
	"github.com/dmitrijs2005/dryerwatch/internal/logging"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:5000/api"

// TokenSource provides the current bearer token and forgets it on a 401.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

type Client struct {
	baseURL       string
	tokens        TokenSource
	http          *http.Client
	log           logging.Logger
	onAuthFailure func(ctx context.Context)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithAuthFailureHandler registers fn to run after a 401 has cleared the
// stored credentials. The CLI uses it to drop back to the login prompt.
func WithAuthFailureHandler(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onAuthFailure = fn }
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request sends one call and returns the raw response body on 2xx.
// Header values in headers replace the defaults.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any, headers http.Header) ([]byte, error) {
	resp, err := c.send(ctx, method, endpoint, body, headers, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}
	return data, nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any, headers http.Header, handleAuth bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.log.Warn(ctx, "failed to read token", "error", err)
		}
		if token != "" {
			req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
		}
	}
	for k, vs := range headers {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error(ctx, "api request failed", "endpoint", endpoint, "error", err)
		return nil, &NetworkError{Cause: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized && handleAuth {
		c.handleAuthError(ctx)
		return nil, ErrAuthenticationRequired
	}

	rf := &RequestFailedError{Status: resp.StatusCode, Message: failureMessage(resp, raw)}
	c.log.Warn(ctx, "api request failed", "endpoint", endpoint, "status", resp.StatusCode, "message", rf.Message)
	return nil, rf
}

func (c *Client) handleAuthError(ctx context.Context) {
	if c.tokens != nil {
		if err := c.tokens.Clear(ctx); err != nil {
			c.log.Error(ctx, "failed to clear credentials", "error", err)
		}
	}
	if c.onAuthFailure != nil {
		c.onAuthFailure(ctx)
	}
}

func failureMessage(resp *http.Response, raw []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if msg := errorText(body.Error); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// get runs a GET and decodes the envelope into T.
func get[T any](ctx context.Context, c *Client, endpoint string) (T, error) {
	return call[T](ctx, c, http.MethodGet, endpoint, nil)
}

func call[T any](ctx context.Context, c *Client, method, endpoint string, body any) (T, error) {
	raw, err := c.Request(ctx, method, endpoint, body, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](raw).Unwrap()
}
