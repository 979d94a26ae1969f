// Package apiclient talks to the task/user HTTP API on behalf of the
// console.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jaekwang-park/todo-console/internal/session"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultBackoff = 200 * time.Millisecond
	maxErrorBody   = 1 << 16
)

type Client struct {
	baseURL        string
	httpClient     *http.Client
	session        *session.Session
	onUnauthorized func()
	retries        int
	backoff        time.Duration
	logger         *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. A client passed to WithHTTPClient is
// copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithRetries sets how many times a failed GET is retried. Mutations are
// never retried.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		c.backoff = backoff
	}
}

// WithUnauthorizedHook runs fn after an authenticated request gets a 401
// and the session has been cleared.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		session:    sess,
		retries:    2,
		backoff:    DefaultBackoff,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.session == nil {
		c.session = session.New(nil)
	}
	return c
}

func (c *Client) Session() *session.Session {
	return c.session
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	public bool
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req := request{method: http.MethodGet, path: path, query: query}

	var err error
	for attempt := 0; ; attempt++ {
		err = c.do(ctx, req, out)
		if err == nil || !retryable(err) || attempt >= c.retries || ctx.Err() != nil {
			return err
		}
		c.logger.DebugContext(ctx, "retrying request", "path", path, "attempt", attempt+1, "error", err)

		timer := time.NewTimer(c.backoff * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return &Error{Kind: ErrUnknown, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return &Error{Kind: ErrUnknown, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if !r.public {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "request failed", "method", r.method, "path", r.path, "error", err)
		return &Error{Kind: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		c.handleFailure(ctx, r, apiErr)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &Error{Kind: ErrUnknown, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func (c *Client) handleFailure(ctx context.Context, r request, apiErr *Error) {
	switch {
	case errors.Is(apiErr, ErrAuthentication) && !r.public:
		c.logger.InfoContext(ctx, "session rejected, signing out", "path", r.path)
		_ = c.session.Clear(ctx)
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	case errors.Is(apiErr, ErrAuthorization), errors.Is(apiErr, ErrNotFound):
		c.logger.WarnContext(ctx, "request rejected",
			"method", r.method, "path", r.path, "status", apiErr.Status, "error", apiErr.Message)
	case errors.Is(apiErr, ErrServer):
		c.logger.ErrorContext(ctx, "server error",
			"method", r.method, "path", r.path, "status", apiErr.Status, "error", apiErr.Message)
	}
}

// decodeError accepts both {"error": "msg"} and
// {"error": {"code": "...", "message": "..."}} bodies.
func decodeError(resp *http.Response) *Error {
	apiErr := &Error{Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		var msg string
		var body struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		switch {
		case json.Unmarshal(payload.Error, &msg) == nil:
			apiErr.Message = msg
		case json.Unmarshal(payload.Error, &body) == nil:
			apiErr.Code = body.Code
			apiErr.Message = body.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
	}
	return apiErr
}
