package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"adminconsole/internal/session"
	"adminconsole/pkg/constraints"
	"adminconsole/pkg/logger"

	"go.uber.org/zap"
)

// Client calls the backend on behalf of the console session. Every call
// carries the session token and the cookie jar. A 401 is answered with
// one shared token refresh and a single retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Context
}

// TraceHeader carries the console's trace id to the backend.
const TraceHeader = "X-Trace-ID"

type Option func(*Client)

// WithHTTPClient replaces the transport. A client without a cookie jar gets one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func New(baseURL string, sess *session.Context, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar},
		session:    sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		c.httpClient.Jar = jar
	}
	return c
}

type RequestOptions struct {
	Method string
	Query  url.Values
	Header http.Header
	Body   any
}

// Do calls path and decodes a successful response body into out (which may be nil).
func (c *Client) Do(ctx context.Context, path string, opts RequestOptions, out any) error {
	sent := c.session.Token()
	body, err := c.send(ctx, path, opts, sent)
	if err == nil {
		return decode(path, body, out)
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Status != http.StatusUnauthorized && apiErr.Status != http.StatusForbidden {
		return err
	}
	if isRefreshPath(path) || sent == "" {
		// Refreshing here could only loop.
		c.session.ExpireIf(ctx, sent, "client", constraints.ReasonSessionExpired)
		return err
	}
	if apiErr.Status == http.StatusForbidden {
		return err
	}

	token := c.session.Token()
	if token == "" {
		// The session ended while this call was out.
		return err
	}
	if token == sent {
		var waitErr error
		token, waitErr = c.session.Refresh(ctx, c.refresh)
		if waitErr != nil {
			return waitErr
		}
		if token == "" {
			return err
		}
	}

	logger.Debug("retrying after token refresh", zap.String("path", path))
	body, err = c.send(ctx, path, opts, token)
	if err != nil {
		return err
	}
	return decode(path, body, out)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, path, RequestOptions{Method: http.MethodGet, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, path, RequestOptions{Method: http.MethodPost, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, path, RequestOptions{Method: http.MethodPut, Query: query, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, query url.Values) error {
	return c.Do(ctx, path, RequestOptions{Method: http.MethodDelete, Query: query}, nil)
}

// refresh is the single flight behind every concurrent 401. It only asks
// the backend; the session decides what the answer means.
func (c *Client) refresh(ctx context.Context) string {
	logger.Info("refreshing session token")
	body, err := c.send(ctx, constraints.EndpointRefresh, RequestOptions{Method: http.MethodPost}, "")
	if err != nil {
		logger.Warn("token refresh failed", zap.Error(err))
		return ""
	}

	var res struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &res); err != nil || res.AccessToken == "" {
		logger.Warn("token refresh returned no token")
		return ""
	}

	logger.Info("session token refreshed", logger.Token("token", res.AccessToken))
	return res.AccessToken
}

func (c *Client) send(ctx context.Context, path string, opts RequestOptions, token string) ([]byte, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, opts.Query), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for key, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if opts.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if traceID := logger.TraceID(ctx); traceID != "" && req.Header.Get(TraceHeader) == "" {
		req.Header.Set(TraceHeader, traceID)
	}
	if auth := BearerHeader(token); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: ErrNetwork, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrNetwork, Status: resp.StatusCode, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Debug("backend call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, statusError(path, resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + query.Encode()
	}
	return u
}

// BearerHeader normalizes a stored token into an Authorization value,
// whether or not the token already carries the scheme.
func BearerHeader(token string) string {
	token = session.StripBearer(token)
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

func isRefreshPath(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path == constraints.EndpointRefresh
}

func decode(path string, body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], body...)
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: ErrBackend, Path: path, Body: body, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
