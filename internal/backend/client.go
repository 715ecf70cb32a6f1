package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"skinscan-client/internal/metrics"
)

const (
	// CSRFHeader is the header the backend checks on unsafe requests.
	CSRFHeader = "X-CSRFToken"
	// RequestIDHeader tags each call for log correlation.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 64 * 1024
)

// TokenSource supplies the anti-forgery token attached to unsafe requests.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the single shared HTTP client for the SkinScan backend.
//
// Every request goes through the client's cookie jar, so session and csrftoken
// cookies set by the backend are sent back automatically.
type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client

	csrf    TokenSource
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithJar replaces the default in-memory cookie jar.
func WithJar(jar http.CookieJar) Option {
	return func(c *Client) { c.HTTP.Jar = jar }
}

// WithTimeout sets a per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTP.Timeout = d }
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.HTTP.Transport = rt }
}

// WithLogger sets the logger used for call tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records every call in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient constructs a backend client bound to base.
func NewClient(base string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse backend url: %q is not absolute", base)
	}

	c := &Client{
		BaseURL: u,
		HTTP:    &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.HTTP.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.HTTP.Jar = jar
	}
	return c, nil
}

// SetTokenSource attaches the CSRF token source consulted on unsafe requests.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.csrf = ts
}

// Cookies returns the cookies the jar would send to the backend.
func (c *Client) Cookies() []*http.Cookie {
	if c.HTTP.Jar == nil {
		return nil
	}
	return c.HTTP.Jar.Cookies(c.BaseURL)
}

// ResolveURL joins path onto the base URL. Leading slashes on path are
// ignored, so "api/x/" and "/api/x/" both land under the base path.
func (c *Client) ResolveURL(path string) string {
	base := strings.TrimRight(c.BaseURL.String(), "/")
	return base + "/" + strings.TrimLeft(path, "/")
}

// do performs one backend call. in, when non-nil, is sent as JSON; out, when
// non-nil, receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, method, path, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", endpoint, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.ResolveURL(path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	if unsafeMethod(method) && c.csrf != nil {
		if tok, ok := c.csrf.Token(); ok && tok != "" {
			req.Header.Set(CSRFHeader, tok)
		}
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.metrics.RecordBackendCall(endpoint, method, 0, time.Since(start))
		c.logger.Debug("backend call failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.metrics.RecordBackendCall(endpoint, method, resp.StatusCode, time.Since(start))
	c.logger.Debug("backend call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf, _ := ioReadAllLimit(resp.Body, maxErrorBody)
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(buf),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func unsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// errorMessage extracts the backend's error text. The backend uses "err",
// "error" and "msg" keys depending on the view.
func errorMessage(body []byte) string {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		s := strings.TrimSpace(string(body))
		if len(s) > 200 {
			s = s[:200]
		}
		return s
	}
	for _, k := range []string{"err", "error", "msg", "message"} {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func ioReadAllLimit(r io.Reader, max int64) ([]byte, error) {
	buf := &bytes.Buffer{}
	if max <= 0 {
		return io.ReadAll(r)
	}
	_, err := io.CopyN(buf, r, max+1)
	if err != nil && err != io.EOF {
		return nil, err
	}
	b := buf.Bytes()
	if int64(len(b)) > max {
		return b[:max], nil
	}
	return b, nil
}
