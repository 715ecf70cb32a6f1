// Package csrf keeps the anti-forgery token the backend expects on unsafe
// requests.
//
// The backend issues the token as a csrftoken cookie. The store reads it back
// from the cookie jar into a reactive cell, and the backend client attaches it
// as the X-CSRFToken header.
package csrf

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"skinscan-client/internal/metrics"
	"skinscan-client/internal/store"
)

// CookieName is the cookie the backend stores the token in.
const CookieName = "csrftoken"

// Client is the subset of the backend client the store needs.
type Client interface {
	RequestCSRFCookie(ctx context.Context) (string, error)
	Cookies() []*http.Cookie
}

// Store holds the current token. The zero token means none is known yet.
type Store struct {
	client  Client
	cell    *store.Writable[string]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics records fetches and syncs in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore returns an empty store reading cookies through client.
func NewStore(client Client, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		client: client,
		cell:   store.NewWritable(""),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAndCache asks the backend to issue a token cookie. Failures are logged
// and swallowed; the cached token is left as it was.
func (s *Store) FetchAndCache(ctx context.Context) {
	msg, err := s.client.RequestCSRFCookie(ctx)
	if err != nil {
		s.metrics.RecordCSRF("fetch", false)
		s.logger.Error("failed to fetch csrf token", "err", err)
		return
	}
	s.metrics.RecordCSRF("fetch", true)
	s.logger.Debug("csrf token requested", "message", msg)
}

// ReadFromJar returns the csrftoken cookie the client would send to the backend.
func (s *Store) ReadFromJar() (string, bool) {
	for _, c := range s.client.Cookies() {
		if c.Name == CookieName && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// SyncFromCookie copies the jar's csrftoken into the cell when present.
// An absent cookie leaves the cell untouched.
func (s *Store) SyncFromCookie() (string, bool) {
	tok, ok := s.ReadFromJar()
	s.metrics.RecordCSRF("sync", ok)
	if !ok {
		s.logger.Debug("no csrftoken cookie to sync")
		return "", false
	}
	s.cell.Set(tok)
	return tok, true
}

// Token returns the cached token.
func (s *Store) Token() (string, bool) {
	tok := s.cell.Get()
	return tok, tok != ""
}

// Set overwrites the cached token.
func (s *Store) Set(tok string) {
	s.cell.Set(tok)
}

// Subscribe observes token changes. fn is called immediately with the current
// token, which may be empty.
func (s *Store) Subscribe(fn func(string)) (unsubscribe func()) {
	return s.cell.Subscribe(fn)
}

// ReadFromCookie extracts the csrftoken value from a Cookie header style
// string such as "a=1; csrftoken=abc123". A missing or empty cookie yields
// ("", false).
func ReadFromCookie(cookieHeader string) (string, bool) {
	for _, part := range strings.Split(cookieHeader, ";") {
		name, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || name != CookieName {
			continue
		}
		if value == "" {
			return "", false
		}
		return value, true
	}
	return "", false
}
