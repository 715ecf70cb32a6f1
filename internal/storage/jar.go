package storage

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Jar is an http.CookieJar that mirrors the backend's cookies into a Store.
// Cookies for other hosts are kept in memory only.
type Jar struct {
	base   *url.URL
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	inner   *cookiejar.Jar
	records map[string]Cookie
}

// NewJar returns a jar for baseURL restored from store. Expired cookies are
// dropped on load.
func NewJar(baseURL string, store Store, logger *slog.Logger) (*Jar, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	inner, err := newInner()
	if err != nil {
		return nil, err
	}
	j := &Jar{
		base:    u,
		store:   store,
		logger:  logger,
		now:     time.Now,
		inner:   inner,
		records: make(map[string]Cookie),
	}

	saved, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	now := j.now()
	pruned := 0
	for _, c := range saved {
		if c.Expired(now) {
			pruned++
			continue
		}
		j.records[c.key()] = c
		j.inner.SetCookies(j.urlFor(c), []*http.Cookie{c.HTTPCookie()})
	}
	if pruned > 0 {
		j.persistLocked()
	}
	logger.Debug("cookie jar restored", "cookies", len(j.records), "pruned", pruned)
	return j, nil
}

func newInner() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}

// SetCookies stores cookies and persists the ones set by the backend host.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)
	if !strings.EqualFold(u.Hostname(), j.base.Hostname()) {
		return
	}

	now := j.now()
	changed := false
	for _, hc := range cookies {
		c := Cookie{
			Name:     hc.Name,
			Value:    hc.Value,
			Domain:   strings.TrimPrefix(hc.Domain, "."),
			Path:     hc.Path,
			Secure:   hc.Secure,
			HttpOnly: hc.HttpOnly,
		}
		if c.Path == "" || c.Path[0] != '/' {
			c.Path = defaultPath(u.Path)
		}
		switch {
		case hc.MaxAge < 0:
			c.Expires = now
		case hc.MaxAge > 0:
			c.Expires = now.Add(time.Duration(hc.MaxAge) * time.Second)
		default:
			c.Expires = hc.Expires
		}

		if c.Expired(now) {
			if _, ok := j.records[c.key()]; ok {
				delete(j.records, c.key())
				changed = true
			}
			continue
		}
		j.records[c.key()] = c
		changed = true
	}
	if changed {
		j.persistLocked()
	}
}

// Cookies returns the cookies to send to u.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Saved returns the persisted cookies sorted by name.
func (j *Jar) Saved() []Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Cookie, 0, len(j.records))
	for _, c := range j.records {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].key() < out[b].key() })
	return out
}

// Clear forgets every cookie, in memory and in the store.
func (j *Jar) Clear() error {
	inner, err := newInner()
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner = inner
	j.records = make(map[string]Cookie)
	if err := j.store.Save(nil); err != nil {
		return fmt.Errorf("clear cookie store: %w", err)
	}
	return nil
}

// persistLocked writes the records to the store. Caller holds mu.
// Failures are logged; the in-memory jar stays authoritative.
func (j *Jar) persistLocked() {
	out := make([]Cookie, 0, len(j.records))
	for _, c := range j.records {
		out = append(out, c)
	}
	if err := j.store.Save(out); err != nil {
		j.logger.Warn("failed to persist cookies", "err", err)
	}
}

func (j *Jar) urlFor(c Cookie) *url.URL {
	return &url.URL{Scheme: j.base.Scheme, Host: j.base.Host, Path: c.Path}
}

// defaultPath is the RFC 6265 default-path of a request path.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}
