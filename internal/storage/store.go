// Package storage persists the client's cookies between runs so a login
// survives process restarts.
package storage

import (
	"net/http"
	"time"
)

// Cookie is a stored cookie with the attributes the jar needs to restore it.
// An empty Domain marks a host-only cookie.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time // zero for session cookies
	Secure   bool
	HttpOnly bool
}

// Expired reports whether c has an expiry at or before now.
func (c Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

func (c Cookie) key() string {
	return c.Domain + ";" + c.Path + ";" + c.Name
}

// HTTPCookie converts c for use with an http.CookieJar.
func (c Cookie) HTTPCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
	}
}

// Store is the interface for cookie persistence.
type Store interface {
	// Load returns every saved cookie.
	Load() ([]Cookie, error)

	// Save replaces the saved set with cookies.
	Save(cookies []Cookie) error

	// Close releases resources.
	Close() error
}
