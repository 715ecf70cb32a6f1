package csrf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"skinscan-client/internal/backend"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReadFromCookie(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"only cookie", "csrftoken=abc123", "abc123", true},
		{"among others", "sessionid=xyz; csrftoken=abc123; theme=dark", "abc123", true},
		{"no spaces", "a=1;csrftoken=t0k", "t0k", true},
		{"absent", "sessionid=xyz", "", false},
		{"empty header", "", "", false},
		{"empty value", "csrftoken=", "", false},
		{"prefix only", "xcsrftoken=abc", "", false},
		{"garbage", ";;=;", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ReadFromCookie(tt.header)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ReadFromCookie(%q) = (%q, %v), want (%q, %v)", tt.header, got, ok, tt.want, tt.ok)
			}
		})
	}
}

type fakeClient struct {
	cookies []*http.Cookie
	err     error
	calls   int
}

func (f *fakeClient) RequestCSRFCookie(context.Context) (string, error) {
	f.calls++
	return "CSRF cookie set", f.err
}

func (f *fakeClient) Cookies() []*http.Cookie { return f.cookies }

func TestStore_SyncFromCookie(t *testing.T) {
	fc := &fakeClient{}
	s := NewStore(fc, discardLogger())

	if _, ok := s.SyncFromCookie(); ok {
		t.Fatal("sync without cookie reported success")
	}
	if _, ok := s.Token(); ok {
		t.Fatal("token set without cookie")
	}

	var seen []string
	s.Subscribe(func(tok string) { seen = append(seen, tok) })

	fc.cookies = []*http.Cookie{{Name: "sessionid", Value: "s"}, {Name: CookieName, Value: "abc123"}}
	if tok, ok := s.SyncFromCookie(); !ok || tok != "abc123" {
		t.Fatalf("SyncFromCookie = (%q, %v)", tok, ok)
	}
	if tok, _ := s.Token(); tok != "abc123" {
		t.Errorf("Token = %q", tok)
	}

	// A later miss leaves the cached token in place.
	fc.cookies = nil
	s.SyncFromCookie()
	if tok, _ := s.Token(); tok != "abc123" {
		t.Errorf("Token after miss = %q, want abc123", tok)
	}

	if len(seen) != 2 || seen[0] != "" || seen[1] != "abc123" {
		t.Errorf("subscriber saw %q", seen)
	}
}

func TestStore_FetchAndCacheSwallowsErrors(t *testing.T) {
	fc := &fakeClient{err: errors.New("connection refused")}
	s := NewStore(fc, discardLogger())
	s.Set("previous")

	s.FetchAndCache(context.Background())

	if fc.calls != 1 {
		t.Errorf("calls = %d, want 1", fc.calls)
	}
	if tok, _ := s.Token(); tok != "previous" {
		t.Errorf("Token = %q, want previous", tok)
	}
}

func TestStore_WithBackendClient(t *testing.T) {
	var header string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/get-csrf-token/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "srv-token", Path: "/"})
		w.Write([]byte(`{"message":"CSRF cookie set"}`))
	})
	mux.HandleFunc("/api/logout/", func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get(backend.CSRFHeader)
		w.Write([]byte(`{"msg":"Successfully logged out"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := backend.NewClient(srv.URL, backend.WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	s := NewStore(c, discardLogger())
	c.SetTokenSource(s)

	s.FetchAndCache(context.Background())
	if tok, ok := s.SyncFromCookie(); !ok || tok != "srv-token" {
		t.Fatalf("SyncFromCookie = (%q, %v)", tok, ok)
	}
	if err := c.Logout(context.Background()); err != nil {
		t.Fatal(err)
	}
	if header != "srv-token" {
		t.Errorf("%s = %q, want srv-token", backend.CSRFHeader, header)
	}
}
