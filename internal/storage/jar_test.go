package storage

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func cookieValue(cookies []*http.Cookie, name string) (string, bool) {
	for _, c := range cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func TestJar_PersistsAndRestores(t *testing.T) {
	store := NewMemoryStore()
	base := "http://localhost:8000"
	u := mustURL(t, base+"/api/login/")

	jar, err := NewJar(base, store, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	jar.SetCookies(u, []*http.Cookie{
		{Name: "csrftoken", Value: "abc123", Path: "/", MaxAge: 3600},
		{Name: "sessionid", Value: "s1", Path: "/", HttpOnly: true},
	})

	saved, _ := store.Load()
	if len(saved) != 2 {
		t.Fatalf("saved %d cookies, want 2", len(saved))
	}

	restored, err := NewJar(base, store, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	got := restored.Cookies(mustURL(t, base+"/api/is_logged_in/"))
	if v, ok := cookieValue(got, "csrftoken"); !ok || v != "abc123" {
		t.Errorf("csrftoken = %q, %v", v, ok)
	}
	if v, ok := cookieValue(got, "sessionid"); !ok || v != "s1" {
		t.Errorf("sessionid = %q, %v", v, ok)
	}
}

func TestJar_DeletionIsPersisted(t *testing.T) {
	store := NewMemoryStore()
	base := "http://localhost:8000"
	jar, _ := NewJar(base, store, quietLogger())
	u := mustURL(t, base+"/api/logout/")

	jar.SetCookies(u, []*http.Cookie{{Name: "csrftoken", Value: "abc", Path: "/"}})
	jar.SetCookies(u, []*http.Cookie{{Name: "csrftoken", Value: "", Path: "/", MaxAge: -1}})

	if _, ok := cookieValue(jar.Cookies(u), "csrftoken"); ok {
		t.Error("csrftoken still in jar after deletion")
	}
	if saved, _ := store.Load(); len(saved) != 0 {
		t.Errorf("store still holds %+v", saved)
	}
}

func TestJar_PrunesExpiredOnLoad(t *testing.T) {
	store := NewMemoryStore()
	store.Save([]Cookie{
		{Name: "old", Value: "x", Path: "/", Expires: time.Now().Add(-time.Hour)},
		{Name: "fresh", Value: "y", Path: "/", Expires: time.Now().Add(time.Hour)},
	})

	jar, err := NewJar("http://localhost:8000", store, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	saved := jar.Saved()
	if len(saved) != 1 || saved[0].Name != "fresh" {
		t.Errorf("Saved() = %+v, want only fresh", saved)
	}
	if stored, _ := store.Load(); len(stored) != 1 {
		t.Errorf("store not rewritten after prune: %+v", stored)
	}
}

func TestJar_OtherHostsNotPersisted(t *testing.T) {
	store := NewMemoryStore()
	jar, _ := NewJar("http://localhost:8000", store, quietLogger())

	other := mustURL(t, "http://example.com/")
	jar.SetCookies(other, []*http.Cookie{{Name: "tracker", Value: "1", Path: "/"}})

	if _, ok := cookieValue(jar.Cookies(other), "tracker"); !ok {
		t.Error("other-host cookie not kept in memory")
	}
	if saved, _ := store.Load(); len(saved) != 0 {
		t.Errorf("other-host cookie persisted: %+v", saved)
	}
}

func TestJar_Clear(t *testing.T) {
	store := NewMemoryStore()
	base := "http://localhost:8000"
	jar, _ := NewJar(base, store, quietLogger())
	u := mustURL(t, base+"/")
	jar.SetCookies(u, []*http.Cookie{{Name: "sessionid", Value: "s", Path: "/"}})

	if err := jar.Clear(); err != nil {
		t.Fatal(err)
	}
	if len(jar.Cookies(u)) != 0 {
		t.Error("jar not empty after Clear")
	}
	if saved, _ := store.Load(); len(saved) != 0 {
		t.Errorf("store not empty after Clear: %+v", saved)
	}
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Save([]Cookie) error { return errors.New("disk full") }

func TestJar_SaveFailureKeepsMemory(t *testing.T) {
	jar, err := NewJar("http://localhost:8000", &failingStore{}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	u := mustURL(t, "http://localhost:8000/")
	jar.SetCookies(u, []*http.Cookie{{Name: "csrftoken", Value: "t", Path: "/"}})
	if v, ok := cookieValue(jar.Cookies(u), "csrftoken"); !ok || v != "t" {
		t.Errorf("csrftoken = %q, %v", v, ok)
	}
}

func TestDefaultPath(t *testing.T) {
	tests := map[string]string{
		"":              "/",
		"/":             "/",
		"/api":          "/",
		"/api/login/":   "/api/login",
		"/api/is_admin": "/api",
	}
	for in, want := range tests {
		if got := defaultPath(in); got != want {
			t.Errorf("defaultPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.sqlite")
	store, err := NewSQLiteStore(path, quietLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	in := []Cookie{
		{Name: "csrftoken", Value: "abc123", Path: "/", Expires: exp},
		{Name: "sessionid", Value: "s1", Path: "/", HttpOnly: true, Secure: true},
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteStore(path, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d cookies, want 2", len(got))
	}
	if got[0].Name != "csrftoken" || !got[0].Expires.Equal(exp) {
		t.Errorf("csrftoken = %+v", got[0])
	}
	if !got[1].HttpOnly || !got[1].Secure || !got[1].Expires.IsZero() {
		t.Errorf("sessionid = %+v", got[1])
	}

	if err := reopened.Save(got[:1]); err != nil {
		t.Fatal(err)
	}
	if again, _ := reopened.Load(); len(again) != 1 {
		t.Errorf("Save did not replace: %d cookies", len(again))
	}
}

func TestSQLiteStore_BacksJar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.sqlite")
	base := "http://localhost:8000"

	store, err := NewSQLiteStore(path, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	jar, _ := NewJar(base, store, quietLogger())
	jar.SetCookies(mustURL(t, base+"/api/get-csrf-token/"), []*http.Cookie{
		{Name: "csrftoken", Value: "persisted", Path: "/"},
	})
	store.Close()

	store2, err := NewSQLiteStore(path, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer store2.Close()
	jar2, err := NewJar(base, store2, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := cookieValue(jar2.Cookies(mustURL(t, base+"/")), "csrftoken"); !ok || v != "persisted" {
		t.Errorf("csrftoken = %q, %v", v, ok)
	}
}
