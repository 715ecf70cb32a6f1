package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skinscan-client/internal/config"
)

// fakeBackend answers the session, csrf and retrain endpoints the way the
// real server does for an admin session.
func fakeBackend(t *testing.T, loggedIn bool, retrainBody *[]byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/get-csrf-token/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok", Path: "/"})
		w.Write([]byte(`{"message":"CSRF cookie set"}`))
	})
	mux.HandleFunc("/api/is_logged_in/", func(w http.ResponseWriter, r *http.Request) {
		if !loggedIn {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"is_logged_in": false}`))
			return
		}
		w.Write([]byte(`{"is_logged_in": true, "username": "admin"}`))
	})
	mux.HandleFunc("/api/is_admin/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_admin": true}`))
	})
	mux.HandleFunc("/api/retrain/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-CSRFToken") != "tok" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		b, _ := io.ReadAll(r.Body)
		*retrainBody = b
		w.Write([]byte(`{"msg":"Training job started","job_id":"job-1"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testApp(t *testing.T, backendURL string) (*app, *bytes.Buffer) {
	t.Helper()
	cfg := config.Config{
		BackendURL:  backendURL,
		LogLevel:    "error",
		HTTPTimeout: 5 * time.Second,
		CookieStore: config.CookieStoreMemory,
	}
	var out bytes.Buffer
	a, err := newApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, &out)
	if err != nil {
		t.Fatalf("newApp error: %v", err)
	}
	t.Cleanup(a.close)
	return a, &out
}

func TestStatus_Anonymous(t *testing.T) {
	srv := fakeBackend(t, false, nil)
	a, out := testApp(t, srv.URL)

	if err := a.run(context.Background(), "status", nil); err != nil {
		t.Fatalf("status error: %v", err)
	}
	var got statusOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output %q: %v", out.String(), err)
	}
	if got.LoggedIn || got.Admin || !got.CSRF {
		t.Errorf("status = %+v", got)
	}
}

func TestRedirect_Admin(t *testing.T) {
	srv := fakeBackend(t, true, nil)
	a, out := testApp(t, srv.URL)

	if err := a.run(context.Background(), "redirect", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"route": "/admin"`) {
		t.Errorf("output = %s", out.String())
	}
}

func TestRetrain_SubmitsFormPayload(t *testing.T) {
	var body []byte
	srv := fakeBackend(t, true, &body)
	a, out := testApp(t, srv.URL)

	args := []string{"-set", "num_epochs=3", "-set", "input_height=128"}
	if err := a.run(context.Background(), "retrain", args); err != nil {
		t.Fatalf("retrain error: %v", err)
	}
	if !strings.Contains(out.String(), "job-1") {
		t.Errorf("output = %s", out.String())
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("payload %q: %v", body, err)
	}
	if payload["num_epochs"] != float64(3) {
		t.Errorf("num_epochs = %v", payload["num_epochs"])
	}
	size, _ := payload["input_size"].([]any)
	if len(size) != 2 || size[0] != float64(224) || size[1] != float64(128) {
		t.Errorf("input_size = %v", payload["input_size"])
	}
}

func TestRetrain_RejectsInvalidField(t *testing.T) {
	srv := fakeBackend(t, true, nil)
	a, _ := testApp(t, srv.URL)

	if err := a.run(context.Background(), "retrain", []string{"-set", "loss_function=hinge"}); err == nil {
		t.Error("expected error for value outside dropdown options")
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	a, _ := testApp(t, "http://localhost:8000")
	if err := a.run(context.Background(), "frobnicate", nil); !errors.Is(err, errUsage) {
		t.Errorf("error = %v, want errUsage", err)
	}
	if err := a.run(context.Background(), "request", nil); !errors.Is(err, errUsage) {
		t.Errorf("request without -id: error = %v, want errUsage", err)
	}
}

func TestFields_PrintsSchema(t *testing.T) {
	a, out := testApp(t, "http://localhost:8000")
	if err := a.run(context.Background(), "fields", nil); err != nil {
		t.Fatal(err)
	}
	var list []map[string]any
	if err := json.Unmarshal(out.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 20 || list[13]["id"] != "num_classes" {
		t.Errorf("fields output: %d entries", len(list))
	}
}
