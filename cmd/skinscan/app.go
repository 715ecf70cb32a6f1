package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"skinscan-client/internal/backend"
	"skinscan-client/internal/config"
	"skinscan-client/internal/csrf"
	"skinscan-client/internal/fields"
	"skinscan-client/internal/metrics"
	"skinscan-client/internal/session"
	"skinscan-client/internal/storage"
	"skinscan-client/internal/store"
)

var errUsage = errors.New("usage")

// app wires the client packages together for one command.
type app struct {
	client  *backend.Client
	tokens  *csrf.Store
	guard   *session.Guard
	nav     *session.Recorder
	state   *store.State
	loader  *store.Loader
	schema  fields.Schema
	jar     *storage.Jar
	cookies storage.Store

	logger *slog.Logger
	out    io.Writer
}

func newApp(cfg config.Config, logger *slog.Logger, m *metrics.Metrics, out io.Writer) (*app, error) {
	var cookieStore storage.Store
	switch cfg.CookieStore {
	case config.CookieStoreSQLite:
		s, err := storage.NewSQLiteStore(cfg.CookiePath, logger)
		if err != nil {
			logger.Warn("falling back to memory cookie store", "err", err)
			cookieStore = storage.NewMemoryStore()
		} else {
			cookieStore = s
		}
	default:
		cookieStore = storage.NewMemoryStore()
	}

	jar, err := storage.NewJar(cfg.BackendURL, cookieStore, logger)
	if err != nil {
		cookieStore.Close()
		return nil, err
	}

	client, err := backend.NewClient(cfg.BackendURL,
		backend.WithJar(jar),
		backend.WithTimeout(cfg.HTTPTimeout),
		backend.WithLogger(logger),
		backend.WithMetrics(m),
	)
	if err != nil {
		cookieStore.Close()
		return nil, err
	}

	tokens := csrf.NewStore(client, logger, csrf.WithMetrics(m))
	client.SetTokenSource(tokens)
	tokens.SyncFromCookie()

	schema := fields.Defaults()
	if cfg.FieldsFile != "" {
		f, err := os.Open(cfg.FieldsFile)
		if err != nil {
			cookieStore.Close()
			return nil, fmt.Errorf("open fields file: %w", err)
		}
		schema, err = fields.LoadYAML(f)
		f.Close()
		if err != nil {
			cookieStore.Close()
			return nil, err
		}
	}

	nav := &session.Recorder{}
	state := store.NewState()
	return &app{
		client:  client,
		tokens:  tokens,
		guard:   session.NewGuard(client, nav, logger, m),
		nav:     nav,
		state:   state,
		loader:  store.NewLoader(client, state, logger, m),
		schema:  schema,
		jar:     jar,
		cookies: cookieStore,
		logger:  logger,
		out:     out,
	}, nil
}

func (a *app) close() {
	if err := a.cookies.Close(); err != nil {
		a.logger.Warn("failed to close cookie store", "err", err)
	}
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
