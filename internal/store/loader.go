package store

import (
	"context"
	"fmt"
	"log/slog"

	"skinscan-client/internal/backend"
	"skinscan-client/internal/metrics"
)

// Source is the subset of the backend client the loader reads from.
type Source interface {
	AllModels(ctx context.Context) ([]backend.Model, error)
	ActiveModel(ctx context.Context) (*backend.Model, error)
	MyRequests(ctx context.Context) ([]backend.UserRequest, error)
	AllRequests(ctx context.Context) ([]backend.UserRequest, error)
}

// Loader fetches backend data and replaces container contents.
// On error the container keeps its previous value.
type Loader struct {
	Source  Source
	State   *State
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// NewLoader returns a loader writing into state.
func NewLoader(src Source, state *State, logger *slog.Logger, m *metrics.Metrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{Source: src, State: state, Logger: logger, Metrics: m}
}

// LoadModels replaces State.Models.
func (l *Loader) LoadModels(ctx context.Context) error {
	models, err := l.Source.AllModels(ctx)
	if err != nil {
		return fmt.Errorf("load models: %w", err)
	}
	l.State.Models.Set(models)
	l.Metrics.RecordStoreUpdate("models")
	l.Logger.Debug("models loaded", "count", len(models))
	return nil
}

// LoadActiveModel replaces State.ActiveModel. A backend with no active model
// sets the container to nil.
func (l *Loader) LoadActiveModel(ctx context.Context) error {
	m, err := l.Source.ActiveModel(ctx)
	if err != nil {
		return fmt.Errorf("load active model: %w", err)
	}
	l.State.ActiveModel.Set(m)
	l.Metrics.RecordStoreUpdate("active_model")
	return nil
}

// LoadMyRequests replaces State.UserRequests with the current user's requests.
func (l *Loader) LoadMyRequests(ctx context.Context) error {
	reqs, err := l.Source.MyRequests(ctx)
	if err != nil {
		return fmt.Errorf("load requests: %w", err)
	}
	l.setRequests(reqs)
	return nil
}

// LoadAllRequests replaces State.UserRequests with every request.
func (l *Loader) LoadAllRequests(ctx context.Context) error {
	reqs, err := l.Source.AllRequests(ctx)
	if err != nil {
		return fmt.Errorf("load all requests: %w", err)
	}
	l.setRequests(reqs)
	return nil
}

func (l *Loader) setRequests(reqs []backend.UserRequest) {
	l.State.UserRequests.Set(reqs)
	l.Metrics.RecordStoreUpdate("user_requests")
	l.Logger.Debug("requests loaded", "count", len(reqs))
}
