package store

import (
	"context"
	"errors"
	"testing"

	"skinscan-client/internal/backend"
)

type fakeSource struct {
	models []backend.Model
	active *backend.Model
	mine   []backend.UserRequest
	all    []backend.UserRequest
	err    error
}

func (f *fakeSource) AllModels(context.Context) ([]backend.Model, error) { return f.models, f.err }
func (f *fakeSource) ActiveModel(context.Context) (*backend.Model, error) {
	return f.active, f.err
}
func (f *fakeSource) MyRequests(context.Context) ([]backend.UserRequest, error) {
	return f.mine, f.err
}
func (f *fakeSource) AllRequests(context.Context) ([]backend.UserRequest, error) {
	return f.all, f.err
}

func TestLoader_ReplacesContainers(t *testing.T) {
	src := &fakeSource{
		models: []backend.Model{{Version: "1"}, {Version: "2"}},
		active: &backend.Model{Version: "2"},
		mine:   []backend.UserRequest{{RequestID: 5}},
		all:    []backend.UserRequest{{RequestID: 5}, {RequestID: 6}},
	}
	state := NewState()
	l := NewLoader(src, state, nil, nil)
	ctx := context.Background()

	var notified int
	state.UserRequests.Subscribe(func([]backend.UserRequest) { notified++ })

	if err := l.LoadModels(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.LoadActiveModel(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.LoadMyRequests(ctx); err != nil {
		t.Fatal(err)
	}
	if len(state.UserRequests.Get()) != 1 {
		t.Errorf("after LoadMyRequests: %d requests", len(state.UserRequests.Get()))
	}
	if err := l.LoadAllRequests(ctx); err != nil {
		t.Fatal(err)
	}

	if len(state.Models.Get()) != 2 {
		t.Errorf("Models = %d, want 2", len(state.Models.Get()))
	}
	if am := state.ActiveModel.Get(); am == nil || am.Version != "2" {
		t.Errorf("ActiveModel = %+v", am)
	}
	if len(state.UserRequests.Get()) != 2 {
		t.Errorf("UserRequests = %d, want 2", len(state.UserRequests.Get()))
	}
	if notified != 3 {
		t.Errorf("subscriber called %d times, want 3", notified)
	}
}

func TestLoader_ErrorKeepsPrevious(t *testing.T) {
	state := NewState()
	state.Models.Set([]backend.Model{{Version: "9"}})
	boom := errors.New("boom")
	l := NewLoader(&fakeSource{err: boom}, state, nil, nil)

	if err := l.LoadModels(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("LoadModels error = %v, want wrapped boom", err)
	}
	if got := state.Models.Get(); len(got) != 1 || got[0].Version != "9" {
		t.Errorf("Models = %+v, want previous value", got)
	}
}
