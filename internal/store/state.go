package store

import "skinscan-client/internal/backend"

// State is the set of containers shared across views.
type State struct {
	// Models is every trained model, as last loaded.
	Models *Writable[[]backend.Model]
	// ActiveModel is the model serving predictions, nil when unknown or none.
	ActiveModel *Writable[*backend.Model]
	// UserRequests is the request list currently on display.
	UserRequests *Writable[[]backend.UserRequest]
}

// NewState returns containers with empty initial values.
func NewState() *State {
	return &State{
		Models:       NewWritable([]backend.Model{}),
		ActiveModel:  NewWritable[*backend.Model](nil),
		UserRequests: NewWritable([]backend.UserRequest{}),
	}
}
