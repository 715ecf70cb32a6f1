// Package fields defines the retraining options an admin can edit before
// starting a training job.
package fields

import "fmt"

// Schema is an ordered, immutable set of fields with unique ids.
type Schema struct {
	fields []Field
	index  map[string]int
}

// New validates list and returns it as a schema. Order is preserved.
func New(list []Field) (Schema, error) {
	s := Schema{
		fields: make([]Field, 0, len(list)),
		index:  make(map[string]int, len(list)),
	}
	for i, f := range list {
		if err := f.Validate(); err != nil {
			return Schema{}, fmt.Errorf("field %d: %w", i, err)
		}
		if _, dup := s.index[f.ID]; dup {
			return Schema{}, fmt.Errorf("%w: duplicate id %q", ErrInvalidField, f.ID)
		}
		s.index[f.ID] = len(s.fields)
		s.fields = append(s.fields, f.clone())
	}
	return s, nil
}

// Fields returns a copy of the fields in order.
func (s Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.clone()
	}
	return out
}

// Lookup returns the field with id.
func (s Schema) Lookup(id string) (Field, bool) {
	i, ok := s.index[id]
	if !ok {
		return Field{}, false
	}
	return s.fields[i].clone(), true
}

// Len returns the number of fields.
func (s Schema) Len() int { return len(s.fields) }
