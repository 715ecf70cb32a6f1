package fields

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// descriptor is the on-disk and on-wire shape of a field. It follows the
// form renderer's flags (isNumber, isCheckbox, isDropdown); YAML files may
// name the kind directly instead.
type descriptor struct {
	Label           string    `json:"label" yaml:"label"`
	ID              string    `json:"id" yaml:"id"`
	Value           Value     `json:"value" yaml:"-"`
	Kind            string    `json:"-" yaml:"kind,omitempty"`
	IsNumber        bool      `json:"isNumber,omitempty" yaml:"isNumber,omitempty"`
	IsCheckbox      bool      `json:"isCheckbox,omitempty" yaml:"isCheckbox,omitempty"`
	IsDropdown      bool      `json:"isDropdown,omitempty" yaml:"isDropdown,omitempty"`
	Min             *float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max             *float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Step            *float64  `json:"step,omitempty" yaml:"step,omitempty"`
	DropdownOptions []string  `json:"dropdown_options,omitempty" yaml:"dropdown_options,omitempty"`
	RawValue        yaml.Node `json:"-" yaml:"value"`
}

// MarshalJSON writes the descriptor shape used by the form renderer.
func (f Field) MarshalJSON() ([]byte, error) {
	d := descriptor{
		Label:           f.Label,
		ID:              f.ID,
		Value:           f.Value,
		IsNumber:        f.Kind == KindNumber,
		IsCheckbox:      f.Kind == KindCheckbox,
		IsDropdown:      f.Kind == KindDropdown,
		DropdownOptions: f.Options,
	}
	if f.Bounds != nil {
		d.Min, d.Max, d.Step = &f.Bounds.Min, &f.Bounds.Max, &f.Bounds.Step
	}
	return json.Marshal(d)
}

// MarshalJSON writes the fields as an ordered array.
func (s Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.fields)
}

func (d descriptor) field() (Field, error) {
	f := Field{Label: d.Label, ID: d.ID, Value: d.Value, Options: d.DropdownOptions}

	flags := 0
	for _, set := range []bool{d.IsNumber, d.IsCheckbox, d.IsDropdown} {
		if set {
			flags++
		}
	}
	switch {
	case d.Kind != "":
		if flags > 0 {
			return Field{}, fmt.Errorf("%w %q: both kind and flags set", ErrInvalidField, d.ID)
		}
		k, err := ParseKind(d.Kind)
		if err != nil {
			return Field{}, fmt.Errorf("%w %q: %w", ErrInvalidField, d.ID, err)
		}
		f.Kind = k
	case flags > 1:
		return Field{}, fmt.Errorf("%w %q: more than one kind flag set", ErrInvalidField, d.ID)
	case d.IsNumber:
		f.Kind = KindNumber
	case d.IsCheckbox:
		f.Kind = KindCheckbox
	case d.IsDropdown:
		f.Kind = KindDropdown
	}

	if d.Min != nil || d.Max != nil || d.Step != nil {
		if d.Min == nil || d.Max == nil || d.Step == nil {
			return Field{}, fmt.Errorf("%w %q: min, max and step must be set together", ErrInvalidField, d.ID)
		}
		f.Bounds = &Bounds{Min: *d.Min, Max: *d.Max, Step: *d.Step}
	}
	return f, nil
}

type schemaFile struct {
	Fields []descriptor `yaml:"fields"`
}

// LoadYAML reads a schema from r. The document has a top-level "fields"
// list; each entry uses the same keys as the JSON descriptor.
func LoadYAML(r io.Reader) (Schema, error) {
	var doc schemaFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Schema{}, fmt.Errorf("fields: empty schema document")
		}
		return Schema{}, fmt.Errorf("fields: parse yaml: %w", err)
	}
	if len(doc.Fields) == 0 {
		return Schema{}, fmt.Errorf("fields: schema document has no fields")
	}

	list := make([]Field, 0, len(doc.Fields))
	for i, d := range doc.Fields {
		if !d.RawValue.IsZero() {
			var raw any
			if err := d.RawValue.Decode(&raw); err != nil {
				return Schema{}, fmt.Errorf("fields: entry %d value: %w", i, err)
			}
			v, err := valueFromAny(raw)
			if err != nil {
				return Schema{}, fmt.Errorf("fields: entry %d value: %w", i, err)
			}
			d.Value = v
		}
		f, err := d.field()
		if err != nil {
			return Schema{}, fmt.Errorf("fields: entry %d: %w", i, err)
		}
		list = append(list, f)
	}
	s, err := New(list)
	if err != nil {
		return Schema{}, fmt.Errorf("fields: %w", err)
	}
	return s, nil
}
