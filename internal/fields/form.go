package fields

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Form is the live, editable state derived from a schema.
type Form struct {
	schema Schema
	values map[string]Value
}

// NewForm returns a form holding the schema's defaults.
func (s Schema) NewForm() *Form {
	f := &Form{schema: s}
	f.Reset()
	return f
}

// Reset restores every value to its default.
func (f *Form) Reset() {
	f.values = make(map[string]Value, f.schema.Len())
	for _, fld := range f.schema.fields {
		f.values[fld.ID] = fld.clone().Value
	}
}

// Get returns the current value of id.
func (f *Form) Get(id string) (Value, bool) {
	v, ok := f.values[id]
	return v, ok
}

// Set replaces the value of id after checking it against the field.
func (f *Form) Set(id string, v Value) error {
	fld, ok := f.schema.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	if err := fld.Check(v); err != nil {
		return err
	}
	f.values[id] = v
	return nil
}

// SetText parses raw according to the field's kind and sets it. An empty
// string clears number and text fields to null.
func (f *Form) SetText(id, raw string) error {
	fld, ok := f.schema.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	raw = strings.TrimSpace(raw)

	var v Value
	switch fld.Kind {
	case KindCheckbox:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: %q: %q is not a bool", ErrInvalidValue, id, raw)
		}
		v = Bool(b)
	case KindNumber:
		if raw == "" || raw == "null" {
			v = Null()
			break
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: %q: %q is not a number", ErrInvalidValue, id, raw)
		}
		v = Number(n)
	default:
		if raw == "" && fld.Kind == KindText {
			v = Null()
			break
		}
		v = String(raw)
	}
	return f.Set(id, v)
}

// Fields returns the schema fields with their current values in place of
// the defaults.
func (f *Form) Fields() []Field {
	out := f.schema.Fields()
	for i := range out {
		out[i].Value = f.values[out[i].ID]
	}
	return out
}

// RetrainPayload serializes the form keyed by field id. input_width and
// input_height are folded into the input_size [width, height] pair the
// retrain endpoint expects.
func (f *Form) RetrainPayload() map[string]any {
	out := make(map[string]any, len(f.values))
	for _, fld := range f.schema.fields {
		v := f.values[fld.ID]
		if n, ok := v.AsNumber(); ok && n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			out[fld.ID] = int64(n)
			continue
		}
		out[fld.ID] = v.Any()
	}

	w, wok := out["input_width"]
	h, hok := out["input_height"]
	if wok && hok {
		out["input_size"] = []any{w, h}
		delete(out, "input_width")
		delete(out, "input_height")
	}
	return out
}
