package fields

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind names the active variant of a Value.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
	ValueStringList
)

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	case ValueBool:
		return "bool"
	case ValueStringList:
		return "string list"
	default:
		return "ValueKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a field value: null, a string, a number, a bool or a list of
// strings. The zero Value is null.
type Value struct {
	kind ValueKind
	s    string
	n    float64
	b    bool
	list []string
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: ValueString, s: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: ValueNumber, n: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: ValueBool, b: b} }

// StringList returns a list value. The slice is copied.
func StringList(items ...string) Value {
	return Value{kind: ValueStringList, list: append([]string{}, items...)}
}

// Kind reports the active variant.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == ValueNull }

// AsString returns the string variant.
func (v Value) AsString() (string, bool) { return v.s, v.kind == ValueString }

// AsNumber returns the numeric variant.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == ValueNumber }

// AsBool returns the boolean variant.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == ValueBool }

// AsStringList returns a copy of the list variant.
func (v Value) AsStringList() ([]string, bool) {
	if v.kind != ValueStringList {
		return nil, false
	}
	return append([]string{}, v.list...), true
}

// Equal reports whether v and o hold the same variant and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueString:
		return v.s == o.s
	case ValueNumber:
		return v.n == o.n
	case ValueBool:
		return v.b == o.b
	case ValueStringList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
	}
	return true
}

// Any returns the bare Go value: nil, string, float64, bool or []string.
func (v Value) Any() any {
	switch v.kind {
	case ValueString:
		return v.s
	case ValueNumber:
		return v.n
	case ValueBool:
		return v.b
	case ValueStringList:
		return append([]string{}, v.list...)
	default:
		return nil
	}
}

// String formats v for display.
func (v Value) String() string {
	switch v.kind {
	case ValueString:
		return v.s
	case ValueNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.b)
	case ValueStringList:
		return "[" + strings.Join(v.list, ", ") + "]"
	default:
		return "null"
	}
}

// MarshalJSON writes the bare value.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON accepts null, a string, a number, a bool or a string array.
func (v *Value) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func valueFromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("number %q: %w", x, err)
		}
		return Number(f), nil
	case float64:
		return Number(x), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case []any:
		items := make([]string, 0, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return Value{}, fmt.Errorf("list element %d is %T, want string", i, e)
			}
			items = append(items, s)
		}
		return StringList(items...), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}
