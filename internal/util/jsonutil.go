package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject is returned by DecodeObject for any top-level value that is
// not an object, null, or a string holding an object.
var ErrNotObject = errors.New("not a JSON object")

// DecodeObject decodes a backend payload into a loose key/value map.
//
// The backend is inconsistent about nested dicts: some fields arrive as
// objects and others as a JSON string holding the object. Both are accepted,
// null decodes to an empty map, and numbers stay json.Number.
func DecodeObject(b []byte) (map[string]any, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, err
		}
		b = bytes.TrimSpace([]byte(s))
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after offset %d", dec.InputOffset())
	}

	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case nil:
		return map[string]any{}, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, v)
	}
}

// MustJSON renders a value as compact JSON for debug logging.
func MustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<json error: %v>", err)
	}
	return string(b)
}
