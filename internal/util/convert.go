package util

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ToString attempts to coerce v into a string.
func ToString(v any) (string, bool) {
	s, ok := v.(string)
	if ok {
		return s, true
	}
	return "", false
}

// ToInt attempts to coerce v into an int.
//
// When decoding JSON into map[string]any with json.Decoder.UseNumber(),
// numbers arrive as json.Number. Float values that carry a fraction are rejected.
func ToInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x != float64(int64(x)) {
			return 0, false
		}
		return int(x), true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i), true
		}
		f, err := x.Float64()
		if err != nil || f != float64(int64(f)) {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}

// ToFloat64 attempts to coerce v into a float64.
func ToFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToIntSlice attempts to coerce a JSON array (or a "(w, h)" tuple string as
// Python prints it) into []int.
func ToIntSlice(v any) ([]int, bool) {
	switch x := v.(type) {
	case []int:
		return x, true
	case []any:
		out := make([]int, 0, len(x))
		for _, e := range x {
			n, ok := ToInt(e)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	case string:
		s := strings.Trim(strings.TrimSpace(x), "()[]")
		if s == "" {
			return []int{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]int, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			n, err := strconv.Atoi(p)
			if err != nil {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	default:
		return nil, false
	}
}

// Lookup returns the first value present in m under any of keys.
func Lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
