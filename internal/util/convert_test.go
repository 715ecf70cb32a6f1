package util

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int
		wantOK bool
	}{
		{"int", 7, 7, true},
		{"float whole", float64(16), 16, true},
		{"float fraction", 0.5, 0, false},
		{"json int", json.Number("42"), 42, true},
		{"json whole float", json.Number("224.0"), 224, true},
		{"json fraction", json.Number("0.2"), 0, false},
		{"string", "7", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ToInt(%v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestToFloat64(t *testing.T) {
	if f, ok := ToFloat64(json.Number("0.00001")); !ok || f != 0.00001 {
		t.Errorf("ToFloat64(json) = %v, %v", f, ok)
	}
	if f, ok := ToFloat64(3); !ok || f != 3 {
		t.Errorf("ToFloat64(int) = %v, %v", f, ok)
	}
	if _, ok := ToFloat64("3"); ok {
		t.Error("ToFloat64(string) should fail")
	}
}

func TestToIntSlice(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   []int
		wantOK bool
	}{
		{"json array", []any{json.Number("224"), json.Number("224")}, []int{224, 224}, true},
		{"tuple string", "(224, 224)", []int{224, 224}, true},
		{"list string", "[128,96]", []int{128, 96}, true},
		{"bad element", []any{"x"}, nil, false},
		{"number", 3, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToIntSlice(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ToIntSlice mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	m := map[string]any{"test_size": 0.2, "Test size": nil}
	v, ok := Lookup(m, "Test size", "test_size")
	if !ok || v != 0.2 {
		t.Errorf("Lookup = %v, %v; want 0.2, true", v, ok)
	}
	if _, ok := Lookup(m, "missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}

func TestDecodeObject(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantLen int
		wantErr bool
		wantIs  error
	}{
		{"object", `{"job_id": "abc", "start_time": 1700000000}`, 2, false, nil},
		{"string holding object", `"{\"test_size\": 0.2}"`, 1, false, nil},
		{"null", `null`, 0, false, nil},
		{"array", `[1, 2]`, 0, true, ErrNotObject},
		{"number", `7`, 0, true, ErrNotObject},
		{"string holding word", `"default"`, 0, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := DecodeObject([]byte(tt.in))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeObject(%s) should fail", tt.in)
				}
				if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
					t.Errorf("DecodeObject(%s) error = %v, want %v", tt.in, err, tt.wantIs)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeObject(%s) error: %v", tt.in, err)
			}
			if len(m) != tt.wantLen {
				t.Errorf("DecodeObject(%s) = %v, want %d keys", tt.in, m, tt.wantLen)
			}
		})
	}

	m, _ := DecodeObject([]byte(`{"start_time": 1700000000}`))
	if _, ok := m["start_time"].(json.Number); !ok {
		t.Errorf("start_time = %#v, want json.Number", m["start_time"])
	}
	if _, err := DecodeObject([]byte(`{"a":1} {"b":2}`)); err == nil {
		t.Error("expected error for trailing content")
	}
}
