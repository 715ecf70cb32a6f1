package fields

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Kind is how a field is edited.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindCheckbox
	KindDropdown
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindCheckbox:
		return "checkbox"
	case KindDropdown:
		return "dropdown"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "text":
		return KindText, nil
	case "number":
		return KindNumber, nil
	case "checkbox":
		return KindCheckbox, nil
	case "dropdown":
		return KindDropdown, nil
	default:
		return 0, fmt.Errorf("unknown field kind %q", s)
	}
}

// Bounds constrains a number field.
type Bounds struct {
	Min  float64
	Max  float64
	Step float64
}

// Field describes one editable retraining option.
type Field struct {
	Label   string
	ID      string
	Value   Value // default
	Kind    Kind
	Bounds  *Bounds  // number fields only
	Options []string // dropdown fields only
}

var (
	// ErrInvalidField is wrapped by every descriptor validation error.
	ErrInvalidField = errors.New("invalid field")
	// ErrInvalidValue is wrapped when a value does not fit its field.
	ErrInvalidValue = errors.New("invalid value")
	// ErrUnknownField is returned for ids the schema does not contain.
	ErrUnknownField = errors.New("unknown field")
)

// Validate checks that the kind, constraints and default value agree.
func (f Field) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: empty id (label %q)", ErrInvalidField, f.Label)
	}
	if f.Bounds != nil && f.Kind != KindNumber {
		return fmt.Errorf("%w %q: bounds on a %s field", ErrInvalidField, f.ID, f.Kind)
	}
	if len(f.Options) > 0 && f.Kind != KindDropdown {
		return fmt.Errorf("%w %q: options on a %s field", ErrInvalidField, f.ID, f.Kind)
	}

	switch f.Kind {
	case KindNumber:
		if f.Bounds == nil {
			return fmt.Errorf("%w %q: number field without bounds", ErrInvalidField, f.ID)
		}
		if !finite(f.Bounds.Min) || !finite(f.Bounds.Max) || !finite(f.Bounds.Step) {
			return fmt.Errorf("%w %q: bounds must be finite", ErrInvalidField, f.ID)
		}
		if f.Bounds.Min > f.Bounds.Max {
			return fmt.Errorf("%w %q: min %v > max %v", ErrInvalidField, f.ID, f.Bounds.Min, f.Bounds.Max)
		}
		if f.Bounds.Step <= 0 {
			return fmt.Errorf("%w %q: step must be positive", ErrInvalidField, f.ID)
		}
	case KindDropdown:
		if len(f.Options) == 0 {
			return fmt.Errorf("%w %q: dropdown without options", ErrInvalidField, f.ID)
		}
	case KindText, KindCheckbox:
	default:
		return fmt.Errorf("%w %q: unknown kind %d", ErrInvalidField, f.ID, int(f.Kind))
	}

	if err := f.Check(f.Value); err != nil {
		return fmt.Errorf("%w %q: default: %w", ErrInvalidField, f.ID, err)
	}
	return nil
}

// Check reports whether v is an acceptable value for f.
func (f Field) Check(v Value) error {
	switch f.Kind {
	case KindCheckbox:
		if v.Kind() != ValueBool {
			return fmt.Errorf("%w: %s field %q needs a bool, got %s", ErrInvalidValue, f.Kind, f.ID, v.Kind())
		}
	case KindNumber:
		if v.IsNull() {
			return nil
		}
		n, ok := v.AsNumber()
		if !ok {
			return fmt.Errorf("%w: %s field %q needs a number, got %s", ErrInvalidValue, f.Kind, f.ID, v.Kind())
		}
		if !finite(n) {
			return fmt.Errorf("%w: %q = %v is not finite", ErrInvalidValue, f.ID, n)
		}
		if f.Bounds != nil && (n < f.Bounds.Min || n > f.Bounds.Max) {
			return fmt.Errorf("%w: %q = %v outside [%v, %v]", ErrInvalidValue, f.ID, n, f.Bounds.Min, f.Bounds.Max)
		}
	case KindDropdown:
		s, ok := v.AsString()
		if !ok {
			return fmt.Errorf("%w: %s field %q needs a string, got %s", ErrInvalidValue, f.Kind, f.ID, v.Kind())
		}
		if !slices.Contains(f.Options, s) {
			return fmt.Errorf("%w: %q = %q is not one of %v", ErrInvalidValue, f.ID, s, f.Options)
		}
	case KindText:
		if !v.IsNull() && v.Kind() != ValueString {
			return fmt.Errorf("%w: %s field %q needs a string, got %s", ErrInvalidValue, f.Kind, f.ID, v.Kind())
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func (f Field) clone() Field {
	out := f
	if f.Bounds != nil {
		b := *f.Bounds
		out.Bounds = &b
	}
	if f.Options != nil {
		out.Options = append([]string{}, f.Options...)
	}
	if list, ok := f.Value.AsStringList(); ok {
		out.Value = StringList(list...)
	}
	return out
}
