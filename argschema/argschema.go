// Package argschema implements the Argument Schema model (spec.md §3, §4.1):
// declared input fields for a unit, and validation/coercion of caller inputs
// against them.
package argschema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/branchrun/agentry/errtax"
)

// ScalarType is one of the four argument value kinds a field may declare.
type ScalarType string

const (
	Text    ScalarType = "text"
	Integer ScalarType = "integer"
	Real    ScalarType = "real"
	Boolean ScalarType = "boolean"
)

// Field declares one named, typed input to a Function Specification.
type Field struct {
	Name          string
	Type          ScalarType
	Description   string
	Optional      bool
	AllowedValues []string // only valid when Type == Text; non-empty when set
}

// Validate checks Field's own invariants (spec.md §3): AllowedValues only
// for text fields, non-empty when present.
func (f Field) Validate() error {
	switch f.Type {
	case Text, Integer, Real, Boolean:
	default:
		return fmt.Errorf("argschema: field %q has unknown scalar type %q", f.Name, f.Type)
	}
	if len(f.AllowedValues) > 0 && f.Type != Text {
		return fmt.Errorf("argschema: field %q declares allowed_values but is not text", f.Name)
	}
	return nil
}

// Schema is an ordered list of argument fields with unique names.
type Schema []Field

// Validate checks name uniqueness across the schema and each field's own
// invariants.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, f := range s {
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("argschema: duplicate field name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Value is a coerced, typed argument value keyed by field name.
type Value struct {
	Text    string
	Int     int64
	Real    float64
	Bool    bool
	Type    ScalarType
	Present bool
}

// Bundle is the validated, coerced argument bundle produced by
// ValidateAndCoerce, keyed by field name.
type Bundle map[string]Value

// ValidateField validates a single raw value against field's declared type.
// null (nil) is rejected unless the field is optional. Boolean is neither
// integer nor real; integer is not real. Text fields with AllowedValues
// require membership.
func ValidateField(f Field, raw any) (Value, error) {
	if raw == nil {
		if f.Optional {
			return Value{}, nil
		}
		return Value{}, fmt.Errorf("%q is required", f.Name)
	}
	switch f.Type {
	case Text:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("%q must be text", f.Name)
		}
		if len(f.AllowedValues) > 0 {
			allowed := false
			for _, v := range f.AllowedValues {
				if v == s {
					allowed = true
					break
				}
			}
			if !allowed {
				return Value{}, fmt.Errorf("%q must be one of %s", f.Name, strings.Join(f.AllowedValues, ", "))
			}
		}
		return Value{Type: Text, Text: s, Present: true}, nil
	case Integer:
		switch v := raw.(type) {
		case int:
			return Value{Type: Integer, Int: int64(v), Present: true}, nil
		case int64:
			return Value{Type: Integer, Int: v, Present: true}, nil
		default:
			return Value{}, fmt.Errorf("%q must be an integer", f.Name)
		}
	case Real:
		switch v := raw.(type) {
		case float64:
			return Value{Type: Real, Real: v, Present: true}, nil
		case float32:
			return Value{Type: Real, Real: float64(v), Present: true}, nil
		default:
			return Value{}, fmt.Errorf("%q must be a real number", f.Name)
		}
	case Boolean:
		switch v := raw.(type) {
		case bool:
			return Value{Type: Boolean, Bool: v, Present: true}, nil
		case string:
			switch strings.ToLower(v) {
			case "true":
				return Value{Type: Boolean, Bool: true, Present: true}, nil
			case "false":
				return Value{Type: Boolean, Bool: false, Present: true}, nil
			default:
				return Value{}, fmt.Errorf("%q must be a boolean", f.Name)
			}
		default:
			return Value{}, fmt.Errorf("%q must be a boolean", f.Name)
		}
	default:
		return Value{}, fmt.Errorf("%q has unknown scalar type %q", f.Name, f.Type)
	}
}

// ValidateAndCoerce validates inputs against schema: unknown keys are
// rejected, missing required keys are rejected, absent optional keys are
// dropped from the returned bundle, and "true"/"false" texts (any case) are
// coerced into booleans for boolean fields. The result is idempotent: running
// ValidateAndCoerce again on an already-coerced bundle's plain-value
// projection yields the same bundle.
func ValidateAndCoerce(specName string, schema Schema, inputs map[string]any) (Bundle, error) {
	byName := make(map[string]Field, len(schema))
	for _, f := range schema {
		byName[f.Name] = f
	}

	var fieldErrs []errtax.FieldError
	for k := range inputs {
		if _, ok := byName[k]; !ok {
			fieldErrs = append(fieldErrs, errtax.FieldError{Name: k, Message: "unknown argument"})
		}
	}

	out := make(Bundle, len(schema))
	for _, f := range schema {
		raw, ok := inputs[f.Name]
		if !ok {
			if !f.Optional {
				fieldErrs = append(fieldErrs, errtax.FieldError{Name: f.Name, Message: "required argument missing"})
			}
			continue
		}
		v, err := ValidateField(f, raw)
		if err != nil {
			fieldErrs = append(fieldErrs, errtax.FieldError{Name: f.Name, Message: err.Error()})
			continue
		}
		if v.Present {
			out[f.Name] = v
		}
	}

	if len(fieldErrs) > 0 {
		sort.Slice(fieldErrs, func(i, j int) bool { return fieldErrs[i].Name < fieldErrs[j].Name })
		return nil, errtax.NewArgumentValidationError(specName, fieldErrs...)
	}
	return out, nil
}

// Plain returns the bundle's values as a plain map[string]any, suitable for
// re-validating (idempotence check) or for templating.
func (b Bundle) Plain() map[string]any {
	out := make(map[string]any, len(b))
	for k, v := range b {
		switch v.Type {
		case Text:
			out[k] = v.Text
		case Integer:
			out[k] = v.Int
		case Real:
			out[k] = v.Real
		case Boolean:
			out[k] = v.Bool
		}
	}
	return out
}
