// Package schema implements a declarative record contract: typed
// fields with alias renaming, defaults, coercion and custom rules.
// It is the built-in implementation of the validate.Validator
// capability; callers may substitute any other implementation.
package schema

import (
	"fmt"

	"github.com/javierturcios2607/ingestor/pkg/validate"
)

// FieldType enumerates the supported field types.
type FieldType string

const (
	TypeInt    FieldType = "int"
	TypeFloat  FieldType = "float"
	TypeString FieldType = "string"
	TypeBool   FieldType = "bool"
	TypeDate   FieldType = "date"
	TypeEmail  FieldType = "email"
)

// Rule is a custom per-field check that may also normalize the value.
// It runs after type coercion.
type Rule func(value any) (any, error)

// Field declares one field of the contract.
type Field struct {
	// Name is the clean field name in the normalized record.
	Name string

	// Alias is the wire name in the raw payload. When set, the raw
	// value is read under Alias (falling back to Name) and written
	// out under Name.
	Alias string

	// Type drives coercion.
	Type FieldType

	// Required rejects the record when the field is absent and no
	// Default is set.
	Required bool

	// Default is used when the field is absent from the payload.
	Default any

	// Min is an inclusive numeric lower bound for int/float fields.
	Min *float64

	// Rules run in order after coercion.
	Rules []Rule
}

// Schema is an ordered set of field contracts. Unknown payload fields
// are dropped from the normalized record.
type Schema struct {
	fields []Field
}

// New builds a schema from field declarations.
func New(fields ...Field) *Schema {
	return &Schema{fields: fields}
}

// Min returns a pointer for use as a Field bound.
func Min(v float64) *float64 {
	return &v
}

// Parse validates and normalizes one record. It returns the clean
// record, or validate.FieldErrors listing every failing field.
// Parsing a clean record again yields the same record.
func (s *Schema) Parse(record validate.Record) (validate.Record, error) {
	clean := make(validate.Record, len(s.fields))
	var errs validate.FieldErrors

	for _, field := range s.fields {
		raw, found := lookup(record, field)
		if !found {
			if field.Default != nil {
				clean[field.Name] = field.Default
				continue
			}
			if field.Required {
				errs = append(errs, validate.Reason{Field: field.Name, Message: "field is required"})
			}
			continue
		}

		value, err := coerce(field.Type, raw)
		if err != nil {
			errs = append(errs, validate.Reason{Field: field.Name, Message: err.Error()})
			continue
		}

		if field.Min != nil {
			if err := checkMin(value, *field.Min); err != nil {
				errs = append(errs, validate.Reason{Field: field.Name, Message: err.Error()})
				continue
			}
		}

		failed := false
		for _, rule := range field.Rules {
			value, err = rule(value)
			if err != nil {
				errs = append(errs, validate.Reason{Field: field.Name, Message: err.Error()})
				failed = true
				break
			}
		}
		if failed {
			continue
		}

		clean[field.Name] = value
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return clean, nil
}

// lookup reads the raw value under the alias first, then the clean
// name, so already-normalized records re-validate unchanged.
func lookup(record validate.Record, field Field) (any, bool) {
	if field.Alias != "" {
		if v, ok := record[field.Alias]; ok {
			return v, true
		}
	}
	v, ok := record[field.Name]
	return v, ok
}

func checkMin(value any, min float64) error {
	var n float64
	switch v := value.(type) {
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	default:
		return nil
	}
	if n < min {
		return fmt.Errorf("must be greater than or equal to %v", min)
	}
	return nil
}
