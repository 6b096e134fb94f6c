package api

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Schema is the capability a validation schema must satisfy: parse an
// untyped value into a typed one or a structured failure list, and describe
// itself as JSON Schema for document generation. The dispatcher and the
// OpenAPI generator never inspect a schema's internals — any implementation
// of these two methods can be substituted.
type Schema interface {
	// Parse validates raw and returns the typed value. A non-empty failure
	// list means the value is rejected; the typed result is then nil.
	Parse(raw any) (any, []ValidationError)

	// Describe returns the JSON Schema equivalent of this schema.
	Describe() JSONSchema
}

// JSONSchema represents a JSON Schema object (subset for OpenAPI 3.0).
type JSONSchema struct {
	Type        string                `json:"type,omitempty"`
	Format      string                `json:"format,omitempty"`
	Properties  map[string]JSONSchema `json:"properties,omitempty"`
	Items       *JSONSchema           `json:"items,omitempty"`
	Required    []string              `json:"required,omitempty"`
	Description string                `json:"description,omitempty"`
	Enum        []string              `json:"enum,omitempty"`

	// AdditionalProperties can be true (any) or a schema.
	AdditionalProperties *JSONSchema `json:"additionalProperties,omitempty"`
}

func fail(field, message, expected string) []ValidationError {
	return []ValidationError{{Field: field, Message: message, Expected: expected}}
}

// prefixField prepends a parent locator to every failure in errs.
func prefixField(parent string, errs []ValidationError) []ValidationError {
	for i := range errs {
		if errs[i].Field == "" {
			errs[i].Field = parent
			continue
		}
		errs[i].Field = parent + "." + errs[i].Field
	}
	return errs
}

// stringSchema accepts strings, optionally restricted to an enum.
type stringSchema struct {
	enum []string
}

// String returns a schema accepting any string.
func String() Schema { return &stringSchema{} }

// Enum returns a string schema restricted to the given values.
func Enum(values ...string) Schema { return &stringSchema{enum: values} }

func (s *stringSchema) Parse(raw any) (any, []ValidationError) {
	v, ok := raw.(string)
	if !ok {
		return nil, fail("", fmt.Sprintf("expected string, got %T", raw), "string")
	}
	if len(s.enum) > 0 {
		for _, e := range s.enum {
			if v == e {
				return v, nil
			}
		}
		return nil, fail("", fmt.Sprintf("%q is not one of %v", v, s.enum), "string")
	}
	return v, nil
}

func (s *stringSchema) Describe() JSONSchema {
	return JSONSchema{Type: "string", Enum: s.enum}
}

// intSchema accepts integers. Strings are coerced, since path and query
// values always arrive as strings; JSON numbers are accepted when whole.
type intSchema struct{}

// Int returns a schema accepting integers, coercing from decimal strings.
func Int() Schema { return intSchema{} }

func (intSchema) Parse(raw any) (any, []ValidationError) {
	switch v := raw.(type) {
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fail("", fmt.Sprintf("%q is not an integer", v), "integer")
		}
		return n, nil
	case float64: // encoding/json decodes all numbers to float64
		if v != math.Trunc(v) {
			return nil, fail("", fmt.Sprintf("%v is not an integer", v), "integer")
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return nil, fail("", fmt.Sprintf("expected integer, got %T", raw), "integer")
	}
}

func (intSchema) Describe() JSONSchema { return JSONSchema{Type: "integer"} }

// floatSchema accepts numbers, coercing from decimal strings.
type floatSchema struct{}

// Float returns a schema accepting numbers, coercing from decimal strings.
func Float() Schema { return floatSchema{} }

func (floatSchema) Parse(raw any) (any, []ValidationError) {
	switch v := raw.(type) {
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fail("", fmt.Sprintf("%q is not a number", v), "number")
		}
		return n, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return nil, fail("", fmt.Sprintf("expected number, got %T", raw), "number")
	}
}

func (floatSchema) Describe() JSONSchema { return JSONSchema{Type: "number"} }

// boolSchema accepts booleans, coercing from strconv-style strings.
type boolSchema struct{}

// Bool returns a schema accepting booleans, coercing from strings
// ("true", "1", "false", ...).
func Bool() Schema { return boolSchema{} }

func (boolSchema) Parse(raw any) (any, []ValidationError) {
	switch v := raw.(type) {
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fail("", fmt.Sprintf("%q is not a boolean", v), "boolean")
		}
		return b, nil
	case bool:
		return v, nil
	default:
		return nil, fail("", fmt.Sprintf("expected boolean, got %T", raw), "boolean")
	}
}

func (boolSchema) Describe() JSONSchema { return JSONSchema{Type: "boolean"} }

// arraySchema validates every element against a single element schema.
type arraySchema struct {
	elem Schema
}

// ArrayOf returns a schema accepting an array whose elements all satisfy elem.
func ArrayOf(elem Schema) Schema { return &arraySchema{elem: elem} }

func (s *arraySchema) Parse(raw any) (any, []ValidationError) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fail("", fmt.Sprintf("expected array, got %T", raw), "array")
	}

	out := make([]any, len(items))
	var errs []ValidationError
	for i, item := range items {
		v, itemErrs := s.elem.Parse(item)
		if len(itemErrs) > 0 {
			errs = append(errs, prefixField(strconv.Itoa(i), itemErrs)...)
			continue
		}
		out[i] = v
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func (s *arraySchema) Describe() JSONSchema {
	items := s.elem.Describe()
	return JSONSchema{Type: "array", Items: &items}
}

// optionalSchema wraps another schema, accepting absence.
type optionalSchema struct {
	inner Schema
}

// Optional wraps a schema so that a missing value passes validation.
// Present values are still validated against the inner schema.
func Optional(inner Schema) Schema { return &optionalSchema{inner: inner} }

func (s *optionalSchema) Parse(raw any) (any, []ValidationError) {
	if raw == nil {
		return nil, nil
	}
	return s.inner.Parse(raw)
}

func (s *optionalSchema) Describe() JSONSchema { return s.inner.Describe() }

// isOptional unwraps Doc wrappers and reports whether a schema tolerates absence.
func isOptional(s Schema) bool {
	for {
		switch v := s.(type) {
		case *optionalSchema:
			return true
		case *docSchema:
			s = v.inner
		default:
			return false
		}
	}
}

// docSchema attaches a description without changing parse behavior.
type docSchema struct {
	inner Schema
	text  string
}

// Doc attaches a human-readable description to a schema for the generated
// document. Parsing is unchanged.
func Doc(inner Schema, text string) Schema { return &docSchema{inner: inner, text: text} }

func (s *docSchema) Parse(raw any) (any, []ValidationError) { return s.inner.Parse(raw) }

func (s *docSchema) Describe() JSONSchema {
	d := s.inner.Describe()
	d.Description = s.text
	return d
}

// Fields maps field names to their schemas for Object.
type Fields map[string]Schema

// ObjectSchema validates a string-keyed record field by field. Fields not
// wrapped in Optional are required. Validation is all-or-nothing: every
// failing field contributes to the failure list and no partial result is
// returned.
type ObjectSchema struct {
	fields Fields
}

// Object returns a schema over a string-keyed record.
func Object(fields Fields) *ObjectSchema {
	return &ObjectSchema{fields: fields}
}

// Parse implements Schema. It accepts map[string]any (JSON objects and the
// dispatcher's merged parameter record). Unknown keys are ignored.
func (o *ObjectSchema) Parse(raw any) (any, []ValidationError) {
	if raw == nil {
		raw = map[string]any{}
	}
	record, ok := raw.(map[string]any)
	if !ok {
		return nil, fail("", fmt.Sprintf("expected object, got %T", raw), "object")
	}

	out := make(map[string]any, len(o.fields))
	var errs []ValidationError
	for name, schema := range o.fields {
		val, present := record[name]
		if !present {
			if isOptional(schema) {
				continue
			}
			errs = append(errs, ValidationError{
				Field:    name,
				Message:  "required field is missing",
				Expected: schema.Describe().Type,
			})
			continue
		}

		parsed, fieldErrs := schema.Parse(val)
		if len(fieldErrs) > 0 {
			errs = append(errs, prefixField(name, fieldErrs)...)
			continue
		}
		if parsed != nil {
			out[name] = parsed
		}
	}

	if len(errs) > 0 {
		// Map iteration order is random; keep failure lists stable.
		slices.SortFunc(errs, func(a, b ValidationError) int {
			return strings.Compare(a.Field, b.Field)
		})
		return nil, errs
	}
	return out, nil
}

// Describe implements Schema.
func (o *ObjectSchema) Describe() JSONSchema {
	d := JSONSchema{
		Type:       "object",
		Properties: make(map[string]JSONSchema, len(o.fields)),
	}
	for name, schema := range o.fields {
		d.Properties[name] = schema.Describe()
		if !isOptional(schema) {
			d.Required = append(d.Required, name)
		}
	}
	slices.Sort(d.Required)
	return d
}

// Field returns the schema for a named field, if declared.
func (o *ObjectSchema) Field(name string) (Schema, bool) {
	s, ok := o.fields[name]
	return s, ok
}

// FieldNames returns the declared field names in sorted order.
func (o *ObjectSchema) FieldNames() []string {
	names := make([]string, 0, len(o.fields))
	for name := range o.fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
