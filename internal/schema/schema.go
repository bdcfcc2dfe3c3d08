// Package schema defines the output schemas that drive response normalization.
//
// Each analysis task declares the shape of its result document in a YAML
// file embedded at build time. The normalize package walks these schemas to
// coerce model output into a well-formed document, and to synthesize a
// degraded document when the model output cannot be parsed at all.
package schema

import (
	"embed"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.yaml
var schemaFS embed.FS

// Kind enumerates field coercion strategies.
type Kind string

// Field kinds.
const (
	KindString     Kind = "string"
	KindNumber     Kind = "number"
	KindBoundedInt Kind = "bounded_int"
	KindList       Kind = "list"
	KindObject     Kind = "object"
)

// Field describes one field of a task result document.
//
// Default is used on the parse path when the model omitted the field or
// produced an uncoercible value. Fallback (and FallbackES for Spanish
// documents) is used when the whole response failed to parse; it falls
// back to Default when unset.
type Field struct {
	Name       string  `yaml:"name"`
	Kind       Kind    `yaml:"kind"`
	Default    any     `yaml:"default"`
	Fallback   any     `yaml:"fallback"`
	FallbackES any     `yaml:"fallback_es"`
	Required   bool    `yaml:"required"`
	Min        *int    `yaml:"min"`
	Max        *int    `yaml:"max"`
	SumOf      string  `yaml:"sum_of"`
	ItemFields []Field `yaml:"item_fields"`
	Fields     []Field `yaml:"fields"`
}

// TaskSchema is the full schema for one analysis task.
type TaskSchema struct {
	Task   string  `yaml:"task"`
	Fields []Field `yaml:"fields"`
}

// FallbackValue resolves the value a field takes on the degraded path.
func (f Field) FallbackValue(spanish bool) any {
	if spanish && f.FallbackES != nil {
		return f.FallbackES
	}
	if f.Fallback != nil {
		return f.Fallback
	}
	// Objects without an explicit fallback assemble one from their
	// subfields so degraded documents keep their nested shape.
	if f.Kind == KindObject && len(f.Fields) > 0 {
		out := make(map[string]any, len(f.Fields))
		for _, sub := range f.Fields {
			out[sub.Name] = sub.FallbackValue(spanish)
		}
		return out
	}
	return f.DefaultValue()
}

// DefaultValue resolves the per-field default, substituting the zero value
// for the field kind when the schema left it unset.
func (f Field) DefaultValue() any {
	if f.Default != nil {
		return f.Default
	}
	switch f.Kind {
	case KindString:
		return ""
	case KindNumber:
		return 0.0
	case KindBoundedInt:
		return 0
	case KindList:
		return []any{}
	case KindObject:
		return map[string]any{}
	}
	return nil
}

// Load parses all embedded task schemas keyed by task name.
func Load() (map[string]TaskSchema, error) {
	out := map[string]TaskSchema{}
	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, fmt.Errorf("op=schema.Load: %w", err)
	}
	for _, e := range entries {
		b, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("op=schema.Load: read %s: %w", e.Name(), err)
		}
		var ts TaskSchema
		if err := yaml.Unmarshal(b, &ts); err != nil {
			return nil, fmt.Errorf("op=schema.Load: parse %s: %w", e.Name(), err)
		}
		if ts.Task == "" {
			return nil, fmt.Errorf("op=schema.Load: %s missing task name", e.Name())
		}
		if err := validate(ts); err != nil {
			return nil, fmt.Errorf("op=schema.Load: %s: %w", e.Name(), err)
		}
		out[ts.Task] = ts
	}
	return out, nil
}

// MustLoad panics when any embedded schema is malformed. Schemas ship with
// the binary, so failure here is a packaging bug.
func MustLoad() map[string]TaskSchema {
	m, err := Load()
	if err != nil {
		panic(err)
	}
	return m
}

func validate(ts TaskSchema) error {
	return validateFields(ts.Fields)
}

func validateFields(fields []Field) error {
	for _, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("field missing name")
		}
		switch f.Kind {
		case KindString, KindNumber, KindBoundedInt, KindList, KindObject:
		default:
			return fmt.Errorf("field %s: unknown kind %q", f.Name, f.Kind)
		}
		if f.Kind == KindBoundedInt && (f.Min == nil || f.Max == nil) {
			return fmt.Errorf("field %s: bounded_int requires min and max", f.Name)
		}
		if f.Required && f.Kind != KindNumber {
			return fmt.Errorf("field %s: required is only meaningful for list item numbers", f.Name)
		}
		if err := validateFields(f.ItemFields); err != nil {
			return err
		}
		if err := validateFields(f.Fields); err != nil {
			return err
		}
	}
	return nil
}
