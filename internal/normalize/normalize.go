// Package normalize turns free-form model output into schema-shaped documents.
//
// Model responses arrive as prose that usually, but not always, contains a
// JSON object. This package extracts that object, coerces every field to the
// shape its task schema declares, and produces a degraded-but-well-formed
// document when nothing parseable can be recovered. Callers never see a
// malformed document.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/flookyhq/flooky-tools/internal/schema"
)

// RawResponseKey is the field carrying the verbatim model output on the
// degraded path.
const RawResponseKey = "raw_response"

// Options control locale-sensitive normalization.
type Options struct {
	// Spanish selects Spanish fallback values where the schema declares them.
	Spanish bool
}

// ExtractObject returns the first balanced top-level JSON object in s.
// The scanner is aware of string literals and escapes, so braces inside
// string values never unbalance the match. Returns ok=false when no
// balanced object exists.
func ExtractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// CleanResponse strips markdown code fences that models wrap JSON in.
func CleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Normalize extracts a JSON object from raw and coerces it to sch.
// The second return reports whether the parse path succeeded; when false
// the returned document is the schema fallback carrying raw verbatim under
// raw_response.
func Normalize(sch schema.TaskSchema, raw string, opts Options) (map[string]any, bool) {
	obj, ok := ExtractObject(CleanResponse(raw))
	if !ok {
		return Fallback(sch, raw, opts), false
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(obj), &data); err != nil {
		return Fallback(sch, raw, opts), false
	}
	return coerceFields(sch.Fields, data), true
}

// Fallback builds the degraded document for sch, preserving raw verbatim.
func Fallback(sch schema.TaskSchema, raw string, opts Options) map[string]any {
	out := make(map[string]any, len(sch.Fields)+1)
	for _, f := range sch.Fields {
		out[f.Name] = f.FallbackValue(opts.Spanish)
	}
	out[RawResponseKey] = raw
	return out
}

// coerceFields builds a document containing exactly the declared fields.
// Undeclared keys in data are dropped.
func coerceFields(fields []schema.Field, data map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Name] = coerceField(f, data[f.Name])
	}
	// Numbers declared with sum_of are recomputed from their source list
	// when the reported value is missing or does not parse.
	for _, f := range fields {
		if f.Kind != schema.KindNumber || f.SumOf == "" {
			continue
		}
		if _, ok := toNumber(data[f.Name]); ok {
			continue
		}
		listName, sub, ok := strings.Cut(f.SumOf, ".")
		if !ok {
			continue
		}
		if items, ok := out[listName].([]any); ok {
			out[f.Name] = SumNumbers(items, sub)
		}
	}
	return out
}

func coerceField(f schema.Field, v any) any {
	switch f.Kind {
	case schema.KindString:
		return coerceString(v, f.DefaultValue())
	case schema.KindNumber:
		n, ok := toNumber(v)
		if !ok {
			return f.DefaultValue()
		}
		return n
	case schema.KindBoundedInt:
		return coerceBoundedInt(f, v)
	case schema.KindList:
		return coerceList(f, v)
	case schema.KindObject:
		return coerceObject(f, v)
	}
	return v
}

// coerceString stringifies scalar values and substitutes def for anything
// missing or structural.
func coerceString(v any, def any) any {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatNumber(x)
	case json.Number:
		return x.String()
	}
	return def
}

func coerceBoundedInt(f schema.Field, v any) int {
	n, ok := toNumber(v)
	if !ok {
		d, _ := toNumber(f.DefaultValue())
		n = d
	}
	i := int(n)
	if f.Min != nil && i < *f.Min {
		i = *f.Min
	}
	if f.Max != nil && i > *f.Max {
		i = *f.Max
	}
	return i
}

// coerceList passes structurally valid lists through. When item fields are
// declared, each element is coerced. An element whose required number is
// present but uncoercible is dropped rather than poisoning the document;
// an absent required number coerces to zero like any other missing field.
func coerceList(f schema.Field, v any) []any {
	items, ok := v.([]any)
	if !ok {
		return []any{}
	}
	if len(f.ItemFields) == 0 {
		return items
	}
	out := make([]any, 0, len(items))
itemLoop:
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		for _, sub := range f.ItemFields {
			if !sub.Required {
				continue
			}
			raw, present := m[sub.Name]
			if !present {
				continue
			}
			if _, ok := toNumber(raw); !ok {
				continue itemLoop
			}
		}
		out = append(out, coerceFields(f.ItemFields, m))
	}
	return out
}

func coerceObject(f schema.Field, v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	if len(f.Fields) == 0 {
		return m
	}
	return coerceFields(f.Fields, m)
}

// toNumber accepts JSON numbers plus numeric strings and ints from YAML
// defaults. NaN and infinities are rejected.
func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
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
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// formatNumber renders floats without exponent noise for string coercion.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SumNumbers totals the named numeric subfield across list items. Used for
// recomputing totals when the model reports one that does not parse.
func SumNumbers(items []any, field string) float64 {
	var total float64
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if n, ok := toNumber(m[field]); ok {
			total += n
		}
	}
	return total
}
