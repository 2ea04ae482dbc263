// Package reconcile maps registry document fragments onto the relational
// entities. Well-known shapes go through deterministic key lookup; irregular
// fragments fall back to an LLM mapping pass that is validated against the
// declared schema before anything reaches the database.
package reconcile

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the declared type of a schema field.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "string"
	}
}

// Field declares one mappable column of a target entity. Required fields
// gate the deterministic pass: when one is missing the fragment is retried
// through the heuristic path.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema declares the field set of a target entity.
type Schema struct {
	Entity string
	Fields []Field
}

// Complete reports whether every required field resolved in the mapping.
func (s Schema) Complete(m Mapping) bool {
	for _, f := range s.Fields {
		if f.Required && m[f.Name] == nil {
			return false
		}
	}
	return true
}

// Mapping holds coerced values keyed by schema field name. Fields the source
// did not provide are absent; lookups on them yield nil.
type Mapping map[string]any

// Str returns a string field, nil when absent.
func (m Mapping) Str(key string) *string {
	if v, ok := m[key].(string); ok {
		return &v
	}
	return nil
}

// StrOr returns a string field or the fallback when absent.
func (m Mapping) StrOr(key, fallback string) string {
	if v := m.Str(key); v != nil {
		return *v
	}
	return fallback
}

// Int returns an integer field, nil when absent.
func (m Mapping) Int(key string) *int {
	if v, ok := m[key].(int); ok {
		return &v
	}
	return nil
}

// Float returns a float field, nil when absent.
func (m Mapping) Float(key string) *float64 {
	if v, ok := m[key].(float64); ok {
		return &v
	}
	return nil
}

// normalizeKey folds naming variation between source and schema keys, so
// "organSystem", "organ_system" and "Organ System" all collide.
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, key)
}

// coerce converts a raw source value to the declared kind. The bool result
// is false when the conversion would be ambiguous; such values are dropped.
func coerce(kind Kind, v any) (any, bool) {
	switch kind {
	case KindString:
		if s, ok := v.(string); ok {
			return s, true
		}
	case KindInt:
		switch n := v.(type) {
		case int:
			return n, true
		case float64:
			if n == math.Trunc(n) {
				return int(n), true
			}
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return i, true
			}
		}
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f, true
			}
		}
	}
	return nil, false
}
