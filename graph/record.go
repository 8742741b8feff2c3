package graph

import "strconv"

// Record is one result row from a graph query. Driver values arrive with
// varying dynamic types (int64 from the wire, float64 from JSON paths), so
// the accessors coerce and fall back to defaults instead of panicking.
type Record map[string]any

// String extracts a string column, returning def when the column is
// missing, nil, or not a string.
func (r Record) String(key, def string) string {
	if r == nil {
		return def
	}
	val, ok := r[key]
	if !ok || val == nil {
		return def
	}
	s, ok := val.(string)
	if !ok {
		return def
	}
	return s
}

// Strings extracts a string-slice column. Handles []string and []any
// element-wise; returns nil when absent or not convertible.
func (r Record) Strings(key string) []string {
	if r == nil {
		return nil
	}
	val, ok := r[key]
	if !ok || val == nil {
		return nil
	}

	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Int extracts an integer column with coercion from int, int64, float64,
// and numeric strings.
func (r Record) Int(key string, def int) int {
	if r == nil {
		return def
	}
	val, ok := r[key]
	if !ok || val == nil {
		return def
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
		return def
	default:
		return def
	}
}

// Float extracts a float column with coercion from float64, float32, int,
// int64, and numeric strings.
func (r Record) Float(key string, def float64) float64 {
	if r == nil {
		return def
	}
	val, ok := r[key]
	if !ok || val == nil {
		return def
	}

	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
		return def
	default:
		return def
	}
}

// Map extracts a nested map column, returning nil when absent or not a
// map.
func (r Record) Map(key string) map[string]any {
	if r == nil {
		return nil
	}
	val, ok := r[key]
	if !ok || val == nil {
		return nil
	}
	m, ok := val.(map[string]any)
	if !ok {
		return nil
	}
	return m
}
