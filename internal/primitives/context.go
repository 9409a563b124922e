// Context is the data payload carried by a machine instance, independent of its
// discrete state. The engine owns one Context per instance and only hands out
// deep copies.
package primitives

import (
	"maps"
	"slices"
)

// Context maps field names to JSON-compatible values: nil, bool, float64,
// string, []any and map[string]any.
type Context map[string]any

// NewContext returns an empty Context.
func NewContext() Context {
	return Context{}
}

// Get retrieves a value by key.
func (c Context) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// Clone returns a deep copy of c. Nested maps and slices are copied and every
// numeric value is normalized to float64, so a cloned Context compares equal
// to the same data decoded from JSON.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = CloneValue(v)
	}
	return out
}

// Merge returns a copy of c overlaid with the fields of other.
func (c Context) Merge(other Context) Context {
	out := c.Clone()
	for k, v := range other {
		out[k] = CloneValue(v)
	}
	return out
}

// Keys returns the field names in sorted order.
func (c Context) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}

// CloneValue deep-copies a context value, normalizing numbers to float64.
func CloneValue(v any) any {
	switch t := v.(type) {
	case Context:
		return map[string]any(t.Clone())
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = CloneValue(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = CloneValue(vv)
		}
		return s
	case []string:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = vv
		}
		return s
	}
	if f, ok := ToFloat(v); ok {
		return f
	}
	return v
}

// ToFloat reports the float64 value of any Go numeric type.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
