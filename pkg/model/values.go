package model

import (
	"math"
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// Values is the caller-owned key/value bag holding form data. Keys are field
// ids; nesting in the structure never nests the data.
type Values map[string]any

// Get returns the value stored for id.
func (v Values) Get(id string) (any, bool) {
	if v == nil {
		return nil, false
	}
	value, ok := v[id]
	return value, ok
}

// Value returns the value stored for id or nil.
func (v Values) Value(id string) any {
	value, _ := v.Get(id)
	return value
}

// Clone deep-copies maps and slices so the copy can be kept across passes
// without aliasing caller data.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = deepCopy(value)
	}
	return out
}

// With returns a copy of the bag with id set to value. A nil value deletes the
// key, mirroring how an "undefined" assignment drops the entry.
func (v Values) With(id string, value any) Values {
	out := make(Values, len(v)+1)
	for key, existing := range v {
		out[key] = existing
	}
	if value == nil {
		delete(out, id)
		return out
	}
	out[id] = value
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case Values:
		return typed.Clone()
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}

// IsEmpty reports whether a value counts as "not filled": nil, the empty
// string, or false.
func IsEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case bool:
		return !typed
	default:
		return isNilPointer(value)
	}
}

// Truthy follows scripting-language truthiness: nil, false, "", zero and NaN
// are falsy; every other value, including empty maps and slices, is truthy.
func Truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != ""
	}
	if number, ok := Number(value); ok {
		return number != 0 && !math.IsNaN(number)
	}
	return !isNilPointer(value)
}

// Number converts any Go numeric kind to float64.
func Number(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int8:
		return float64(typed), true
	case int16:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint8:
		return float64(typed), true
	case uint16:
		return float64(typed), true
	case uint32:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	default:
		return 0, false
	}
}

// Equal compares two values structurally. Numbers compare by value regardless
// of their Go type, so 1 (int, from Go callers) equals 1.0 (float64, from
// decoded JSON).
func Equal(a, b any) bool {
	return cmp.Equal(normalize(a), normalize(b), exportAll)
}

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

func normalize(value any) any {
	if number, ok := Number(value); ok {
		return number
	}
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = normalize(v)
		}
		return out
	case Values:
		return normalize(map[string]any(typed))
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = normalize(v)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = v
		}
		return out
	default:
		return value
	}
}

// IsItem reports whether value is a structured item (an object with named
// properties) rather than a scalar.
func IsItem(value any) bool {
	switch value.(type) {
	case map[string]any, Values:
		return true
	default:
		return false
	}
}

// Property reads a named property of a structured item.
func Property(item any, name string) (any, bool) {
	switch typed := item.(type) {
	case map[string]any:
		value, ok := typed[name]
		return value, ok
	case Values:
		return typed.Get(name)
	default:
		return nil, false
	}
}

func isNilPointer(value any) bool {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
