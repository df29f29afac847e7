package ir

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface representing a resolved constant.
// Only Null, String, Int, Bool, List and Object implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents the CQL NULL constant.
type Null struct{}

func (Null) irValue() {}

// String represents a text constant.
type String string

func (String) irValue() {}

// Int represents an integer constant. Always int64.
type Int int64

func (Int) irValue() {}

// Bool represents a boolean constant.
type Bool bool

func (Bool) irValue() {}

// List represents a collection constant, e.g. the right side of IN.
type List []Value

func (List) irValue() {}

// Object is a string-keyed map of values.
// It is used for canonical plan documents, not for column constants.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

// DataTypeOf returns the data type a constant carries on its own.
// Null and List report Unknown; their type is decided by context.
func DataTypeOf(v Value) DataType {
	switch v.(type) {
	case String:
		return TypeText
	case Int:
		return TypeBigInt
	case Bool:
		return TypeBool
	default:
		return TypeUnknown
	}
}

// FromAny converts a decoded Go value (YAML, JSON, CUE) to a Value.
// Floats are rejected.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > uint64(1<<63-1) {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(int64(val)), nil
	case bool:
		return Bool(val), nil
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden: %v", val)
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			e, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = e
		}
		return list, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			e, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// Format renders a value as a CQL literal: 'text', 42, true, NULL, (1, 2).
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "NULL"
	case String:
		return "'" + strings.ReplaceAll(string(val), "'", "''") + "'"
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Bool:
		return strconv.FormatBool(bool(val))
	case List:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Format(elem)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Object:
		keys := val.SortedKeys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = "'" + k + "': " + Format(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings compares UTF-8 bytes, which orders some keys differently.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
