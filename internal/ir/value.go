package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"
	"unicode/utf16"
)

// Value is a sealed interface representing event payload values.
// Only Null, String, Int, Float, Bool, List, and Object implement this.
type Value interface {
	payloadValue() // Sealed - only these types implement it
}

// Null represents a JSON null value in a payload.
type Null struct{}

func (Null) payloadValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a string payload value.
type String string

func (String) payloadValue() {}

// Int represents an integer payload value.
type Int int64

func (Int) payloadValue() {}

// Float represents a floating point payload value.
// Kept separate from Int so integral values round-trip exactly.
type Float float64

func (Float) payloadValue() {}

// Bool represents a boolean payload value.
type Bool bool

func (Bool) payloadValue() {}

// List represents an ordered list of values.
type List []Value

func (List) payloadValue() {}

// Object represents a map of string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) payloadValue() {}

// Payload is the data attached to an event.
type Payload = Object

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// Number returns the numeric value stored under key.
// Int and Float values are both accepted; anything else reports false.
func (obj Object) Number(key string) (float64, bool) {
	switch v := obj[key].(type) {
	case Int:
		return float64(v), true
	case Float:
		f := float64(v)
		if math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Strings returns the string list stored under key.
// A single String is treated as a one-element list.
func (obj Object) Strings(key string) ([]string, bool) {
	switch v := obj[key].(type) {
	case String:
		return []string{string(v)}, true
	case List:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(String)
			if !ok {
				return nil, false
			}
			out = append(out, string(s))
		}
		return out, true
	default:
		return nil, false
	}
}

// Clone returns a deep copy of the object.
func (obj Object) Clone() Object {
	if obj == nil {
		return nil
	}
	cp := make(Object, len(obj))
	for k, v := range obj {
		cp[k] = cloneValue(v)
	}
	return cp
}

func cloneValue(v Value) Value {
	switch val := v.(type) {
	case List:
		cp := make(List, len(val))
		for i, elem := range val {
			cp[i] = cloneValue(elem)
		}
		return cp
	case Object:
		return val.Clone()
	default:
		return v
	}
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
// Go's default string comparison uses UTF-8 which produces a different order.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := len(a16)
	if len(b16) < minLen {
		minLen = len(b16)
	}

	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}

// PayloadFromMap converts a decoded map (from YAML, JSON or Go literals)
// into a Payload.
func PayloadFromMap(m map[string]any) (Payload, error) {
	if m == nil {
		return Payload{}, nil
	}
	obj := make(Object, len(m))
	for k, elem := range m {
		v, err := ToValue(elem)
		if err != nil {
			return nil, fmt.Errorf("payload[%q]: %w", k, err)
		}
		obj[k] = v
	}
	return obj, nil
}

// ToValue converts a Go value to a payload Value.
//
// time.Time is stored as Unix milliseconds, the unit used by the
// timeWindow condition.
func ToValue(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("number out of int64 range: %d", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return Float(f), nil
	case bool:
		return Bool(val), nil
	case time.Time:
		return Int(val.UnixMilli()), nil
	case []string:
		list := make(List, len(val))
		for i, s := range val {
			list[i] = String(s)
		}
		return list, nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			v, err := ToValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = v
		}
		return list, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			v, err := ToValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = v
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ParsePayloadJSON decodes a JSON object into a Payload.
// Numbers without a fraction or exponent become Int, the rest Float.
func ParsePayloadJSON(data []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return PayloadFromMap(raw)
}

// Native converts a Value back into plain Go values (for JSON output).
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Native(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Native(elem)
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler for Object with sorted keys.
// NOTE: This is NOT canonical marshaling. Use MarshalCanonical for
// golden snapshots.
func (obj Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := json.Marshal(Native(obj[k]))
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
