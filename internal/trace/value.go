package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/shopspring/decimal"
)

// Value is a sealed interface over structured payload data.
// Only Null, String, Number, Bool, Array, and Object implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents a JSON null.
type Null struct{}

func (Null) value() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String is a string scalar.
type String string

func (String) value() {}

// Number holds a JSON numeric literal exactly as it appeared in the log.
// Compare with Equal, not ==: "1" and "1.0" are the same number.
type Number string

func (Number) value() {}

// MarshalJSON emits the literal unchanged.
func (n Number) MarshalJSON() ([]byte, error) {
	if _, err := decimal.NewFromString(string(n)); err != nil {
		return nil, fmt.Errorf("invalid number literal %q", string(n))
	}
	return []byte(n), nil
}

// Decimal parses the literal.
func (n Number) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(string(n))
}

// Bool is a boolean scalar.
type Bool bool

func (Bool) value() {}

// Array is an ordered sequence of values.
type Array []Value

func (Array) value() {}

// MarshalJSON implements json.Marshaler for Array.
func (arr Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Object maps string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// MarshalJSON implements json.Marshaler for Object with sorted keys.
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
		valBytes, err := MarshalValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 byte order, which differs for supplementary characters.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// EmptyObject returns a fresh empty Object.
// Malformed payloads degrade to this.
func EmptyObject() Object {
	return Object{}
}

// MarshalValue marshals a Value to JSON bytes.
// Not canonical; use MarshalCanonical for hashing and stable report output.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Number:
		return val.MarshalJSON()
	case Bool:
		return json.Marshal(bool(val))
	case Array:
		return val.MarshalJSON()
	case Object:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// Equal reports whether a and b are the same value.
// Scalars use exact equality; numbers compare by numeric value.
// Values of different types are never equal.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		if !ok {
			return false
		}
		return numbersEqual(av, bv)
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, exists := bv[k]
			if !exists || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func numbersEqual(a, b Number) bool {
	if a == b {
		return true
	}
	ad, errA := a.Decimal()
	bd, errB := b.Decimal()
	if errA != nil || errB != nil {
		return false
	}
	aDigits, aExp := normalized(ad)
	bDigits, bExp := normalized(bd)
	return aExp == bExp && aDigits == bDigits
}

// normalized returns the signed coefficient of d without trailing zeros and
// the exponent that goes with it, so equal numbers have equal forms. Zero is
// ("0", 0). The exponent is never applied, keeping 1e99999999 cheap.
func normalized(d decimal.Decimal) (string, int64) {
	if d.Sign() == 0 {
		return "0", 0
	}
	digits := d.Coefficient().String()
	trimmed := strings.TrimRight(digits, "0")
	return trimmed, int64(d.Exponent()) + int64(len(digits)-len(trimmed))
}

// maxPlainExponent bounds the exponents written in plain decimal notation.
const maxPlainExponent = 64

// formatNumber renders d in its shortest exact form: plain notation for
// moderate exponents, <coefficient>e<exponent> beyond maxPlainExponent.
func formatNumber(d decimal.Decimal) string {
	digits, exp := normalized(d)
	if exp < -maxPlainExponent || exp > maxPlainExponent {
		return fmt.Sprintf("%se%d", digits, exp)
	}
	coef, _ := new(big.Int).SetString(digits, 10)
	return decimal.NewFromBigInt(coef, int32(exp)).String()
}

// IsStructured reports whether v is an Object or an Array.
func IsStructured(v Value) bool {
	switch v.(type) {
	case Object, Array:
		return true
	}
	return false
}

// ToNative converts a Value to plain Go values (map[string]any, []any, string, bool,
// json.Number, nil).
func ToNative(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Number:
		return json.Number(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToNative(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToNative(elem)
		}
		return out
	default:
		return nil
	}
}

// FromNative converts plain Go values (as produced by encoding/json or yaml.v3)
// into a Value.
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		return Number(val), nil
	case int:
		return Number(fmt.Sprintf("%d", val)), nil
	case int64:
		return Number(fmt.Sprintf("%d", val)), nil
	case uint64:
		return Number(fmt.Sprintf("%d", val)), nil
	case float64:
		return Number(decimal.NewFromFloat(val).String()), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			conv, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			conv, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = conv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
