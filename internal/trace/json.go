package trace

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/valyala/fastjson"
)

// ParseJSON decodes a JSON document into a Value.
// Numbers keep their original literal. Trailing data after the document and
// non-finite numbers (NaN, Inf) are errors.
func ParseJSON(data []byte) (Value, error) {
	v, err := fastjson.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	return fromFastJSON(v)
}

func fromFastJSON(v *fastjson.Value) (Value, error) {
	switch v.Type() {
	case fastjson.TypeNull:
		return Null{}, nil
	case fastjson.TypeTrue:
		return Bool(true), nil
	case fastjson.TypeFalse:
		return Bool(false), nil
	case fastjson.TypeString:
		b, err := v.StringBytes()
		if err != nil {
			return nil, err
		}
		return String(b), nil
	case fastjson.TypeNumber:
		// fastjson also accepts NaN and Inf, which have no JSON encoding.
		lit := v.String()
		if _, err := decimal.NewFromString(lit); err != nil {
			return nil, fmt.Errorf("invalid number literal %q", lit)
		}
		return Number(lit), nil
	case fastjson.TypeArray:
		items, err := v.Array()
		if err != nil {
			return nil, err
		}
		arr := make(Array, len(items))
		for i, item := range items {
			elem, err := fromFastJSON(item)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = elem
		}
		return arr, nil
	case fastjson.TypeObject:
		o, err := v.Object()
		if err != nil {
			return nil, err
		}
		obj := make(Object, o.Len())
		var visitErr error
		o.Visit(func(key []byte, item *fastjson.Value) {
			if visitErr != nil {
				return
			}
			elem, err := fromFastJSON(item)
			if err != nil {
				visitErr = fmt.Errorf("object[%q]: %w", key, err)
				return
			}
			obj[string(key)] = elem
		})
		if visitErr != nil {
			return nil, visitErr
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported json type: %s", v.Type())
	}
}
