package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
)

// ErrTypeMismatch is returned when a property value does not have the shape an
// operation requires.
var ErrTypeMismatch = errors.New("property type mismatch")

// Kind identifies the payload carried by a PropertyValue.
type Kind uint8

const (
	KindScalar Kind = iota
	KindNumber
	KindList
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	default:
		return "scalar"
	}
}

// PropertyValue is a tagged union over a number, a list of values, or an
// opaque scalar (string, bool, null, object).
//
// Values are immutable. Operations that change a value return a new one.
type PropertyValue struct {
	kind    Kind
	integer bool
	i       int64
	f       float64
	list    []PropertyValue
	scalar  any
}

// NewInt returns an integer number value.
func NewInt(n int64) PropertyValue {
	return PropertyValue{kind: KindNumber, integer: true, i: n}
}

// NewNumber returns a number value. Integral values that fit in an int64 are
// stored as integers.
func NewNumber(f float64) PropertyValue {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return NewInt(int64(f))
	}
	return PropertyValue{kind: KindNumber, f: f}
}

// NewList returns a list value holding the given elements.
func NewList(elems ...PropertyValue) PropertyValue {
	list := make([]PropertyValue, len(elems))
	copy(list, elems)
	return PropertyValue{kind: KindList, list: list}
}

// EmptyList returns a list value with no elements.
func EmptyList() PropertyValue {
	return PropertyValue{kind: KindList, list: []PropertyValue{}}
}

// NewScalar returns an opaque scalar value.
func NewScalar(v any) PropertyValue {
	return PropertyValue{kind: KindScalar, scalar: v}
}

// Wrap classifies a raw boundary value. It never fails: anything that is not
// numeric or list-shaped becomes a scalar.
func Wrap(raw any) PropertyValue {
	switch v := raw.(type) {
	case PropertyValue:
		return v
	case nil:
		return NewScalar(nil)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return NewInt(n)
		}
		if f, err := v.Float64(); err == nil {
			return NewNumber(f)
		}
		return NewScalar(v.String())
	case int:
		return NewInt(int64(v))
	case int8:
		return NewInt(int64(v))
	case int16:
		return NewInt(int64(v))
	case int32:
		return NewInt(int64(v))
	case int64:
		return NewInt(v)
	case uint:
		return Wrap(uint64(v))
	case uint8:
		return NewInt(int64(v))
	case uint16:
		return NewInt(int64(v))
	case uint32:
		return NewInt(int64(v))
	case uint64:
		if v <= math.MaxInt64 {
			return NewInt(int64(v))
		}
		return NewNumber(float64(v))
	case float32:
		return NewNumber(float64(v))
	case float64:
		return NewNumber(v)
	case string, bool:
		return NewScalar(v)
	case []any:
		list := make([]PropertyValue, len(v))
		for i, elem := range v {
			list[i] = Wrap(elem)
		}
		return PropertyValue{kind: KindList, list: list}
	}

	rv := reflect.ValueOf(raw)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		list := make([]PropertyValue, rv.Len())
		for i := range list {
			list[i] = Wrap(rv.Index(i).Interface())
		}
		return PropertyValue{kind: KindList, list: list}
	}

	return NewScalar(raw)
}

// Kind returns the tag of the value.
func (v PropertyValue) Kind() Kind {
	return v.kind
}

// IsInteger reports whether v is a number with an integral value.
func (v PropertyValue) IsInteger() bool {
	return v.kind == KindNumber && v.integer
}

// AsNumber returns the numeric payload.
func (v PropertyValue) AsNumber() (float64, error) {
	if v.kind != KindNumber {
		return 0, fmt.Errorf("%w: expected number, got %s", ErrTypeMismatch, v.kind)
	}
	if v.integer {
		return float64(v.i), nil
	}
	return v.f, nil
}

// AsList returns the raw elements of a list value in order.
func (v PropertyValue) AsList() ([]any, error) {
	if v.kind != KindList {
		return nil, fmt.Errorf("%w: expected list, got %s", ErrTypeMismatch, v.kind)
	}
	out := make([]any, len(v.list))
	for i, elem := range v.list {
		out[i] = elem.Raw()
	}
	return out, nil
}

// Len returns the number of elements of a list value, or zero.
func (v PropertyValue) Len() int {
	return len(v.list)
}

// Append returns a new list holding v's elements followed by the wrapped raws.
func (v PropertyValue) Append(raws ...any) (PropertyValue, error) {
	if v.kind != KindList {
		return PropertyValue{}, fmt.Errorf("%w: cannot append to %s", ErrTypeMismatch, v.kind)
	}
	list := make([]PropertyValue, 0, len(v.list)+len(raws))
	list = append(list, v.list...)
	for _, raw := range raws {
		list = append(list, Wrap(raw))
	}
	return PropertyValue{kind: KindList, list: list}, nil
}

// Raw unwraps the value back into plain Go data: int64 or float64 for numbers,
// []any for lists and the original payload for scalars.
func (v PropertyValue) Raw() any {
	switch v.kind {
	case KindNumber:
		if v.integer {
			return v.i
		}
		return v.f
	case KindList:
		out := make([]any, len(v.list))
		for i, elem := range v.list {
			out[i] = elem.Raw()
		}
		return out
	default:
		return v.scalar
	}
}

// Equal reports structural equality. Values of different kinds are never equal.
func (v PropertyValue) Equal(other PropertyValue) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindNumber:
		if v.integer && other.integer {
			return v.i == other.i
		}
		a, _ := v.AsNumber()
		b, _ := other.AsNumber()
		return a == b
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(v.scalar, other.scalar)
	}
}

// MarshalJSON encodes the raw payload.
func (v PropertyValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// UnmarshalJSON decodes any JSON value and wraps it. Numbers keep integer
// precision.
func (v *PropertyValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = Wrap(raw)
	return nil
}
