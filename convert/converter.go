// Package convert turns saved field values into small structured records
// and back, one converter per value kind.
package convert

import (
	"encoding/json"
	"fmt"
)

// Kind names a family of values that share a converter.
type Kind string

const (
	KindBool       Kind = "bool"
	KindInt        Kind = "int"
	KindFloat      Kind = "float"
	KindString     Kind = "string"
	KindVector2    Kind = "vector2"
	KindVector3    Kind = "vector3"
	KindVector4    Kind = "vector4"
	KindQuaternion Kind = "quaternion"
)

// Converter encodes one kind of value into a JSON-marshalable record and
// decodes it back. Decode returns the kind's canonical Go type.
type Converter interface {
	Kind() Kind
	Encode(v any) (any, error)
	Decode(raw json.RawMessage) (any, error)
}

type BoolConverter struct{}

func (BoolConverter) Kind() Kind { return KindBool }

func (BoolConverter) Encode(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, unsupported(KindBool, v)
	}
	return b, nil
}

func (BoolConverter) Decode(raw json.RawMessage) (any, error) {
	return decodeRecord[bool](KindBool, raw)
}

// IntConverter stores any Go integer type. Decoded values are int64.
type IntConverter struct{}

func (IntConverter) Kind() Kind { return KindInt }

func (IntConverter) Encode(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	default:
		return nil, unsupported(KindInt, v)
	}
}

func (IntConverter) Decode(raw json.RawMessage) (any, error) {
	return decodeRecord[int64](KindInt, raw)
}

// FloatConverter stores float32 and float64. Decoded values are float64.
// NaN and the infinities are written as string tokens.
type FloatConverter struct{}

func (FloatConverter) Kind() Kind { return KindFloat }

func (FloatConverter) Encode(v any) (any, error) {
	switch f := v.(type) {
	case float32:
		return float64Value(f), nil
	case float64:
		return float64Value(f), nil
	default:
		return nil, unsupported(KindFloat, v)
	}
}

func (FloatConverter) Decode(raw json.RawMessage) (any, error) {
	f, err := decodeRecord[float64Value](KindFloat, raw)
	if err != nil {
		return nil, err
	}
	return float64(f), nil
}

type StringConverter struct{}

func (StringConverter) Kind() Kind { return KindString }

func (StringConverter) Encode(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, unsupported(KindString, v)
	}
	return s, nil
}

func (StringConverter) Decode(raw json.RawMessage) (any, error) {
	return decodeRecord[string](KindString, raw)
}

// Vector2Converter writes {"X":..,"Y":..}.
type Vector2Converter struct{}

func (Vector2Converter) Kind() Kind { return KindVector2 }

func (Vector2Converter) Encode(v any) (any, error) {
	return encodeRecord[Vector2](KindVector2, v)
}

func (Vector2Converter) Decode(raw json.RawMessage) (any, error) {
	return decodeRecord[Vector2](KindVector2, raw)
}

// Vector3Converter writes {"X":..,"Y":..,"Z":..}.
type Vector3Converter struct{}

func (Vector3Converter) Kind() Kind { return KindVector3 }

func (Vector3Converter) Encode(v any) (any, error) {
	return encodeRecord[Vector3](KindVector3, v)
}

func (Vector3Converter) Decode(raw json.RawMessage) (any, error) {
	return decodeRecord[Vector3](KindVector3, raw)
}

// Vector4Converter writes {"X":..,"Y":..,"Z":..,"W":..}.
type Vector4Converter struct{}

func (Vector4Converter) Kind() Kind { return KindVector4 }

func (Vector4Converter) Encode(v any) (any, error) {
	return encodeRecord[Vector4](KindVector4, v)
}

func (Vector4Converter) Decode(raw json.RawMessage) (any, error) {
	return decodeRecord[Vector4](KindVector4, raw)
}

// QuaternionConverter writes {"X":..,"Y":..,"Z":..,"W":..}. Values read back
// are re-normalized since a hand-edited save may hold a non-unit rotation.
type QuaternionConverter struct{}

func (QuaternionConverter) Kind() Kind { return KindQuaternion }

func (QuaternionConverter) Encode(v any) (any, error) {
	return encodeRecord[Quaternion](KindQuaternion, v)
}

func (QuaternionConverter) Decode(raw json.RawMessage) (any, error) {
	q, err := decodeRecord[Quaternion](KindQuaternion, raw)
	if err != nil {
		return nil, err
	}
	return q.Normalized(), nil
}

func encodeRecord[T any](kind Kind, v any) (any, error) {
	switch r := v.(type) {
	case T:
		return r, nil
	case *T:
		if r == nil {
			return nil, unsupported(kind, v)
		}
		return *r, nil
	default:
		return nil, unsupported(kind, v)
	}
}

func decodeRecord[T any](kind Kind, raw json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding %s: %w", kind, err)
	}
	return out, nil
}

func unsupported(kind Kind, v any) error {
	return fmt.Errorf("%w: %T is not a %s", ErrUnsupportedType, v, kind)
}
