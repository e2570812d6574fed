package convert

import (
	"encoding/json"
	"fmt"
	"math"
)

// Non-finite floats have no JSON number form, so they are written as these
// string tokens.
const (
	TokenNaN         = "NaN"
	TokenInfinity    = "Infinity"
	TokenNegInfinity = "-Infinity"
)

func nonFiniteToken(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return TokenNaN, true
	case math.IsInf(f, 1):
		return TokenInfinity, true
	case math.IsInf(f, -1):
		return TokenNegInfinity, true
	default:
		return "", false
	}
}

func parseFloatToken(b []byte) (float64, error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return 0, err
	}
	switch s {
	case TokenNaN:
		return math.NaN(), nil
	case TokenInfinity:
		return math.Inf(1), nil
	case TokenNegInfinity:
		return math.Inf(-1), nil
	default:
		return 0, fmt.Errorf("unknown float token %q", s)
	}
}

func isJSONString(b []byte) bool {
	return len(b) > 0 && b[0] == '"'
}

// float64Value is a float64 that survives JSON when it is not finite.
type float64Value float64

func (f float64Value) MarshalJSON() ([]byte, error) {
	if tok, ok := nonFiniteToken(float64(f)); ok {
		return json.Marshal(tok)
	}
	return json.Marshal(float64(f))
}

func (f *float64Value) UnmarshalJSON(b []byte) error {
	if isJSONString(b) {
		v, err := parseFloatToken(b)
		if err != nil {
			return err
		}
		*f = float64Value(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = float64Value(v)
	return nil
}

// float32Value keeps float32 formatting for finite values.
type float32Value float32

func (f float32Value) MarshalJSON() ([]byte, error) {
	if tok, ok := nonFiniteToken(float64(f)); ok {
		return json.Marshal(tok)
	}
	return json.Marshal(float32(f))
}

func (f *float32Value) UnmarshalJSON(b []byte) error {
	if isJSONString(b) {
		v, err := parseFloatToken(b)
		if err != nil {
			return err
		}
		*f = float32Value(v)
		return nil
	}

	var v float32
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = float32Value(v)
	return nil
}
