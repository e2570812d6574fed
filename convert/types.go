package convert

import (
	"encoding/json"
	"math"
)

// Vector2 is a 2-component spatial vector.
type Vector2 struct {
	X float32
	Y float32
}

// Vector3 is a 3-component spatial vector.
type Vector3 struct {
	X float32
	Y float32
	Z float32
}

// Vector4 is a 4-component vector.
type Vector4 struct {
	X float32
	Y float32
	Z float32
	W float32
}

// Quaternion is a rotation. Only unit quaternions are meaningful.
type Quaternion struct {
	X float32
	Y float32
	Z float32
	W float32
}

// IdentityQuaternion is the rotation that leaves vectors unchanged.
var IdentityQuaternion = Quaternion{W: 1}

// Normalized returns q scaled to unit length. A zero quaternion normalizes to
// the identity rotation.
func (q Quaternion) Normalized() Quaternion {
	x, y, z, w := float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)
	n := math.Sqrt(x*x + y*y + z*z + w*w)
	if n < 1e-12 || math.IsNaN(n) || math.IsInf(n, 0) {
		return IdentityQuaternion
	}
	return Quaternion{
		X: float32(x / n),
		Y: float32(y / n),
		Z: float32(z / n),
		W: float32(w / n),
	}
}

type vector2Record struct {
	X float32Value
	Y float32Value
}

type vector3Record struct {
	X float32Value
	Y float32Value
	Z float32Value
}

type vector4Record struct {
	X float32Value
	Y float32Value
	Z float32Value
	W float32Value
}

func (v Vector2) MarshalJSON() ([]byte, error) {
	return json.Marshal(vector2Record{X: float32Value(v.X), Y: float32Value(v.Y)})
}

func (v *Vector2) UnmarshalJSON(b []byte) error {
	var r vector2Record
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*v = Vector2{X: float32(r.X), Y: float32(r.Y)}
	return nil
}

func (v Vector3) MarshalJSON() ([]byte, error) {
	return json.Marshal(vector3Record{X: float32Value(v.X), Y: float32Value(v.Y), Z: float32Value(v.Z)})
}

func (v *Vector3) UnmarshalJSON(b []byte) error {
	var r vector3Record
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*v = Vector3{X: float32(r.X), Y: float32(r.Y), Z: float32(r.Z)}
	return nil
}

func (v Vector4) MarshalJSON() ([]byte, error) {
	return json.Marshal(toVector4Record(v.X, v.Y, v.Z, v.W))
}

func (v *Vector4) UnmarshalJSON(b []byte) error {
	var r vector4Record
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*v = Vector4{X: float32(r.X), Y: float32(r.Y), Z: float32(r.Z), W: float32(r.W)}
	return nil
}

func (q Quaternion) MarshalJSON() ([]byte, error) {
	return json.Marshal(toVector4Record(q.X, q.Y, q.Z, q.W))
}

func (q *Quaternion) UnmarshalJSON(b []byte) error {
	var r vector4Record
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*q = Quaternion{X: float32(r.X), Y: float32(r.Y), Z: float32(r.Z), W: float32(r.W)}
	return nil
}

func toVector4Record(x, y, z, w float32) vector4Record {
	return vector4Record{X: float32Value(x), Y: float32Value(y), Z: float32Value(z), W: float32Value(w)}
}
