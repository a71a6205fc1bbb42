// Package anim accumulates per-channel keyframes during replay and
// resamples them onto a uniform output frame grid.
package anim

import (
	"fmt"

	mmath "github.com/meshport/meshport/pkg/math"
)

// ValueKind identifies the payload type of a keyframe value.
type ValueKind uint8

const (
	ValueNumber ValueKind = iota
	ValueBool
	ValueVec3
	ValueVec4
	ValueQuat
	ValueTransform
)

// Value is a tagged keyframe value: scalar, vector, quaternion or a
// decomposed transform.
type Value struct {
	Kind ValueKind

	Number float64
	Bool   bool
	Vec3   mmath.Vec3
	Vec4   [4]float32
	Quat   mmath.Quat

	// Transform components (ValueTransform).
	Position mmath.Vec3
	Rotation mmath.Quat
	Scale    mmath.Vec3
}

// NumberValue wraps a scalar.
func NumberValue(n float64) Value {
	return Value{Kind: ValueNumber, Number: n}
}

// BoolValue wraps a boolean.
func BoolValue(b bool) Value {
	return Value{Kind: ValueBool, Bool: b}
}

// Vec3Value wraps a 3-vector.
func Vec3Value(v mmath.Vec3) Value {
	return Value{Kind: ValueVec3, Vec3: v}
}

// QuatValue wraps a rotation.
func QuatValue(q mmath.Quat) Value {
	return Value{Kind: ValueQuat, Quat: q}
}

// TransformValue decomposes an affine matrix into a transform value.
func TransformValue(m mmath.Mat4) Value {
	p, r, s := m.Decompose()
	return Value{Kind: ValueTransform, Position: p, Rotation: r, Scale: s}
}

// Matrix recomposes a transform value into an affine matrix.
func (v Value) Matrix() mmath.Mat4 {
	return mmath.Compose(v.Position, v.Rotation, v.Scale)
}

// Interpolate blends two values of the same kind by t in [0, 1].
// Rotations use spherical interpolation; booleans hold the left value.
func (v Value) Interpolate(other Value, t float32) Value {
	switch v.Kind {
	case ValueNumber:
		return NumberValue(v.Number + float64(t)*(other.Number-v.Number))
	case ValueVec3:
		return Vec3Value(v.Vec3.Lerp(other.Vec3, t))
	case ValueVec4:
		var out [4]float32
		for i := range out {
			out[i] = v.Vec4[i] + t*(other.Vec4[i]-v.Vec4[i])
		}
		return Value{Kind: ValueVec4, Vec4: out}
	case ValueQuat:
		return QuatValue(v.Quat.Slerp(other.Quat, t))
	case ValueTransform:
		return Value{
			Kind:     ValueTransform,
			Position: v.Position.Lerp(other.Position, t),
			Rotation: v.Rotation.Slerp(other.Rotation, t),
			Scale:    v.Scale.Lerp(other.Scale, t),
		}
	default:
		// Discrete kinds hold the preceding value.
		return v
	}
}

// Discrete reports whether the value can only be stepped, not blended.
func (v Value) Discrete() bool {
	return v.Kind == ValueBool
}

// CoerceValue converts a decoded wire value into a typed Value. The
// property name disambiguates 4-element payloads: rotation properties
// become quaternions, everything else RGBA vectors. 16-element payloads
// become transforms.
func CoerceValue(raw any, property string) (Value, error) {
	switch v := raw.(type) {
	case bool:
		return BoolValue(v), nil
	case float64:
		return NumberValue(v), nil
	case float32:
		return NumberValue(float64(v)), nil
	case int:
		return NumberValue(float64(v)), nil
	case int8:
		return NumberValue(float64(v)), nil
	case int16:
		return NumberValue(float64(v)), nil
	case int32:
		return NumberValue(float64(v)), nil
	case int64:
		return NumberValue(float64(v)), nil
	case uint8:
		return NumberValue(float64(v)), nil
	case uint16:
		return NumberValue(float64(v)), nil
	case uint32:
		return NumberValue(float64(v)), nil
	case uint64:
		return NumberValue(float64(v)), nil
	}

	floats, err := coerceFloats(raw)
	if err != nil {
		return Value{}, err
	}

	switch len(floats) {
	case 3:
		return Vec3Value(mmath.Vec3{X: floats[0], Y: floats[1], Z: floats[2]}), nil
	case 4:
		if isRotationProperty(property) {
			return QuatValue(mmath.Quat{X: floats[0], Y: floats[1], Z: floats[2], W: floats[3]}), nil
		}
		return Value{Kind: ValueVec4, Vec4: [4]float32{floats[0], floats[1], floats[2], floats[3]}}, nil
	case 16:
		m, _ := mmath.FromSlice(floats)
		return TransformValue(m), nil
	default:
		return Value{}, fmt.Errorf("unsupported value shape: %d elements", len(floats))
	}
}

func isRotationProperty(property string) bool {
	return property == "quaternion" || property == "rotation"
}

func coerceFloats(raw any) ([]float32, error) {
	switch v := raw.(type) {
	case []float32:
		return v, nil
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, nil
	case []any:
		out := make([]float32, len(v))
		for i, e := range v {
			f, err := coerceFloat(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}

func coerceFloat(raw any) (float32, error) {
	switch v := raw.(type) {
	case float64:
		return float32(v), nil
	case float32:
		return v, nil
	case int:
		return float32(v), nil
	case int8:
		return float32(v), nil
	case int16:
		return float32(v), nil
	case int32:
		return float32(v), nil
	case int64:
		return float32(v), nil
	case uint8:
		return float32(v), nil
	case uint16:
		return float32(v), nil
	case uint32:
		return float32(v), nil
	case uint64:
		return float32(v), nil
	default:
		return 0, fmt.Errorf("not a number: %T", raw)
	}
}
