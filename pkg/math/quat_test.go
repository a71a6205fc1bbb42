package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.W != 1 || q.X != 0 || q.Y != 0 || q.Z != 0 {
		t.Errorf("QuatIdentity: got %v", q)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 2, Y: 0, Z: 0, W: 0}.Normalize()
	if abs(q.X-1) > 0.001 {
		t.Errorf("Normalize: got %v, want X=1", q)
	}

	// Degenerate quaternion falls back to identity
	q = Quat{}.Normalize()
	if q != QuatIdentity() {
		t.Errorf("Normalize zero: got %v, want identity", q)
	}
}

func TestSlerpEndpoints(t *testing.T) {
	a := QuatIdentity()
	b := axisAngle(0, 0, 1, float32(math.Pi/2))

	if got := a.Slerp(b, 0); quatDist(got, a) > 0.001 {
		t.Errorf("Slerp(0): got %v, want %v", got, a)
	}
	if got := a.Slerp(b, 1); quatDist(got, b) > 0.001 {
		t.Errorf("Slerp(1): got %v, want %v", got, b)
	}
}

func TestSlerpHalfway(t *testing.T) {
	a := QuatIdentity()
	b := axisAngle(0, 0, 1, float32(math.Pi/2))
	want := axisAngle(0, 0, 1, float32(math.Pi/4))

	got := a.Slerp(b, 0.5)
	if quatDist(got, want) > 0.001 {
		t.Errorf("Slerp(0.5): got %v, want %v", got, want)
	}
}

func TestSlerpShortestPath(t *testing.T) {
	a := axisAngle(0, 1, 0, 0.1)
	b := axisAngle(0, 1, 0, 0.3)
	// Negated representation of the same rotation
	bn := Quat{X: -b.X, Y: -b.Y, Z: -b.Z, W: -b.W}

	got := a.Slerp(bn, 0.5)
	want := axisAngle(0, 1, 0, 0.2)
	if quatDist(got, want) > 0.001 {
		t.Errorf("Slerp shortest path: got %v, want %v", got, want)
	}
}

func TestQuatFromMat3RoundTrip(t *testing.T) {
	cases := []Quat{
		QuatIdentity(),
		axisAngle(1, 0, 0, 0.5),
		axisAngle(0, 1, 0, 2.0),
		axisAngle(0, 0, 1, -1.2),
		axisAngle(0.577, 0.577, 0.577, 3.0),
	}

	for _, q := range cases {
		m := q.ToMat4()
		got := QuatFromMat3(m.Mat3x3())
		if quatDist(got, q) > 0.001 {
			t.Errorf("round trip: got %v, want %v", got, q)
		}
	}
}

func axisAngle(x, y, z, angle float32) Quat {
	axis := Vec3{x, y, z}.Normalize()
	s := float32(math.Sin(float64(angle / 2)))
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: float32(math.Cos(float64(angle / 2))),
	}
}

// quatDist measures rotation difference, sign-insensitive.
func quatDist(a, b Quat) float32 {
	d := a.Dot(b)
	if d < 0 {
		d = -d
	}
	return 1 - d
}
