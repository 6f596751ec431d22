package vector

import (
	"fmt"
	"math"
)

// Epsilon is the length under which a vector is considered to have no
// direction.
const Epsilon = (float32)(0.001)

func Swap(a *float32, b *float32) {
	*a, *b = *b, *a
}

func EqualWithEpsilon(a float32, b float32, epsilon float64) bool {
	return math.Abs((float64)(a-b)) <= epsilon
}

func Clamp(v float32, min float32, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Vec2 is a 2D vector. It is a value type, every operation returns a new
// vector.
type Vec2 struct {
	X float32
	Y float32
}

func New(x, y float32) Vec2 {
	return Vec2{x, y}
}

// Splat returns a vector with both components set to v.
func Splat(v float32) Vec2 {
	return Vec2{v, v}
}

func (v Vec2) IsValid() bool {
	return !math.IsNaN((float64)(v.X)) && !math.IsInf((float64)(v.X), 0) &&
		!math.IsNaN((float64)(v.Y)) && !math.IsInf((float64)(v.Y), 0)
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

func (v Vec2) Mul(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// MulVec multiplies component wise.
func (v Vec2) MulVec(o Vec2) Vec2 {
	return Vec2{v.X * o.X, v.Y * o.Y}
}

func (v Vec2) Div(s float32) Vec2 {
	return Vec2{v.X / s, v.Y / s}
}

func (v Vec2) Invert() Vec2 {
	return Vec2{-v.X, -v.Y}
}

// Perp returns the vector rotated by 90 degrees counter-clockwise.
func (v Vec2) Perp() Vec2 {
	return Vec2{-v.Y, v.X}
}

// Rotate rotates the vector by angle radians, counter-clockwise.
func (v Vec2) Rotate(angle float32) Vec2 {
	sin, cos := math.Sincos((float64)(angle))
	return Vec2{
		X: (float32)((float64)(v.X)*cos - (float64)(v.Y)*sin),
		Y: (float32)((float64)(v.X)*sin + (float64)(v.Y)*cos),
	}
}

func (v Vec2) Dot(o Vec2) float32 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the z component of the 3D cross product.
func (v Vec2) Cross(o Vec2) float32 {
	return v.X*o.Y - v.Y*o.X
}

func (v Vec2) LengthSqr() float32 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vec2) Length() float32 {
	return (float32)(math.Sqrt((float64)(v.LengthSqr())))
}

func (v Vec2) DistanceTo(o Vec2) float32 {
	return v.Sub(o).Length()
}

func (v Vec2) DistanceSqrTo(o Vec2) float32 {
	return v.Sub(o).LengthSqr()
}

// Normalize returns the unit vector of v. Vectors shorter than Epsilon are
// returned unchanged.
func (v Vec2) Normalize() Vec2 {
	return v.NormalizeWithLength(v.Length())
}

// NormalizeWithLength is Normalize for callers that already computed the
// length of v.
func (v Vec2) NormalizeWithLength(length float32) Vec2 {
	if length > Epsilon {
		return Vec2{v.X / length, v.Y / length}
	}
	return v
}

// NormalizeSafe is Normalize but returns fallback when v has no direction.
func (v Vec2) NormalizeSafe(fallback Vec2) Vec2 {
	length := v.Length()
	if length > Epsilon {
		return Vec2{v.X / length, v.Y / length}
	}
	return fallback
}

func (v Vec2) Equal(o Vec2) bool {
	return v.X == o.X && v.Y == o.Y
}

func (v Vec2) EqualWithEpsilon(o Vec2, epsilon float64) bool {
	return EqualWithEpsilon(v.X, o.X, epsilon) && EqualWithEpsilon(v.Y, o.Y, epsilon)
}

func (v Vec2) String() string {
	return fmt.Sprintf("X: %.4f, Y: %.4f", v.X, v.Y)
}

// Min returns the component wise minimum of a and b.
func Min(a Vec2, b Vec2) Vec2 {
	return Vec2{min(a.X, b.X), min(a.Y, b.Y)}
}

// Max returns the component wise maximum of a and b.
func Max(a Vec2, b Vec2) Vec2 {
	return Vec2{max(a.X, b.X), max(a.Y, b.Y)}
}
