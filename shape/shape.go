package shape

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/firecat2d/firecat/collision"
	"github.com/firecat2d/firecat/vector"
)

// ErrTypeInvalidShape is the error type of shapes that break their
// construction invariants.
const ErrTypeInvalidShape = "invalid_shape"

type Type uint8

const (
	TypeCircle Type = iota
	TypeRect
	TypePolygon

	typeCount
)

func (t Type) String() string {
	switch t {
	case TypeCircle:
		return "circle"
	case TypeRect:
		return "rect"
	case TypePolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// Shape is a collision shape. The set of shapes is closed: *Circle, *Rect and
// *Polygon are the only implementations.
//
// Shapes are owned by the caller, the collision functions only read them for
// the duration of a call.
type Shape interface {
	Type() Type

	Center() vector.Vec2

	// AABB returns the min and max corners of the axis aligned bounding box.
	AABB() (vector.Vec2, vector.Vec2)

	Contains(point vector.Vec2) bool

	Translate(delta vector.Vec2)

	// Scale scales the shape relative to its center. It panics when factor
	// would produce a degenerate shape.
	Scale(factor float32)

	// Collide checks the collision between this shape and other. When res is
	// not nil and Collide returns true, res holds the normal pointing from this
	// shape towards other and the penetration depth.
	Collide(other Shape, res *collision.Response) bool

	String() string

	sealed()
}

func mustScale(s Shape, factor float32, allowZero bool) {
	if factor > 0 || (allowZero && factor == 0) {
		return
	}

	panic(errors.New("invalid scale factor").
		WithType(ErrTypeInvalidShape).
		WithTag("shape", s.Type().String()).
		WithTag("factor", factor))
}
