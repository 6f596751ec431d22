package shape

import (
	"fmt"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/firecat2d/firecat/collision"
	"github.com/firecat2d/firecat/vector"
)

// Rect is an axis aligned rectangle. Min must stay strictly lower than Max on
// both axes, the collision functions rely on it.
type Rect struct {
	Min vector.Vec2
	Max vector.Vec2
}

func NewRect(min, max vector.Vec2) (*Rect, error) {
	if !(min.X < max.X) || !(min.Y < max.Y) {
		return nil, errors.New("rect min is not lower than max").
			WithType(ErrTypeInvalidShape).
			WithTag("min", min.String()).
			WithTag("max", max.String())
	}

	return &Rect{Min: min, Max: max}, nil
}

// MustRect is like NewRect but panics when the rect is invalid.
func MustRect(min, max vector.Vec2) *Rect {
	r, err := NewRect(min, max)
	if err != nil {
		panic(err)
	}
	return r
}

// RectFromDims returns a rect of the given size centered on center.
func RectFromDims(width, height float32, center vector.Vec2) (*Rect, error) {
	halfSize := vector.Vec2{X: width / 2, Y: height / 2}
	return NewRect(center.Sub(halfSize), center.Add(halfSize))
}

func (r *Rect) Width() float32 {
	return r.Max.X - r.Min.X
}

func (r *Rect) Height() float32 {
	return r.Max.Y - r.Min.Y
}

// Points returns the corners in counter-clockwise order, starting at Min.
func (r *Rect) Points() [4]vector.Vec2 {
	return [4]vector.Vec2{
		r.Min,
		{X: r.Max.X, Y: r.Min.Y},
		r.Max,
		{X: r.Min.X, Y: r.Max.Y},
	}
}

func (r *Rect) Type() Type {
	return TypeRect
}

func (r *Rect) Center() vector.Vec2 {
	return r.Min.Add(r.Max.Sub(r.Min).Div(2))
}

func (r *Rect) AABB() (vector.Vec2, vector.Vec2) {
	return r.Min, r.Max
}

func (r *Rect) Contains(point vector.Vec2) bool {
	return collision.PointRect(point, r.Min, r.Max)
}

func (r *Rect) Translate(delta vector.Vec2) {
	r.Min = r.Min.Add(delta)
	r.Max = r.Max.Add(delta)
}

func (r *Rect) Scale(factor float32) {
	mustScale(r, factor, false)

	center := r.Center()
	r.Min = r.Min.Sub(center).Mul(factor).Add(center)
	r.Max = r.Max.Sub(center).Mul(factor).Add(center)
}

func (r *Rect) Collide(other Shape, res *collision.Response) bool {
	return Check(r, other, res)
}

func (r *Rect) String() string {
	return fmt.Sprintf("Rect(Min (%s) Max (%s))", r.Min, r.Max)
}

func (r *Rect) sealed() {}
