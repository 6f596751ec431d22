package shape

import (
	"fmt"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/firecat2d/firecat/collision"
	"github.com/firecat2d/firecat/vector"
)

type Circle struct {
	Pos vector.Vec2
	Rad float32
}

func NewCircle(pos vector.Vec2, rad float32) (*Circle, error) {
	if rad < 0 {
		return nil, errors.New("circle radius is negative").
			WithType(ErrTypeInvalidShape).
			WithTag("radius", rad)
	}

	return &Circle{Pos: pos, Rad: rad}, nil
}

// MustCircle is like NewCircle but panics when the circle is invalid.
func MustCircle(pos vector.Vec2, rad float32) *Circle {
	c, err := NewCircle(pos, rad)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Circle) Type() Type {
	return TypeCircle
}

func (c *Circle) Center() vector.Vec2 {
	return c.Pos
}

func (c *Circle) AABB() (vector.Vec2, vector.Vec2) {
	return c.Pos.Sub(vector.Splat(c.Rad)), c.Pos.Add(vector.Splat(c.Rad))
}

func (c *Circle) Contains(point vector.Vec2) bool {
	return collision.PointCircle(point, c.Pos, c.Rad)
}

func (c *Circle) Translate(delta vector.Vec2) {
	c.Pos = c.Pos.Add(delta)
}

func (c *Circle) Scale(factor float32) {
	mustScale(c, factor, true)
	c.Rad *= factor
}

func (c *Circle) Collide(other Shape, res *collision.Response) bool {
	return Check(c, other, res)
}

func (c *Circle) String() string {
	return fmt.Sprintf("Circle (X: %.4f, Y: %.4f, Rad: %.4f)", c.Pos.X, c.Pos.Y, c.Rad)
}

func (c *Circle) sealed() {}
