package models

import (
	"github.com/firecat2d/firecat/collision"
	"github.com/firecat2d/firecat/shape"
)

// Body is a shape registered in a world.
type Body struct {
	ID    uint32
	Shape shape.Shape
}

// Contact is a pair of colliding bodies. A is always the lowest id and
// Response.Normal points from A towards B.
type Contact struct {
	A        uint32
	B        uint32
	Response collision.Response
}
