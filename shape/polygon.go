package shape

import (
	"fmt"
	"math"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/firecat2d/firecat/collision"
	"github.com/firecat2d/firecat/vector"
)

const convexEpsilon = 1e-4

// Polygon is a convex polygon with counter-clockwise vertices. The edge
// normals and the center are derived from the vertices and kept up to date by
// every mutating method.
type Polygon struct {
	points  []vector.Vec2
	normals []vector.Vec2
	center  vector.Vec2
}

// NewPolygon creates a polygon from a copy of points. It returns an error when
// the points do not describe a convex polygon in counter-clockwise order.
func NewPolygon(points []vector.Vec2) (*Polygon, error) {
	p := &Polygon{}
	if err := p.SetPoints(points); err != nil {
		return nil, err
	}
	return p, nil
}

// MustPolygon is like NewPolygon but panics when the polygon is invalid.
func MustPolygon(points []vector.Vec2) *Polygon {
	p, err := NewPolygon(points)
	if err != nil {
		panic(err)
	}
	return p
}

// PolygonFromSides creates a regular polygon whose vertices lie on a circle of
// the given radius.
func PolygonFromSides(sides int, center vector.Vec2, radius float32) (*Polygon, error) {
	if sides < 3 {
		return nil, errors.New("polygon needs at least 3 sides").
			WithType(ErrTypeInvalidShape).
			WithTag("sides", sides)
	}
	if !(radius > 0) {
		return nil, errors.New("polygon radius is not positive").
			WithType(ErrTypeInvalidShape).
			WithTag("radius", radius)
	}

	points := make([]vector.Vec2, sides)
	step := 2 * math.Pi / float64(sides)

	for i := range points {
		sin, cos := math.Sincos(step * float64(i))
		points[i] = center.Add(vector.Vec2{
			X: float32(cos) * radius,
			Y: float32(sin) * radius,
		})
	}
	return NewPolygon(points)
}

// SetPoints replaces the vertices with a copy of points. The polygon is left
// untouched when points are invalid.
func (p *Polygon) SetPoints(points []vector.Vec2) error {
	if err := validatePoints(points); err != nil {
		return err
	}

	p.points = append(p.points[:0], points...)
	p.center = centroid(p.points)
	p.updateNormals()
	return nil
}

// Points returns the vertices. The slice is owned by the polygon and must not
// be modified.
func (p *Polygon) Points() []vector.Vec2 {
	return p.points
}

// Normals returns the outward unit normals, normals[i] belonging to the edge
// that starts at vertex i. The slice is owned by the polygon.
func (p *Polygon) Normals() []vector.Vec2 {
	return p.normals
}

// Rotate rotates the polygon counter-clockwise by angle radians around its
// center.
func (p *Polygon) Rotate(angle float32) {
	for i, point := range p.points {
		p.points[i] = point.Sub(p.center).Rotate(angle).Add(p.center)
	}
	p.updateNormals()
}

func (p *Polygon) Type() Type {
	return TypePolygon
}

func (p *Polygon) Center() vector.Vec2 {
	return p.center
}

func (p *Polygon) AABB() (vector.Vec2, vector.Vec2) {
	min, max := p.points[0], p.points[0]
	for _, point := range p.points[1:] {
		min = vector.Min(min, point)
		max = vector.Max(max, point)
	}
	return min, max
}

func (p *Polygon) Contains(point vector.Vec2) bool {
	return collision.PointPolygon(point, p.points)
}

func (p *Polygon) Translate(delta vector.Vec2) {
	for i := range p.points {
		p.points[i] = p.points[i].Add(delta)
	}
	p.center = p.center.Add(delta)
}

func (p *Polygon) Scale(factor float32) {
	mustScale(p, factor, false)

	for i, point := range p.points {
		p.points[i] = point.Sub(p.center).Mul(factor).Add(p.center)
	}
	p.updateNormals()
}

func (p *Polygon) Collide(other Shape, res *collision.Response) bool {
	return Check(p, other, res)
}

func (p *Polygon) String() string {
	var b strings.Builder

	b.WriteString("Polygon [")
	for i, point := range p.points {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "(%s)", point)
	}
	b.WriteString("]")
	return b.String()
}

func (p *Polygon) sealed() {}

func (p *Polygon) updateNormals() {
	if cap(p.normals) < len(p.points) {
		p.normals = make([]vector.Vec2, len(p.points))
	}
	p.normals = p.normals[:len(p.points)]

	for i, point := range p.points {
		next := p.points[(i+1)%len(p.points)]
		edge := next.Sub(point)
		p.normals[i] = vector.Vec2{X: edge.Y, Y: -edge.X}.Normalize()
	}
}

func centroid(points []vector.Vec2) vector.Vec2 {
	var sum vector.Vec2
	for _, point := range points {
		sum = sum.Add(point)
	}
	return sum.Div(float32(len(points)))
}

func validatePoints(points []vector.Vec2) error {
	if len(points) < 3 {
		return errors.New("polygon needs at least 3 points").
			WithType(ErrTypeInvalidShape).
			WithTag("points", len(points))
	}

	var area float32
	var turn float64

	for i, point := range points {
		if !point.IsValid() {
			return errors.New("polygon point is not a number").
				WithType(ErrTypeInvalidShape).
				WithTag("index", i)
		}

		next := points[(i+1)%len(points)]
		after := points[(i+2)%len(points)]

		edge := next.Sub(point)
		nextEdge := after.Sub(next)
		if edge.LengthSqr() == 0 {
			return errors.New("polygon has duplicate points").
				WithType(ErrTypeInvalidShape).
				WithTag("index", i)
		}

		cross := edge.Cross(nextEdge)
		if cross < -convexEpsilon {
			return errors.New("polygon is not convex or not counter-clockwise").
				WithType(ErrTypeInvalidShape).
				WithTag("index", i)
		}

		area += point.Cross(next)
		turn += math.Atan2(float64(cross), float64(edge.Dot(nextEdge)))
	}

	if area <= 0 {
		return errors.New("polygon is not counter-clockwise").
			WithType(ErrTypeInvalidShape).
			WithTag("area", area/2)
	}

	// Left turns only with more than one winding is a star.
	if math.Abs(turn-2*math.Pi) > 0.01 {
		return errors.New("polygon is self-intersecting").
			WithType(ErrTypeInvalidShape).
			WithTag("turn", turn)
	}
	return nil
}
