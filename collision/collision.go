package collision

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/firecat2d/firecat/vector"
)

const (
	ErrTypeNormalsMismatch = "normals_mismatch"
)

// Response holds the minimum translation between two colliding shapes.
//
// Normal is a unit vector pointing from the first shape towards the second
// one. The first shape is separated by moving it along -Normal * Depth, the
// second one by moving it along Normal * Depth.
//
// A Response is only meaningful when the call that filled it returned true.
type Response struct {
	Normal vector.Vec2
	Depth  float32
}

// Separation returns the translation to apply to the first shape.
func (r Response) Separation() vector.Vec2 {
	return r.Normal.Mul(-r.Depth)
}

// Inverted returns the response seen from the second shape.
func (r Response) Inverted() Response {
	return Response{Normal: r.Normal.Invert(), Depth: r.Depth}
}

const centerEpsilon = (float32)(0.000001)

var (
	fallbackAxis = vector.Vec2{X: 1, Y: 0}

	// Outward normals of a rect, matching the edge order of rectPoints.
	rectNormals = [4]vector.Vec2{
		{X: 0, Y: -1},
		{X: 1, Y: 0},
		{X: 0, Y: 1},
		{X: -1, Y: 0},
	}
)

// rectPoints returns the corners of a rect in counter-clockwise order,
// starting at min.
func rectPoints(min, max vector.Vec2) [4]vector.Vec2 {
	return [4]vector.Vec2{
		min,
		{X: max.X, Y: min.Y},
		max,
		{X: min.X, Y: max.Y},
	}
}

func projectVertices(points []vector.Vec2, axis vector.Vec2) (float32, float32) {
	min := float32(math.MaxFloat32)
	max := -min

	for _, p := range points {
		proj := axis.Dot(p)
		if proj < min {
			min = proj
		}
		if proj > max {
			max = proj
		}
	}
	return min, max
}

func projectCircle(center vector.Vec2, radius float32, axis vector.Vec2) (float32, float32) {
	proj := axis.Dot(center)
	return proj - radius, proj + radius
}

// overlap returns whether two projected intervals overlap and the depth of
// that overlap. Touching intervals do not overlap.
func overlap(minA, maxA, minB, maxB float32) (bool, float32) {
	if minA >= maxB || minB >= maxA {
		return false, 0
	}
	return true, min(maxB-minA, maxA-minB)
}

// axisTracker keeps the axis with the smallest overlap found so far.
type axisTracker struct {
	normal vector.Vec2
	depth  float32
}

func newAxisTracker() axisTracker {
	return axisTracker{depth: math.MaxFloat32}
}

func (t *axisTracker) offer(axis vector.Vec2, depth float32) {
	if depth < t.depth {
		t.depth = depth
		t.normal = axis
	}
}

// resolve orients the tracked axis from centerA towards centerB and writes it
// to res.
func (t *axisTracker) resolve(centerA, centerB vector.Vec2, res *Response) {
	if centerB.Sub(centerA).Dot(t.normal) < 0 {
		t.normal = t.normal.Invert()
	}
	res.Normal = t.normal
	res.Depth = t.depth
}

// CircleCircle tests two circles.
func CircleCircle(posA vector.Vec2, radA float32, posB vector.Vec2, radB float32, res *Response) bool {
	sub := posB.Sub(posA)
	distSqr := sub.LengthSqr()
	rad := radA + radB

	if distSqr >= rad*rad {
		return false
	}

	if res != nil {
		dist := (float32)(math.Sqrt((float64)(distSqr)))
		if dist > centerEpsilon {
			res.Normal = sub.Div(dist)
		} else {
			res.Normal = fallbackAxis
		}
		res.Depth = rad - dist
	}
	return true
}

// CircleRect tests a circle against an axis aligned rect.
func CircleRect(circlePos vector.Vec2, circleRad float32, rectMin, rectMax vector.Vec2, res *Response) bool {
	if PointRectInclusive(circlePos, rectMin, rectMax) {
		// The closest point on the rect is the center itself, so separate along
		// the axis that needs the least travel to push the circle out.
		if res != nil {
			halfDim := rectMax.Sub(rectMin).Mul(0.5)
			circleToRect := rectMin.Add(halfDim).Sub(circlePos)

			xDepth := halfDim.X + circleRad - float32(math.Abs(float64(circleToRect.X)))
			yDepth := halfDim.Y + circleRad - float32(math.Abs(float64(circleToRect.Y)))

			if xDepth < yDepth {
				res.Normal = vector.Vec2{X: sign(circleToRect.X), Y: 0}
				res.Depth = xDepth
			} else {
				res.Normal = vector.Vec2{X: 0, Y: sign(circleToRect.Y)}
				res.Depth = yDepth
			}
		}
		return true
	}

	closest := vector.Vec2{
		X: vector.Clamp(circlePos.X, rectMin.X, rectMax.X),
		Y: vector.Clamp(circlePos.Y, rectMin.Y, rectMax.Y),
	}
	dir := closest.Sub(circlePos)
	distSqr := dir.LengthSqr()

	if distSqr >= circleRad*circleRad {
		return false
	}

	if res != nil {
		// The center is outside of the rect so dist is never zero.
		dist := (float32)(math.Sqrt((float64)(distSqr)))
		res.Normal = dir.Div(dist)
		res.Depth = circleRad - dist
	}
	return true
}

// RectRect tests two axis aligned rects.
func RectRect(rectAMin, rectAMax, rectBMin, rectBMax vector.Vec2, res *Response) bool {
	halfDimA := rectAMax.Sub(rectAMin).Mul(0.5)
	halfDimB := rectBMax.Sub(rectBMin).Mul(0.5)
	aToB := rectBMin.Add(halfDimB).Sub(rectAMin.Add(halfDimA))

	xDepth := halfDimA.X + halfDimB.X - float32(math.Abs(float64(aToB.X)))
	if xDepth <= 0 {
		return false
	}

	yDepth := halfDimA.Y + halfDimB.Y - float32(math.Abs(float64(aToB.Y)))
	if yDepth <= 0 {
		return false
	}

	if res == nil {
		return true
	}

	if xDepth < yDepth {
		res.Normal = vector.Vec2{X: sign(aToB.X), Y: 0}
		res.Depth = xDepth
	} else {
		res.Normal = vector.Vec2{X: 0, Y: sign(aToB.Y)}
		res.Depth = yDepth
	}
	return true
}

// CirclePolygon tests a circle against a convex polygon. polyNormals[i] must
// be the outward normal of the edge starting at polyPoints[i].
func CirclePolygon(
	circlePos vector.Vec2,
	circleRad float32,
	polyPoints []vector.Vec2,
	polyNormals []vector.Vec2,
	polyCenter vector.Vec2,
	res *Response,
) bool {
	mustMatchNormals(polyPoints, polyNormals)

	axis := newAxisTracker()

	for _, normal := range polyNormals {
		minA, maxA := projectCircle(circlePos, circleRad, normal)
		minB, maxB := projectVertices(polyPoints, normal)

		hit, depth := overlap(minA, maxA, minB, maxB)
		if !hit {
			return false
		}
		axis.offer(normal, depth)
	}

	// A circle has no faces, the axis towards the closest vertex covers the
	// vertex regions.
	closest := closestPoint(polyPoints, circlePos)
	toClosest := closest.Sub(circlePos)
	if length := toClosest.Length(); length > centerEpsilon {
		normal := toClosest.Div(length)

		minA, maxA := projectCircle(circlePos, circleRad, normal)
		minB, maxB := projectVertices(polyPoints, normal)

		hit, depth := overlap(minA, maxA, minB, maxB)
		if !hit {
			return false
		}
		axis.offer(normal, depth)
	}

	if res != nil {
		axis.resolve(circlePos, polyCenter, res)
	}
	return true
}

// RectPolygon tests an axis aligned rect against a convex polygon.
func RectPolygon(
	rectMin vector.Vec2,
	rectMax vector.Vec2,
	polyPoints []vector.Vec2,
	polyNormals []vector.Vec2,
	polyCenter vector.Vec2,
	res *Response,
) bool {
	mustMatchNormals(polyPoints, polyNormals)

	corners := rectPoints(rectMin, rectMax)
	rectCenter := rectMin.Add(rectMax.Sub(rectMin).Div(2))
	axis := newAxisTracker()

	for _, normal := range rectNormals {
		if !testAxis(&axis, normal, corners[:], polyPoints) {
			return false
		}
	}

	for _, normal := range polyNormals {
		if !testAxis(&axis, normal, corners[:], polyPoints) {
			return false
		}
	}

	closest := closestPoint(polyPoints, rectCenter)
	toClosest := closest.Sub(rectCenter)
	if length := toClosest.Length(); length > centerEpsilon {
		if !testAxis(&axis, toClosest.Div(length), corners[:], polyPoints) {
			return false
		}
	}

	if res != nil {
		axis.resolve(rectCenter, polyCenter, res)
	}
	return true
}

// PolygonPolygon tests two convex polygons.
func PolygonPolygon(
	pointsA []vector.Vec2,
	normalsA []vector.Vec2,
	centerA vector.Vec2,
	pointsB []vector.Vec2,
	normalsB []vector.Vec2,
	centerB vector.Vec2,
	res *Response,
) bool {
	mustMatchNormals(pointsA, normalsA)
	mustMatchNormals(pointsB, normalsB)

	axis := newAxisTracker()

	for _, normal := range normalsA {
		if !testAxis(&axis, normal, pointsA, pointsB) {
			return false
		}
	}

	for _, normal := range normalsB {
		if !testAxis(&axis, normal, pointsA, pointsB) {
			return false
		}
	}

	if res != nil {
		axis.resolve(centerA, centerB, res)
	}
	return true
}

func testAxis(axis *axisTracker, normal vector.Vec2, pointsA, pointsB []vector.Vec2) bool {
	minA, maxA := projectVertices(pointsA, normal)
	minB, maxB := projectVertices(pointsB, normal)

	hit, depth := overlap(minA, maxA, minB, maxB)
	if !hit {
		return false
	}
	axis.offer(normal, depth)
	return true
}

func closestPoint(points []vector.Vec2, to vector.Vec2) vector.Vec2 {
	var closest vector.Vec2
	minDist := float32(math.MaxFloat32)

	for _, p := range points {
		if dist := p.DistanceSqrTo(to); dist < minDist {
			minDist = dist
			closest = p
		}
	}
	return closest
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

func mustMatchNormals(points, normals []vector.Vec2) {
	if len(points) != len(normals) {
		panic(errors.New("polygon points and normals differ in length").
			WithType(ErrTypeNormalsMismatch).
			WithTag("points", len(points)).
			WithTag("normals", len(normals)))
	}
}
