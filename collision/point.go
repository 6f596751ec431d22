package collision

import "github.com/firecat2d/firecat/vector"

// PointCircle reports whether point lies inside or on the circle.
func PointCircle(point vector.Vec2, circlePos vector.Vec2, circleRad float32) bool {
	return point.DistanceSqrTo(circlePos) <= circleRad*circleRad
}

// PointRect reports whether point lies strictly inside the rect.
func PointRect(point vector.Vec2, rectMin vector.Vec2, rectMax vector.Vec2) bool {
	return point.X > rectMin.X && point.Y > rectMin.Y && point.X < rectMax.X && point.Y < rectMax.Y
}

// PointRectInclusive is PointRect with the edges counted as inside.
func PointRectInclusive(point vector.Vec2, rectMin vector.Vec2, rectMax vector.Vec2) bool {
	return rectMin.X <= point.X && point.X <= rectMax.X &&
		rectMin.Y <= point.Y && point.Y <= rectMax.Y
}

// PointPolygon reports whether point lies inside the polygon using the even
// odd crossing rule (https://wrfranklin.org/Research/Short_Notes/pnpoly.html).
func PointPolygon(point vector.Vec2, points []vector.Vec2) bool {
	inside := false

	for i, j := 0, len(points)-1; i < len(points); j, i = i, i+1 {
		pi, pj := points[i], points[j]

		if (pi.Y >= point.Y) != (pj.Y >= point.Y) &&
			point.X <= (pj.X-pi.X)*(point.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}
