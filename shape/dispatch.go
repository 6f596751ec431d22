package shape

import (
	"cmp"
	"unsafe"

	"github.com/firecat2d/firecat/collision"
	"github.com/firecat2d/firecat/vector"
)

type checkFunc func(a, b Shape, res *collision.Response) bool

type dispatchEntry struct {
	check checkFunc

	// reverse is set when check expects its arguments swapped.
	reverse bool
}

var dispatchTable = newDispatchTable()

func newDispatchTable() [typeCount][typeCount]dispatchEntry {
	var table [typeCount][typeCount]dispatchEntry

	register := func(a, b Type, check checkFunc) {
		table[a][b] = dispatchEntry{check: check}
		if a != b {
			table[b][a] = dispatchEntry{check: check, reverse: true}
		}
	}

	register(TypeCircle, TypeCircle, checkCircleCircle)
	register(TypeCircle, TypeRect, checkCircleRect)
	register(TypeCircle, TypePolygon, checkCirclePolygon)
	register(TypeRect, TypeRect, checkRectRect)
	register(TypeRect, TypePolygon, checkRectPolygon)
	register(TypePolygon, TypePolygon, checkPolygonPolygon)
	return table
}

// Check tests a against b with the narrow phase function matching their types.
// When res is not nil and Check returns true, res.Normal points from a towards
// b whatever the argument order of the underlying function, and Check(b, a)
// returns the exact opposite normal.
func Check(a, b Shape, res *collision.Response) bool {
	entry := dispatchTable[a.Type()][b.Type()]

	// Same type pairs always run in the same order so that tie breaks on
	// equal depths or coincident centers flip with the arguments.
	reverse := entry.reverse
	if a.Type() == b.Type() {
		reverse = !precedes(a, b)
	}

	if !reverse {
		return entry.check(a, b, res)
	}

	if !entry.check(b, a, res) {
		return false
	}
	if res != nil {
		res.Normal = res.Normal.Invert()
	}
	return true
}

func checkCircleCircle(a, b Shape, res *collision.Response) bool {
	ca, cb := a.(*Circle), b.(*Circle)
	return collision.CircleCircle(ca.Pos, ca.Rad, cb.Pos, cb.Rad, res)
}

func checkCircleRect(a, b Shape, res *collision.Response) bool {
	c, r := a.(*Circle), b.(*Rect)
	return collision.CircleRect(c.Pos, c.Rad, r.Min, r.Max, res)
}

func checkCirclePolygon(a, b Shape, res *collision.Response) bool {
	c, p := a.(*Circle), b.(*Polygon)
	return collision.CirclePolygon(c.Pos, c.Rad, p.points, p.normals, p.center, res)
}

func checkRectRect(a, b Shape, res *collision.Response) bool {
	ra, rb := a.(*Rect), b.(*Rect)
	return collision.RectRect(ra.Min, ra.Max, rb.Min, rb.Max, res)
}

func checkRectPolygon(a, b Shape, res *collision.Response) bool {
	r, p := a.(*Rect), b.(*Polygon)
	return collision.RectPolygon(r.Min, r.Max, p.points, p.normals, p.center, res)
}

func checkPolygonPolygon(a, b Shape, res *collision.Response) bool {
	pa, pb := a.(*Polygon), b.(*Polygon)
	return collision.PolygonPolygon(pa.points, pa.normals, pa.center, pb.points, pb.normals, pb.center, res)
}

// precedes orders two shapes of the same type by geometry. Shapes with the same
// geometry are ordered by address, shapes are heap allocated and do not move.
func precedes(a, b Shape) bool {
	if c := compareVec(a.Center(), b.Center()); c != 0 {
		return c < 0
	}

	switch a := a.(type) {
	case *Circle:
		if c := cmp.Compare(a.Rad, b.(*Circle).Rad); c != 0 {
			return c < 0
		}

	case *Rect:
		rb := b.(*Rect)
		if c := compareVec(a.Min, rb.Min); c != 0 {
			return c < 0
		}
		if c := compareVec(a.Max, rb.Max); c != 0 {
			return c < 0
		}

	case *Polygon:
		pb := b.(*Polygon)
		if c := cmp.Compare(len(a.points), len(pb.points)); c != 0 {
			return c < 0
		}
		for i := range a.points {
			if c := compareVec(a.points[i], pb.points[i]); c != 0 {
				return c < 0
			}
		}
	}

	return address(a) < address(b)
}

func compareVec(a, b vector.Vec2) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Y, b.Y)
}

func address(s Shape) uintptr {
	switch s := s.(type) {
	case *Circle:
		return uintptr(unsafe.Pointer(s))
	case *Rect:
		return uintptr(unsafe.Pointer(s))
	case *Polygon:
		return uintptr(unsafe.Pointer(s))
	}
	return 0
}
