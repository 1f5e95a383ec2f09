package predicates

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Tetrahedron local edges and faces.
var (
	TetEdges = [6][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
	TetFaces = [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
)

// TetOrientation returns Orient3D of the tetrahedron's vertices in order.
func TetOrientation(t [4]r3.Vec) int {
	return Orient3D(t[0], t[1], t[2], t[3])
}

// PointInTetrahedron reports whether p lies inside or on the boundary of
// tetrahedron t. Degenerate (flat) tetrahedra contain no points.
func PointInTetrahedron(p r3.Vec, t [4]r3.Vec) bool {
	o := TetOrientation(t)
	if o == 0 {
		return false
	}
	for i := 0; i < 4; i++ {
		q := t
		q[i] = p
		if s := TetOrientation(q); s != 0 && s != o {
			return false
		}
	}
	return true
}

// SegmentTriangleOverlap reports whether the closed segment s and the closed
// triangle tri share at least one point. Triangles with collinear vertices
// never overlap.
func SegmentTriangleOverlap(s [2]r3.Vec, tri [3]r3.Vec) bool {
	a, b, c := tri[0], tri[1], tri[2]
	o0 := Orient3D(a, b, c, s[0])
	o1 := Orient3D(a, b, c, s[1])
	if o0 != 0 && o0 == o1 {
		return false // both ends strictly on the same side.
	}
	if o0 == 0 && o1 == 0 {
		return coplanarSegmentTriangle(s, tri)
	}
	// The segment meets the plane at a single point. It lies inside the
	// triangle iff the supporting line passes on the same side of all edges.
	d0 := Orient3D(s[0], s[1], a, b)
	d1 := Orient3D(s[0], s[1], b, c)
	d2 := Orient3D(s[0], s[1], c, a)
	hasNeg := d0 < 0 || d1 < 0 || d2 < 0
	hasPos := d0 > 0 || d1 > 0 || d2 > 0
	return !(hasNeg && hasPos)
}

// TetrahedronTetrahedronOverlap reports whether the closed volumes of
// tetrahedra A and B intersect. Degenerate input is never overlapping.
func TetrahedronTetrahedronOverlap(A, B [4]r3.Vec) bool {
	if TetOrientation(A) == 0 || TetOrientation(B) == 0 {
		return false
	}
	for i := 0; i < 4; i++ {
		if PointInTetrahedron(A[i], B) || PointInTetrahedron(B[i], A) {
			return true
		}
	}
	for _, e := range TetEdges {
		for _, f := range TetFaces {
			if SegmentTriangleOverlap([2]r3.Vec{A[e[0]], A[e[1]]}, [3]r3.Vec{B[f[0]], B[f[1]], B[f[2]]}) {
				return true
			}
			if SegmentTriangleOverlap([2]r3.Vec{B[e[0]], B[e[1]]}, [3]r3.Vec{A[f[0]], A[f[1]], A[f[2]]}) {
				return true
			}
		}
	}
	return false
}

// TriangleTetrahedronOverlap reports whether closed triangle tri and the
// closed volume of tetrahedron tet intersect.
func TriangleTetrahedronOverlap(tri [3]r3.Vec, tet [4]r3.Vec) bool {
	if TetOrientation(tet) == 0 {
		return false
	}
	for i := 0; i < 3; i++ {
		if PointInTetrahedron(tri[i], tet) {
			return true
		}
	}
	for i := 0; i < 3; i++ {
		edge := [2]r3.Vec{tri[i], tri[(i+1)%3]}
		for _, f := range TetFaces {
			if SegmentTriangleOverlap(edge, [3]r3.Vec{tet[f[0]], tet[f[1]], tet[f[2]]}) {
				return true
			}
		}
	}
	for _, e := range TetEdges {
		if SegmentTriangleOverlap([2]r3.Vec{tet[e[0]], tet[e[1]]}, tri) {
			return true
		}
	}
	return false
}

// coplanarSegmentTriangle solves the overlap in the 2D projection that drops
// the coordinate axis along which the triangle normal is largest. The axis is
// confirmed with an exact 2D orientation test so the projection never folds
// the triangle.
func coplanarSegmentTriangle(s [2]r3.Vec, tri [3]r3.Vec) bool {
	n := r3.Cross(r3.Sub(tri[1], tri[0]), r3.Sub(tri[2], tri[0]))
	axes := [3]int{0, 1, 2}
	comp := [3]float64{math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)}
	// Sort axes by descending normal component.
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if comp[axes[j]] > comp[axes[i]] {
				axes[i], axes[j] = axes[j], axes[i]
			}
		}
	}
	for _, axis := range axes {
		a, b, c := drop(tri[0], axis), drop(tri[1], axis), drop(tri[2], axis)
		ot := Orient2D(a, b, c)
		if ot == 0 {
			continue
		}
		p, q := drop(s[0], axis), drop(s[1], axis)
		if pointInTriangle2(p, a, b, c, ot) || pointInTriangle2(q, a, b, c, ot) {
			return true
		}
		return segmentsIntersect2(p, q, a, b) ||
			segmentsIntersect2(p, q, b, c) ||
			segmentsIntersect2(p, q, c, a)
	}
	return false
}

// drop projects v onto the coordinate plane perpendicular to axis.
// The result's X,Y hold the remaining coordinates in cyclic order.
func drop(v r3.Vec, axis int) r3.Vec {
	switch axis {
	case 0:
		return r3.Vec{X: v.Y, Y: v.Z}
	case 1:
		return r3.Vec{X: v.Z, Y: v.X}
	}
	return r3.Vec{X: v.X, Y: v.Y}
}

func pointInTriangle2(p, a, b, c r3.Vec, orientation int) bool {
	for _, o := range [3]int{Orient2D(a, b, p), Orient2D(b, c, p), Orient2D(c, a, p)} {
		if o != 0 && o != orientation {
			return false
		}
	}
	return true
}

// segmentsIntersect2 reports whether closed 2D segments pq and rs intersect.
func segmentsIntersect2(p, q, r, s r3.Vec) bool {
	d1 := Orient2D(p, q, r)
	d2 := Orient2D(p, q, s)
	d3 := Orient2D(r, s, p)
	d4 := Orient2D(r, s, q)
	if d1*d2 < 0 && d3*d4 < 0 {
		return true
	}
	return (d1 == 0 && onSegment2(p, q, r)) ||
		(d2 == 0 && onSegment2(p, q, s)) ||
		(d3 == 0 && onSegment2(r, s, p)) ||
		(d4 == 0 && onSegment2(r, s, q))
}

// onSegment2 reports whether x, known to be collinear with pq, lies on the closed segment.
func onSegment2(p, q, x r3.Vec) bool {
	return math.Min(p.X, q.X) <= x.X && x.X <= math.Max(p.X, q.X) &&
		math.Min(p.Y, q.Y) <= x.Y && x.Y <= math.Max(p.Y, q.Y)
}
