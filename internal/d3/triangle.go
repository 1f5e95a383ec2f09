package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle is a 3d triangle given by its vertices in winding order.
type Triangle [3]r3.Vec

// Normal returns the unnormalized normal of the triangle. Its norm is twice the area.
func (t Triangle) Normal() r3.Vec {
	return r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
}

// Area returns the unsigned area of the triangle.
func (t Triangle) Area() float64 {
	return 0.5 * r3.Norm(t.Normal())
}

// Centroid returns the triangle's barycenter.
func (t Triangle) Centroid() r3.Vec {
	return r3.Scale(1./3., r3.Add(r3.Add(t[0], t[1]), t[2]))
}

// Bounds returns the triangle's bounding box.
func (t Triangle) Bounds() Box {
	return Set(t[:]).Bounds()
}

// CentroidRadius returns the largest distance from the centroid to a vertex.
// This is the radius used to pad centroid based searches.
func (t Triangle) CentroidRadius() float64 {
	c := t.Centroid()
	return math.Max(Dist(c, t[0]), math.Max(Dist(c, t[1]), Dist(c, t[2])))
}

// Closest returns closest point on the triangle to argument point p.
// Based on Geometric Tool's algorithm for the distance between a point
// and a solid triangle, licensed under the Boost Software License.
func (t Triangle) Closest(p r3.Vec) r3.Vec {
	a, b, c := t[0], t[1], t[2]
	diff := r3.Sub(p, a)
	edge0 := r3.Sub(b, a)
	edge1 := r3.Sub(c, a)

	a00 := r3.Dot(edge0, edge0)
	a01 := r3.Dot(edge0, edge1)
	a11 := r3.Dot(edge1, edge1)
	b0 := -r3.Dot(diff, edge0)
	b1 := -r3.Dot(diff, edge1)

	f00 := b0
	f10 := b0 + a00
	f01 := b0 + a01

	var p0, p1, st [2]float64
	var dt1, h0, h1 float64

	if f00 >= 0 {
		if f01 >= 0 {
			st = minEdge02(a11, b1)
		} else {
			p0[0] = 0
			p0[1] = f00 / (f00 - f01)
			p1[0] = f01 / (f01 - f10)
			p1[1] = 1 - p1[0]
			dt1 = p1[1] - p0[1]
			h0 = dt1 * (a11*p0[1] + b1)
			if h0 >= 0 {
				st = minEdge02(a11, b1)
			} else {
				h1 = dt1 * (a01*p1[0] + a11*p1[1] + b1)
				if h1 <= 0 {
					st = minEdge12(a01, a11, b1, f10, f01)
				} else {
					st = minInterior(p0, h0, p1, h1)
				}
			}
		}
	} else if f01 <= 0 {
		if f10 <= 0 {
			st = minEdge12(a01, a11, b1, f10, f01)
		} else {
			p0[0] = f00 / (f00 - f10)
			p0[1] = 0
			p1[0] = f01 / (f01 - f10)
			p1[1] = 1 - p1[0]
			h0 = p1[1] * (a01*p0[0] + b1)
			if h0 >= 0 {
				st = p0
			} else {
				h1 = p1[1] * (a01*p1[0] + a11*p1[1] + b1)
				if h1 <= 0 {
					st = minEdge12(a01, a11, b1, f10, f01)
				} else {
					st = minInterior(p0, h0, p1, h1)
				}
			}
		}
	} else if f10 <= 0 {
		p0[0] = 0
		p0[1] = f00 / (f00 - f01)
		p1[0] = f01 / (f01 - f10)
		p1[1] = 1 - p1[0]
		dt1 = p1[1] - p0[1]
		h0 = dt1 * (a11*p0[1] + b1)
		if h0 >= 0 {
			st = minEdge02(a11, b1)
		} else {
			h1 = dt1 * (a01*p1[0] + a11*p1[1] + b1)
			if h1 <= 0 {
				st = minEdge12(a01, a11, b1, f10, f01)
			} else {
				st = minInterior(p0, h0, p1, h1)
			}
		}
	} else {
		p0[0] = f00 / (f00 - f10)
		p0[1] = 0
		p1[0] = 0
		p1[1] = f00 / (f00 - f01)
		h0 = p1[1] * (a01*p0[0] + b1)
		if h0 >= 0 {
			st = p0
		} else {
			h1 = p1[1] * (a11*p1[1] + b1)
			if h1 <= 0 {
				st = minEdge02(a11, b1)
			} else {
				st = minInterior(p0, h0, p1, h1)
			}
		}
	}
	return r3.Add(a, r3.Add(r3.Scale(st[0], edge0), r3.Scale(st[1], edge1)))
}

// Distance returns the distance from p to the closest point of the triangle.
func (t Triangle) Distance(p r3.Vec) float64 {
	return Dist(p, t.Closest(p))
}

func minEdge02(a11, b1 float64) (st [2]float64) {
	if b1 >= 0 {
		st[1] = 0
	} else if a11+b1 <= 0 {
		st[1] = 1
	} else {
		st[1] = -b1 / a11
	}
	return st
}

func minEdge12(a01, a11, b1, f10, f01 float64) (st [2]float64) {
	h0 := a01 + b1 - f10
	if h0 >= 0 {
		st[1] = 0
	} else {
		h1 := a11 + b1 - f01
		if h1 <= 0 {
			st[1] = 1
		} else {
			st[1] = h0 / (h0 - h1)
		}
	}
	st[0] = 1 - st[1]
	return st
}

func minInterior(p0 [2]float64, h0 float64, p1 [2]float64, h1 float64) (st [2]float64) {
	z := h0 / (h0 - h1)
	omz := 1 - z
	st[0] = omz*p0[0] + z*p1[0]
	st[1] = omz*p0[1] + z*p1[1]
	return st
}

// SegmentIntersect returns the point where segment (s0,s1) crosses the
// triangle, using the Möller-Trumbore ray formulation. It is a floating
// point construction, not a predicate: callers needing a robust yes/no
// answer should use the predicates package.
func (t Triangle) SegmentIntersect(s0, s1 r3.Vec) (r3.Vec, bool) {
	const eps = 1e-14
	dir := r3.Sub(s1, s0)
	e1 := r3.Sub(t[1], t[0])
	e2 := r3.Sub(t[2], t[0])
	pv := r3.Cross(dir, e2)
	det := r3.Dot(e1, pv)
	scale := r3.Norm(dir) * r3.Norm(e1) * r3.Norm(e2)
	if math.Abs(det) <= eps*scale {
		return r3.Vec{}, false // parallel.
	}
	inv := 1 / det
	tv := r3.Sub(s0, t[0])
	u := r3.Dot(tv, pv) * inv
	if u < -eps || u > 1+eps {
		return r3.Vec{}, false
	}
	qv := r3.Cross(tv, e1)
	v := r3.Dot(dir, qv) * inv
	if v < -eps || u+v > 1+eps {
		return r3.Vec{}, false
	}
	s := r3.Dot(e2, qv) * inv
	if s < -eps || s > 1+eps {
		return r3.Vec{}, false
	}
	return r3.Add(s0, r3.Scale(s, dir)), true
}
