package prism

import (
	"github.com/soypat/prism/internal/d3"
	"github.com/soypat/prism/predicates"
	"gonum.org/v1/gonum/spatial/r3"
)

// Column is the volume swept between the base, mid and top triangles of
// a shell face. ID holds the global vertex ids of the face corners and
// decides how the column is split into tetrahedra.
type Column struct {
	ID   [3]int
	Base [3]r3.Vec
	Mid  [3]r3.Vec
	Top  [3]r3.Vec
}

// Tets returns the six tetrahedra of the column: three for the lower
// (base-mid) slab followed by three for the upper (mid-top) slab.
//
// The decomposition depends only on vertex ids: the diagonal of the quad
// shared by corners i and j runs from the upper vertex of the lower id to
// the lower vertex of the higher id. Two columns sharing a side therefore
// agree on its diagonal. Vertex order is chosen so that every tetrahedron
// of a valid column has positive orientation.
func (c Column) Tets() [6][4]r3.Vec {
	s, odd := sortedCorners(c.ID)
	var tets [6][4]r3.Vec
	slab := func(lo, hi [3]r3.Vec, dst [][4]r3.Vec) {
		b0, b1, b2 := lo[s[0]], lo[s[1]], lo[s[2]]
		t0, t1, t2 := hi[s[0]], hi[s[1]], hi[s[2]]
		dst[0] = [4]r3.Vec{b0, b1, b2, t0}
		dst[1] = [4]r3.Vec{b1, b2, t0, t1}
		dst[2] = [4]r3.Vec{b2, t0, t1, t2}
		if odd {
			for i := range dst[:3] {
				dst[i][0], dst[i][1] = dst[i][1], dst[i][0]
			}
		}
	}
	slab(c.Base, c.Mid, tets[0:3])
	slab(c.Mid, c.Top, tets[3:6])
	return tets
}

// Degenerate returns true if any of the column's tetrahedra is flat or
// inverted. The test is exact.
func (c Column) Degenerate() bool {
	for _, tet := range c.Tets() {
		if predicates.TetOrientation(tet) <= 0 {
			return true
		}
	}
	return false
}

// Bounds returns the bounding box of all nine column vertices.
func (c Column) Bounds() r3.Box {
	b := d3.Set(c.Base[:]).Bounds()
	b = b.Extend(d3.Set(c.Mid[:]).Bounds())
	b = b.Extend(d3.Set(c.Top[:]).Bounds())
	return r3.Box(b)
}

// SlabBounds returns the bounding boxes of the base to mid and the mid to
// top halves of the column.
func (c Column) SlabBounds() (lower, upper r3.Box) {
	mid := d3.Set(c.Mid[:]).Bounds()
	lower = r3.Box(d3.Set(c.Base[:]).Bounds().Extend(mid))
	upper = r3.Box(d3.Set(c.Top[:]).Bounds().Extend(mid))
	return lower, upper
}

// MidTriangle returns the mid layer triangle of the column.
func (c Column) MidTriangle() d3.Triangle { return d3.Triangle(c.Mid) }

// SharesVertex returns true if the columns have a corner id in common.
func (c Column) SharesVertex(other [3]int) bool {
	for _, a := range c.ID {
		for _, b := range other {
			if a == b {
				return true
			}
		}
	}
	return false
}

// Overlaps reports whether the closed volumes of two columns intersect.
func (c Column) Overlaps(other Column) bool {
	if !d3.Box(c.Bounds()).Overlaps(d3.Box(other.Bounds())) {
		return false
	}
	ta := c.Tets()
	tb := other.Tets()
	for i := range ta {
		for j := range tb {
			if predicates.TetrahedronTetrahedronOverlap(ta[i], tb[j]) {
				return true
			}
		}
	}
	return false
}

// sortedCorners returns corner indices ordered by ascending id and whether
// that ordering is an odd permutation of (0,1,2).
func sortedCorners(id [3]int) (s [3]int, odd bool) {
	s = [3]int{0, 1, 2}
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if id[s[j]] < id[s[i]] {
				s[i], s[j] = s[j], s[i]
				odd = !odd
			}
		}
	}
	return s, odd
}
