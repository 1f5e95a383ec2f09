// Package refsurf implements the reference surface queries a shell needs:
// which reference triangles a column encloses, where a segment between the
// base and top layers crosses the surface, and how far a point is from it.
// Triangles are indexed by centroid in a k-d tree.
package refsurf

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/soypat/prism"
	"github.com/soypat/prism/internal/d3"
	"github.com/soypat/prism/predicates"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Surface is an immutable triangle surface with spatial queries.
type Surface struct {
	V    []r3.Vec
	F    [][3]int
	tree *kdtree.Tree
	// radius is the largest centroid to vertex distance of any triangle.
	radius float64
	bb     d3.Box
}

var _ prism.Reference = (*Surface)(nil)

// New builds a Surface over triangles F with vertices V. Degenerate
// triangles are indexed but never reported as enclosed by a column.
func New(V []r3.Vec, F [][3]int) (*Surface, error) {
	if len(F) == 0 {
		return nil, errors.New("empty reference surface")
	}
	s := &Surface{V: V, F: F, bb: d3.EmptyBox()}
	items := make(centroids, len(F))
	for i, f := range F {
		for _, v := range f {
			if v < 0 || v >= len(V) {
				return nil, fmt.Errorf("reference triangle %d references vertex %d out of range [0,%d)", i, v, len(V))
			}
		}
		tri := s.tri(i)
		items[i] = centroid{C: tri.Centroid(), idx: i}
		s.radius = math.Max(s.radius, tri.CentroidRadius())
		s.bb = s.bb.Extend(tri.Bounds())
	}
	s.tree = kdtree.New(items, true)
	return s, nil
}

// Len returns the number of triangles.
func (s *Surface) Len() int { return len(s.F) }

// Bounds returns the bounding box of the surface.
func (s *Surface) Bounds() r3.Box { return r3.Box(s.bb) }

// Triangle returns the vertices of triangle i.
func (s *Surface) Triangle(i int) [3]r3.Vec { return s.tri(i) }

func (s *Surface) tri(i int) d3.Triangle {
	f := s.F[i]
	return d3.Triangle{s.V[f[0]], s.V[f[1]], s.V[f[2]]}
}

// Near returns the ids of all triangles that may come within distance r of
// p. The result is a superset: triangles are selected by centroid distance.
func (s *Surface) Near(p r3.Vec, r float64) []int {
	reach := r + s.radius
	keep := kdtree.NewDistKeeper(reach * reach)
	s.tree.NearestSet(keep, centroid{C: p})
	ids := make([]int, 0, len(keep.Heap))
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		ids = append(ids, cd.Comparable.(centroid).idx)
	}
	sort.Ints(ids)
	return ids
}

// Closest returns the point of the surface closest to p and the id of the
// triangle it lies on.
func (s *Surface) Closest(p r3.Vec) (r3.Vec, int) {
	got, _ := s.tree.Nearest(centroid{C: p})
	best := got.(centroid).idx
	bestPt := s.tri(best).Closest(p)
	bestDist := d3.Dist(p, bestPt)
	for _, i := range s.Near(p, bestDist) {
		q := s.tri(i).Closest(p)
		if d := d3.Dist(p, q); d < bestDist {
			best, bestPt, bestDist = i, q, d
		}
	}
	return bestPt, best
}

// Distance returns the distance from p to the surface.
func (s *Surface) Distance(p r3.Vec) float64 {
	q, _ := s.Closest(p)
	return d3.Dist(p, q)
}

// SegmentQuery returns the crossing of segment ab with the surface closest
// to the segment's midpoint. ok is false if the segment misses the surface.
func (s *Surface) SegmentQuery(a, b r3.Vec) (hit r3.Vec, ok bool) {
	mid := d3.Midpoint(a, b)
	best := math.Inf(1)
	for _, i := range s.Near(mid, 0.5*d3.Dist(a, b)) {
		p, crossed := s.tri(i).SegmentIntersect(a, b)
		if !crossed {
			continue
		}
		if d := d3.Dist(p, mid); d < best {
			hit, ok, best = p, true, d
		}
	}
	return hit, ok
}

// Intersecting returns the sorted ids of triangles overlapping the closed
// volume of col. The test is exact.
func (s *Surface) Intersecting(col prism.Column) []int {
	box := d3.Box(col.Bounds())
	tets := col.Tets()
	var ids []int
	for _, i := range s.Near(box.Center(), 0.5*box.Diagonal()) {
		tri := s.tri(i)
		if !box.Overlaps(tri.Bounds()) {
			continue
		}
		for _, tet := range tets {
			if predicates.TriangleTetrahedronOverlap(tri, tet) {
				ids = append(ids, i)
				break
			}
		}
	}
	return ids
}

// centroid is a triangle id keyed by centroid position in the k-d tree.
type centroid struct {
	C   r3.Vec
	idx int
}

func (c centroid) Compare(q kdtree.Comparable, d kdtree.Dim) float64 {
	p := q.(centroid)
	switch d {
	case 0:
		return c.C.X - p.C.X
	case 1:
		return c.C.Y - p.C.Y
	case 2:
		return c.C.Z - p.C.Z
	}
	panic("unreachable")
}

func (c centroid) Dims() int { return 3 }

func (c centroid) Distance(q kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(c.C, q.(centroid).C))
}

type centroids []centroid

// Index returns the ith element of the list of points.
func (cs centroids) Index(i int) kdtree.Comparable { return cs[i] }

// Len returns the length of the list.
func (cs centroids) Len() int { return len(cs) }

// Pivot partitions the list based on the dimension specified.
func (cs centroids) Pivot(d kdtree.Dim) int {
	p := plane{dim: d, centroids: cs}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// Slice returns a slice of the list using zero-based half
// open indexing equivalent to built-in slice indexing.
func (cs centroids) Slice(start, end int) kdtree.Interface { return cs[start:end] }

// Bounds implements the kdtree.Bounder interface.
func (cs centroids) Bounds() *kdtree.Bounding {
	pts := make(d3.Set, len(cs))
	for i := range cs {
		pts[i] = cs[i].C
	}
	bb := pts.Bounds()
	return &kdtree.Bounding{
		Min: centroid{C: bb.Min},
		Max: centroid{C: bb.Max},
	}
}

type plane struct {
	dim       kdtree.Dim
	centroids centroids
}

func (p plane) Less(i, j int) bool {
	return p.centroids[i].Compare(p.centroids[j], p.dim) < 0
}
func (p plane) Swap(i, j int) {
	p.centroids[i], p.centroids[j] = p.centroids[j], p.centroids[i]
}
func (p plane) Len() int { return len(p.centroids) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.centroids = p.centroids[start:end]
	return p
}
