// Package validity decides whether a proposed local edit keeps a shell
// valid. Validation is tentative: the shell is never modified, the caller
// commits the returned layout only when the edit is accepted.
//
// Checks run in a fixed order and stop at the first failure:
//  1. every new column has positive tetrahedra (exact);
//  2. every new column encloses some reference triangle;
//  3. the new mid triangles stay within the distortion bound of the
//     reference triangles they track;
//  4. no new column overlaps a column outside the edit's one ring;
//  5. optionally, the worst mid triangle quality does not get worse.
package validity

import (
	"math"

	"github.com/soypat/prism"
	"github.com/soypat/prism/internal/d3"
	"github.com/soypat/prism/mesh"
	"github.com/soypat/prism/predicates"
	"gonum.org/v1/gonum/spatial/r3"
)

// Reason is the outcome of a validation.
type Reason int

const (
	OK Reason = iota
	Degenerate
	OrphanedTracking
	Distortion
	Intersection
	QualityRegressed
	numReasons
)

// NumReasons is the number of distinct outcomes, OK included.
const NumReasons = int(numReasons)

var reasonNames = [...]string{
	OK:               "ok",
	Degenerate:       "degenerate",
	OrphanedTracking: "orphaned tracking",
	Distortion:       "distortion",
	Intersection:     "intersection",
	QualityRegressed: "quality",
}

func (r Reason) String() string {
	if r < 0 || r >= numReasons {
		return "unknown"
	}
	return reasonNames[r]
}

// Options tune validation.
type Options struct {
	// DistortionBound is the largest distance allowed between a mid triangle
	// and the reference triangles it tracks.
	DistortionBound float64
	// ImproveQuality rejects splits whose worst new mid triangle is worse
	// than the worst triangle they replace.
	ImproveQuality bool
}

// Result describes a validated edit. For accepted edits Faces lists the
// ids of the faces the edit writes with Layout holding their vertices in
// the order the topological edit produces. Shifts brings each face to
// canonical rotation and Tracks holds the reference triangles each new
// column encloses.
type Result struct {
	Reason Reason
	Faces  []int
	Layout [][3]int
	Shifts []int
	Tracks [][]int
}

// Position holds the three layer positions of a vertex.
type Position struct {
	Base, Mid, Top r3.Vec
}

// AttemptFlip validates flipping the diagonal of quad q.
func AttemptFlip(c *prism.Cage, opt Options, q mesh.Quad) Result {
	lay := q.FlipLayout()
	e := edit{
		cage:     c,
		faces:    []int{q.F0, q.F1},
		layout:   lay[:],
		replaced: []int{q.F0, q.F1},
		newVert:  -1,
	}
	return e.validate(opt, false)
}

// AttemptSplit validates splitting edge u0-u1 of quad q at a new vertex
// placed at pos. The new vertex takes the next free id.
func AttemptSplit(c *prism.Cage, opt Options, q mesh.Quad, pos Position) Result {
	w := c.NumVertices()
	lay := q.SplitLayout(w)
	nf := len(c.F)
	e := edit{
		cage:     c,
		faces:    []int{q.F0, q.F1, nf, nf + 1},
		layout:   lay[:],
		replaced: []int{q.F0, q.F1},
		newVert:  w,
		newPos:   pos,
	}
	return e.validate(opt, opt.ImproveQuality)
}

type edit struct {
	cage     *prism.Cage
	faces    []int
	layout   [][3]int
	replaced []int
	// newVert is the id of the vertex the edit inserts or -1.
	newVert int
	newPos  Position
}

func (e *edit) column(face [3]int) prism.Column {
	col := prism.Column{ID: face}
	c := e.cage
	for i, v := range face {
		if v == e.newVert {
			col.Base[i], col.Mid[i], col.Top[i] = e.newPos.Base, e.newPos.Mid, e.newPos.Top
			continue
		}
		col.Base[i], col.Mid[i], col.Top[i] = c.Base[v], c.Mid[v], c.Top[v]
	}
	return col
}

func (e *edit) validate(opt Options, checkQuality bool) Result {
	cols := make([]prism.Column, len(e.layout))
	for i, face := range e.layout {
		cols[i] = e.column(face)
		if cols[i].Degenerate() {
			return Result{Reason: Degenerate}
		}
	}
	tracks := make([][]int, len(cols))
	for i, col := range cols {
		tracks[i] = e.cage.Ref.Intersecting(col)
		if len(tracks[i]) == 0 {
			return Result{Reason: OrphanedTracking}
		}
	}
	for i, col := range cols {
		if Deviation(col, tracks[i], e.cage.Ref) > opt.DistortionBound {
			return Result{Reason: Distortion}
		}
	}
	for _, col := range cols {
		if e.intersects(col) {
			return Result{Reason: Intersection}
		}
	}
	if checkQuality {
		oldMax, newMax := 0.0, 0.0
		for _, f := range e.replaced {
			oldMax = math.Max(oldMax, e.cage.MidQuality(f))
		}
		for _, col := range cols {
			newMax = math.Max(newMax, prism.TriangleQuality(col.Mid[0], col.Mid[1], col.Mid[2]))
		}
		if newMax > oldMax {
			return Result{Reason: QualityRegressed}
		}
	}
	shifts := make([]int, len(e.layout))
	for i, face := range e.layout {
		shifts[i] = mesh.CanonicalShift(face)
	}
	return Result{
		Reason: OK,
		Faces:  e.faces,
		Layout: e.layout,
		Shifts: shifts,
		Tracks: tracks,
	}
}

// intersects reports whether col overlaps an existing column other than
// the replaced ones and those sharing a vertex with it.
func (e *edit) intersects(col prism.Column) bool {
	c := e.cage
	for _, g := range Candidates(c, col.Bounds()) {
		if contains(e.replaced, g) || col.SharesVertex(c.F[g]) {
			continue
		}
		if col.Overlaps(c.Column(g)) {
			return true
		}
	}
	return false
}

// Candidates returns the sorted ids of faces whose columns may overlap box.
// Without grids every face is a candidate. With grids, faces whose lower or
// upper slab is indexed in a cell touched by box are returned, a superset
// of the columns intersecting box.
func Candidates(c *prism.Cage, box r3.Box) []int {
	if c.BaseGrid == nil && c.TopGrid == nil {
		all := make([]int, len(c.F))
		for i := range all {
			all[i] = i
		}
		return all
	}
	var a, b []int
	if c.BaseGrid != nil {
		a = c.BaseGrid.Query(box)
	}
	if c.TopGrid != nil {
		b = c.TopGrid.Query(box)
	}
	return mergeSorted(a, b)
}

// Deviation measures how far the mid triangle of col strays from the
// reference triangles in track. It is the larger of the distance from
// samples of the mid triangle to the closest tracked triangle and the
// distance from tracked reference vertices inside the column to the mid
// triangle.
func Deviation(col prism.Column, track []int, ref prism.Reference) float64 {
	mid := col.MidTriangle()
	samples := [7]r3.Vec{
		mid[0], mid[1], mid[2],
		d3.Midpoint(mid[0], mid[1]), d3.Midpoint(mid[1], mid[2]), d3.Midpoint(mid[2], mid[0]),
		mid.Centroid(),
	}
	var worst float64
	for _, p := range samples {
		best := math.Inf(1)
		for _, t := range track {
			best = math.Min(best, d3.Triangle(ref.Triangle(t)).Distance(p))
		}
		worst = math.Max(worst, best)
	}
	tets := col.Tets()
	for _, t := range track {
		for _, v := range ref.Triangle(t) {
			if !insideAny(v, &tets) {
				continue
			}
			worst = math.Max(worst, mid.Distance(v))
		}
	}
	return worst
}

func insideAny(p r3.Vec, tets *[6][4]r3.Vec) bool {
	for _, tet := range tets {
		if predicates.PointInTetrahedron(p, tet) {
			return true
		}
	}
	return false
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b) || (i < len(a) && a[i] < b[j]):
			out = append(out, a[i])
			i++
		case i == len(a) || b[j] < a[i]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
