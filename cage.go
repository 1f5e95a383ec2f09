// Package prism models a shell around a triangle surface: three layers of
// vertices (base, mid and top) sharing one triangle connectivity. Each face
// sweeps a column of two stacked prisms between the layers, and the union
// of columns encloses a reference surface. Local edits on the shell are
// accepted only while the columns stay positive, disjoint and keep tracking
// the reference triangles they enclose.
package prism

import (
	"errors"
	"fmt"
	"sort"

	"github.com/soypat/prism/internal/d3"
	"github.com/soypat/prism/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrEmptyTracking is returned when a column encloses no part of the
	// reference surface.
	ErrEmptyTracking = errors.New("column tracks no reference triangle")
	// ErrLayerMismatch is returned when shell layers differ in vertex count
	// or connectivity.
	ErrLayerMismatch = errors.New("shell layers do not match")
)

// Grid is a spatial index over the lower or upper slabs of the columns,
// keyed by face id.
type Grid interface {
	// InsertBox indexes face id with bounding box box, replacing any
	// previous entry.
	InsertBox(fid int, box r3.Box)
	// RemoveElement drops face id from the index.
	RemoveElement(fid int)
	// Query returns the ids of indexed faces that may intersect box, in
	// ascending order.
	Query(box r3.Box) []int
	// Len returns the number of indexed faces.
	Len() int
}

// Reference is the triangle surface a shell must enclose.
type Reference interface {
	// Triangle returns the vertices of reference triangle i.
	Triangle(i int) [3]r3.Vec
	// SegmentQuery returns a point where segment ab crosses the surface.
	SegmentQuery(a, b r3.Vec) (r3.Vec, bool)
	// Intersecting returns the ascending ids of reference triangles that
	// overlap the closed volume of the column.
	Intersecting(col Column) []int
}

// Cage is a shell: three vertex layers, shared faces and per face tracking
// of the reference triangles each column encloses.
//
// Faces are stored in canonical rotation with the smallest vertex id first.
// Track[f] is sorted and non empty for every face f.
type Cage struct {
	Base, Mid, Top []r3.Vec
	F              [][3]int
	Track          [][]int
	// FeatureEdges holds undirected edges (lower id first) the flip pass
	// may not remove.
	FeatureEdges map[[2]int]struct{}
	// BaseGrid and TopGrid accelerate intersection checks. Both may be nil
	// in which case checks run against every face.
	BaseGrid, TopGrid Grid
	Ref               Reference
}

// NewCage creates a shell from its layers and connectivity. Faces are
// rotated into canonical order and tracking is computed against ref.
func NewCage(base, mid, top []r3.Vec, F [][3]int, ref Reference) (*Cage, error) {
	if len(base) != len(mid) || len(mid) != len(top) {
		return nil, fmt.Errorf("%w: layer sizes %d/%d/%d", ErrLayerMismatch, len(base), len(mid), len(top))
	}
	if ref == nil {
		return nil, errors.New("nil reference surface")
	}
	for _, layer := range [3][]r3.Vec{base, mid, top} {
		for i, v := range layer {
			if !d3.IsFinite(v) {
				return nil, fmt.Errorf("vertex %d has non finite position %v", i, v)
			}
		}
	}
	c := &Cage{
		Base:         base,
		Mid:          mid,
		Top:          top,
		F:            make([][3]int, len(F)),
		Track:        make([][]int, len(F)),
		FeatureEdges: make(map[[2]int]struct{}),
		Ref:          ref,
	}
	for i, f := range F {
		for _, v := range f {
			if v < 0 || v >= len(mid) {
				return nil, fmt.Errorf("face %d references vertex %d out of range [0,%d)", i, v, len(mid))
			}
		}
		c.F[i] = mesh.Rotate(f, mesh.CanonicalShift(f))
	}
	for i := range c.F {
		c.Track[i] = ref.Intersecting(c.Column(i))
		if len(c.Track[i]) == 0 {
			return nil, fmt.Errorf("face %d: %w", i, ErrEmptyTracking)
		}
	}
	return c, nil
}

// NumVertices returns the number of vertices per layer.
func (c *Cage) NumVertices() int { return len(c.Mid) }

// Column returns the column of face f.
func (c *Cage) Column(f int) Column {
	return c.ColumnOf(c.F[f])
}

// ColumnOf returns the column spanned by the three existing vertices of face.
func (c *Cage) ColumnOf(face [3]int) Column {
	col := Column{ID: face}
	for i, v := range face {
		col.Base[i] = c.Base[v]
		col.Mid[i] = c.Mid[v]
		col.Top[i] = c.Top[v]
	}
	return col
}

// IsFeature reports whether undirected edge uv is a feature edge.
func (c *Cage) IsFeature(u, v int) bool {
	if len(c.FeatureEdges) == 0 {
		return false
	}
	_, ok := c.FeatureEdges[EdgeKey(u, v)]
	return ok
}

// AddFeature marks undirected edge uv as a feature edge.
func (c *Cage) AddFeature(u, v int) {
	if c.FeatureEdges == nil {
		c.FeatureEdges = make(map[[2]int]struct{})
	}
	c.FeatureEdges[EdgeKey(u, v)] = struct{}{}
}

// EdgeKey returns the undirected key of edge uv with the lower id first.
func EdgeKey(u, v int) [2]int {
	if u > v {
		u, v = v, u
	}
	return [2]int{u, v}
}

// AttachGrids sets the broad phase indices and fills them with every face.
func (c *Cage) AttachGrids(base, top Grid) {
	c.BaseGrid, c.TopGrid = base, top
	fids := make([]int, len(c.F))
	for i := range fids {
		fids[i] = i
	}
	c.indexSlabs(fids)
}

// UpdateGrids removes the stale entries of the faces in removed and indexes
// the current geometry of the faces in inserted.
func (c *Cage) UpdateGrids(removed, inserted []int) {
	for _, g := range [2]Grid{c.BaseGrid, c.TopGrid} {
		if g == nil {
			continue
		}
		for _, f := range removed {
			g.RemoveElement(f)
		}
	}
	c.indexSlabs(inserted)
}

// indexSlabs indexes the base to mid slab of each face in the base grid
// and the mid to top slab in the top grid. Every point of a column lies in
// one of the two boxes.
func (c *Cage) indexSlabs(fids []int) {
	for _, f := range fids {
		lower, upper := c.Column(f).SlabBounds()
		if c.BaseGrid != nil {
			c.BaseGrid.InsertBox(f, lower)
		}
		if c.TopGrid != nil {
			c.TopGrid.InsertBox(f, upper)
		}
	}
}

// Check verifies the shell's structural invariants: matching layers,
// canonical non repeating faces, manifold connectivity, sorted non empty
// tracking, positive columns and grids that index every face.
// It is meant for tests and debugging; it runs in O(F) exact predicates.
func (c *Cage) Check() error {
	nv := len(c.Mid)
	if len(c.Base) != nv || len(c.Top) != nv {
		return fmt.Errorf("%w: layer sizes %d/%d/%d", ErrLayerMismatch, len(c.Base), nv, len(c.Top))
	}
	if len(c.Track) != len(c.F) {
		return fmt.Errorf("have %d tracking lists for %d faces", len(c.Track), len(c.F))
	}
	for i, f := range c.F {
		for _, v := range f {
			if v < 0 || v >= nv {
				return fmt.Errorf("face %d references vertex %d out of range [0,%d)", i, v, nv)
			}
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			return fmt.Errorf("face %d has repeated vertex %v", i, f)
		}
		if mesh.CanonicalShift(f) != 0 {
			return fmt.Errorf("face %d %v not in canonical rotation", i, f)
		}
		if len(c.Track[i]) == 0 {
			return fmt.Errorf("face %d: %w", i, ErrEmptyTracking)
		}
		if !sort.IntsAreSorted(c.Track[i]) {
			return fmt.Errorf("face %d tracking not sorted", i)
		}
		if c.Column(i).Degenerate() {
			return fmt.Errorf("face %d column is degenerate", i)
		}
	}
	if err := mesh.CheckManifold(c.F); err != nil {
		return err
	}
	for e := range c.FeatureEdges {
		if e[0] >= e[1] {
			return fmt.Errorf("feature edge %v not in canonical order", e)
		}
	}
	for name, g := range map[string]Grid{"base": c.BaseGrid, "top": c.TopGrid} {
		if g != nil && g.Len() != len(c.F) {
			return fmt.Errorf("%s grid indexes %d faces, want %d", name, g.Len(), len(c.F))
		}
	}
	return nil
}
