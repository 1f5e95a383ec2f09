// Package shelltest builds small shells over planar reference surfaces
// for tests.
package shelltest

import (
	"github.com/soypat/prism"
	"github.com/soypat/prism/refsurf"
	"gonum.org/v1/gonum/spatial/r3"
)

// Grid returns an n by n vertex grid of spacing h in the z=0 plane
// triangulated with lower left to upper right diagonals.
// Vertex (i,j) has id i+n*j.
func Grid(n int, h float64) (V []r3.Vec, F [][3]int) {
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			V = append(V, r3.Vec{X: float64(i) * h, Y: float64(j) * h})
		}
	}
	for j := 0; j < n-1; j++ {
		for i := 0; i < n-1; i++ {
			a, b := i+n*j, i+1+n*j
			c, d := i+1+n*(j+1), i+n*(j+1)
			F = append(F, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return V, F
}

// Plane returns the reference surface of Grid(n, h).
func Plane(n int, h float64) *refsurf.Surface {
	V, F := Grid(n, h)
	s, err := refsurf.New(V, F)
	if err != nil {
		panic(err)
	}
	return s
}

// Offset returns a copy of V translated by dz along Z.
func Offset(V []r3.Vec, dz float64) []r3.Vec {
	out := make([]r3.Vec, len(V))
	for i, v := range V {
		out[i] = r3.Vec{X: v.X, Y: v.Y, Z: v.Z + dz}
	}
	return out
}

// FlatCage returns a shell of n by n vertices and spacing h whose mid layer
// lies on the reference plane with base and top at -thick and +thick.
// The reference is a finer grid covering the same square.
func FlatCage(n int, h, thick float64) *prism.Cage {
	V, F := Grid(n, h)
	const refRes = 2
	ref := Plane(refRes*(n-1)+1, h/refRes)
	c, err := prism.NewCage(Offset(V, -thick), Offset(V, 0), Offset(V, thick), F, ref)
	if err != nil {
		panic(err)
	}
	return c
}

// StackedCage returns two n by n sheets of spacing h whose columns overlap.
// Sheet A (vertices [0,n²)) hugs the reference plane. Sheet B floats above
// with its mid layer at 0.6 and a base reaching below the plane.
func StackedCage(n int, h float64) *prism.Cage {
	V, F := Grid(n, h)
	nv := len(V)
	base := append(Offset(V, -0.5), Offset(V, -0.2)...)
	mid := append(Offset(V, 0), Offset(V, 0.6)...)
	top := append(Offset(V, 0.5), Offset(V, 1.4)...)
	faces := append([][3]int(nil), F...)
	for _, f := range F {
		faces = append(faces, [3]int{f[0] + nv, f[1] + nv, f[2] + nv})
	}
	c, err := prism.NewCage(base, mid, top, faces, Plane(2*n-1, h/2))
	if err != nil {
		panic(err)
	}
	return c
}

// Snapshot is a deep copy of the state of a shell that edits may modify,
// including what its grids return for every column.
type Snapshot struct {
	Base, Mid, Top []r3.Vec
	F              [][3]int
	Track          [][]int
	Features       map[[2]int]struct{}
	// GridLen and GridHits hold the size of the base and top grids and
	// their query result for each column's bounds.
	GridLen  [2]int
	GridHits [2][][]int
}

// Take returns a snapshot of c.
func Take(c *prism.Cage) Snapshot {
	s := Snapshot{
		Base:     append([]r3.Vec(nil), c.Base...),
		Mid:      append([]r3.Vec(nil), c.Mid...),
		Top:      append([]r3.Vec(nil), c.Top...),
		F:        append([][3]int(nil), c.F...),
		Features: make(map[[2]int]struct{}, len(c.FeatureEdges)),
	}
	for _, tr := range c.Track {
		s.Track = append(s.Track, append([]int(nil), tr...))
	}
	for e := range c.FeatureEdges {
		s.Features[e] = struct{}{}
	}
	for i, g := range [2]prism.Grid{c.BaseGrid, c.TopGrid} {
		if g == nil {
			continue
		}
		s.GridLen[i] = g.Len()
		for f := range c.F {
			s.GridHits[i] = append(s.GridHits[i], g.Query(c.Column(f).Bounds()))
		}
	}
	return s
}
