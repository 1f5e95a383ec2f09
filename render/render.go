// Package render reads and writes triangle meshes as binary STL and
// converts between triangle soups and indexed shell layers.
package render

import (
	"errors"
	"io"

	"github.com/soypat/prism/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrEmptyModel is returned when a model holds no triangles.
var ErrEmptyModel = errors.New("empty triangle model")

// Triangle3 is a triangle in 3D space.
type Triangle3 [3]r3.Vec

// Normal returns the unit normal of the triangle following the right hand
// rule, or the zero vector for a degenerate triangle.
func (t Triangle3) Normal() r3.Vec {
	n := d3.Triangle(t).Normal()
	if n == (r3.Vec{}) {
		return n
	}
	return r3.Unit(n)
}

// Renderer streams triangles. ReadTriangles fills t and returns the number
// of triangles written and io.EOF once the model is exhausted.
type Renderer interface {
	ReadTriangles(t []Triangle3) (int, error)
}

// MeshRenderer streams the triangles of an indexed mesh.
type MeshRenderer struct {
	V    []r3.Vec
	F    [][3]int
	next int
}

var _ Renderer = (*MeshRenderer)(nil)

// NewMeshRenderer returns a Renderer over faces F with vertices V.
func NewMeshRenderer(V []r3.Vec, F [][3]int) *MeshRenderer {
	return &MeshRenderer{V: V, F: F}
}

func (m *MeshRenderer) ReadTriangles(t []Triangle3) (int, error) {
	n := 0
	for n < len(t) && m.next < len(m.F) {
		f := m.F[m.next]
		t[n] = Triangle3{m.V[f[0]], m.V[f[1]], m.V[f[2]]}
		n++
		m.next++
	}
	if m.next == len(m.F) {
		return n, io.EOF
	}
	return n, nil
}

// Soup returns the triangles of an indexed mesh.
func Soup(V []r3.Vec, F [][3]int) []Triangle3 {
	model := make([]Triangle3, len(F))
	for i, f := range F {
		model[i] = Triangle3{V[f[0]], V[f[1]], V[f[2]]}
	}
	return model
}
