package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/prism"
	"github.com/soypat/prism/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Weld merges the vertices of a triangle soup that fall in the same cell
// of a grid of spacing tol and returns the indexed mesh. A zero tol picks
// 1/256 of the shortest triangle side. Triangles whose corners weld
// together are reported as an error.
func Weld(model []Triangle3, tol float64) (V []r3.Vec, F [][3]int, err error) {
	if len(model) == 0 {
		return nil, nil, ErrEmptyModel
	}
	tol, err = weldTolerance(model, tol)
	if err != nil {
		return nil, nil, err
	}
	// vertex index cache
	cache := make(map[[3]int64]int)
	ri := 1 / tol
	F = make([][3]int, len(model))
	for i, tri := range model {
		for j, vert := range tri {
			// Scale vert to be integer in resolution-space.
			v := r3.Scale(ri, vert)
			vi := [3]int64{int64(math.Round(v.X)), int64(math.Round(v.Y)), int64(math.Round(v.Z))}
			idx, ok := cache[vi]
			if !ok {
				idx = len(V)
				cache[vi] = idx
				V = append(V, vert)
			}
			F[i][j] = idx
		}
		f := F[i]
		if f[0] == f[1] || f[1] == f[2] || f[2] == f[0] {
			return nil, nil, fmt.Errorf("triangle %d collapses at vertex tolerance %g", i, tol)
		}
	}
	return V, F, nil
}

func weldTolerance(model []Triangle3, tol float64) (float64, error) {
	if tol < 0 {
		return 0, errors.New("negative vertex tolerance")
	}
	bb := d3.EmptyBox()
	minDist2 := math.MaxFloat64
	maxDist2 := -math.MaxFloat64
	for _, tri := range model {
		for j, vert := range tri {
			bb = bb.Include(vert)
			side2 := r3.Norm2(r3.Sub(tri[(j+1)%3], vert))
			minDist2 = math.Min(minDist2, side2)
			maxDist2 = math.Max(maxDist2, side2)
		}
	}
	suggested := math.Sqrt(minDist2) / 256
	if tol > math.Sqrt(maxDist2)/2 {
		return 0, fmt.Errorf("vertex tolerance is too large to weld mesh, suggested tolerance: %g", suggested)
	}
	if tol == 0 {
		tol = suggested
	}
	if tol == 0 {
		return 0, errors.New("model has zero length triangle sides")
	}
	maxCoord := d3.Max(d3.MaxElem(d3.AbsElem(bb.Min), d3.AbsElem(bb.Max)))
	if maxCoord/tol > math.MaxInt64/2 {
		return 0, errors.New("tolerance too small. overflowed int64")
	}
	return tol, nil
}

// WeldLayers builds shell layers from three triangle soups that list
// corresponding triangles in the same order, such as the layers written by
// a previous run. The mid soup decides connectivity and the base and top
// triangles supply the positions of each mid vertex's counterparts.
func WeldLayers(base, mid, top []Triangle3, tol float64) (B, M, T []r3.Vec, F [][3]int, err error) {
	if len(base) != len(mid) || len(top) != len(mid) {
		return nil, nil, nil, nil, fmt.Errorf("%w: triangle counts %d/%d/%d", prism.ErrLayerMismatch, len(base), len(mid), len(top))
	}
	M, F, err = Weld(mid, tol)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	B, err = counterpart(base, F, len(M), tol)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("base layer: %w", err)
	}
	T, err = counterpart(top, F, len(M), tol)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("top layer: %w", err)
	}
	return B, M, T, F, nil
}

// counterpart gathers the layer position of every vertex of F from the
// corresponding soup corners and checks that all corners agree.
func counterpart(model []Triangle3, F [][3]int, nv int, tol float64) ([]r3.Vec, error) {
	if tol == 0 {
		tol = 1e-9
	}
	V := make([]r3.Vec, nv)
	seen := make([]bool, nv)
	for i, f := range F {
		for j, v := range f {
			p := model[i][j]
			if seen[v] && !d3.EqualWithin(V[v], p, tol) {
				return nil, fmt.Errorf("%w: vertex %d at %v and %v", prism.ErrLayerMismatch, v, V[v], p)
			}
			V[v], seen[v] = p, true
		}
	}
	return V, nil
}
