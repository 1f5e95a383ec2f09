package mesh

import (
	"errors"
	"reflect"
	"sort"
	"testing"
)

// gridFaces triangulates an n by n vertex grid with diagonals from the lower
// left to the upper right corner of each cell.
func gridFaces(n int) [][3]int {
	var F [][3]int
	for j := 0; j < n-1; j++ {
		for i := 0; i < n-1; i++ {
			a, b := i+n*j, i+1+n*j
			c, d := i+1+n*(j+1), i+n*(j+1)
			F = append(F, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return F
}

// tetSurface is a closed, outward oriented tetrahedron.
func tetSurface() [][3]int {
	return [][3]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}}
}

func checkTopology(t *testing.T, topo *Topology) {
	t.Helper()
	FF, FFi := TriangleAdjacency(topo.F)
	if !reflect.DeepEqual(FF, topo.FF) || !reflect.DeepEqual(FFi, topo.FFi) {
		t.Fatalf("adjacency out of sync with faces\nhave FF=%v FFi=%v\nwant FF=%v FFi=%v", topo.FF, topo.FFi, FF, FFi)
	}
	if err := CheckManifold(topo.F); err != nil {
		t.Fatal(err)
	}
}

// faceSet returns the faces in canonical rotation, sorted.
func faceSet(F [][3]int) [][3]int {
	out := make([][3]int, len(F))
	for i, f := range F {
		out[i] = Rotate(f, CanonicalShift(f))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})
	return out
}

func TestTriangleAdjacency(t *testing.T) {
	F := gridFaces(3)
	FF, FFi := TriangleAdjacency(F)
	boundary := 0
	for f := range F {
		for e := 0; e < 3; e++ {
			g := FF[f][e]
			if g == Boundary {
				boundary++
				if FFi[f][e] != Boundary {
					t.Errorf("boundary edge %d of face %d has index %d", e, f, FFi[f][e])
				}
				continue
			}
			ge := FFi[f][e]
			if FF[g][ge] != f || FFi[g][ge] != e {
				t.Errorf("face %d edge %d: neighbour %d/%d does not point back", f, e, g, ge)
			}
			if F[f][e] != F[g][(ge+1)%3] || F[f][(e+1)%3] != F[g][ge] {
				t.Errorf("face %d edge %d: neighbour edge not reversed", f, e)
			}
		}
	}
	if boundary != 8 {
		t.Errorf("want 8 boundary edges on 3x3 grid, got %d", boundary)
	}
	FF, _ = TriangleAdjacency(tetSurface())
	for f := range FF {
		for e := 0; e < 3; e++ {
			if FF[f][e] == Boundary {
				t.Fatalf("closed surface has boundary edge %d of face %d", e, f)
			}
		}
	}
}

func TestTriangleAdjacencyNonManifold(t *testing.T) {
	// Three faces share edge 0-1.
	F := [][3]int{{0, 1, 2}, {1, 0, 3}, {1, 0, 4}}
	FF, _ := TriangleAdjacency(F)
	if FF[0][0] != Boundary || FF[1][0] != Boundary || FF[2][0] != Boundary {
		t.Errorf("non manifold edge should be boundary, got %v", FF)
	}
	if err := CheckManifold(F); !errors.Is(err, ErrNonManifold) {
		t.Errorf("want ErrNonManifold, got %v", err)
	}
}

func TestFlipInvolution(t *testing.T) {
	topo := New(gridFaces(3))
	before := faceSet(topo.F)
	// Face 0 is (0,1,4): edge 2 is the cell diagonal 4->0.
	q, ok := topo.QuadAt(0, 2)
	if !ok {
		t.Fatal("diagonal should be interior")
	}
	if q.U0 != 4 || q.U1 != 0 || q.V0 != 1 || q.V1 != 3 {
		t.Fatalf("unexpected quad %+v", q)
	}
	if !topo.Flip(0, 2) {
		t.Fatal("flip failed")
	}
	checkTopology(t, topo)
	lay := q.FlipLayout()
	if topo.F[q.F0] != lay[0] || topo.F[q.F1] != lay[1] {
		t.Fatalf("flip layout mismatch: %v %v vs %v", topo.F[q.F0], topo.F[q.F1], lay)
	}
	// New diagonal v1->v0 sits at local edge 1 of F0.
	if !topo.Flip(q.F0, 1) {
		t.Fatal("flip back failed")
	}
	checkTopology(t, topo)
	if after := faceSet(topo.F); !reflect.DeepEqual(before, after) {
		t.Errorf("double flip changed mesh:\nbefore %v\nafter  %v", before, after)
	}
}

func TestFlipRejects(t *testing.T) {
	topo := New(tetSurface())
	want := faceSet(topo.F)
	for f := range topo.F {
		for e := 0; e < 3; e++ {
			if topo.Flip(f, e) {
				t.Fatalf("flip of face %d edge %d on tetrahedron should fail: opposite vertices already connected", f, e)
			}
		}
	}
	if got := faceSet(topo.F); !reflect.DeepEqual(want, got) {
		t.Error("failed flip modified the mesh")
	}
	grid := New(gridFaces(3))
	// Edge 0 of face 0 is 0->1 on the grid boundary.
	if grid.Flip(0, 0) {
		t.Error("boundary flip should fail")
	}
}

func TestSplit(t *testing.T) {
	F := gridFaces(3)
	topo := New(F)
	nv := 9
	q, _ := topo.QuadAt(0, 2)
	fx0, fx1 := topo.Split(nv, 0, 2)
	if fx0 != len(F) || fx1 != len(F)+1 || len(topo.F) != len(F)+2 {
		t.Fatalf("unexpected appended faces %d %d, len %d", fx0, fx1, len(topo.F))
	}
	checkTopology(t, topo)
	lay := q.SplitLayout(nv)
	for i, f := range []int{q.F0, q.F1, fx0, fx1} {
		if topo.F[f] != lay[i] {
			t.Errorf("face %d: want %v, got %v", f, lay[i], topo.F[f])
		}
	}
	val := Valence(topo.F, nv+1)
	if val[nv] != 4 {
		t.Errorf("split vertex valence: want 4, got %d", val[nv])
	}
	// Diagonal 0-4 is gone.
	for _, f := range topo.F {
		for e := 0; e < 3; e++ {
			a, b := f[e], f[(e+1)%3]
			if (a == 0 && b == 4) || (a == 4 && b == 0) {
				t.Fatalf("split edge still present in %v", f)
			}
		}
	}
}

func TestSplitBoundaryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New(gridFaces(3)).Split(9, 0, 0)
}

func TestShiftLeft(t *testing.T) {
	topo := New(gridFaces(4))
	nv := 16
	q, _ := topo.QuadAt(0, 2)
	fx0, fx1 := topo.Split(nv, 0, 2)
	faces := []int{q.F0, q.F1, fx0, fx1}
	shifts := make([]int, len(faces))
	for i, f := range faces {
		shifts[i] = CanonicalShift(topo.F[f])
	}
	topo.ShiftLeft(faces, shifts)
	checkTopology(t, topo)
	for _, f := range faces {
		if CanonicalShift(topo.F[f]) != 0 {
			t.Errorf("face %v not canonical", topo.F[f])
		}
	}
}

func TestValence(t *testing.T) {
	val := Valence(gridFaces(3), 9)
	want := []int{3, 4, 2, 4, 6, 4, 2, 4, 3}
	if !reflect.DeepEqual(val, want) {
		t.Errorf("want %v, got %v", want, val)
	}
	for v, n := range Valence(tetSurface(), 4) {
		if n != 3 {
			t.Errorf("tetrahedron vertex %d: want valence 3, got %d", v, n)
		}
	}
}

func TestRotate(t *testing.T) {
	f := [3]int{5, 2, 9}
	if s := CanonicalShift(f); s != 1 {
		t.Fatalf("want shift 1, got %d", s)
	}
	if got := Rotate(f, 1); got != [3]int{2, 9, 5} {
		t.Errorf("got %v", got)
	}
	if got := Rotate(f, 3); got != f {
		t.Errorf("full rotation changed face: %v", got)
	}
}
