package mesh

import "fmt"

// Topology bundles faces with their adjacency so edits keep both in sync.
type Topology struct {
	F, FF, FFi [][3]int
}

// New computes the adjacency of F. The returned Topology shares F's
// backing array until a split appends to it.
func New(F [][3]int) *Topology {
	FF, FFi := TriangleAdjacency(F)
	return &Topology{F: F, FF: FF, FFi: FFi}
}

// Opposite returns the face and local edge across edge e of face f.
func (t *Topology) Opposite(f, e int) (int, int) {
	return t.FF[f][e], t.FFi[f][e]
}

// Quad names the vertices around interior edge e0 of face f0: u0->u1 is the
// edge as seen from f0, v0 is opposite in f0 and v1 is opposite in f1.
type Quad struct {
	F0, E0, F1, E1 int
	U0, U1, V0, V1 int
}

// QuadAt returns the quad around edge e0 of f0. ok is false for boundary edges.
func (t *Topology) QuadAt(f0, e0 int) (q Quad, ok bool) {
	f1, e1 := t.Opposite(f0, e0)
	if f1 == Boundary {
		return q, false
	}
	return QuadOf(t.F, f0, e0, f1, e1), true
}

// QuadOf returns the quad around the edge shared by f0 (local e0) and f1 (local e1).
func QuadOf(F [][3]int, f0, e0, f1, e1 int) Quad {
	return Quad{
		F0: f0, E0: e0, F1: f1, E1: e1,
		U0: F[f0][e0],
		U1: F[f0][(e0+1)%3],
		V0: F[f0][(e0+2)%3],
		V1: F[f1][(e1+2)%3],
	}
}

// FlipLayout returns the faces that replace F0 and F1 when the quad's
// diagonal is flipped from u0-u1 to v0-v1.
func (q Quad) FlipLayout() [2][3]int {
	return [2][3]int{
		{q.U0, q.V1, q.V0},
		{q.U1, q.V0, q.V1},
	}
}

// SplitLayout returns the faces produced by splitting u0-u1 at new vertex w.
// The first two replace F0 and F1, the last two are appended.
func (q Quad) SplitLayout(w int) [4][3]int {
	return [4][3]int{
		{q.U0, w, q.V0},
		{q.U1, w, q.V1},
		{w, q.U1, q.V0},
		{w, q.U0, q.V1},
	}
}

// Flip replaces edge e0 of face f0 by the other diagonal of its quad.
// It returns false and leaves the mesh unchanged if the edge is on the
// boundary, the opposite vertices coincide or they are already connected.
func (t *Topology) Flip(f0, e0 int) bool {
	q, ok := t.QuadAt(f0, e0)
	if !ok || q.V0 == q.V1 || t.connected(f0, (e0+2)%3, q.V1) {
		return false
	}
	outer := t.outerEdges(q.F0, q.F1)
	lay := q.FlipLayout()
	t.F[q.F0], t.F[q.F1] = lay[0], lay[1]
	t.relink([]int{q.F0, q.F1}, outer)
	return true
}

// Split inserts vertex w on edge e0 of face f0. The two faces sharing the
// edge are rewritten in place and two faces are appended; their ids are
// returned. Split panics on a boundary edge.
func (t *Topology) Split(w, f0, e0 int) (fx0, fx1 int) {
	q, ok := t.QuadAt(f0, e0)
	if !ok {
		panic(fmt.Sprintf("mesh: split of boundary edge %d of face %d", e0, f0))
	}
	outer := t.outerEdges(q.F0, q.F1)
	lay := q.SplitLayout(w)
	fx0, fx1 = len(t.F), len(t.F)+1
	t.F[q.F0], t.F[q.F1] = lay[0], lay[1]
	t.F = append(t.F, lay[2], lay[3])
	t.FF = append(t.FF, [3]int{}, [3]int{})
	t.FFi = append(t.FFi, [3]int{}, [3]int{})
	t.relink([]int{q.F0, q.F1, fx0, fx1}, outer)
	return fx0, fx1
}

// ShiftLeft rotates face faces[i] left by shifts[i] positions, keeping the
// adjacency of the face and its neighbours consistent.
func (t *Topology) ShiftLeft(faces, shifts []int) {
	for i, f := range faces {
		s := shifts[i] % 3
		if s == 0 {
			continue
		}
		t.F[f] = Rotate(t.F[f], s)
		t.FF[f] = Rotate(t.FF[f], s)
		t.FFi[f] = Rotate(t.FFi[f], s)
		for e := 0; e < 3; e++ {
			if g := t.FF[f][e]; g != Boundary {
				t.FFi[g][t.FFi[f][e]] = e
			}
		}
	}
}

// connected reports whether the vertex at local index k of face f shares an
// edge with vertex target. It walks the vertex's one ring in both directions.
func (t *Topology) connected(f, k, target int) bool {
	v := t.F[f][k]
	adjacent := func(g, kk int) bool {
		return t.F[g][(kk+1)%3] == target || t.F[g][(kk+2)%3] == target
	}
	// Counter clockwise around v, crossing the edge leaving v.
	g, kg := f, k
	for steps := 0; steps <= len(t.F); steps++ {
		if adjacent(g, kg) {
			return true
		}
		ng, ne := t.FF[g][kg], t.FFi[g][kg]
		if ng == Boundary {
			break
		}
		g, kg = ng, (ne+1)%3
		if g == f {
			return false
		}
	}
	// Hit the boundary: walk the other way, crossing the edge entering v.
	g, kg = f, k
	for steps := 0; steps <= len(t.F); steps++ {
		pe := (kg + 2) % 3
		ng, ne := t.FF[g][pe], t.FFi[g][pe]
		if ng == Boundary || ng == f {
			break
		}
		g, kg = ng, ne
		if t.F[g][kg] != v {
			break
		}
		if adjacent(g, kg) {
			return true
		}
	}
	return false
}

// outerEdges records, for every directed edge of faces, the neighbour across
// it. Edges between two listed faces are recorded too and overwritten by
// relink.
func (t *Topology) outerEdges(faces ...int) map[[2]int][2]int {
	outer := make(map[[2]int][2]int, 3*len(faces))
	for _, f := range faces {
		for e := 0; e < 3; e++ {
			key := [2]int{t.F[f][e], t.F[f][(e+1)%3]}
			outer[key] = [2]int{t.FF[f][e], t.FFi[f][e]}
		}
	}
	return outer
}

// relink rebuilds the adjacency of the rewritten faces. Edges shared among
// faces are linked to each other, the rest are reattached to the neighbour
// recorded for the same directed edge before the edit.
func (t *Topology) relink(faces []int, outer map[[2]int][2]int) {
	for _, f := range faces {
		for e := 0; e < 3; e++ {
			a, b := t.F[f][e], t.F[f][(e+1)%3]
			if g, ge, ok := t.twinAmong(faces, b, a); ok {
				t.FF[f][e], t.FFi[f][e] = g, ge
				continue
			}
			nb, ok := outer[[2]int{a, b}]
			if !ok {
				panic(fmt.Sprintf("mesh: edge %d->%d of face %d lost during edit", a, b, f))
			}
			t.FF[f][e], t.FFi[f][e] = nb[0], nb[1]
			if nb[0] != Boundary {
				t.FF[nb[0]][nb[1]] = f
				t.FFi[nb[0]][nb[1]] = e
			}
		}
	}
}

func (t *Topology) twinAmong(faces []int, a, b int) (f, e int, ok bool) {
	for _, f := range faces {
		for e := 0; e < 3; e++ {
			if t.F[f][e] == a && t.F[f][(e+1)%3] == b {
				return f, e, true
			}
		}
	}
	return 0, 0, false
}
