package remesh

import (
	"container/heap"

	"github.com/soypat/prism/internal/d3"
	"github.com/soypat/prism/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// candidate is an edge u0->u1 found at local edge e of face f when it was
// queued. Edits may invalidate it; see stale.
type candidate struct {
	length float64
	f, e   int
	u0, u1 int
}

// edgeQueue is a max-heap of candidates ordered by length. Ties go to the
// larger face id, then the larger local edge, so pops are deterministic.
type edgeQueue []candidate

func (q edgeQueue) Len() int { return len(q) }

func (q edgeQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.length != b.length {
		return a.length > b.length
	}
	if a.f != b.f {
		return a.f > b.f
	}
	return a.e > b.e
}

func (q edgeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *edgeQueue) Push(x interface{}) { *q = append(*q, x.(candidate)) }

func (q *edgeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

func (q *edgeQueue) push(c candidate) { heap.Push(q, c) }

func (q *edgeQueue) pop() candidate { return heap.Pop(q).(candidate) }

// stale reports whether the candidate no longer names edge u0->u1 at its
// recorded location.
func (c candidate) stale(F [][3]int) bool {
	if c.f >= len(F) {
		return true
	}
	t := F[c.f]
	return t[c.e] != c.u0 || t[(c.e+1)%3] != c.u1
}

// seedQueue queues every interior edge once, from the face where it runs
// from the lower to the higher vertex id. Edges for which skip returns true
// are left out.
func seedQueue(topo *mesh.Topology, V []r3.Vec, skip func(u0, u1 int) bool) *edgeQueue {
	q := &edgeQueue{}
	for f, t := range topo.F {
		for e := 0; e < 3; e++ {
			u0, u1 := t[e], t[(e+1)%3]
			if u0 > u1 || topo.FF[f][e] == mesh.Boundary {
				continue
			}
			if skip != nil && skip(u0, u1) {
				continue
			}
			*q = append(*q, candidate{length: d3.Dist(V[u0], V[u1]), f: f, e: e, u0: u0, u1: u1})
		}
	}
	heap.Init(q)
	return q
}

// requeue pushes the edges of the given faces whose (face, local edge)
// location changed between before and the current faces. Only edges
// running from the lower to the higher vertex id are pushed.
func requeue(q *edgeQueue, F [][3]int, V []r3.Vec, faces []int, before map[int][3]int, skip func(u0, u1 int) bool) {
	for _, f := range faces {
		old, existed := before[f]
		t := F[f]
		for e := 0; e < 3; e++ {
			u0, u1 := t[e], t[(e+1)%3]
			if u0 > u1 {
				continue
			}
			if existed && old[e] == u0 && old[(e+1)%3] == u1 {
				continue
			}
			if skip != nil && skip(u0, u1) {
				continue
			}
			q.push(candidate{length: d3.Dist(V[u0], V[u1]), f: f, e: e, u0: u0, u1: u1})
		}
	}
}
