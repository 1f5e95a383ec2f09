package remesh

import (
	"fmt"

	"github.com/soypat/prism"
	"github.com/soypat/prism/internal/logger"
	"github.com/soypat/prism/mesh"
	"github.com/soypat/prism/validity"
)

const idealValence = 6

// Flip runs the edge flip pass: interior non feature edges are visited
// longest first and flipped when that lowers the squared deviation from
// valence 6 of the four vertices involved and the flipped columns validate.
func Flip(c *prism.Cage, opt *Options) Stats {
	st := Stats{Pass: FlipPass}
	topo := mesh.New(c.F)
	feature := c.IsFeature
	q := seedQueue(topo, c.Mid, feature)
	valence := mesh.Valence(topo.F, c.NumVertices())
	vopt := opt.validityOptions(false)
	for q.Len() > 0 {
		cand := q.pop()
		st.Popped++
		if cand.stale(topo.F) {
			st.Stale++
			continue
		}
		quad, ok := topo.QuadAt(cand.f, cand.e)
		if !ok {
			st.Stale++
			continue
		}
		if quad.V0 == quad.V1 || !valenceImproves(valence, quad) {
			st.Gated++
			continue
		}
		res := validity.AttemptFlip(c, vopt, quad)
		if res.Reason != validity.OK {
			st.Rejected[res.Reason]++
			continue
		}
		before := rows(topo.F, res.Faces)
		if !topo.Flip(quad.F0, quad.E0) {
			st.TopologyFailures++
			continue
		}
		commit(c, topo, res, []int{quad.F0, quad.F1})
		valence[quad.U0]--
		valence[quad.U1]--
		valence[quad.V0]++
		valence[quad.V1]++
		requeue(q, topo.F, c.Mid, res.Faces, before, feature)
		st.Accepted++
	}
	logger.Info("flip pass done", st.fields()...)
	return st
}

// valenceImproves reports whether flipping quad strictly lowers the sum of
// squared valence deviations of its four vertices.
func valenceImproves(valence []int, q mesh.Quad) bool {
	dev := func(v, delta int) int {
		d := valence[v] + delta - idealValence
		return d * d
	}
	before := dev(q.U0, 0) + dev(q.U1, 0) + dev(q.V0, 0) + dev(q.V1, 0)
	after := dev(q.U0, -1) + dev(q.U1, -1) + dev(q.V0, 1) + dev(q.V1, 1)
	return after < before
}

// rows copies the current vertices of the listed faces that exist.
func rows(F [][3]int, faces []int) map[int][3]int {
	m := make(map[int][3]int, len(faces))
	for _, f := range faces {
		if f < len(F) {
			m[f] = F[f]
		}
	}
	return m
}

// commit finishes an accepted edit whose topological part is already done:
// faces are brought to canonical rotation, tracking is stored and the
// broad phase grids reindexed.
func commit(c *prism.Cage, topo *mesh.Topology, res validity.Result, replaced []int) {
	for i, f := range res.Faces {
		if topo.F[f] != res.Layout[i] {
			panic(fmt.Sprintf("remesh: face %d is %v after edit, validated as %v", f, topo.F[f], res.Layout[i]))
		}
	}
	topo.ShiftLeft(res.Faces, res.Shifts)
	c.F = topo.F
	for len(c.Track) < len(c.F) {
		c.Track = append(c.Track, nil)
	}
	for i, f := range res.Faces {
		c.Track[f] = res.Tracks[i]
	}
	if len(c.Track) != len(c.F) {
		panic(fmt.Sprintf("remesh: %d tracking lists for %d faces", len(c.Track), len(c.F)))
	}
	c.UpdateGrids(replaced, res.Faces)
}
