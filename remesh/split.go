package remesh

import (
	"github.com/soypat/prism"
	"github.com/soypat/prism/internal/d3"
	"github.com/soypat/prism/internal/logger"
	"github.com/soypat/prism/mesh"
	"github.com/soypat/prism/validity"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Split runs the edge split pass: interior edges are visited longest first
// and split at their midpoint when long compared to the local target size.
// The new mid vertex is placed where the base-top segment crosses the
// reference surface, damped toward the edge midpoint while that yields
// inverted columns. Edges created by the pass are not split again within it.
// After the queue drains the target adjustment of vertices around poor
// triangles is shrunk. A nil SizingField is a uniform size of 1.
func Split(c *prism.Cage, opt *Options) Stats {
	st := Stats{Pass: SplitPass}
	nv := c.NumVertices()
	opt.adjustments(nv)
	sizing := opt.SizingField
	if sizing == nil {
		sizing = UniformSizing(1)
	}
	target := func(v int) float64 { return sizing(c.Mid[v]) * opt.TargetAdjustment[v] }
	inserted := func(u0, u1 int) bool { return u0 >= nv || u1 >= nv }

	topo := mesh.New(c.F)
	q := seedQueue(topo, c.Mid, nil)
	vopt := opt.validityOptions(true)
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
		u0, u1 := quad.U0, quad.U1
		if !longEnough(d3.Dist(c.Mid[u0], c.Mid[u1]), target(u0), target(u1)) {
			st.Gated++
			continue
		}
		if quad.V0 == quad.V1 {
			st.TopologyFailures++
			continue
		}
		base := d3.Midpoint(c.Base[u0], c.Base[u1])
		top := d3.Midpoint(c.Top[u0], c.Top[u1])
		ideal, ok := c.Ref.SegmentQuery(base, top)
		if !ok {
			st.ProjectionFailures++
			logger.Debug("split abandoned: base-top segment misses reference",
				zap.Int("u0", u0), zap.Int("u1", u1),
				zap.Any("base0", c.Base[u0]), zap.Any("base1", c.Base[u1]),
				zap.Any("top0", c.Top[u0]), zap.Any("top1", c.Top[u1]),
			)
			continue
		}
		res, pos := attemptSplit(c, vopt, quad, base, top, ideal)
		if res.Reason != validity.OK {
			st.Rejected[res.Reason]++
			continue
		}
		before := rows(topo.F, res.Faces)
		w := c.NumVertices()
		c.Base = append(c.Base, pos.Base)
		c.Mid = append(c.Mid, pos.Mid)
		c.Top = append(c.Top, pos.Top)
		opt.TargetAdjustment = append(opt.TargetAdjustment, 0.5*(opt.TargetAdjustment[u0]+opt.TargetAdjustment[u1]))
		topo.Split(w, quad.F0, quad.E0)
		commit(c, topo, res, []int{quad.F0, quad.F1})
		if c.IsFeature(u0, u1) {
			delete(c.FeatureEdges, prism.EdgeKey(u0, u1))
			c.AddFeature(u0, w)
			c.AddFeature(w, u1)
		}
		requeue(q, topo.F, c.Mid, res.Faces, before, inserted)
		st.Accepted++
	}
	st.LowQualityVertices = opt.feedback(c)
	logger.Info("split pass done", st.fields()...)
	return st
}

// longEnough is the sizing gate: an edge of length l between vertices of
// target sizes t0 and t1 is split unless sizingSlack·l < t0+t1.
func longEnough(l, t0, t1 float64) bool {
	return !(sizingSlack*l < t0+t1)
}

// attemptSplit validates the split with the mid vertex at ideal and, while
// the result is degenerate, retries with the mid vertex blended toward the
// midpoint of the edge's mid layer positions.
func attemptSplit(c *prism.Cage, vopt validity.Options, q mesh.Quad, base, top, ideal r3.Vec) (validity.Result, validity.Position) {
	fallback := d3.Midpoint(c.Mid[q.U0], c.Mid[q.U1])
	pos := validity.Position{Base: base, Top: top}
	for alpha := 1.0; ; alpha *= dampingFactor {
		pos.Mid = d3.Lerp(fallback, ideal, alpha)
		res := validity.AttemptSplit(c, vopt, q, pos)
		if res.Reason != validity.Degenerate || alpha*dampingFactor < minDamping {
			return res, pos
		}
	}
}

// feedback shrinks the target adjustment of every vertex of a poor quality
// face once, then lets every adjustment grow by half again within
// [minAdjustment, maxAdjustment]. It returns the number of shrunk vertices.
func (o *Options) feedback(c *prism.Cage) int {
	adj := o.TargetAdjustment
	shrunk := make([]bool, len(adj))
	n := 0
	for f, t := range c.F {
		if c.MidQuality(f) <= lowQuality {
			continue
		}
		for _, v := range t {
			if !shrunk[v] {
				shrunk[v] = true
				adj[v] /= lowQualityShrink
				n++
			}
		}
	}
	for i, u := range adj {
		adj[i] = clampAdjustment(growAdjustment * u)
	}
	logger.Debug("split feedback", zap.Int("low_quality_vertices", n), zap.Int("vertices", len(adj)))
	return n
}
