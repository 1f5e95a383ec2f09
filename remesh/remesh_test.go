package remesh

import (
	"math"
	"testing"

	"github.com/soypat/prism"
	"github.com/soypat/prism/internal/d3"
	"github.com/soypat/prism/internal/shelltest"
	"github.com/soypat/prism/mesh"
	"github.com/soypat/prism/refsurf"
	"github.com/soypat/prism/spatial"
	"github.com/soypat/prism/validity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestValenceGate(t *testing.T) {
	q := mesh.Quad{U0: 0, U1: 1, V0: 2, V1: 3}
	for _, test := range []struct {
		val  []int
		want bool
	}{
		{[]int{7, 7, 5, 5}, true},  // 4 -> 0
		{[]int{6, 6, 6, 6}, false}, // 0 -> 4
		{[]int{7, 6, 5, 6}, false}, // 2 -> 2, ties reject
		{[]int{8, 3, 3, 3}, true},  // 31 -> 25
		{[]int{6, 6, 4, 6}, false}, // 4 -> 4
		{[]int{3, 6, 6, 6}, false}, // 9 -> 19
	} {
		if got := valenceImproves(test.val, q); got != test.want {
			t.Errorf("valence %v: want %v, got %v", test.val, test.want, got)
		}
	}
}

func TestSizingGate(t *testing.T) {
	assert.False(t, longEnough(1, 1, 1), "1.5 < 2")
	assert.False(t, longEnough(1.33, 1, 1))
	assert.True(t, longEnough(1.34, 1, 1))
	assert.True(t, longEnough(2, 1, 1))
	assert.True(t, longEnough(1, 0.5, 1), "boundary 1.5 == 1.5 is split")
	assert.False(t, longEnough(0.5, 0.5, 0.5))
}

func TestQueueOrder(t *testing.T) {
	q := &edgeQueue{}
	for _, c := range []candidate{
		{length: 1, f: 5, e: 0},
		{length: 3, f: 1, e: 2},
		{length: 3, f: 2, e: 0},
		{length: 3, f: 2, e: 1},
		{length: 2, f: 0, e: 0},
	} {
		q.push(c)
	}
	var got [][3]float64
	for q.Len() > 0 {
		c := q.pop()
		got = append(got, [3]float64{c.length, float64(c.f), float64(c.e)})
	}
	want := [][3]float64{{3, 2, 1}, {3, 2, 0}, {3, 1, 2}, {2, 0, 0}, {1, 5, 0}}
	assert.Equal(t, want, got)
}

func TestCandidateStale(t *testing.T) {
	F := [][3]int{{0, 1, 2}}
	assert.False(t, candidate{f: 0, e: 1, u0: 1, u1: 2}.stale(F))
	assert.True(t, candidate{f: 0, e: 1, u0: 2, u1: 1}.stale(F))
	assert.True(t, candidate{f: 0, e: 0, u0: 1, u1: 2}.stale(F))
	assert.True(t, candidate{f: 3, e: 0, u0: 0, u1: 1}.stale(F))
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule("split, flip,split")
	require.NoError(t, err)
	assert.Equal(t, []Pass{SplitPass, FlipPass, SplitPass}, s)
	_, err = ParseSchedule("split,collapse")
	assert.Error(t, err)
	_, err = ParseSchedule(" , ")
	assert.Error(t, err)
	assert.Equal(t, "flip", FlipPass.String())
}

// octagonFan returns a flat shell around a fan of eight triangles whose
// center has valence 8 and whose rim vertices have valence 3.
func octagonFan(t *testing.T) *prism.Cage {
	t.Helper()
	V := []r3.Vec{{}}
	var F [][3]int
	for i := 0; i < 8; i++ {
		a := float64(i) * math.Pi / 4
		V = append(V, r3.Vec{X: math.Cos(a), Y: math.Sin(a)})
		F = append(F, [3]int{0, i + 1, (i+1)%8 + 1})
	}
	ref, err := refsurf.New(V, F)
	require.NoError(t, err)
	c, err := prism.NewCage(shelltest.Offset(V, -0.3), shelltest.Offset(V, 0), shelltest.Offset(V, 0.3), F, ref)
	require.NoError(t, err)
	return c
}

func valenceEnergy(c *prism.Cage) int {
	e := 0
	for _, v := range mesh.Valence(c.F, c.NumVertices()) {
		e += (v - idealValence) * (v - idealValence)
	}
	return e
}

func TestFlipPass(t *testing.T) {
	c := octagonFan(t)
	cs := spatial.SuggestCellSize(c.Mid, c.F)
	c.AttachGrids(spatial.NewHashGrid(cs), spatial.NewHashGrid(cs))
	before := valenceEnergy(c)
	nf := len(c.F)

	st := Flip(c, &Options{DistortionBound: 1e-6})
	require.NoError(t, c.Check())
	assert.GreaterOrEqual(t, st.Accepted, 1)
	assert.Len(t, c.F, nf, "flips keep the face count")
	assert.Less(t, mesh.Valence(c.F, c.NumVertices())[0], 8, "center valence must drop")
	// Every accepted flip lowers the energy of its four vertices.
	assert.LessOrEqual(t, valenceEnergy(c), before-st.Accepted)
	assert.Equal(t, st.Popped, st.Stale+st.Gated+st.Accepted+st.Rejections())
	// The first flip rewrites the face its neighbouring spoke was queued on.
	assert.Greater(t, st.Stale, 0)
}

func TestFlipPassRejectionsAtomic(t *testing.T) {
	c := shelltest.StackedCage(3, 1)
	cs := spatial.SuggestCellSize(c.Mid, c.F)
	c.AttachGrids(spatial.NewHashGrid(cs), spatial.NewHashGrid(cs))
	c.AddFeature(1, 5)
	before := shelltest.Take(c)

	st := Flip(c, &Options{DistortionBound: 1e-6})
	assert.Zero(t, st.Accepted)
	// Sheet A flips hit sheet B's columns, sheet B sits off the reference.
	assert.Greater(t, st.Rejected[validity.Intersection], 0)
	assert.Greater(t, st.Rejected[validity.Distortion], 0)
	assert.Equal(t, st.Popped, st.Stale+st.Gated+st.Rejections())
	assert.Equal(t, before, shelltest.Take(c))
	require.NoError(t, c.Check())
}

func TestFlipPassFeatureEdges(t *testing.T) {
	c := octagonFan(t)
	for i := 1; i <= 8; i++ {
		c.AddFeature(0, i)
	}
	st := Flip(c, &Options{DistortionBound: 1e-6})
	assert.Zero(t, st.Popped, "every interior edge is a feature")
	assert.Zero(t, st.Accepted)
}

// stubRef answers segment queries with the segment midpoint lifted to z
// or, with miss set, never crosses.
type stubRef struct {
	*refsurf.Surface
	z    float64
	miss bool
}

func (r stubRef) SegmentQuery(a, b r3.Vec) (r3.Vec, bool) {
	if r.miss {
		return r3.Vec{}, false
	}
	m := d3.Midpoint(a, b)
	m.Z = r.z
	return m, true
}

func TestSplitPass(t *testing.T) {
	c := shelltest.FlatCage(3, 1, 0.5)
	nv, nf := c.NumVertices(), len(c.F)
	opt := &Options{DistortionBound: 1e-6, SizingField: UniformSizing(0.5)}

	st := Split(c, opt)
	require.NoError(t, c.Check())
	require.Greater(t, st.Accepted, 0)
	// Each split consumes an original interior edge and never creates one.
	assert.LessOrEqual(t, st.Accepted, 8)
	assert.Equal(t, nv+st.Accepted, c.NumVertices())
	assert.Len(t, c.F, nf+2*st.Accepted)
	assert.Len(t, opt.TargetAdjustment, c.NumVertices())
	for v := nv; v < c.NumVertices(); v++ {
		assert.InDelta(t, 0, c.Mid[v].Z, 1e-12, "new vertex %d off the reference", v)
		assert.InDelta(t, -0.5, c.Base[v].Z, 1e-12)
		assert.InDelta(t, 0.5, c.Top[v].Z, 1e-12)
	}
	for v, u := range opt.TargetAdjustment {
		assert.True(t, u >= minAdjustment && u <= maxAdjustment, "vertex %d adjustment %g", v, u)
	}
}

func TestSplitPassGated(t *testing.T) {
	c := shelltest.FlatCage(3, 1, 0.5)
	st := Split(c, &Options{DistortionBound: 1e-6, SizingField: UniformSizing(2)})
	assert.Zero(t, st.Accepted)
	assert.Equal(t, st.Popped, st.Gated)
	assert.Equal(t, 9, c.NumVertices())
}

func TestSplitPassAtomicRejection(t *testing.T) {
	c := shelltest.FlatCage(3, 1, 0.5)
	c.Ref = stubRef{Surface: c.Ref.(*refsurf.Surface), z: 0.3}
	cs := spatial.SuggestCellSize(c.Mid, c.F)
	c.AttachGrids(spatial.NewHashGrid(cs), spatial.NewHashGrid(cs))
	before := shelltest.Take(c)

	st := Split(c, &Options{DistortionBound: 0.1, SizingField: UniformSizing(0.5)})
	assert.Zero(t, st.Accepted)
	assert.Equal(t, 8, st.Rejected[validity.Distortion])
	assert.Equal(t, before, shelltest.Take(c))
	require.NoError(t, c.Check())
}

func TestSplitPassAbandoned(t *testing.T) {
	c := shelltest.FlatCage(3, 1, 0.5)
	c.Ref = stubRef{Surface: c.Ref.(*refsurf.Surface), miss: true}
	st := Split(c, &Options{DistortionBound: 0.1, SizingField: UniformSizing(0.5)})
	assert.Zero(t, st.Accepted)
	assert.Equal(t, 8, st.ProjectionFailures)
	assert.Zero(t, st.Rejections(), "abandoned candidates are not rejections")
}

func TestSplitPassDamping(t *testing.T) {
	c := shelltest.FlatCage(3, 1, 0.5)
	// The ideal position lies above the top layer: only damped positions
	// produce valid columns.
	c.Ref = stubRef{Surface: c.Ref.(*refsurf.Surface), z: 10}
	nv := c.NumVertices()
	st := Split(c, &Options{DistortionBound: 1, SizingField: UniformSizing(0.5)})
	require.Greater(t, st.Accepted, 0)
	require.NoError(t, c.Check())
	for v := nv; v < c.NumVertices(); v++ {
		z := c.Mid[v].Z
		assert.True(t, z > 0 && z < 0.5, "vertex %d mid z=%g not damped into the shell", v, z)
	}
}

func TestFeedback(t *testing.T) {
	c := shelltest.FlatCage(3, 1, 0.5)
	c.Mid[4] = r3.Vec{X: 0.5, Y: 0.01} // face (0,1,4) becomes a sliver.
	require.Greater(t, c.MidQuality(0), float64(lowQuality))
	opt := &Options{TargetAdjustment: []float64{0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 1e-7}}
	pre := append([]float64(nil), opt.TargetAdjustment...)

	n := opt.feedback(c)
	assert.Equal(t, 3, n)
	assert.InDelta(t, 0.45, opt.TargetAdjustment[0], 1e-12, "shrunk then grown")
	assert.InDelta(t, 1, opt.TargetAdjustment[2], 1e-12, "grown and capped")
	assert.InDelta(t, minAdjustment, opt.TargetAdjustment[8], 1e-18, "clamped from below")
	for v, u := range opt.TargetAdjustment {
		assert.LessOrEqual(t, u, math.Max(growAdjustment*pre[v], minAdjustment), "vertex %d", v)
	}
}

func TestAdjustmentsClamped(t *testing.T) {
	opt := &Options{TargetAdjustment: []float64{1e-7, 5, math.NaN(), 0.5}}
	got := opt.adjustments(5)
	assert.Equal(t, []float64{minAdjustment, maxAdjustment, 1, 0.5, 1}, got)
	assert.Len(t, opt.adjustments(2), 2)
}

func TestSplitPassAdjustmentBounds(t *testing.T) {
	c := shelltest.FlatCage(3, 1, 0.5)
	nv := c.NumVertices()
	opt := &Options{DistortionBound: 1e-6, SizingField: UniformSizing(0.5), TargetAdjustment: make([]float64, nv)}
	for v := range opt.TargetAdjustment {
		opt.TargetAdjustment[v] = 1e-7
	}
	Split(c, opt)
	require.NoError(t, c.Check())
	for v, u := range opt.TargetAdjustment[:nv] {
		assert.True(t, u >= minAdjustment && u <= growAdjustment*minAdjustment, "vertex %d adjustment %g", v, u)
	}
}

func TestRun(t *testing.T) {
	c := shelltest.FlatCage(4, 1, 0.5)
	cs := spatial.SuggestCellSize(c.Mid, c.F)
	c.AttachGrids(spatial.NewHashGrid(cs), spatial.NewHashGrid(cs))
	sched, err := ParseSchedule("split,flip")
	require.NoError(t, err)
	stats := Run(c, &Options{DistortionBound: 1e-6, SizingField: UniformSizing(0.6)}, sched, 2)
	require.Len(t, stats, 4)
	assert.Equal(t, SplitPass, stats[0].Pass)
	assert.Equal(t, FlipPass, stats[1].Pass)
	assert.Equal(t, 1, stats[3].Iteration)
	require.NoError(t, c.Check())

	total := Total(stats)
	assert.Equal(t, stats[0].Accepted+stats[2].Accepted, total[SplitPass].Accepted)
	assert.Contains(t, total[SplitPass].String(), "split: accepted")
}
