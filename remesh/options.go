// Package remesh implements the local remeshing passes of a shell: a
// valence improving edge flip pass and a sizing driven edge split pass.
// Every edit is validated before it is committed so the shell stays valid
// after each accepted operation.
package remesh

import (
	"fmt"
	"math"
	"strings"

	"github.com/soypat/prism/validity"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// An edge is split once sizingSlack times its length reaches the summed
	// target lengths of its endpoints.
	sizingSlack = 1.5
	// Damping of the split position toward the edge midpoint after a
	// degenerate attempt and the weight below which the split is abandoned.
	dampingFactor = 0.8
	minDamping    = 1e-2
	// Faces above this mid triangle quality shrink their vertices' target
	// adjustment by lowQualityShrink after a split pass.
	lowQuality       = 20
	lowQualityShrink = 3
	growAdjustment   = 1.5
	minAdjustment    = 1e-5
	maxAdjustment    = 1
)

// Options configure the passes. A pass may modify TargetAdjustment.
type Options struct {
	// DistortionBound is the largest allowed distance between the mid surface
	// and the reference surface.
	DistortionBound float64
	// SizingField returns the target edge length around a mid layer point.
	SizingField func(r3.Vec) float64
	// TargetAdjustment scales the sizing field per vertex. It is extended
	// as vertices are inserted. Nil means 1 for every vertex.
	TargetAdjustment []float64
	// SplitImproveQuality rejects splits that make the worst local mid
	// triangle worse.
	SplitImproveQuality bool
}

// UniformSizing returns a sizing field with constant target length l.
func UniformSizing(l float64) func(r3.Vec) float64 {
	return func(r3.Vec) float64 { return l }
}

func (o *Options) validityOptions(split bool) validity.Options {
	return validity.Options{
		DistortionBound: o.DistortionBound,
		ImproveQuality:  split && o.SplitImproveQuality,
	}
}

// adjustments returns TargetAdjustment sized to nv entries, filling missing
// entries with 1 and clamping the rest into [minAdjustment, maxAdjustment].
func (o *Options) adjustments(nv int) []float64 {
	if len(o.TargetAdjustment) > nv {
		o.TargetAdjustment = o.TargetAdjustment[:nv]
	}
	for i, u := range o.TargetAdjustment {
		o.TargetAdjustment[i] = clampAdjustment(u)
	}
	for len(o.TargetAdjustment) < nv {
		o.TargetAdjustment = append(o.TargetAdjustment, 1)
	}
	return o.TargetAdjustment
}

// clampAdjustment limits u to [minAdjustment, maxAdjustment]. NaN becomes 1.
func clampAdjustment(u float64) float64 {
	if math.IsNaN(u) {
		return 1
	}
	return math.Max(math.Min(u, maxAdjustment), minAdjustment)
}

// Pass names a remeshing pass.
type Pass int

const (
	SplitPass Pass = iota
	FlipPass
)

func (p Pass) String() string {
	switch p {
	case SplitPass:
		return "split"
	case FlipPass:
		return "flip"
	}
	return fmt.Sprintf("Pass(%d)", int(p))
}

// ParseSchedule parses a comma separated list of pass names.
func ParseSchedule(s string) ([]Pass, error) {
	var sched []Pass
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(name) {
		case "split":
			sched = append(sched, SplitPass)
		case "flip":
			sched = append(sched, FlipPass)
		case "":
		default:
			return nil, fmt.Errorf("unknown pass %q", strings.TrimSpace(name))
		}
	}
	if len(sched) == 0 {
		return nil, fmt.Errorf("empty schedule %q", s)
	}
	return sched, nil
}
