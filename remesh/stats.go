package remesh

import (
	"fmt"
	"strings"

	"github.com/soypat/prism/validity"
	"go.uber.org/zap"
)

// Stats counts what happened during one pass.
type Stats struct {
	Pass      Pass
	Iteration int
	// Popped counts queue entries processed, Stale those discarded because
	// an earlier edit invalidated them and Gated those skipped by the
	// valence or sizing gate.
	Popped, Stale, Gated int
	Accepted             int
	// Rejected counts validator rejections by reason. Index validity.OK is unused.
	Rejected [validity.NumReasons]int
	// TopologyFailures counts validated edits the connectivity refused.
	TopologyFailures int
	// ProjectionFailures counts split candidates abandoned because the
	// base-top segment missed the reference surface.
	ProjectionFailures int
	// LowQualityVertices counts vertices whose target adjustment was shrunk
	// after a split pass.
	LowQualityVertices int
}

// Rejections returns the total of validator rejections and topology failures.
func (s Stats) Rejections() int {
	n := s.TopologyFailures
	for _, r := range s.Rejected {
		n += r
	}
	return n
}

// Add accumulates the counters of other into s.
func (s *Stats) Add(other Stats) {
	s.Popped += other.Popped
	s.Stale += other.Stale
	s.Gated += other.Gated
	s.Accepted += other.Accepted
	for i := range s.Rejected {
		s.Rejected[i] += other.Rejected[i]
	}
	s.TopologyFailures += other.TopologyFailures
	s.ProjectionFailures += other.ProjectionFailures
	s.LowQualityVertices += other.LowQualityVertices
}

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: accepted %d", s.Pass, s.Accepted)
	for r := validity.Reason(1); int(r) < validity.NumReasons; r++ {
		if n := s.Rejected[r]; n > 0 {
			fmt.Fprintf(&b, ", %s %d", r, n)
		}
	}
	if s.TopologyFailures > 0 {
		fmt.Fprintf(&b, ", topology %d", s.TopologyFailures)
	}
	if s.ProjectionFailures > 0 {
		fmt.Fprintf(&b, ", abandoned %d", s.ProjectionFailures)
	}
	return b.String()
}

func (s Stats) fields() []zap.Field {
	fields := []zap.Field{
		zap.Stringer("pass", s.Pass),
		zap.Int("iteration", s.Iteration),
		zap.Int("popped", s.Popped),
		zap.Int("stale", s.Stale),
		zap.Int("gated", s.Gated),
		zap.Int("accepted", s.Accepted),
		zap.Int("topology_failures", s.TopologyFailures),
	}
	for r := validity.Reason(1); int(r) < validity.NumReasons; r++ {
		fields = append(fields, zap.Int("rejected_"+strings.ReplaceAll(r.String(), " ", "_"), s.Rejected[r]))
	}
	if s.Pass == SplitPass {
		fields = append(fields,
			zap.Int("abandoned", s.ProjectionFailures),
			zap.Int("low_quality_vertices", s.LowQualityVertices),
		)
	}
	return fields
}
