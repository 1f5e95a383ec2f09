package remesh

import (
	"fmt"

	"github.com/soypat/prism"
)

// Run applies the passes in schedule, in order, iterations times and
// returns the statistics of every pass run.
func Run(c *prism.Cage, opt *Options, schedule []Pass, iterations int) []Stats {
	var all []Stats
	for it := 0; it < iterations; it++ {
		for _, p := range schedule {
			var st Stats
			switch p {
			case SplitPass:
				st = Split(c, opt)
			case FlipPass:
				st = Flip(c, opt)
			default:
				panic(fmt.Sprintf("remesh: unknown pass %d", int(p)))
			}
			st.Iteration = it
			all = append(all, st)
		}
	}
	return all
}

// Total sums the counters of stats per pass kind.
func Total(stats []Stats) map[Pass]Stats {
	total := make(map[Pass]Stats)
	for _, st := range stats {
		acc := total[st.Pass]
		acc.Pass = st.Pass
		acc.Add(st)
		total[st.Pass] = acc
	}
	return total
}
