package prism

import (
	"math"

	"github.com/soypat/prism/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// TriangleQuality returns the shape quality of triangle abc:
//  (l0² + l1² + l2²) / (4√3·A)
// where l are the side lengths and A the area. An equilateral triangle
// scores 1, larger is worse and a degenerate triangle scores +Inf.
func TriangleQuality(a, b, c r3.Vec) float64 {
	sum := r3.Norm2(r3.Sub(b, a)) + r3.Norm2(r3.Sub(c, b)) + r3.Norm2(r3.Sub(a, c))
	area := d3.Triangle{a, b, c}.Area()
	if area == 0 {
		return math.Inf(1)
	}
	return sum / (4 * math.Sqrt(3) * area)
}

// MidQuality returns the quality of face f's mid layer triangle.
func (c *Cage) MidQuality(f int) float64 {
	t := c.F[f]
	return TriangleQuality(c.Mid[t[0]], c.Mid[t[1]], c.Mid[t[2]])
}

// MidQualities returns the mid layer quality of every face.
func (c *Cage) MidQualities() []float64 {
	q := make([]float64, len(c.F))
	for i := range c.F {
		q[i] = c.MidQuality(i)
	}
	return q
}
