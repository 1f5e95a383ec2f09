// Package predicates implements robust geometric predicates for shell
// validation. Every decision is made on the exact sign of a determinant:
// a floating point evaluation is trusted only when its magnitude clears a
// static error bound, otherwise the determinant is recomputed with exact
// big.Float arithmetic.
package predicates

import (
	geor3 "github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// epsilon is half an ulp of 1, 2^-53.
	epsilon = 0x1p-53
	// Error bound coefficients for the fast floating point stage
	// as derived by J.R. Shewchuk in "Adaptive Precision Floating-Point
	// Arithmetic and Fast Robust Geometric Predicates".
	ccwErrBoundA = (3.0 + 16.0*epsilon) * epsilon
	o3dErrBoundA = (7.0 + 56.0*epsilon) * epsilon
)

// Orient3D returns the sign of the signed volume of tetrahedron abcd:
//  sign( ((b-a) x (c-a)) . (d-a) )
// It is +1 when d lies on the side of the plane abc its right handed normal
// points to, -1 on the opposite side and 0 when the four points are coplanar.
func Orient3D(a, b, c, d r3.Vec) int {
	adx, ady, adz := a.X-d.X, a.Y-d.Y, a.Z-d.Z
	bdx, bdy, bdz := b.X-d.X, b.Y-d.Y, b.Z-d.Z
	cdx, cdy, cdz := c.X-d.X, c.Y-d.Y, c.Z-d.Z

	bdxcdy := bdx * cdy
	cdxbdy := cdx * bdy
	cdxady := cdx * ady
	adxcdy := adx * cdy
	adxbdy := adx * bdy
	bdxady := bdx * ady

	// det is the determinant of [a-d; b-d; c-d] which has opposite sign
	// to our convention.
	det := adz*(bdxcdy-cdxbdy) + bdz*(cdxady-adxcdy) + cdz*(adxbdy-bdxady)
	permanent := (abs(bdxcdy)+abs(cdxbdy))*abs(adz) +
		(abs(cdxady)+abs(adxcdy))*abs(bdz) +
		(abs(adxbdy)+abs(bdxady))*abs(cdz)
	errBound := o3dErrBoundA * permanent
	if det > errBound {
		return -1
	} else if -det > errBound {
		return 1
	}
	return orient3DExact(a, b, c, d)
}

func orient3DExact(a, b, c, d r3.Vec) int {
	pa := precise(a)
	u := precise(b).Sub(pa)
	v := precise(c).Sub(pa)
	w := precise(d).Sub(pa)
	return u.Cross(v).Dot(w).Sign()
}

// Orient2D returns +1 if the points a, b, c taken as (X,Y) pairs are in
// counterclockwise order, -1 if they are clockwise and 0 if collinear.
// The Z components are ignored.
func Orient2D(a, b, c r3.Vec) int {
	detLeft := (a.X - c.X) * (b.Y - c.Y)
	detRight := (a.Y - c.Y) * (b.X - c.X)
	det := detLeft - detRight
	var detSum float64
	switch {
	case detLeft > 0:
		if detRight <= 0 {
			return sign(det)
		}
		detSum = detLeft + detRight
	case detLeft < 0:
		if detRight >= 0 {
			return sign(det)
		}
		detSum = -detLeft - detRight
	default:
		return sign(det)
	}
	errBound := ccwErrBoundA * detSum
	if det >= errBound || -det >= errBound {
		return sign(det)
	}
	return orient2DExact(a, b, c)
}

func orient2DExact(a, b, c r3.Vec) int {
	pa := geor3.NewPreciseVector(a.X, a.Y, 0)
	u := geor3.NewPreciseVector(b.X, b.Y, 0).Sub(pa)
	v := geor3.NewPreciseVector(c.X, c.Y, 0).Sub(pa)
	return u.Cross(v).Z.Sign()
}

func precise(v r3.Vec) geor3.PreciseVector {
	return geor3.NewPreciseVector(v.X, v.Y, v.Z)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func sign(f float64) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	}
	return 0
}
