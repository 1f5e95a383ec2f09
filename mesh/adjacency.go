// Package mesh implements triangle-triangle adjacency and the local
// topological edits used by shell remeshing.
//
// Faces are vertex id triples. Local edge e of face f runs from F[f][e] to
// F[f][(e+1)%3]. FF[f][e] holds the face across that edge, or Boundary,
// and FFi[f][e] the local index of the same edge within FF[f][e].
package mesh

import (
	"errors"
	"fmt"
)

// Boundary marks a missing neighbour in FF and FFi.
const Boundary = -1

// ErrNonManifold is returned when an oriented edge is used by more than one face.
var ErrNonManifold = errors.New("non manifold connectivity")

// TriangleAdjacency returns the face-face adjacency of F. Edges shared by
// more than two faces or by two faces with the same orientation are left
// as boundary edges.
func TriangleAdjacency(F [][3]int) (FF, FFi [][3]int) {
	type half struct{ f, e int }
	uses := make(map[[2]int][]half, 3*len(F))
	for f, t := range F {
		for e := 0; e < 3; e++ {
			key := [2]int{t[e], t[(e+1)%3]}
			uses[key] = append(uses[key], half{f, e})
		}
	}
	FF = make([][3]int, len(F))
	FFi = make([][3]int, len(F))
	for f, t := range F {
		for e := 0; e < 3; e++ {
			FF[f][e], FFi[f][e] = Boundary, Boundary
			a, b := t[e], t[(e+1)%3]
			if len(uses[[2]int{a, b}]) != 1 {
				continue
			}
			twins := uses[[2]int{b, a}]
			if len(twins) != 1 {
				continue
			}
			FF[f][e], FFi[f][e] = twins[0].f, twins[0].e
		}
	}
	return FF, FFi
}

// CheckManifold returns an error if an oriented edge appears in more than
// one face, which means the connectivity is either non manifold or
// inconsistently oriented.
func CheckManifold(F [][3]int) error {
	seen := make(map[[2]int]int, 3*len(F))
	for f, t := range F {
		for e := 0; e < 3; e++ {
			key := [2]int{t[e], t[(e+1)%3]}
			if g, ok := seen[key]; ok {
				return fmt.Errorf("%w: edge %v in faces %d and %d", ErrNonManifold, key, g, f)
			}
			seen[key] = f
		}
	}
	return nil
}

// CanonicalShift returns the left rotation that brings the smallest vertex
// id of face to the front.
func CanonicalShift(face [3]int) int {
	s := 0
	for i := 1; i < 3; i++ {
		if face[i] < face[s] {
			s = i
		}
	}
	return s
}

// Rotate returns face rotated left by s positions.
func Rotate(face [3]int, s int) [3]int {
	return [3]int{face[s%3], face[(s+1)%3], face[(s+2)%3]}
}

// Valence returns the number of distinct undirected edges incident on each
// of the nv vertices.
func Valence(F [][3]int, nv int) []int {
	val := make([]int, nv)
	seen := make(map[[2]int]struct{}, 3*len(F)/2+1)
	for _, t := range F {
		for e := 0; e < 3; e++ {
			a, b := t[e], t[(e+1)%3]
			if a > b {
				a, b = b, a
			}
			if _, ok := seen[[2]int{a, b}]; ok {
				continue
			}
			seen[[2]int{a, b}] = struct{}{}
			val[a]++
			val[b]++
		}
	}
	return val
}
