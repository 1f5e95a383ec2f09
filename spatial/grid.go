// Package spatial implements a uniform hash grid over bounding boxes, used as the broad phase of column intersection checks.
package spatial

import (
	"math"
	"sort"

	"github.com/soypat/prism/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

type cell [3]int

// HashGrid buckets elements into the cubic cells their bounding box
// touches. Cells are hashed so the grid is unbounded and sparse.
type HashGrid struct {
	cellSize float64
	cells    map[cell][]int
	// elems maps each indexed element to the cells holding it.
	elems map[int][]cell
}

// NewHashGrid returns an empty grid. cellSize should be close to the
// average edge length of the indexed shell. It panics on non positive size.
func NewHashGrid(cellSize float64) *HashGrid {
	if !(cellSize > 0) || math.IsInf(cellSize, 1) {
		panic("spatial: grid cell size must be positive and finite")
	}
	return &HashGrid{
		cellSize: cellSize,
		cells:    make(map[cell][]int),
		elems:    make(map[int][]cell),
	}
}

// CellSize returns the side length of grid cells.
func (g *HashGrid) CellSize() float64 { return g.cellSize }

// Len returns the number of indexed elements.
func (g *HashGrid) Len() int { return len(g.elems) }

// Contains reports whether element id is indexed.
func (g *HashGrid) Contains(id int) bool {
	_, ok := g.elems[id]
	return ok
}

// InsertBox indexes element id with bounding box box. An element already
// present is reindexed.
func (g *HashGrid) InsertBox(id int, box r3.Box) {
	if _, ok := g.elems[id]; ok {
		g.RemoveElement(id)
	}
	lo, hi := g.cellOf(box.Min), g.cellOf(box.Max)
	var held []cell
	for i := lo[0]; i <= hi[0]; i++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for k := lo[2]; k <= hi[2]; k++ {
				c := cell{i, j, k}
				g.cells[c] = append(g.cells[c], id)
				held = append(held, c)
			}
		}
	}
	g.elems[id] = held
}

// RemoveElement removes element id from the grid. Removing an absent
// element is a no-op.
func (g *HashGrid) RemoveElement(id int) {
	for _, c := range g.elems[id] {
		list := g.cells[c]
		for i, e := range list {
			if e == id {
				list[i] = list[len(list)-1]
				list = list[:len(list)-1]
				break
			}
		}
		if len(list) == 0 {
			delete(g.cells, c)
		} else {
			g.cells[c] = list
		}
	}
	delete(g.elems, id)
}

// Query returns the sorted ids of elements sharing a cell with box.
func (g *HashGrid) Query(box r3.Box) []int {
	lo, hi := g.cellOf(box.Min), g.cellOf(box.Max)
	seen := make(map[int]struct{})
	var result []int
	for i := lo[0]; i <= hi[0]; i++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for k := lo[2]; k <= hi[2]; k++ {
				for _, id := range g.cells[cell{i, j, k}] {
					if _, ok := seen[id]; !ok {
						seen[id] = struct{}{}
						result = append(result, id)
					}
				}
			}
		}
	}
	sort.Ints(result)
	return result
}

func (g *HashGrid) cellOf(p r3.Vec) cell {
	return cell{
		int(math.Floor(p.X / g.cellSize)),
		int(math.Floor(p.Y / g.cellSize)),
		int(math.Floor(p.Z / g.cellSize)),
	}
}

// SuggestCellSize returns the average edge length of the triangles in F,
// a reasonable cell size for a grid over them. It returns 1 for empty input.
func SuggestCellSize(V []r3.Vec, F [][3]int) float64 {
	if len(F) == 0 {
		return 1
	}
	var sum float64
	for _, t := range F {
		for e := 0; e < 3; e++ {
			sum += d3.Dist(V[t[e]], V[t[(e+1)%3]])
		}
	}
	avg := sum / float64(3*len(F))
	if avg == 0 {
		return 1
	}
	return avg
}
