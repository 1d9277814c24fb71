package world

import (
	"math"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
)

// Grid is a cell-based proximity index over the X/Z plane. Cell size equals
// the query range, so a 3x3 neighbourhood of cells covers it.
// Accessed only from the tick goroutine; no locks.
type Grid struct {
	cellSize float64
	cells    map[cellKey][]ecs.EntityID
}

type cellKey struct {
	cx, cz int64
}

func NewGrid(cellSize float64) *Grid {
	if !(cellSize > 0) {
		cellSize = 1
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]ecs.EntityID),
	}
}

func (g *Grid) key(x, z float64) cellKey {
	return cellKey{
		cx: int64(math.Floor(x / g.cellSize)),
		cz: int64(math.Floor(z / g.cellSize)),
	}
}

// Reset empties the grid, keeping cell storage for reuse.
func (g *Grid) Reset() {
	for k, ids := range g.cells {
		g.cells[k] = ids[:0]
	}
}

// Add places a vehicle at (x, z).
func (g *Grid) Add(id ecs.EntityID, x, z float64) {
	k := g.key(x, z)
	g.cells[k] = append(g.cells[k], id)
}

// Nearby returns every vehicle in the 3x3 neighbourhood of cells around
// (x, z). Caller does fine-grained distance filtering.
func (g *Grid) Nearby(x, z float64) []ecs.EntityID {
	c := g.key(x, z)
	var result []ecs.EntityID
	for dx := int64(-1); dx <= 1; dx++ {
		for dz := int64(-1); dz <= 1; dz++ {
			result = append(result, g.cells[cellKey{c.cx + dx, c.cz + dz}]...)
		}
	}
	return result
}

// Within reports whether two vehicles are at most r apart on the X/Z plane.
func Within(a, b *Vehicle, r float64) bool {
	dx, dz := a.X-b.X, a.Z-b.Z
	return dx*dx+dz*dz <= r*r
}
