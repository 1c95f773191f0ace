package engine

import "fmt"

// cell is the sum type backing a Grid slot: either empty or a trap
// carrying the tile that killed whoever stepped on it.
type cell struct {
	isTrap bool
	tile   Tile
}

// Grid is a fixed-size W×H map loaded once at world boot. It never
// mutates after construction, so it is safe to share across every
// LocalSession and ActionQueue goroutine in a world without locking.
type Grid struct {
	width, height int
	cells         [][]cell // row-major: cells[y][x]
}

// NewGrid allocates an empty width×height grid with no traps.
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("engine: grid dimensions must be positive, got %dx%d", width, height)
	}
	cells := make([][]cell, height)
	for y := range cells {
		cells[y] = make([]cell, width)
	}
	return &Grid{width: width, height: height, cells: cells}, nil
}

// Width returns the number of columns in the grid.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows in the grid.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether (x, y) is a valid cell coordinate.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// TrapAt reports whether (x, y) is a trap cell and, if so, the tile that
// marks it. Callers must check InBounds first; reading out of bounds is
// undefined per the data model.
func (g *Grid) TrapAt(x, y int) (Tile, bool) {
	c := g.cells[y][x]
	return c.tile, c.isTrap
}

// setTrap marks (x, y) as a trap cell. It is unexported: only the map
// loader may populate a Grid's cells, during construction, before the
// Grid is handed to any LocalSession.
func (g *Grid) setTrap(x, y int, t Tile) {
	g.cells[y][x] = cell{isTrap: true, tile: t}
}

// Glyphs returns the set of distinct tile glyphs present on the grid, used
// to evaluate the White-background VSID collision rule.
func (g *Grid) Glyphs() map[string]bool {
	glyphs := make(map[string]bool)
	for y := range g.cells {
		for x := range g.cells[y] {
			if c := g.cells[y][x]; c.isTrap {
				glyphs[c.tile.String()] = true
			}
		}
	}
	return glyphs
}
