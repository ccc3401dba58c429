package core

import "fmt"

// neighborOffsets lists moves in expansion order: up, down, left, right.
var neighborOffsets = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Grid is an immutable 4-connected occupancy map.
type Grid struct {
	rows, cols int
	blocked    []bool // row-major
}

// NewGrid builds a rows x cols grid with the given cells blocked.
// Returns ErrEmptyGrid for non-positive dimensions and ErrCellOutOfBounds
// if a blocked cell lies outside the grid.
func NewGrid(rows, cols int, blocked []Cell) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrEmptyGrid, rows, cols)
	}
	g := &Grid{
		rows:    rows,
		cols:    cols,
		blocked: make([]bool, rows*cols),
	}
	for _, c := range blocked {
		if !g.InBounds(c) {
			return nil, fmt.Errorf("%w: blocked cell %v on %dx%d grid", ErrCellOutOfBounds, c, rows, cols)
		}
		g.blocked[g.index(c)] = true
	}
	return g, nil
}

// DefaultGrid returns the 10x10 reference map with (2,4) and (3,4) blocked.
func DefaultGrid() *Grid {
	g, err := NewGrid(10, 10, []Cell{{Row: 2, Col: 4}, {Row: 3, Col: 4}})
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Grid) index(c Cell) int {
	return c.Row*g.cols + c.Col
}

// Rows returns the grid height.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the grid width.
func (g *Grid) Cols() int { return g.cols }

// Size returns the number of cells.
func (g *Grid) Size() int { return g.rows * g.cols }

// InBounds reports whether c lies inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// IsFree reports whether c is in bounds and not blocked.
func (g *Grid) IsFree(c Cell) bool {
	return g.InBounds(c) && !g.blocked[g.index(c)]
}

// Neighbors returns the free cells adjacent to c.
func (g *Grid) Neighbors(c Cell) []Cell {
	out := make([]Cell, 0, len(neighborOffsets))
	for _, d := range neighborOffsets {
		n := c.Add(d[0], d[1])
		if g.IsFree(n) {
			out = append(out, n)
		}
	}
	return out
}

// Blocked returns the blocked cells in row-major order.
func (g *Grid) Blocked() []Cell {
	var out []Cell
	for i, b := range g.blocked {
		if b {
			out = append(out, Cell{Row: i / g.cols, Col: i % g.cols})
		}
	}
	return out
}

// FreeCells returns every traversable cell in row-major order.
func (g *Grid) FreeCells() []Cell {
	out := make([]Cell, 0, len(g.blocked))
	for i, b := range g.blocked {
		if !b {
			out = append(out, Cell{Row: i / g.cols, Col: i % g.cols})
		}
	}
	return out
}
