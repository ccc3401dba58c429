// Package core defines domain models for grid MAPF.
package core

import "fmt"

// Cell is a grid coordinate.
type Cell struct {
	Row, Col int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Add returns c shifted by (dr, dc).
func (c Cell) Add(dr, dc int) Cell {
	return Cell{Row: c.Row + dr, Col: c.Col + dc}
}

// Manhattan returns the 4-connected grid distance between a and b.
func Manhattan(a, b Cell) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// AgentID is a unique agent identifier.
type AgentID string

// Agent is an entity that needs a path from Start to Goal.
type Agent struct {
	ID    AgentID
	Start Cell
	Goal  Cell
}

// Distance returns the unobstructed distance from start to goal.
func (a Agent) Distance() int {
	return Manhattan(a.Start, a.Goal)
}
