package core

import (
	"sort"
	"strings"
)

// Path is a sequence of cells; the index is the timestep.
type Path []Cell

// Cost returns the number of cells on the path (timesteps + 1).
func (p Path) Cost() int {
	return len(p)
}

// At returns the cell occupied at timestep t. Agents leave the grid once
// they reach the end of their path, so ok is false past the last index.
func (p Path) At(t int) (Cell, bool) {
	if t < 0 || t >= len(p) {
		return Cell{}, false
	}
	return p[t], true
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Solution maps agents to their paths.
type Solution map[AgentID]Path

// SIC returns the sum of individual path costs.
func (s Solution) SIC() int {
	total := 0
	for _, p := range s {
		total += p.Cost()
	}
	return total
}

// AgentIDs returns the agents in the solution in sorted order.
func (s Solution) AgentIDs() []AgentID {
	ids := make([]AgentID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns a shallow copy. Paths are immutable once planned, so they
// are shared.
func (s Solution) Clone() Solution {
	out := make(Solution, len(s))
	for id, p := range s {
		out[id] = p
	}
	return out
}
