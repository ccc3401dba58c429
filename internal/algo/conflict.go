package algo

import (
	"fmt"
	"sort"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// Conflict is two agents occupying the same cell at the same timestep.
// Agent1 < Agent2 always holds, so one collision yields one Conflict.
type Conflict struct {
	Agent1, Agent2 core.AgentID
	Cell           core.Cell
	Time           int
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s/%s @ %v t=%d", c.Agent1, c.Agent2, c.Cell, c.Time)
}

// Agents returns the two agents involved.
func (c Conflict) Agents() [2]core.AgentID {
	return [2]core.AgentID{c.Agent1, c.Agent2}
}

// FindAllConflicts returns every vertex conflict in sol, ordered by time
// and then by agent pair.
//
// Only timesteps where both paths are defined are compared: an agent that
// reached its goal leaves the grid. Edge (swap) conflicts are not detected.
func FindAllConflicts(sol core.Solution) []Conflict {
	agents := sol.AgentIDs()

	var conflicts []Conflict
	for i := 0; i < len(agents); i++ {
		for j := i + 1; j < len(agents); j++ {
			path1, path2 := sol[agents[i]], sol[agents[j]]
			for t := 0; ; t++ {
				c1, ok1 := path1.At(t)
				c2, ok2 := path2.At(t)
				if !ok1 || !ok2 {
					break
				}
				if c1 == c2 {
					conflicts = append(conflicts, Conflict{
						Agent1: agents[i],
						Agent2: agents[j],
						Cell:   c1,
						Time:   t,
					})
				}
			}
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Time < conflicts[j].Time
	})
	return conflicts
}

// FindFirstConflict returns the earliest conflict in sol, or nil.
func FindFirstConflict(sol core.Solution) *Conflict {
	conflicts := FindAllConflicts(sol)
	if len(conflicts) == 0 {
		return nil
	}
	return &conflicts[0]
}

// Validate reports whether sol is free of vertex conflicts.
func Validate(sol core.Solution) bool {
	agents := sol.AgentIDs()
	for i := 0; i < len(agents); i++ {
		for j := i + 1; j < len(agents); j++ {
			path1, path2 := sol[agents[i]], sol[agents[j]]
			for t := 0; ; t++ {
				c1, ok1 := path1.At(t)
				c2, ok2 := path2.At(t)
				if !ok1 || !ok2 {
					break
				}
				if c1 == c2 {
					return false
				}
			}
		}
	}
	return true
}
