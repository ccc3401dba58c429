package algo

import (
	"container/heap"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// SearchOptions tunes the single-agent search.
type SearchOptions struct {
	// AllowWait adds a wait-in-place move to the four grid moves.
	AllowWait bool
}

// spaceTimeState is a (cell, timestep) pair. Without constraints the
// timestep is always zero so the closed set degrades to plain cells.
type spaceTimeState struct {
	cell core.Cell
	t    int
}

// searchNode lives in the search arena; parent is an arena index, -1 for
// the root.
type searchNode struct {
	cell   core.Cell
	g      int
	h      int
	parent int
}

// frontierItem is a heap entry referring to an arena node.
type frontierItem struct {
	node  int
	f     int
	h     int
	seq   int
	index int
}

// astarHeap orders by f, then h (deeper nodes first), then insertion order.
type astarHeap []*frontierItem

func (h astarHeap) Len() int { return len(h) }
func (h astarHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].h != h[j].h {
		return h[i].h < h[j].h
	}
	return h[i].seq < h[j].seq
}
func (h astarHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *astarHeap) Push(x any) {
	n := x.(*frontierItem)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *astarHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// SpaceTimeAStar finds a shortest path for agent that avoids every
// constraint addressed to it. Constraints for other agents are ignored.
// ok is false when no such path exists.
func SpaceTimeAStar(
	grid *core.Grid,
	agent core.Agent,
	constraints []Constraint,
	opts SearchOptions,
) (core.Path, bool) {
	if !grid.IsFree(agent.Start) || !grid.IsFree(agent.Goal) {
		return nil, false
	}

	forbidden := make(map[spaceTimeState]bool)
	maxT := 0
	for _, c := range constraints {
		if c.Agent != agent.ID {
			continue
		}
		forbidden[spaceTimeState{cell: c.Cell, t: c.Time}] = true
		if c.Time > maxT {
			maxT = c.Time
		}
	}
	constrained := len(forbidden) > 0
	if forbidden[spaceTimeState{cell: agent.Start, t: 0}] {
		return nil, false
	}

	// Any feasible path has a witness no longer than this: after the last
	// constraint the remaining leg is an unconstrained shortest path.
	horizon := maxT + grid.Size()

	key := func(c core.Cell, t int) spaceTimeState {
		if !constrained {
			return spaceTimeState{cell: c}
		}
		return spaceTimeState{cell: c, t: t}
	}

	arena := []searchNode{{
		cell:   agent.Start,
		h:      core.Manhattan(agent.Start, agent.Goal),
		parent: -1,
	}}
	open := &astarHeap{}
	heap.Init(open)
	heap.Push(open, &frontierItem{node: 0, f: arena[0].h, h: arena[0].h})
	seq := 1

	closed := make(map[spaceTimeState]bool)

	for open.Len() > 0 {
		item := heap.Pop(open).(*frontierItem)
		current := arena[item.node]

		if current.cell == agent.Goal {
			return reconstructPath(arena, item.node), true
		}

		k := key(current.cell, current.g)
		if closed[k] {
			continue
		}
		closed[k] = true

		if constrained && current.g >= horizon {
			continue
		}

		moves := grid.Neighbors(current.cell)
		if opts.AllowWait {
			moves = append(moves, current.cell)
		}

		nextT := current.g + 1
		for _, next := range moves {
			if forbidden[spaceTimeState{cell: next, t: nextT}] {
				continue
			}
			if closed[key(next, nextT)] {
				continue
			}

			h := core.Manhattan(next, agent.Goal)
			arena = append(arena, searchNode{
				cell:   next,
				g:      nextT,
				h:      h,
				parent: item.node,
			})
			heap.Push(open, &frontierItem{
				node: len(arena) - 1,
				f:    nextT + h,
				h:    h,
				seq:  seq,
			})
			seq++
		}
	}

	return nil, false
}

func reconstructPath(arena []searchNode, idx int) core.Path {
	var path core.Path
	for i := idx; i >= 0; i = arena[i].parent {
		path = append(path, arena[i].cell)
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}
