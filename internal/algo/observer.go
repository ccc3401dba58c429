package algo

import "github.com/elektrokombinacija/mapf-cbs/internal/core"

// NodeInfo describes a constraint tree node to observers.
type NodeInfo struct {
	ID          int
	ParentID    int // -1 for root
	Constraints []Constraint
	Cost        int
	Conflicts   int
	Solution    core.Solution
}

// Observer is the interface for observing search execution. Calls happen
// on the solving goroutine.
type Observer interface {
	// OnNodeExpanded is called when a constraint tree node is popped.
	OnNodeExpanded(node NodeInfo)

	// OnConflictDetected is called with the conflict a node branches on.
	OnConflictDetected(conflict Conflict)

	// OnConstraintAdded is called for every child node pushed to the open set.
	OnConstraintAdded(child NodeInfo, constraint Constraint)

	// OnLowLevelSearch is called after every single-agent search.
	OnLowLevelSearch(agent core.AgentID, found bool)

	// OnSolutionFound is called once with the conflict-free solution.
	OnSolutionFound(solution core.Solution)
}

// Observers fans events out to several observers.
type Observers []Observer

func (obs Observers) OnNodeExpanded(node NodeInfo) {
	for _, o := range obs {
		o.OnNodeExpanded(node)
	}
}

func (obs Observers) OnConflictDetected(conflict Conflict) {
	for _, o := range obs {
		o.OnConflictDetected(conflict)
	}
}

func (obs Observers) OnConstraintAdded(child NodeInfo, constraint Constraint) {
	for _, o := range obs {
		o.OnConstraintAdded(child, constraint)
	}
}

func (obs Observers) OnLowLevelSearch(agent core.AgentID, found bool) {
	for _, o := range obs {
		o.OnLowLevelSearch(agent, found)
	}
}

func (obs Observers) OnSolutionFound(solution core.Solution) {
	for _, o := range obs {
		o.OnSolutionFound(solution)
	}
}

// nopObserver is used when no observer is configured.
type nopObserver struct{}

func (nopObserver) OnNodeExpanded(NodeInfo)                {}
func (nopObserver) OnConflictDetected(Conflict)            {}
func (nopObserver) OnConstraintAdded(NodeInfo, Constraint) {}
func (nopObserver) OnLowLevelSearch(core.AgentID, bool)    {}
func (nopObserver) OnSolutionFound(core.Solution)          {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
