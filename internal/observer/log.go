package observer

import (
	"context"
	"log/slog"

	"github.com/elektrokombinacija/mapf-cbs/internal/algo"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// LogObserver writes one debug record per search event.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an observer logging to logger. A nil logger
// uses slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger.With("component", "cbs")}
}

func (o *LogObserver) debug(msg string, args ...any) {
	o.logger.Log(context.Background(), slog.LevelDebug, msg, args...)
}

// OnNodeExpanded implements algo.Observer.
func (o *LogObserver) OnNodeExpanded(node algo.NodeInfo) {
	o.debug("node expanded",
		"node", node.ID,
		"parent", node.ParentID,
		"cost", node.Cost,
		"conflicts", node.Conflicts,
		"constraints", len(node.Constraints))
}

// OnConflictDetected implements algo.Observer.
func (o *LogObserver) OnConflictDetected(conflict algo.Conflict) {
	o.debug("conflict",
		"agent1", conflict.Agent1,
		"agent2", conflict.Agent2,
		"cell", conflict.Cell.String(),
		"t", conflict.Time)
}

// OnConstraintAdded implements algo.Observer.
func (o *LogObserver) OnConstraintAdded(child algo.NodeInfo, constraint algo.Constraint) {
	o.debug("child generated",
		"node", child.ID,
		"parent", child.ParentID,
		"constraint", constraint.String(),
		"cost", child.Cost)
}

// OnLowLevelSearch implements algo.Observer.
func (o *LogObserver) OnLowLevelSearch(agent core.AgentID, found bool) {
	o.debug("low-level search", "agent", agent, "found", found)
}

// OnSolutionFound implements algo.Observer.
func (o *LogObserver) OnSolutionFound(solution core.Solution) {
	o.debug("solution", "agents", len(solution), "cost", solution.SIC())
}
