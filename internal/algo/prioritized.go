package algo

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// Prioritized implements prioritized planning: agents are planned one by
// one and every planned path becomes a set of constraints for the rest.
// It is fast but neither complete nor optimal.
type Prioritized struct {
	AllowWait bool
	Observer  Observer
	Logger    *slog.Logger
}

// NewPrioritized creates a prioritized planning solver.
func NewPrioritized() *Prioritized {
	return &Prioritized{}
}

func (p *Prioritized) Name() string { return "Prioritized" }

// Solve implements prioritized planning.
func (p *Prioritized) Solve(ctx context.Context, inst *core.Instance) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:    uuid.NewString(),
		Solver:   p.Name(),
		Solution: core.Solution{},
	}
	log := discardIfNil(p.Logger).With("run_id", res.RunID, "solver", p.Name())
	obs := observerOrNop(p.Observer)

	fail := func(err error) (*Result, error) {
		res.Stats.Duration = time.Since(start)
		res.Solution = core.Solution{}
		log.Warn("search failed", "error", err)
		return res, err
	}

	if err := inst.Validate(); err != nil {
		return fail(err)
	}

	solution := make(core.Solution, len(inst.Agents))
	var constraints []Constraint

	for _, agent := range p.computePriority(inst) {
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("%w: %w", ErrLimitExceeded, err))
		}

		// Unreachable even when alone: report and leave out
		_, reachable := SpaceTimeAStar(inst.Grid, agent, nil, SearchOptions{})
		res.Stats.LowLevelSearches++
		if !reachable {
			obs.OnLowLevelSearch(agent.ID, false)
			log.Warn("no path found for agent", "agent", agent.ID, "start", agent.Start, "goal", agent.Goal)
			res.Unreachable = append(res.Unreachable, agent.ID)
			continue
		}

		path, ok := SpaceTimeAStar(inst.Grid, agent, constraints, SearchOptions{AllowWait: p.AllowWait})
		res.Stats.LowLevelSearches++
		obs.OnLowLevelSearch(agent.ID, ok)
		if !ok {
			return fail(fmt.Errorf("%w: agent %q blocked by higher-priority paths", ErrSearchExhausted, agent.ID))
		}
		solution[agent.ID] = path

		// Lower-priority agents cannot occupy this path's states
		for _, other := range inst.Agents {
			if other.ID == agent.ID || solution[other.ID] != nil {
				continue
			}
			for t, cell := range path {
				constraints = append(constraints, Constraint{Agent: other.ID, Cell: cell, Time: t})
			}
		}
	}

	if len(solution) == 0 {
		return fail(fmt.Errorf("%w: no agent can reach its goal", ErrSearchExhausted))
	}

	res.Solution = solution
	res.Cost = solution.SIC()
	res.Stats.Duration = time.Since(start)
	obs.OnSolutionFound(solution)
	log.Info("solution found", "cost", res.Cost, "duration", res.Stats.Duration)
	return res, nil
}

// computePriority orders agents for planning: longest unobstructed
// distance first, ties by ID.
func (p *Prioritized) computePriority(inst *core.Instance) []core.Agent {
	agents := make([]core.Agent, len(inst.Agents))
	copy(agents, inst.Agents)
	sort.SliceStable(agents, func(i, j int) bool {
		di, dj := agents[i].Distance(), agents[j].Distance()
		if di != dj {
			return di > dj
		}
		return agents[i].ID < agents[j].ID
	})
	return agents
}
