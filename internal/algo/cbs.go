package algo

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

const tracerName = "github.com/elektrokombinacija/mapf-cbs/internal/algo"

// BranchPolicy selects how a conflict is split into child nodes.
type BranchPolicy int

const (
	// BranchBoth creates one child per conflicting agent. Complete and optimal.
	BranchBoth BranchPolicy = iota
	// BranchRandom creates a single child constraining a randomly chosen
	// agent. Neither complete nor optimal; kept to reproduce legacy runs.
	BranchRandom
)

func (p BranchPolicy) String() string {
	switch p {
	case BranchBoth:
		return "both"
	case BranchRandom:
		return "random"
	default:
		return fmt.Sprintf("BranchPolicy(%d)", int(p))
	}
}

// ParseBranchPolicy converts "both" or "random" to a BranchPolicy.
func ParseBranchPolicy(s string) (BranchPolicy, error) {
	switch s {
	case "", "both":
		return BranchBoth, nil
	case "random":
		return BranchRandom, nil
	default:
		return 0, fmt.Errorf("algo: unknown branch policy %q", s)
	}
}

// CBS implements Conflict-Based Search.
type CBS struct {
	MaxExpansions int // 0 = unlimited
	Branching     BranchPolicy
	Seed          int64 // drives BranchRandom
	AllowWait     bool

	Observer       Observer
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
}

// NewCBS creates a CBS solver that gives up after maxExpansions constraint
// tree expansions.
func NewCBS(maxExpansions int) *CBS {
	return &CBS{MaxExpansions: maxExpansions}
}

func (c *CBS) Name() string { return "CBS" }

// ctNode represents a node in the CBS constraint tree. Nodes are never
// mutated after they are pushed.
type ctNode struct {
	id          int
	parentID    int
	constraints []Constraint
	solution    core.Solution
	cost        int
	conflicts   []Conflict
	index       int
}

func (n *ctNode) info() NodeInfo {
	return NodeInfo{
		ID:          n.id,
		ParentID:    n.parentID,
		Constraints: n.constraints,
		Cost:        n.cost,
		Conflicts:   len(n.conflicts),
		Solution:    n.solution,
	}
}

// cbsHeap orders by cost, then conflict count, then creation order.
type cbsHeap []*ctNode

func (h cbsHeap) Len() int { return len(h) }
func (h cbsHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if len(h[i].conflicts) != len(h[j].conflicts) {
		return len(h[i].conflicts) < len(h[j].conflicts)
	}
	return h[i].id < h[j].id
}
func (h cbsHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *cbsHeap) Push(x any) {
	n := x.(*ctNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *cbsHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// Solve implements the CBS algorithm.
func (c *CBS) Solve(ctx context.Context, inst *core.Instance) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:    uuid.NewString(),
		Solver:   c.Name(),
		Solution: core.Solution{},
	}
	log := discardIfNil(c.Logger).With("run_id", res.RunID, "solver", c.Name())
	obs := observerOrNop(c.Observer)

	tp := c.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	ctx, span := tp.Tracer(tracerName).Start(ctx, "cbs.Solve",
		trace.WithAttributes(
			attribute.Int("mapf.agents", len(inst.Agents)),
			attribute.String("mapf.branching", c.Branching.String()),
		))
	defer span.End()

	finish := func(err error) (*Result, error) {
		res.Stats.Duration = time.Since(start)
		span.SetAttributes(
			attribute.Int("cbs.nodes_expanded", res.Stats.NodesExpanded),
			attribute.Int("cbs.nodes_generated", res.Stats.NodesGenerated),
			attribute.Int("mapf.cost", res.Cost),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Warn("search failed", "error", err,
				"expanded", res.Stats.NodesExpanded, "duration", res.Stats.Duration)
			res.Solution = core.Solution{}
			res.Cost = 0
			return res, err
		}
		span.SetStatus(codes.Ok, "")
		log.Info("solution found", "cost", res.Cost,
			"expanded", res.Stats.NodesExpanded, "duration", res.Stats.Duration)
		return res, nil
	}

	if err := inst.Validate(); err != nil {
		return finish(err)
	}

	// Step 1: Root node with unconstrained individual paths
	root := &ctNode{
		id:       0,
		parentID: -1,
		solution: make(core.Solution, len(inst.Agents)),
	}
	for _, a := range inst.Agents {
		path, ok := c.plan(inst.Grid, a, nil, res, obs)
		if !ok {
			log.Warn("no path found for agent", "agent", a.ID, "start", a.Start, "goal", a.Goal)
			res.Unreachable = append(res.Unreachable, a.ID)
			continue
		}
		root.solution[a.ID] = path
	}
	if len(root.solution) == 0 {
		return finish(fmt.Errorf("%w: no agent can reach its goal", ErrSearchExhausted))
	}
	root.cost = root.solution.SIC()
	root.conflicts = FindAllConflicts(root.solution)
	res.Stats.NodesGenerated++
	nextID := 1

	log.Debug("root planned", "cost", root.cost, "conflicts", len(root.conflicts))

	// Step 2: CBS main loop
	open := &cbsHeap{}
	heap.Init(open)
	heap.Push(open, root)

	rng := rand.New(rand.NewSource(c.Seed))

	for open.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return finish(fmt.Errorf("%w: %w", ErrLimitExceeded, err))
		}
		if c.MaxExpansions > 0 && res.Stats.NodesExpanded >= c.MaxExpansions {
			return finish(fmt.Errorf("%w: %d expansions", ErrLimitExceeded, c.MaxExpansions))
		}

		node := heap.Pop(open).(*ctNode)
		res.Stats.NodesExpanded++
		obs.OnNodeExpanded(node.info())

		if len(node.conflicts) == 0 {
			obs.OnSolutionFound(node.solution)
			res.Solution = node.solution
			res.Cost = node.cost
			return finish(nil)
		}

		// Branch on the earliest conflict
		conflict := node.conflicts[0]
		obs.OnConflictDetected(conflict)

		for _, agentID := range c.branchAgents(conflict, rng) {
			constraint := Constraint{
				Agent: agentID,
				Cell:  conflict.Cell,
				Time:  conflict.Time,
			}
			constraints := append(append([]Constraint{}, node.constraints...), constraint)

			// Re-plan only the constrained agent
			agent, _ := inst.AgentByID(agentID)
			path, ok := c.plan(inst.Grid, agent, agentConstraints(constraints, agentID), res, obs)
			if !ok {
				log.Debug("child pruned", "parent", node.id, "constraint", constraint.String())
				continue
			}

			solution := node.solution.Clone()
			solution[agentID] = path
			child := &ctNode{
				id:          nextID,
				parentID:    node.id,
				constraints: constraints,
				solution:    solution,
				cost:        solution.SIC(),
				conflicts:   FindAllConflicts(solution),
			}
			nextID++
			res.Stats.NodesGenerated++

			heap.Push(open, child)
			obs.OnConstraintAdded(child.info(), constraint)
		}
	}

	return finish(ErrSearchExhausted)
}

func (c *CBS) plan(grid *core.Grid, agent core.Agent, constraints []Constraint, res *Result, obs Observer) (core.Path, bool) {
	path, ok := SpaceTimeAStar(grid, agent, constraints, SearchOptions{AllowWait: c.AllowWait})
	res.Stats.LowLevelSearches++
	obs.OnLowLevelSearch(agent.ID, ok)
	return path, ok
}

func (c *CBS) branchAgents(conflict Conflict, rng *rand.Rand) []core.AgentID {
	agents := conflict.Agents()
	if c.Branching == BranchRandom {
		return []core.AgentID{agents[rng.Intn(len(agents))]}
	}
	return agents[:]
}
