package algo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// treeObserver keeps every node the search reports.
type treeObserver struct {
	nodes     map[int]NodeInfo
	expanded  []int
	conflicts []Conflict
	searches  int
	solutions int
}

func newTreeObserver() *treeObserver {
	return &treeObserver{nodes: make(map[int]NodeInfo)}
}

func (o *treeObserver) OnNodeExpanded(n NodeInfo) {
	o.nodes[n.ID] = n
	o.expanded = append(o.expanded, n.ID)
}
func (o *treeObserver) OnConflictDetected(c Conflict)              { o.conflicts = append(o.conflicts, c) }
func (o *treeObserver) OnConstraintAdded(n NodeInfo, _ Constraint) { o.nodes[n.ID] = n }
func (o *treeObserver) OnLowLevelSearch(core.AgentID, bool)        { o.searches++ }
func (o *treeObserver) OnSolutionFound(core.Solution)              { o.solutions++ }

func TestCBS_HeadOnCollision(t *testing.T) {
	inst := headOnInstance(t)

	// Planned independently the agents meet at the center.
	root := core.Solution{}
	for _, a := range inst.Agents {
		p, ok := SpaceTimeAStar(inst.Grid, a, nil, SearchOptions{})
		require.True(t, ok)
		root[a.ID] = p
	}
	require.NotNil(t, FindFirstConflict(root))

	res, err := NewCBS(100).Solve(context.Background(), inst)
	require.NoError(t, err)
	assert.True(t, Validate(res.Solution))
	assert.True(t, res.Complete(inst))
	// One agent keeps its 3-cell path, the other detours (parity: 5 cells).
	assert.Equal(t, 8, res.Cost)
	assert.Equal(t, 5, res.Stats.NodesGenerated)
	assert.Equal(t, 3, res.Stats.NodesExpanded)
	// Root plans both agents, every branching expansion plans two children.
	assert.Equal(t, 2+2*(res.Stats.NodesExpanded-1), res.Stats.LowLevelSearches)
	assert.Positive(t, res.Stats.Duration)
}

func TestCBS_TreeProperties(t *testing.T) {
	obs := newTreeObserver()
	cbs := NewCBS(10000)
	cbs.Observer = obs

	inst := core.NewInstance(createGrid(t, 4),
		core.Agent{ID: "a", Start: cell(0, 0), Goal: cell(3, 3)},
		core.Agent{ID: "b", Start: cell(3, 0), Goal: cell(0, 3)},
		core.Agent{ID: "c", Start: cell(0, 3), Goal: cell(3, 0)},
	)
	res, err := cbs.Solve(context.Background(), inst)
	require.NoError(t, err)
	assert.True(t, Validate(res.Solution))
	assert.Equal(t, 1, obs.solutions)
	assert.Equal(t, res.Stats.LowLevelSearches, obs.searches)
	assert.Len(t, obs.conflicts, len(obs.expanded)-1, "every non-goal expansion branches on one conflict")

	for id, n := range obs.nodes {
		// Constraints are honored by the node's own solution.
		for _, c := range n.Constraints {
			path := n.Solution[c.Agent]
			if c.Time < len(path) {
				assert.NotEqual(t, c.Cell, path[c.Time], "node %d violates %v", id, c)
			}
		}

		// Cost never decreases from parent to child.
		if n.ParentID >= 0 {
			parent, ok := obs.nodes[n.ParentID]
			require.True(t, ok)
			assert.GreaterOrEqual(t, n.Cost, parent.Cost)
			assert.Len(t, n.Constraints, len(parent.Constraints)+1)
		}
	}
}

func TestCBS_Exhausted(t *testing.T) {
	// Two agents swap ends of a corridor; without waiting neither can yield.
	grid, err := core.NewGrid(1, 3, nil)
	require.NoError(t, err)
	inst := core.NewInstance(grid,
		core.Agent{ID: "a", Start: cell(0, 0), Goal: cell(0, 2)},
		core.Agent{ID: "b", Start: cell(0, 2), Goal: cell(0, 0)},
	)

	res, err := NewCBS(100).Solve(context.Background(), inst)
	require.ErrorIs(t, err, ErrSearchExhausted)
	assert.Empty(t, res.Solution)
	assert.Zero(t, res.Cost)
}

func TestCBS_WaitResolvesCorridor(t *testing.T) {
	grid, err := core.NewGrid(1, 3, nil)
	require.NoError(t, err)
	inst := core.NewInstance(grid,
		core.Agent{ID: "a", Start: cell(0, 0), Goal: cell(0, 2)},
		core.Agent{ID: "b", Start: cell(0, 2), Goal: cell(0, 0)},
	)

	cbs := NewCBS(100)
	cbs.AllowWait = true
	res, err := cbs.Solve(context.Background(), inst)
	require.NoError(t, err)
	assert.True(t, Validate(res.Solution))
	assert.Equal(t, 7, res.Cost)
}

func TestCBS_ExpansionLimit(t *testing.T) {
	res, err := NewCBS(1).Solve(context.Background(), headOnInstance(t))
	require.ErrorIs(t, err, ErrLimitExceeded)
	assert.Empty(t, res.Solution)
	assert.Equal(t, 1, res.Stats.NodesExpanded)
}

func TestCBS_RandomBranching(t *testing.T) {
	run := func() (*Result, error) {
		cbs := NewCBS(1000)
		cbs.Branching = BranchRandom
		cbs.Seed = 7
		return cbs.Solve(context.Background(), headOnInstance(t))
	}

	first, err1 := run()
	second, err2 := run()

	// Same seed, same walk down the tree.
	assert.Equal(t, err1 == nil, err2 == nil)
	assert.Equal(t, first.Stats.NodesExpanded, second.Stats.NodesExpanded)
	assert.Equal(t, first.Cost, second.Cost)

	if err1 != nil {
		require.ErrorIs(t, err1, ErrLimitExceeded)
		return
	}
	assert.True(t, Validate(first.Solution))
	// At most one child per expansion.
	assert.LessOrEqual(t, first.Stats.NodesGenerated, first.Stats.NodesExpanded)
	assert.Equal(t, first.Stats.NodesExpanded+1, first.Stats.LowLevelSearches)
}

func TestCBS_RecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	cbs := NewCBS(100)
	cbs.TracerProvider = tp
	_, err := cbs.Solve(context.Background(), headOnInstance(t))
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "cbs.Solve", spans[0].Name())

	attrs := make(map[string]int64)
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInt64()
	}
	assert.Equal(t, int64(2), attrs["mapf.agents"])
	assert.Equal(t, int64(8), attrs["mapf.cost"])
}

func TestParseBranchPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    BranchPolicy
		wantErr bool
	}{
		{"", BranchBoth, false},
		{"both", BranchBoth, false},
		{"random", BranchRandom, false},
		{"first", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseBranchPolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, mustParse(t, got.String()))
	}
}

func mustParse(t *testing.T, s string) BranchPolicy {
	t.Helper()
	p, err := ParseBranchPolicy(s)
	require.NoError(t, err)
	return p
}
