package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/mapf-cbs/internal/algo"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

func headOn(t *testing.T) *core.Instance {
	t.Helper()
	grid, err := core.NewGrid(3, 3, nil)
	require.NoError(t, err)
	return core.NewInstance(grid,
		core.Agent{ID: "a", Start: core.Cell{Row: 1, Col: 0}, Goal: core.Cell{Row: 1, Col: 2}},
		core.Agent{ID: "b", Start: core.Cell{Row: 1, Col: 2}, Goal: core.Cell{Row: 1, Col: 0}},
	)
}

func TestCollectorMatchesStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	require.NoError(t, err)

	cbs := algo.NewCBS(100)
	cbs.Observer = collector
	res, err := cbs.Solve(context.Background(), headOn(t))
	collector.ObserveSolve(res, err)
	require.NoError(t, err)

	assert.Equal(t, float64(res.Stats.NodesExpanded), testutil.ToFloat64(collector.NodesExpanded))
	assert.Equal(t, float64(res.Stats.NodesGenerated), testutil.ToFloat64(collector.NodesGenerated))
	assert.Equal(t, float64(res.Stats.NodesExpanded-1), testutil.ToFloat64(collector.Conflicts))
	assert.Equal(t, float64(res.Stats.LowLevelSearches), testutil.ToFloat64(collector.LowLevelSearches.WithLabelValues("found")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.Solves.WithLabelValues("CBS", OutcomeSolved)))
	assert.Equal(t, float64(res.Cost), testutil.ToFloat64(collector.SolutionCost.WithLabelValues("CBS")))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.SolveDuration))
}

func TestSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	require.NoError(t, err)

	grid, err := core.NewGrid(1, 3, nil)
	require.NoError(t, err)
	corridor := core.NewInstance(grid,
		core.Agent{ID: "a", Start: core.Cell{Row: 0, Col: 0}, Goal: core.Cell{Row: 0, Col: 2}},
		core.Agent{ID: "b", Start: core.Cell{Row: 0, Col: 2}, Goal: core.Cell{Row: 0, Col: 0}},
	)

	for _, inst := range []*core.Instance{headOn(t), headOn(t), corridor} {
		cbs := algo.NewCBS(100)
		cbs.Observer = collector
		res, err := cbs.Solve(context.Background(), inst)
		collector.ObserveSolve(res, err)
	}

	snap, err := collector.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, float64(2), snap.Solves[OutcomeSolved])
	assert.Equal(t, float64(1), snap.Solves[OutcomeExhausted])
	assert.Positive(t, snap.NodesExpanded)
	assert.GreaterOrEqual(t, snap.NodesGenerated, snap.NodesExpanded)
	assert.Positive(t, snap.LowLevelFound)
	// Corridor children cannot be re-planned.
	assert.Positive(t, snap.LowLevelNotFound)
	assert.Positive(t, snap.SolveSeconds)
}

func TestNewCollectorReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	require.NoError(t, err)
	second, err := NewCollector(reg)
	require.NoError(t, err)

	first.NodesExpanded.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(second.NodesExpanded))
}

func TestNewCollectorIncompatibleType(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapf_ct_nodes_expanded_total",
		Help: "Constraint tree nodes popped from the open set.",
	}, []string{"solver"}))

	_, err := NewCollector(reg)
	require.Error(t, err)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeSolved},
		{fmt.Errorf("%w: a", algo.ErrIncomplete), OutcomeIncomplete},
		{algo.ErrSearchExhausted, OutcomeExhausted},
		{fmt.Errorf("%w: %w", algo.ErrLimitExceeded, context.DeadlineExceeded), OutcomeLimit},
		{&core.ConfigurationError{Reason: "no agents"}, OutcomeInvalid},
		{errors.New("boom"), OutcomeError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err), "%v", tt.err)
	}
}
