// Package metrics exports search counters to Prometheus.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/elektrokombinacija/mapf-cbs/internal/algo"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// Solve outcomes used as the "outcome" label.
const (
	OutcomeSolved     = "solved"
	OutcomeIncomplete = "incomplete"
	OutcomeExhausted  = "exhausted"
	OutcomeLimit      = "limit"
	OutcomeInvalid    = "invalid"
	OutcomeError      = "error"
)

// Collector bundles the Prometheus metrics of the search. It implements
// algo.Observer so it can be attached to a solver directly.
type Collector struct {
	gatherer prometheus.Gatherer

	NodesExpanded    prometheus.Counter
	NodesGenerated   prometheus.Counter
	Conflicts        prometheus.Counter
	LowLevelSearches *prometheus.CounterVec
	Solves           *prometheus.CounterVec
	SolveDuration    *prometheus.HistogramVec
	SolutionCost     *prometheus.GaugeVec
}

// NewCollector registers the metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	expanded, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapf_ct_nodes_expanded_total",
		Help: "Constraint tree nodes popped from the open set.",
	}), "mapf_ct_nodes_expanded_total")
	if err != nil {
		return nil, err
	}
	generated, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapf_ct_nodes_generated_total",
		Help: "Constraint tree nodes pushed to the open set, root included.",
	}), "mapf_ct_nodes_generated_total")
	if err != nil {
		return nil, err
	}
	conflicts, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapf_conflicts_total",
		Help: "Conflicts branched on.",
	}), "mapf_conflicts_total")
	if err != nil {
		return nil, err
	}

	searches, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapf_low_level_searches_total",
		Help: "Single-agent searches, labeled by result (found, not_found).",
	}, []string{"result"}), "mapf_low_level_searches_total")
	if err != nil {
		return nil, err
	}
	solves, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapf_solves_total",
		Help: "Completed solve calls, labeled by solver and outcome.",
	}, []string{"solver", "outcome"}), "mapf_solves_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mapf_solve_duration_seconds",
		Help:    "Solve latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"solver"}), "mapf_solve_duration_seconds")
	if err != nil {
		return nil, err
	}

	cost, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mapf_solution_cost",
		Help: "Sum of individual costs of the last solution per solver.",
	}, []string{"solver"}), "mapf_solution_cost")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		NodesExpanded:    expanded,
		NodesGenerated:   generated,
		Conflicts:        conflicts,
		LowLevelSearches: searches,
		Solves:           solves,
		SolveDuration:    duration,
		SolutionCost:     cost,
	}, nil
}

// OnNodeExpanded implements algo.Observer. The root is counted as
// generated when it is expanded since it never passes OnConstraintAdded.
func (c *Collector) OnNodeExpanded(node algo.NodeInfo) {
	c.NodesExpanded.Inc()
	if node.ParentID < 0 {
		c.NodesGenerated.Inc()
	}
}

// OnConflictDetected implements algo.Observer.
func (c *Collector) OnConflictDetected(algo.Conflict) { c.Conflicts.Inc() }

// OnConstraintAdded implements algo.Observer.
func (c *Collector) OnConstraintAdded(algo.NodeInfo, algo.Constraint) { c.NodesGenerated.Inc() }

// OnLowLevelSearch implements algo.Observer.
func (c *Collector) OnLowLevelSearch(_ core.AgentID, found bool) {
	result := "found"
	if !found {
		result = "not_found"
	}
	c.LowLevelSearches.WithLabelValues(result).Inc()
}

// OnSolutionFound implements algo.Observer.
func (c *Collector) OnSolutionFound(core.Solution) {}

// ObserveSolve records the outcome of one Solve call.
func (c *Collector) ObserveSolve(res *algo.Result, err error) {
	if c == nil || res == nil {
		return
	}
	c.Solves.WithLabelValues(res.Solver, Outcome(err)).Inc()
	c.SolveDuration.WithLabelValues(res.Solver).Observe(res.Stats.Duration.Seconds())
	if err == nil {
		c.SolutionCost.WithLabelValues(res.Solver).Set(float64(res.Cost))
	}
}

// Outcome maps a Solve error onto an outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSolved
	case errors.Is(err, algo.ErrIncomplete):
		return OutcomeIncomplete
	case errors.Is(err, algo.ErrSearchExhausted):
		return OutcomeExhausted
	case errors.Is(err, algo.ErrLimitExceeded):
		return OutcomeLimit
	case errors.Is(err, core.ErrInvalidInstance):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// Snapshot is a point-in-time read of the counters.
type Snapshot struct {
	NodesExpanded    float64
	NodesGenerated   float64
	Conflicts        float64
	LowLevelFound    float64
	LowLevelNotFound float64
	Solves           map[string]float64 // by outcome, summed over solvers
	SolveSeconds     float64            // total observed solve time
}

// Snapshot gathers the current values from the registry.
func (c *Collector) Snapshot() (Snapshot, error) {
	snap := Snapshot{Solves: make(map[string]float64)}

	families, err := c.gatherer.Gather()
	if err != nil {
		return snap, fmt.Errorf("gather metrics: %w", err)
	}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "mapf_ct_nodes_expanded_total":
				snap.NodesExpanded += m.GetCounter().GetValue()
			case "mapf_ct_nodes_generated_total":
				snap.NodesGenerated += m.GetCounter().GetValue()
			case "mapf_conflicts_total":
				snap.Conflicts += m.GetCounter().GetValue()
			case "mapf_low_level_searches_total":
				if labelValue(m, "result") == "found" {
					snap.LowLevelFound += m.GetCounter().GetValue()
				} else {
					snap.LowLevelNotFound += m.GetCounter().GetValue()
				}
			case "mapf_solves_total":
				snap.Solves[labelValue(m, "outcome")] += m.GetCounter().GetValue()
			case "mapf_solve_duration_seconds":
				snap.SolveSeconds += m.GetHistogram().GetSampleSum()
			}
		}
	}
	return snap, nil
}
