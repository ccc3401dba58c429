package main

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/elektrokombinacija/mapf-cbs/internal/algo"
	"github.com/elektrokombinacija/mapf-cbs/internal/config"
)

// newSolver builds the solver s names. obs and tp may be nil.
func newSolver(s config.SearchConfig, logger *slog.Logger, obs algo.Observer, tp trace.TracerProvider) (algo.Solver, error) {
	switch s.Solver {
	case "", config.SolverCBS:
		branching, err := algo.ParseBranchPolicy(s.Branching)
		if err != nil {
			return nil, err
		}
		cbs := algo.NewCBS(s.MaxExpansions)
		cbs.Branching = branching
		cbs.Seed = s.Seed
		cbs.AllowWait = s.AllowWait
		cbs.Observer = obs
		cbs.Logger = logger
		cbs.TracerProvider = tp
		return cbs, nil
	case config.SolverPrioritized:
		p := algo.NewPrioritized()
		p.AllowWait = s.AllowWait
		p.Observer = obs
		p.Logger = logger
		return p, nil
	default:
		return nil, fmt.Errorf("unknown solver %q", s.Solver)
	}
}
