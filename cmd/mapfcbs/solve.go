package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/elektrokombinacija/mapf-cbs/internal/algo"
	"github.com/elektrokombinacija/mapf-cbs/internal/config"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/observer"
)

type solveOptions struct {
	solver        string
	maxExpansions int
	timeLimit     time.Duration
	branching     string
	seed          int64
	allowWait     bool
	tree          bool
	trace         bool
}

func newSolveCmd(root *rootOptions) *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve the configured instance and print one path per agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			opts.apply(cmd, &cfg.Search)
			return runSolve(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.solver, "solver", config.SolverCBS, "Solver (cbs, prioritized)")
	f.IntVar(&opts.maxExpansions, "max-expansions", 0, "Constraint tree expansion cap (0 = unlimited)")
	f.DurationVar(&opts.timeLimit, "time-limit", 0, "Wall-clock limit (0 = none)")
	f.StringVar(&opts.branching, "branching", "both", "CBS branching (both, random)")
	f.Int64Var(&opts.seed, "seed", 0, "Seed for random branching")
	f.BoolVar(&opts.allowWait, "allow-wait", false, "Allow agents to wait in place")
	f.BoolVar(&opts.tree, "tree", false, "Print the constraint tree")
	f.BoolVar(&opts.trace, "trace", false, "Write trace spans to stderr")
	return cmd
}

// apply overrides the config with flags given on the command line.
func (o *solveOptions) apply(cmd *cobra.Command, s *config.SearchConfig) {
	f := cmd.Flags()
	if f.Changed("solver") {
		s.Solver = o.solver
	}
	if f.Changed("max-expansions") {
		s.MaxExpansions = o.maxExpansions
	}
	if f.Changed("time-limit") {
		s.TimeLimit = o.timeLimit
	}
	if f.Changed("branching") {
		s.Branching = o.branching
	}
	if f.Changed("seed") {
		s.Seed = o.seed
	}
	if f.Changed("allow-wait") {
		s.AllowWait = o.allowWait
	}
}

func runSolve(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, opts *solveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(cfg.Log, stderr)

	inst, err := cfg.Instance()
	if err != nil {
		return err
	}

	obs := algo.Observers{observer.NewLogObserver(logger)}
	var rec *observer.Recorder
	if opts.tree {
		rec = observer.NewRecorder()
		obs = append(obs, rec)
	}

	var tp trace.TracerProvider
	if opts.trace {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("trace exporter: %w", err)
		}
		sdk := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		defer func() { _ = sdk.Shutdown(context.Background()) }()
		tp = sdk
	}

	solver, err := newSolver(cfg.Search, logger, obs, tp)
	if err != nil {
		return err
	}

	if cfg.Search.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Search.TimeLimit)
		defer cancel()
	}

	res, solveErr := solver.Solve(ctx, inst)

	if rec != nil {
		fmt.Fprintln(stdout, "constraint tree:")
		if err := rec.WriteTree(stdout); err != nil {
			return err
		}
		c := rec.Counts()
		fmt.Fprintf(stdout, "nodes: %d generated, %d expanded  failed searches: %d\n\n",
			c.Generated, c.Expanded, c.FailedSearches)
	}

	if solveErr != nil {
		return fmt.Errorf("%s: %w", solver.Name(), solveErr)
	}
	printResult(stdout, inst, res)
	if err := res.RequireComplete(inst); err != nil {
		return fmt.Errorf("%s: %w", solver.Name(), err)
	}
	return nil
}

func printResult(w io.Writer, inst *core.Instance, res *algo.Result) {
	fmt.Fprintf(w, "solver: %s  run: %s\n", res.Solver, res.RunID)

	width := 0
	for _, a := range inst.Agents {
		width = max(width, len(a.ID))
	}
	for _, a := range inst.Agents {
		path, ok := res.Solution[a.ID]
		if !ok {
			fmt.Fprintf(w, "%-*s  no path\n", width, a.ID)
			continue
		}
		fmt.Fprintf(w, "%-*s  %s\n", width, a.ID, path)
	}

	fmt.Fprintf(w, "cost: %d  expanded: %d  generated: %d  low-level: %d  time: %v\n",
		res.Cost, res.Stats.NodesExpanded, res.Stats.NodesGenerated,
		res.Stats.LowLevelSearches, res.Stats.Duration.Round(time.Microsecond))
	if len(res.Unreachable) > 0 {
		ids := make([]string, len(res.Unreachable))
		for i, id := range res.Unreachable {
			ids[i] = string(id)
		}
		fmt.Fprintf(w, "unreachable: %s\n", strings.Join(ids, ", "))
	}
}
