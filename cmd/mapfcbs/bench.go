package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/mapf-cbs/internal/algo"
	"github.com/elektrokombinacija/mapf-cbs/internal/config"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
	"github.com/elektrokombinacija/mapf-cbs/internal/metrics"
	"github.com/elektrokombinacija/mapf-cbs/internal/observer"
)

// benchResult stores results from a single solver run.
type benchResult struct {
	Timestamp        string
	CommitHash       string
	GoVersion        string
	OS               string
	Arch             string
	Instance         string
	NumAgents        int
	GridSize         string
	Solver           string
	RuntimeMs        float64
	Outcome          string
	Cost             int
	Makespan         int
	NodesExpanded    int
	NodesGenerated   int
	LowLevelSearches int
	Unreachable      int
}

// Success reports whether the run produced a solution.
func (r *benchResult) Success() bool { return r.Outcome == metrics.OutcomeSolved }

// solverSummary holds per-solver aggregated metrics.
type solverSummary struct {
	Name           string
	TotalRuns      int
	Successes      int
	TotalRuntimeMs float64
	TotalCost      int
	TotalExpanded  int
}

type benchOptions struct {
	inputDir      string
	outputFile    string
	solvers       string
	timeLimit     time.Duration
	maxExpansions int
	verbose       bool
}

func newBenchCmd(root *rootOptions) *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run solvers over a directory of configs and write CSV results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := root.load()
			if err != nil {
				return err
			}
			return runBench(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), base.Log, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.inputDir, "input", "i", "testdata", "Directory containing instance YAML files")
	f.StringVarP(&opts.outputFile, "output", "o", "results/bench.csv", "Output CSV file")
	f.StringVar(&opts.solvers, "solver", "cbs,prioritized", "Solvers to run (comma-separated)")
	f.DurationVar(&opts.timeLimit, "time-limit", time.Minute, "Timeout per solver run")
	f.IntVar(&opts.maxExpansions, "max-expansions", 10000, "CBS expansion cap per run (0 = unlimited)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	return cmd
}

func runBench(ctx context.Context, stdout, stderr io.Writer, logCfg config.LogConfig, opts *benchOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(logCfg, stderr)

	files, err := filepath.Glob(filepath.Join(opts.inputDir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("find instance files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no instance files found in %s (run `mapfcbs gen` first)", opts.inputDir)
	}
	sort.Strings(files)

	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	solverNames := strings.Split(opts.solvers, ",")
	totalRuns := len(files) * len(solverNames)
	fmt.Fprintf(stdout, "Running benchmarks: %d instances x %d solvers = %d runs\n",
		len(files), len(solverNames), totalRuns)
	fmt.Fprintf(stdout, "Timeout per run: %v\n", opts.timeLimit)

	searchLog := observer.NewLogObserver(logger)
	commit := getGitCommit()
	var results []*benchResult
	currentRun := 0

	for _, file := range files {
		cfg, err := config.Load(file)
		if err != nil {
			logger.Warn("skipping instance", "file", file, "error", err)
			continue
		}
		inst, err := cfg.Instance()
		if err != nil {
			logger.Warn("skipping instance", "file", file, "error", err)
			continue
		}
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

		for _, solverName := range solverNames {
			currentRun++
			search := cfg.Search
			search.Solver = strings.TrimSpace(solverName)
			search.MaxExpansions = opts.maxExpansions

			solver, err := newSolver(search, logger, algo.Observers{collector, searchLog}, nil)
			if err != nil {
				return err
			}

			result := runOne(ctx, solver, inst, opts.timeLimit, collector)
			result.Timestamp = time.Now().UTC().Format(time.RFC3339)
			result.CommitHash = commit
			result.Instance = name
			result.GridSize = fmt.Sprintf("%dx%d", inst.Grid.Rows(), inst.Grid.Cols())
			results = append(results, result)

			if opts.verbose {
				fmt.Fprintf(stdout, "[%d/%d] %s / %s ... %s (%.2fms, cost=%d)\n",
					currentRun, totalRuns, name, solver.Name(), result.Outcome, result.RuntimeMs, result.Cost)
			}
		}
	}

	if err := writeCSV(results, opts.outputFile); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	fmt.Fprintf(stdout, "Results written to: %s\n", opts.outputFile)

	printSummary(stdout, results)

	snap, err := collector.Snapshot()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\nct nodes expanded=%.0f generated=%.0f conflicts=%.0f low-level found=%.0f not_found=%.0f\n",
		snap.NodesExpanded, snap.NodesGenerated, snap.Conflicts, snap.LowLevelFound, snap.LowLevelNotFound)
	return nil
}

func runOne(ctx context.Context, solver algo.Solver, inst *core.Instance, timeout time.Duration, collector *metrics.Collector) *benchResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := solver.Solve(ctx, inst)
	if err == nil {
		err = res.RequireComplete(inst)
	}
	collector.ObserveSolve(res, err)

	result := &benchResult{
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		NumAgents: len(inst.Agents),
		Solver:    solver.Name(),
		Outcome:   metrics.Outcome(err),
	}
	if res == nil {
		return result
	}

	result.RuntimeMs = float64(res.Stats.Duration.Microseconds()) / 1000.0
	result.Cost = res.Cost
	result.NodesExpanded = res.Stats.NodesExpanded
	result.NodesGenerated = res.Stats.NodesGenerated
	result.LowLevelSearches = res.Stats.LowLevelSearches
	result.Unreachable = len(res.Unreachable)
	for _, p := range res.Solution {
		result.Makespan = max(result.Makespan, len(p)-1)
	}
	return result
}

func getGitCommit() string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(output))
}

var csvHeader = []string{
	"timestamp", "commit_hash", "go_version", "os", "arch",
	"instance", "num_agents", "grid_size", "solver",
	"runtime_ms", "outcome", "success", "cost", "makespan",
	"nodes_expanded", "nodes_generated", "low_level_searches", "unreachable",
}

func writeCSV(results []*benchResult, path string) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Timestamp, r.CommitHash, r.GoVersion, r.OS, r.Arch,
			r.Instance, strconv.Itoa(r.NumAgents), r.GridSize, r.Solver,
			fmt.Sprintf("%.3f", r.RuntimeMs), r.Outcome, strconv.FormatBool(r.Success()),
			strconv.Itoa(r.Cost), strconv.Itoa(r.Makespan),
			strconv.Itoa(r.NodesExpanded), strconv.Itoa(r.NodesGenerated),
			strconv.Itoa(r.LowLevelSearches), strconv.Itoa(r.Unreachable),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func printSummary(w io.Writer, results []*benchResult) {
	// Aggregate by solver
	summaries := make(map[string]*solverSummary)
	for _, r := range results {
		s, ok := summaries[r.Solver]
		if !ok {
			s = &solverSummary{Name: r.Solver}
			summaries[r.Solver] = s
		}
		s.TotalRuns++
		if r.Success() {
			s.Successes++
			s.TotalRuntimeMs += r.RuntimeMs
			s.TotalCost += r.Cost
			s.TotalExpanded += r.NodesExpanded
		}
	}

	fmt.Fprintln(w, "\n=== BENCHMARK SUMMARY ===")
	fmt.Fprintf(w, "%-12s %6s %8s %13s %10s %12s\n",
		"Solver", "Runs", "Success", "Avg Time(ms)", "Avg Cost", "Avg Expanded")
	fmt.Fprintln(w, strings.Repeat("-", 66))

	var names []string
	for name := range summaries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := summaries[name]
		avgTime, avgCost, avgExpanded := 0.0, 0.0, 0.0
		if s.Successes > 0 {
			n := float64(s.Successes)
			avgTime = s.TotalRuntimeMs / n
			avgCost = float64(s.TotalCost) / n
			avgExpanded = float64(s.TotalExpanded) / n
		}
		fmt.Fprintf(w, "%-12s %6d %8d %13.2f %10.2f %12.1f\n",
			s.Name, s.TotalRuns, s.Successes, avgTime, avgCost, avgExpanded)
	}
}
