// Package algo implements grid MAPF solving algorithms.
package algo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

var (
	// ErrSearchExhausted is returned when the search runs out of candidates
	// without finding a conflict-free solution.
	ErrSearchExhausted = errors.New("algo: search exhausted without a conflict-free solution")
	// ErrLimitExceeded is returned when an expansion cap, deadline or
	// cancellation stops the search first.
	ErrLimitExceeded = errors.New("algo: search limit exceeded")
	// ErrIncomplete marks a result that leaves some agents without a path.
	// Solvers do not return it; see Result.RequireComplete.
	ErrIncomplete = errors.New("algo: no path for every agent")
)

// Solver is the interface for MAPF algorithms.
type Solver interface {
	// Solve attempts to find a solution for the instance. On failure the
	// returned Result carries an empty Solution and the error says why.
	Solve(ctx context.Context, inst *core.Instance) (*Result, error)

	// Name returns the algorithm name.
	Name() string
}

// Constraint forbids Agent from occupying Cell at timestep Time.
type Constraint struct {
	Agent core.AgentID
	Cell  core.Cell
	Time  int
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s !@ %v t=%d", c.Agent, c.Cell, c.Time)
}

// Stats summarizes the work a solve performed.
type Stats struct {
	NodesExpanded    int
	NodesGenerated   int
	LowLevelSearches int
	Duration         time.Duration
}

// Result is the outcome of a Solve call.
type Result struct {
	RunID    string
	Solver   string
	Solution core.Solution
	Cost     int
	// Unreachable lists agents with no path even when planned alone. They
	// are left out of the joint problem.
	Unreachable []core.AgentID
	Stats       Stats
}

// Complete reports whether every agent of inst has a path.
func (r *Result) Complete(inst *core.Instance) bool {
	if r == nil {
		return false
	}
	for _, a := range inst.Agents {
		if _, ok := r.Solution[a.ID]; !ok {
			return false
		}
	}
	return true
}

// RequireComplete returns an error wrapping ErrIncomplete that names the
// agents of inst without a path, or nil when every agent has one.
func (r *Result) RequireComplete(inst *core.Instance) error {
	if r.Complete(inst) {
		return nil
	}
	var missing []string
	for _, a := range inst.Agents {
		if r == nil || r.Solution[a.ID] == nil {
			missing = append(missing, string(a.ID))
		}
	}
	return fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(missing, ", "))
}

// agentConstraints returns the constraints that apply to agent.
func agentConstraints(constraints []Constraint, agent core.AgentID) []Constraint {
	var out []Constraint
	for _, c := range constraints {
		if c.Agent == agent {
			out = append(out, c)
		}
	}
	return out
}

func discardIfNil(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
