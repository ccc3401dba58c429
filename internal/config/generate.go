package config

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/elektrokombinacija/mapf-cbs/internal/algo"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// GenParams defines parameters for instance generation.
type GenParams struct {
	Seed            int64   `yaml:"seed"`
	Agents          int     `yaml:"agents" validate:"min=1"`
	Rows            int     `yaml:"rows" validate:"min=1"`
	Cols            int     `yaml:"cols" validate:"min=1"`
	ObstacleDensity float64 `yaml:"obstacle_density" validate:"gte=0,lt=1"` // fraction of blocked cells
}

// ErrGenerate is returned when the parameters leave no room for the
// requested agents.
var ErrGenerate = errors.New("config: cannot generate instance")

// goalAttempts bounds how often a goal is redrawn before giving up on a
// start cell.
const goalAttempts = 50

// Name returns a file-friendly name for the instance p describes.
func (p GenParams) Name() string {
	return fmt.Sprintf("mapf_%d_%dx%d_%d", p.Agents, p.Rows, p.Cols, p.Seed)
}

// Generate creates a deterministic random instance. Every agent gets a
// distinct start and a distinct goal reachable from it.
func Generate(p GenParams) (*core.Instance, error) {
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	rng := rand.New(rand.NewSource(p.Seed))

	var blocked []core.Cell
	for r := 0; r < p.Rows; r++ {
		for c := 0; c < p.Cols; c++ {
			if rng.Float64() < p.ObstacleDensity {
				blocked = append(blocked, core.Cell{Row: r, Col: c})
			}
		}
	}
	grid, err := core.NewGrid(p.Rows, p.Cols, blocked)
	if err != nil {
		return nil, err
	}

	free := grid.FreeCells()
	if len(free) < p.Agents {
		return nil, fmt.Errorf("%w: %d free cells for %d agents", ErrGenerate, len(free), p.Agents)
	}
	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	usedGoals := make(map[core.Cell]bool, p.Agents)
	agents := make([]core.Agent, 0, p.Agents)
	for _, start := range free {
		if len(agents) == p.Agents {
			break
		}
		agent := core.Agent{ID: core.AgentID(fmt.Sprintf("agent%d", len(agents))), Start: start}

		placed := false
		for attempt := 0; attempt < goalAttempts; attempt++ {
			goal := free[rng.Intn(len(free))]
			if usedGoals[goal] {
				continue
			}
			agent.Goal = goal
			if _, ok := algo.SpaceTimeAStar(grid, agent, nil, algo.SearchOptions{}); ok {
				placed = true
				break
			}
		}
		if !placed {
			continue
		}
		usedGoals[agent.Goal] = true
		agents = append(agents, agent)
	}

	if len(agents) < p.Agents {
		return nil, fmt.Errorf("%w: placed %d of %d agents", ErrGenerate, len(agents), p.Agents)
	}
	return core.NewInstance(grid, agents...), nil
}
