package core

// Instance represents a MAPF problem: a grid and the agents moving on it.
type Instance struct {
	Grid   *Grid
	Agents []Agent
}

// NewInstance creates an instance on grid.
func NewInstance(grid *Grid, agents ...Agent) *Instance {
	return &Instance{
		Grid:   grid,
		Agents: agents,
	}
}

// ReferenceInstance returns the five-agent problem on DefaultGrid.
func ReferenceInstance() *Instance {
	return NewInstance(DefaultGrid(),
		Agent{ID: "agent0", Start: Cell{0, 0}, Goal: Cell{9, 9}},
		Agent{ID: "agent1", Start: Cell{1, 1}, Goal: Cell{8, 3}},
		Agent{ID: "agent2", Start: Cell{2, 2}, Goal: Cell{6, 7}},
		Agent{ID: "agent3", Start: Cell{5, 3}, Goal: Cell{4, 6}},
		Agent{ID: "agent4", Start: Cell{5, 4}, Goal: Cell{9, 7}},
	)
}

// Validate checks instance consistency. Problems are reported as
// *ConfigurationError.
func (inst *Instance) Validate() error {
	if inst.Grid == nil {
		return configErr("", "missing grid")
	}
	if len(inst.Agents) == 0 {
		return configErr("", "no agents")
	}

	seen := make(map[AgentID]bool, len(inst.Agents))
	starts := make(map[Cell]AgentID, len(inst.Agents))
	for _, a := range inst.Agents {
		if a.ID == "" {
			return configErr("", "agent with empty id")
		}
		if seen[a.ID] {
			return configErr(a.ID, "duplicate agent id")
		}
		seen[a.ID] = true

		for _, ep := range []struct {
			name string
			cell Cell
		}{{"start", a.Start}, {"goal", a.Goal}} {
			if !inst.Grid.InBounds(ep.cell) {
				return configErr(a.ID, "%s %v outside %dx%d grid", ep.name, ep.cell, inst.Grid.Rows(), inst.Grid.Cols())
			}
			if !inst.Grid.IsFree(ep.cell) {
				return configErr(a.ID, "%s %v is blocked", ep.name, ep.cell)
			}
		}

		if other, ok := starts[a.Start]; ok {
			return configErr(a.ID, "start %v already taken by agent %q", a.Start, other)
		}
		starts[a.Start] = a.ID
	}
	return nil
}

// AgentByID finds an agent by ID.
func (inst *Instance) AgentByID(id AgentID) (Agent, bool) {
	for _, a := range inst.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}
