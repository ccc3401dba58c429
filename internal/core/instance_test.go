package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceInstanceIsValid(t *testing.T) {
	inst := ReferenceInstance()
	require.NoError(t, inst.Validate())
	assert.Len(t, inst.Agents, 5)

	a, ok := inst.AgentByID("agent3")
	require.True(t, ok)
	assert.Equal(t, Cell{5, 3}, a.Start)

	_, ok = inst.AgentByID("missing")
	assert.False(t, ok)
}

func TestInstanceValidate(t *testing.T) {
	grid, err := NewGrid(4, 4, []Cell{{1, 1}})
	require.NoError(t, err)

	tests := []struct {
		name  string
		inst  *Instance
		agent AgentID
	}{
		{"nil grid", &Instance{Agents: []Agent{{ID: "a"}}}, ""},
		{"no agents", NewInstance(grid), ""},
		{"empty id", NewInstance(grid, Agent{Goal: Cell{0, 1}}), ""},
		{"duplicate id", NewInstance(grid,
			Agent{ID: "a", Start: Cell{0, 0}, Goal: Cell{3, 3}},
			Agent{ID: "a", Start: Cell{0, 1}, Goal: Cell{3, 2}}), "a"},
		{"start out of bounds", NewInstance(grid, Agent{ID: "a", Start: Cell{4, 0}, Goal: Cell{0, 0}}), "a"},
		{"goal out of bounds", NewInstance(grid, Agent{ID: "b", Start: Cell{0, 0}, Goal: Cell{0, -1}}), "b"},
		{"start blocked", NewInstance(grid, Agent{ID: "c", Start: Cell{1, 1}, Goal: Cell{0, 0}}), "c"},
		{"goal blocked", NewInstance(grid, Agent{ID: "d", Start: Cell{0, 0}, Goal: Cell{1, 1}}), "d"},
		{"shared start", NewInstance(grid,
			Agent{ID: "a", Start: Cell{0, 0}, Goal: Cell{3, 3}},
			Agent{ID: "b", Start: Cell{0, 0}, Goal: Cell{3, 2}}), "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.inst.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInstance))

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.agent, cfgErr.Agent)
		})
	}
}

func TestInstanceValidate_SharedGoalAllowed(t *testing.T) {
	grid, err := NewGrid(3, 3, nil)
	require.NoError(t, err)

	inst := NewInstance(grid,
		Agent{ID: "a", Start: Cell{0, 0}, Goal: Cell{2, 2}},
		Agent{ID: "b", Start: Cell{0, 2}, Goal: Cell{2, 2}},
	)
	assert.NoError(t, inst.Validate())
}
