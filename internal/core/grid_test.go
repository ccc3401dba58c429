package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrid_Errors(t *testing.T) {
	_, err := NewGrid(0, 5, nil)
	require.ErrorIs(t, err, ErrEmptyGrid)

	_, err = NewGrid(5, -1, nil)
	require.ErrorIs(t, err, ErrEmptyGrid)

	_, err = NewGrid(3, 3, []Cell{{3, 0}})
	require.ErrorIs(t, err, ErrCellOutOfBounds)
}

func TestNewGrid_CopiesInput(t *testing.T) {
	blocked := []Cell{{1, 1}}
	g, err := NewGrid(3, 3, blocked)
	require.NoError(t, err)

	blocked[0] = Cell{0, 0}
	assert.False(t, g.IsFree(Cell{1, 1}))
	assert.True(t, g.IsFree(Cell{0, 0}))
}

func TestDefaultGrid(t *testing.T) {
	g := DefaultGrid()
	assert.Equal(t, 10, g.Rows())
	assert.Equal(t, 10, g.Cols())
	assert.Equal(t, 100, g.Size())
	assert.Equal(t, []Cell{{2, 4}, {3, 4}}, g.Blocked())
	assert.Len(t, g.FreeCells(), 98)
}

func TestGrid_InBoundsAndFree(t *testing.T) {
	g, err := NewGrid(2, 3, []Cell{{0, 1}})
	require.NoError(t, err)

	tests := []struct {
		cell     Cell
		inBounds bool
		free     bool
	}{
		{Cell{0, 0}, true, true},
		{Cell{0, 1}, true, false},
		{Cell{1, 2}, true, true},
		{Cell{2, 0}, false, false},
		{Cell{0, 3}, false, false},
		{Cell{-1, 0}, false, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.inBounds, g.InBounds(tt.cell), "InBounds(%v)", tt.cell)
		assert.Equal(t, tt.free, g.IsFree(tt.cell), "IsFree(%v)", tt.cell)
	}
}

func TestGrid_Neighbors(t *testing.T) {
	g, err := NewGrid(3, 3, []Cell{{1, 2}})
	require.NoError(t, err)

	// Center: up, down, left; right is blocked.
	assert.Equal(t, []Cell{{0, 1}, {2, 1}, {1, 0}}, g.Neighbors(Cell{1, 1}))

	// Corner only has two in-bounds neighbors.
	assert.Equal(t, []Cell{{1, 0}, {0, 1}}, g.Neighbors(Cell{0, 0}))

	isolated, err := NewGrid(2, 2, []Cell{{0, 1}, {1, 0}})
	require.NoError(t, err)
	assert.Empty(t, isolated.Neighbors(Cell{0, 0}))
}
