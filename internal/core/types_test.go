package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManhattan(t *testing.T) {
	tests := []struct {
		a, b Cell
		want int
	}{
		{Cell{0, 0}, Cell{0, 0}, 0},
		{Cell{0, 0}, Cell{4, 4}, 8},
		{Cell{3, 1}, Cell{1, 3}, 4},
		{Cell{9, 9}, Cell{0, 0}, 18},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Manhattan(tt.a, tt.b), "Manhattan(%v, %v)", tt.a, tt.b)
		assert.Equal(t, tt.want, Manhattan(tt.b, tt.a), "Manhattan is symmetric")
	}
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "(2,4)", Cell{Row: 2, Col: 4}.String())
}

func TestAgentDistance(t *testing.T) {
	a := Agent{ID: "a", Start: Cell{1, 1}, Goal: Cell{8, 3}}
	assert.Equal(t, 9, a.Distance())
}
