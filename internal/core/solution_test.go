package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSolutionSIC(t *testing.T) {
	sol := Solution{
		"a": {{0, 0}, {0, 1}, {0, 2}},
		"b": {{1, 1}},
	}
	assert.Equal(t, 4, sol.SIC())
	assert.Equal(t, 0, Solution{}.SIC())
}

func TestSolutionAgentIDsSorted(t *testing.T) {
	sol := Solution{"c": nil, "a": nil, "b": nil}
	assert.Equal(t, []AgentID{"a", "b", "c"}, sol.AgentIDs())
}

func TestSolutionClone(t *testing.T) {
	sol := Solution{"a": {{0, 0}}}
	cp := sol.Clone()
	cp["b"] = Path{{1, 1}}

	assert.Len(t, sol, 1)
	assert.Len(t, cp, 2)
}

func TestPathAt(t *testing.T) {
	p := Path{{0, 0}, {0, 1}}

	c, ok := p.At(1)
	assert.True(t, ok)
	assert.Equal(t, Cell{0, 1}, c)

	_, ok = p.At(2)
	assert.False(t, ok, "agents disappear after their last step")

	_, ok = p.At(-1)
	assert.False(t, ok)

	assert.Equal(t, 2, p.Cost())
	assert.Equal(t, "[(0,0) (0,1)]", p.String())
}
