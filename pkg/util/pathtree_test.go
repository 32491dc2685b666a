package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/flowchart/pkg/util"
)

func TestPathTreeGet(t *testing.T) {
	tree := util.NewPathTree[int]()
	tree.Insert(util.SplitPath("stage.q1.value"), 1)
	tree.Insert(util.SplitPath("stage.q2"), 2)

	v, ok := tree.Get(util.SplitPath("stage.q1.value"))
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = tree.Get(util.SplitPath("stage.q1"))
	assert.False(t, ok)

	_, ok = tree.Get(util.SplitPath("session.visits"))
	assert.False(t, ok)
}

func TestPathTreeLongest(t *testing.T) {
	tree := util.NewPathTree[string]()
	tree.Insert([]string{"stage", "q1"}, "mcq")
	tree.Insert([]string{"variables"}, "vars")

	v, depth, ok := tree.Longest(util.SplitPath("stage.q1.selectedChoice"))
	assert.True(t, ok)
	assert.Equal(t, "mcq", v)
	assert.Equal(t, 2, depth)

	v, depth, ok = tree.Longest(util.SplitPath("variables.score"))
	assert.True(t, ok)
	assert.Equal(t, "vars", v)
	assert.Equal(t, 1, depth)

	_, _, ok = tree.Longest(util.SplitPath("stage.q9.value"))
	assert.False(t, ok)
}

func TestPathTreeRootValue(t *testing.T) {
	tree := util.NewPathTree[int]()
	tree.Insert(nil, 7)

	v, depth, ok := tree.Longest([]string{"anything"})
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, 0, depth)
}

func TestPathTreeChildren(t *testing.T) {
	tree := util.NewPathTree[bool]()
	tree.Insert([]string{"stage", "a", "value"}, true)
	tree.Insert([]string{"stage", "b", "text"}, true)

	assert.ElementsMatch(t, []string{"a", "b"},
		tree.Children([]string{"stage"}))
	assert.Nil(t, tree.Children([]string{"session"}))
}

func TestSplitPath(t *testing.T) {
	assert.Nil(t, util.SplitPath(""))
	assert.Equal(t, []string{"a", "b"}, util.SplitPath("a.b"))
}
