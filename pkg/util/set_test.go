package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/flowchart/pkg/util"
)

func TestEmptySet(t *testing.T) {
	s := util.Set[string]{}
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Len())
}

func TestSetOf(t *testing.T) {
	s := util.SetOf("a", "b", "a", "c", "b")
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains("a"))
	assert.True(t, s.Contains("b"))
	assert.True(t, s.Contains("c"))
}

func TestSetAddRemove(t *testing.T) {
	s := util.Set[int]{}
	s.Add(1)
	s.Add(2)
	s.Add(1)
	assert.Equal(t, 2, s.Len())

	s.Remove(1)
	assert.False(t, s.Contains(1))
	assert.True(t, s.Contains(2))

	s.Remove(42)
	assert.Equal(t, 1, s.Len())
}

func TestSorted(t *testing.T) {
	s := util.SetOf(5, 3, 9, 1)
	assert.Equal(t, []int{1, 3, 5, 9}, util.Sorted(s))
	assert.Empty(t, util.Sorted(util.Set[int]{}))
}
