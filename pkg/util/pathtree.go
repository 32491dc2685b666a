package util

import "strings"

type (
	// PathTree indexes values by dotted fact paths such as
	// "stage.question1.value"
	PathTree[T any] struct {
		root *pathTreeNode[T]
	}

	pathTreeNode[T any] struct {
		value    T
		hasValue bool
		children map[string]*pathTreeNode[T]
	}
)

// NewPathTree creates a new hierarchical path index
func NewPathTree[T any]() *PathTree[T] {
	return &PathTree[T]{root: newPathTreeNode[T]()}
}

// SplitPath breaks a dotted fact path into its segments
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Insert stores a value at the exact path
func (t *PathTree[T]) Insert(path []string, v T) {
	cur := t.root
	for _, p := range path {
		next, ok := cur.children[p]
		if !ok {
			next = newPathTreeNode[T]()
			cur.children[p] = next
		}
		cur = next
	}
	cur.value = v
	cur.hasValue = true
}

// Get returns the value stored at the exact path
func (t *PathTree[T]) Get(path []string) (T, bool) {
	cur := t.root
	for _, p := range path {
		next, ok := cur.children[p]
		if !ok {
			var zero T
			return zero, false
		}
		cur = next
	}
	return cur.value, cur.hasValue
}

// Longest returns the value stored at the longest prefix of path that holds
// one, along with the number of segments that matched
func (t *PathTree[T]) Longest(path []string) (T, int, bool) {
	var res T
	depth := -1
	cur := t.root
	if cur.hasValue {
		res, depth = cur.value, 0
	}
	for i, p := range path {
		next, ok := cur.children[p]
		if !ok {
			break
		}
		cur = next
		if cur.hasValue {
			res, depth = cur.value, i+1
		}
	}
	if depth < 0 {
		return res, 0, false
	}
	return res, depth, true
}

// Children returns the segment names directly below path
func (t *PathTree[T]) Children(path []string) []string {
	cur := t.root
	for _, p := range path {
		next, ok := cur.children[p]
		if !ok {
			return nil
		}
		cur = next
	}
	res := make([]string, 0, len(cur.children))
	for k := range cur.children {
		res = append(res, k)
	}
	return res
}

func newPathTreeNode[T any]() *pathTreeNode[T] {
	return &pathTreeNode[T]{children: map[string]*pathTreeNode[T]{}}
}
