// Package geotree implements a static spatial index over points or boxes.
// The tree is bulk-built once from a complete dataset and is immutable
// afterwards: elements are permuted into node order in a single backing
// slice, and nodes live in an index-addressed arena with no pointers.
// Range (window) queries and nearest-neighbor queries never mutate the
// tree, so any number of them may run concurrently once Create returns.
package geotree

import (
	"github.com/geotoolbox/geotree/geom"
	"github.com/tidwall/assert"
)

// DefaultMaxNodeElements is the per-node capacity used when no explicit
// capacity is given to New.
const DefaultMaxNodeElements = 64

// Key is the set of spatial key types the tree can index. A Point key makes
// a plain kd-tree; a Rect key enables the three-way splits that handle boxes
// straddling a split plane.
type Key interface {
	geom.Point | geom.Rect
}

// Tree is a static point or box tree over elements of type T. The zero value
// is not usable; construct with New and populate with Create.
type Tree[K Key, T any] struct {
	keyOf    func(T) K
	elems    []T
	nodes    []node
	maxElems int
	boxKeys  bool
}

// New returns an empty tree that indexes elements by the key extracted with
// keyOf. maxNodeElements is the per-node capacity threshold below which a
// node is kept as a leaf; values <= 0 select DefaultMaxNodeElements.
func New[K Key, T any](keyOf func(T) K, maxNodeElements int) *Tree[K, T] {
	if maxNodeElements <= 0 {
		maxNodeElements = DefaultMaxNodeElements
	}
	return &Tree[K, T]{
		keyOf:    keyOf,
		maxElems: maxNodeElements,
		boxKeys:  isBoxKey[K](),
	}
}

// Build is a convenience constructor: New followed by Create.
func Build[K Key, T any](elems []T, keyOf func(T) K, maxNodeElements int) *Tree[K, T] {
	t := New[K](keyOf, maxNodeElements)
	t.Create(elems)
	return t
}

// Create builds the tree from elems, discarding any prior state. The tree
// takes ownership of the slice and reorders it in place; the caller must not
// modify it afterwards. An empty slice produces an empty tree with no root.
func (t *Tree[K, T]) Create(elems []T) {
	t.elems = elems
	t.nodes = nil
	if len(elems) == 0 {
		return
	}
	t.nodes = make([]node, 0, max(4, len(elems)/t.maxElems/2))
	box := geom.Empty()
	for i := range elems {
		box = box.Union(t.keyBounds(i))
	}
	t.nodes = append(t.nodes, newNode(nilIdx, 0, len(elems), box))
	t.build()
}

// Len returns the number of indexed elements.
func (t *Tree[K, T]) Len() int {
	return len(t.elems)
}

// Empty reports whether the tree holds no elements.
func (t *Tree[K, T]) Empty() bool {
	return len(t.elems) == 0
}

// Elements returns the permuted element slice. The contents must be treated
// as read-only; element indices reported by queries refer to this slice.
func (t *Tree[K, T]) Elements() []T {
	return t.elems
}

// MaxNodeElements returns the per-node capacity the tree was built with.
func (t *Tree[K, T]) MaxNodeElements() int {
	return t.maxElems
}

// NumNodes returns the number of nodes in the node table.
func (t *Tree[K, T]) NumNodes() int {
	return len(t.nodes)
}

// Bounds returns the tight bounding box of all elements, or the empty rect
// for an empty tree.
func (t *Tree[K, T]) Bounds() geom.Rect {
	if len(t.nodes) == 0 {
		return geom.Empty()
	}
	return t.nodes[0].box
}

// Node returns a diagnostic snapshot of the node at index i.
// Indices outside [0, NumNodes) are a programmer error.
func (t *Tree[K, T]) Node(i int) NodeInfo {
	assert.Assert(i >= 0 && i < len(t.nodes))
	n := &t.nodes[i]
	return NodeInfo{
		Parent:      n.parent,
		LowChild:    n.low,
		MiddleChild: n.middle,
		HighChild:   n.high,
		Begin:       n.begin,
		End:         n.end,
		Box:         n.box,
		SplitAxis:   int(n.splitAxis),
		SplitPos:    n.splitPos,
		LockedAxes:  n.lockedAxes,
	}
}

// keyBounds returns the bounding rect of element i's key. For point keys the
// rect is degenerate.
func (t *Tree[K, T]) keyBounds(i int) geom.Rect {
	return keyRect(t.keyOf(t.elems[i]))
}

func (t *Tree[K, T]) swap(i, j int) {
	t.elems[i], t.elems[j] = t.elems[j], t.elems[i]
}

func keyRect[K Key](k K) geom.Rect {
	switch k := any(k).(type) {
	case geom.Point:
		return geom.Rect{Min: k, Max: k}
	case geom.Rect:
		return k
	}
	panic("unreachable")
}

func isBoxKey[K Key]() bool {
	var k K
	_, ok := any(k).(geom.Rect)
	return ok
}
