package geotree

import (
	"github.com/geotoolbox/geotree/geom"
	"github.com/tidwall/assert"
)

// nilIdx marks an absent node or element index.
const nilIdx = -1

// node is one entry of the index-addressed node arena. middle and lockedAxes
// are only ever set when the tree indexes box keys; for point keys they stay
// at their zero/nil values.
type node struct {
	parent     int
	low        int
	middle     int
	high       int
	begin, end int // half-open range into the element slice, or nilIdx/nilIdx
	box        geom.Rect
	splitPos   float64
	splitAxis  int8 // -1 while the node is a leaf
	lockedAxes uint8
}

func newNode(parent, begin, end int, box geom.Rect) node {
	return node{
		parent:    parent,
		low:       nilIdx,
		middle:    nilIdx,
		high:      nilIdx,
		begin:     begin,
		end:       end,
		box:       box,
		splitAxis: -1,
	}
}

func (n *node) count() int {
	return n.end - n.begin
}

func (n *node) axisLocked(axis int) bool {
	return n.lockedAxes&(1<<uint(axis)) != 0
}

// NodeInfo is a read-only snapshot of a node, exposed for diagnostics and
// visualization. Child and parent fields are node indices, -1 when absent.
type NodeInfo struct {
	Parent      int
	LowChild    int
	MiddleChild int
	HighChild   int
	Begin, End  int
	Box         geom.Rect
	SplitAxis   int
	SplitPos    float64
	LockedAxes  uint8
}

// IsLeaf reports whether the node was never split.
func (n NodeInfo) IsLeaf() bool {
	return n.SplitAxis < 0
}

// NumElements returns the number of elements held directly by the node.
func (n NodeInfo) NumElements() int {
	if n.Begin < 0 {
		return 0
	}
	return n.End - n.Begin
}

// firstChild returns the first existing child in the fixed low, middle, high
// order, or nilIdx.
func (t *Tree[K, T]) firstChild(idx int) int {
	n := &t.nodes[idx]
	if n.low >= 0 {
		return n.low
	}
	if n.middle >= 0 {
		return n.middle
	}
	return n.high
}

// nextSibling returns the sibling following idx in its parent's low, middle,
// high order, or nilIdx.
func (t *Tree[K, T]) nextSibling(idx int) int {
	p := t.nodes[idx].parent
	if p < 0 {
		return nilIdx
	}
	pn := &t.nodes[p]
	if idx == pn.low {
		if pn.middle >= 0 {
			return pn.middle
		}
		return pn.high
	}
	if idx == pn.middle {
		return pn.high
	}
	return nilIdx
}

// NodeIter walks the node table in pre-order without an auxiliary stack. The
// state is just the current node index and whether the walk is descending;
// each step is derived from the stored parent/child indices. This is safe
// only because the tree is immutable once built.
type NodeIter[K Key, T any] struct {
	t    *Tree[K, T]
	idx  int
	down bool
}

// Root returns an iterator at the root node, invalid for an empty tree.
func (t *Tree[K, T]) Root() NodeIter[K, T] {
	idx := nilIdx
	if len(t.nodes) > 0 {
		idx = 0
	}
	return NodeIter[K, T]{t: t, idx: idx, down: true}
}

// NodeAt returns an iterator positioned at node index i.
func (t *Tree[K, T]) NodeAt(i int) NodeIter[K, T] {
	assert.Assert(i >= 0 && i < len(t.nodes))
	return NodeIter[K, T]{t: t, idx: i, down: true}
}

// Valid reports whether the iterator references a node. An iterator that has
// climbed past the root is invalid; that is the canonical end state.
func (it NodeIter[K, T]) Valid() bool {
	return it.idx >= 0
}

// Index returns the node index, nilIdx when invalid.
func (it NodeIter[K, T]) Index() int {
	return it.idx
}

// Info returns the current node's snapshot.
func (it NodeIter[K, T]) Info() NodeInfo {
	assert.Assert(it.Valid())
	return it.t.Node(it.idx)
}

// Parent moves to the parent node, invalid at the root.
func (it NodeIter[K, T]) Parent() NodeIter[K, T] {
	return NodeIter[K, T]{t: it.t, idx: it.t.nodes[it.idx].parent, down: true}
}

// LowChild returns an iterator at the low child, invalid when absent.
func (it NodeIter[K, T]) LowChild() NodeIter[K, T] {
	return NodeIter[K, T]{t: it.t, idx: it.t.nodes[it.idx].low, down: true}
}

// MiddleChild returns an iterator at the middle child, invalid when absent.
func (it NodeIter[K, T]) MiddleChild() NodeIter[K, T] {
	return NodeIter[K, T]{t: it.t, idx: it.t.nodes[it.idx].middle, down: true}
}

// HighChild returns an iterator at the high child, invalid when absent.
func (it NodeIter[K, T]) HighChild() NodeIter[K, T] {
	return NodeIter[K, T]{t: it.t, idx: it.t.nodes[it.idx].high, down: true}
}

// Next advances in pre-order: first child while descending, else next
// sibling, else climb and retry the sibling search one level up. Returns
// false once the walk has left the tree.
func (it *NodeIter[K, T]) Next() bool {
	assert.Assert(it.Valid())
	for {
		if it.down {
			if c := it.t.firstChild(it.idx); c >= 0 {
				it.idx = c
				return true
			}
		}
		if s := it.t.nextSibling(it.idx); s >= 0 {
			it.idx = s
			it.down = true
			return true
		}
		it.idx = it.t.nodes[it.idx].parent
		it.down = false
		if it.idx < 0 {
			return false
		}
	}
}
