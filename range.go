package geotree

import "github.com/geotoolbox/geotree/geom"

// overlapsNode reports whether node idx exists and its box overlaps r.
func (t *Tree[K, T]) overlapsNode(idx int, r geom.Rect) bool {
	return idx >= 0 && t.nodes[idx].box.Intersects(r)
}

func (t *Tree[K, T]) firstChildOverlap(idx int, r geom.Rect) int {
	n := &t.nodes[idx]
	if t.overlapsNode(n.low, r) {
		return n.low
	}
	if t.overlapsNode(n.middle, r) {
		return n.middle
	}
	if t.overlapsNode(n.high, r) {
		return n.high
	}
	return nilIdx
}

func (t *Tree[K, T]) nextSiblingOverlap(idx int, r geom.Rect) int {
	p := t.nodes[idx].parent
	if p < 0 {
		return nilIdx
	}
	pn := &t.nodes[p]
	if idx == pn.low && t.overlapsNode(pn.middle, r) {
		return pn.middle
	}
	if idx != pn.high && t.overlapsNode(pn.high, r) {
		return pn.high
	}
	return nilIdx
}

// RangeIter is a lazy, single-pass, forward-only window query. It extends
// the stackless node walk of NodeIter with subtree pruning (a child is
// entered only if its box overlaps the query box) and a per-element overlap
// filter (a node's box is a superset bound, so every yielded element is
// tested individually).
type RangeIter[K Key, T any] struct {
	t     *Tree[K, T]
	query geom.Rect
	root  int
	node  int
	elem  int
	down  bool
}

// RangeQuery returns an iterator over all elements whose key overlaps
// query, positioned at the first match, borders inclusive.
func (t *Tree[K, T]) RangeQuery(query geom.Rect) RangeIter[K, T] {
	return t.RangeQueryFrom(t.Root(), query)
}

// RangeQueryFrom starts the query at an arbitrary node, restricting the
// results to that node's subtree.
func (t *Tree[K, T]) RangeQueryFrom(start NodeIter[K, T], query geom.Rect) RangeIter[K, T] {
	it := RangeIter[K, T]{t: t, query: query, root: start.idx, node: start.idx, elem: nilIdx, down: true}
	if it.node >= 0 {
		it.elem = t.nodes[it.node].begin
		it.seek()
	}
	return it
}

// Valid reports whether the iterator references an element. Once false the
// query is exhausted; a RangeIter cannot be restarted.
func (it RangeIter[K, T]) Valid() bool {
	return it.node >= 0
}

// Index returns the current element's index into Elements.
func (it RangeIter[K, T]) Index() int {
	return it.elem
}

// Item returns the current element.
func (it RangeIter[K, T]) Item() T {
	return it.t.elems[it.elem]
}

// Next advances to the next matching element, reporting whether one exists.
func (it *RangeIter[K, T]) Next() bool {
	it.elem++
	it.seek()
	return it.node >= 0
}

// Equal reports whether two iterators reference the same position. Invalid
// iterators compare equal regardless of the element field.
func (it RangeIter[K, T]) Equal(other RangeIter[K, T]) bool {
	if it.t != other.t || it.node != other.node {
		return false
	}
	return it.node < 0 || it.elem == other.elem
}

// seek scans forward from the current position to the next element whose
// key overlaps the query, pruning non-overlapping subtrees while walking.
func (it *RangeIter[K, T]) seek() {
	for {
		for ; it.elem < it.t.nodes[it.node].end; it.elem++ {
			if it.t.keyBounds(it.elem).Intersects(it.query) {
				return
			}
		}
		for {
			if it.down {
				if c := it.t.firstChildOverlap(it.node, it.query); c >= 0 {
					it.node = c
					break
				}
			}
			if it.node == it.root {
				// Siblings of the start node are outside the queried subtree.
				it.node = nilIdx
				return
			}
			if s := it.t.nextSiblingOverlap(it.node, it.query); s >= 0 {
				it.node = s
				it.down = true
				break
			}
			it.node = it.t.nodes[it.node].parent
			it.down = false
			if it.node < 0 {
				return
			}
		}
		it.elem = it.t.nodes[it.node].begin
	}
}

// Search calls iter for every element whose key overlaps query, stopping
// early if iter returns false. It reports whether the scan ran to
// completion.
func (t *Tree[K, T]) Search(query geom.Rect, iter func(index int, elem T) bool) bool {
	for it := t.RangeQuery(query); it.Valid(); it.Next() {
		if !iter(it.Index(), it.Item()) {
			return false
		}
	}
	return true
}
