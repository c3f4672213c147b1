package geotree

import (
	"math"
	"sort"

	"github.com/geotoolbox/geotree/geom"
)

// Candidate is one nearest-neighbor result: the element's index into
// Elements and its squared distance from the target.
type Candidate struct {
	Index  int
	DistSq float64
}

// Nearest returns up to count elements nearest to target, ordered by
// ascending squared distance. count <= 0 removes the count cap, in which
// case maxDist must be positive; maxDist > 0 restricts results to that
// radius. Ties are kept in the order the traversal finds them, which is not
// stable across rebuilds. Passing count <= 0 together with maxDist <= 0 is a
// programmer error.
//
// The walk visits the middle child first where present (it cannot be pruned
// by its own node's split plane), then the child on the target's side of the
// plane; the far side is entered only while the squared distance to the
// plane is below the current worst retained distance.
func (t *Tree[K, T]) Nearest(target geom.Point, count int, maxDist float64) []Candidate {
	if count <= 0 && maxDist <= 0 {
		panic("geotree: Nearest requires a positive count or a positive max distance")
	}

	var result []Candidate
	if count > 0 {
		result = make([]Candidate, 0, count)
	}
	worst := math.MaxFloat64
	if maxDist > 0 {
		worst = maxDist * maxDist
	}

	nodeIdx := nilIdx
	if len(t.nodes) > 0 {
		nodeIdx = 0
	}
	down := true
	for nodeIdx >= 0 {
		n := &t.nodes[nodeIdx]
		for ei := n.begin; ei < n.end; ei++ {
			d := t.keyBounds(ei).DistSquaredToPoint(target)
			if d > worst {
				continue
			}
			if count > 0 && len(result) == count {
				result = result[:count-1]
			}
			pos := sort.Search(len(result), func(i int) bool {
				return result[i].DistSq >= d
			})
			result = append(result, Candidate{})
			copy(result[pos+1:], result[pos:])
			result[pos] = Candidate{Index: ei, DistSq: d}
			if count > 0 && len(result) == count {
				worst = result[len(result)-1].DistSq
			}
		}
		for {
			if down {
				if c := t.firstChildNear(nodeIdx, target, worst); c >= 0 {
					nodeIdx = c
					break
				}
			}
			if s := t.nextSiblingNear(nodeIdx, target, worst); s >= 0 {
				nodeIdx = s
				down = true
				break
			}
			nodeIdx = t.nodes[nodeIdx].parent
			if nodeIdx < 0 {
				break
			}
			down = false
		}
	}
	return result
}

// lowOrHighNear picks the child on the target's side of n's split plane,
// falling back to the far child only when the plane is closer than worst.
func (t *Tree[K, T]) lowOrHighNear(n *node, target geom.Point, worst float64) int {
	axis := int(n.splitAxis)
	if target[axis] < n.splitPos {
		if n.low >= 0 {
			return n.low
		}
		if n.high >= 0 && sq(n.splitPos-target[axis]) < worst {
			return n.high
		}
		return nilIdx
	}
	if n.high >= 0 {
		return n.high
	}
	if n.low >= 0 && sq(target[axis]-n.splitPos) < worst {
		return n.low
	}
	return nilIdx
}

func (t *Tree[K, T]) firstChildNear(idx int, target geom.Point, worst float64) int {
	n := &t.nodes[idx]
	if n.splitAxis < 0 {
		return nilIdx
	}
	if n.middle >= 0 {
		return n.middle
	}
	return t.lowOrHighNear(n, target, worst)
}

func (t *Tree[K, T]) nextSiblingNear(idx int, target geom.Point, worst float64) int {
	p := t.nodes[idx].parent
	if p < 0 {
		return nilIdx
	}
	pn := &t.nodes[p]
	if idx == pn.middle {
		return t.lowOrHighNear(pn, target, worst)
	}
	axis := int(pn.splitAxis)
	if idx == pn.low {
		if target[axis] >= pn.splitPos {
			return nilIdx
		}
		if pn.high >= 0 && sq(pn.splitPos-target[axis]) < worst {
			return pn.high
		}
		return nilIdx
	}
	if target[axis] < pn.splitPos {
		return nilIdx
	}
	if pn.low >= 0 && sq(target[axis]-pn.splitPos) < worst {
		return pn.low
	}
	return nilIdx
}

func sq(v float64) float64 {
	return v * v
}
