package geotree

import "github.com/geotoolbox/geotree/geom"

// build splits nodes top-down from the root until every node is within
// capacity or no further split is possible. The work list order only affects
// memory layout, not the resulting structure.
func (t *Tree[K, T]) build() {
	queue := make([]int, 0, 16)
	queue = append(queue, 0)
	for len(queue) > 0 {
		idx := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		t.splitNode(idx)
		n := &t.nodes[idx]
		if n.low >= 0 {
			queue = append(queue, n.low)
		}
		if n.middle >= 0 {
			queue = append(queue, n.middle)
		}
		if n.high >= 0 {
			queue = append(queue, n.high)
		}
	}
}

// splitNode attempts to split one node at the midpoint of its widest
// unlocked axis. Nodes within capacity, nodes with all axes locked, and box
// splits where too many elements straddle the plane are left as leaves.
func (t *Tree[K, T]) splitNode(nodeIndex int) {
	n := t.nodes[nodeIndex]
	count := n.count()
	if count <= t.maxElems {
		return
	}

	sizes := n.box.Sizes()
	maxSize := 0.0
	splitAxis := -1
	for axis := 0; axis < geom.Dims; axis++ {
		if sizes[axis] > maxSize && !n.axisLocked(axis) {
			maxSize = sizes[axis]
			splitAxis = axis
		}
	}
	if splitAxis < 0 {
		return
	}
	splitPos := n.box.Min[splitAxis] + maxSize/2

	var lowCount, highCount int
	if t.boxKeys {
		lowCount, highCount = t.partitionBoxes(n.begin, n.end, splitAxis, splitPos)
		if lowCount+highCount < (count+3)/4 {
			// Nearly everything straddles the plane; the split is not
			// worth a node level.
			return
		}
	} else {
		lowCount = t.partitionPoints(n.begin, n.end, splitAxis, splitPos)
		highCount = count - lowCount
	}

	n.splitAxis = int8(splitAxis)
	n.splitPos = splitPos
	if lowCount > 0 {
		box := n.box
		t.reduceBoxRight(&box, n.begin, lowCount, splitAxis)
		n.low = len(t.nodes)
		t.nodes = append(t.nodes, newNode(nodeIndex, n.begin, n.begin+lowCount, box))
	}
	if highCount > 0 {
		box := n.box
		t.reduceBoxLeft(&box, n.end-highCount, highCount, splitAxis)
		n.high = len(t.nodes)
		t.nodes = append(t.nodes, newNode(nodeIndex, n.end-highCount, n.end, box))
	}

	if t.boxKeys {
		middleCount := count - lowCount - highCount
		if middleCount > 0 && middleCount <= t.maxElems {
			// The straddlers fit in the node itself; it becomes a hybrid
			// holding a range alongside its children.
			n.begin += lowCount
			n.end -= highCount
		} else {
			if middleCount > 0 {
				box := n.box
				t.reduceBoxLeft(&box, n.begin+lowCount, middleCount, splitAxis)
				t.reduceBoxRight(&box, n.begin+lowCount, middleCount, splitAxis)
				mid := newNode(nodeIndex, n.begin+lowCount, n.end-highCount, box)
				// Splitting the straddlers on this axis again cannot
				// separate them.
				mid.lockedAxes = n.lockedAxes | 1<<uint(splitAxis)
				n.middle = len(t.nodes)
				t.nodes = append(t.nodes, mid)
			}
			n.begin, n.end = nilIdx, nilIdx
		}
	} else {
		n.begin, n.end = nilIdx, nilIdx
	}
	t.nodes[nodeIndex] = n
}

// reduceBoxLeft tightens box's low bound on axis to the true minimum over
// the element range [start, start+count).
func (t *Tree[K, T]) reduceBoxLeft(box *geom.Rect, start, count, axis int) {
	limit := box.Max[axis]
	for i := start; i < start+count; i++ {
		if v := t.keyBounds(i).Min[axis]; v < limit {
			limit = v
		}
	}
	box.Min[axis] = limit
}

// reduceBoxRight tightens box's high bound on axis to the true maximum over
// the element range [start, start+count).
func (t *Tree[K, T]) reduceBoxRight(box *geom.Rect, start, count, axis int) {
	limit := box.Min[axis]
	for i := start; i < start+count; i++ {
		if v := t.keyBounds(i).Max[axis]; v > limit {
			limit = v
		}
	}
	box.Max[axis] = limit
}

// partitionPoints performs an unstable two-pointer partition of
// [begin, end): elements strictly below pos on axis end up before the
// returned count, the rest after it.
func (t *Tree[K, T]) partitionPoints(begin, end, axis int, pos float64) int {
	currentLow := begin
	currentHigh := end - 1
	for {
		for ; currentLow <= currentHigh; currentLow++ {
			if t.keyBounds(currentLow).Min[axis] >= pos {
				break
			}
		}
		for ; currentLow <= currentHigh; currentHigh-- {
			if t.keyBounds(currentHigh).Min[axis] < pos {
				break
			}
		}
		if currentLow > currentHigh {
			return currentLow - begin
		}
		t.swap(currentLow, currentHigh)
		currentLow++
		currentHigh--
	}
}

// partitionBoxes packs [begin, end) into three contiguous zones: boxes
// entirely below pos on axis, boxes straddling it, and boxes entirely at or
// above it. Four cursors scan inward from both ends: confirmed low elements
// are swapped before lowEnd, confirmed high elements after highEnd, and the
// one or two elements left unclassified when the scans meet are resolved
// with case-specific swaps. Single O(n) pass, O(1) extra space. Returns the
// low and high counts; the middle count is the remainder.
func (t *Tree[K, T]) partitionBoxes(begin, end, axis int, pos float64) (int, int) {
	currentLow, lowEnd := begin, begin
	currentHigh, highEnd := end-1, end-1
	for {
		for ; currentLow <= currentHigh; currentLow++ {
			b := t.keyBounds(currentLow)
			if b.Min[axis] >= pos {
				break
			}
			if b.Max[axis] < pos {
				if lowEnd < currentLow {
					t.swap(lowEnd, currentLow)
				}
				lowEnd++
			}
		}
		// Here either the element at currentLow is high, or the cursors
		// have crossed.
		for ; currentLow < currentHigh; currentHigh-- {
			b := t.keyBounds(currentHigh)
			if b.Max[axis] < pos {
				break
			}
			if b.Min[axis] >= pos {
				if currentHigh < highEnd {
					t.swap(currentHigh, highEnd)
				}
				highEnd--
			}
		}
		if currentLow < currentHigh {
			// High element at currentLow, low element at currentHigh.
			// The swaps depend on whether middle runs have formed on
			// either side.
			if lowEnd < currentLow {
				if currentHigh < highEnd {
					t.swap(lowEnd, currentHigh)
					t.swap(currentLow, highEnd)
				} else {
					t.swap(lowEnd, currentLow)
					t.swap(lowEnd, highEnd)
				}
			} else {
				if currentHigh < highEnd {
					t.swap(currentHigh, highEnd)
					t.swap(lowEnd, highEnd)
				} else {
					t.swap(currentLow, currentHigh)
				}
			}
			lowEnd++
			currentLow++
			highEnd--
			currentHigh--
		} else {
			if currentLow == currentHigh {
				// A lone high element sits at the crossing point; move it
				// past the right-side middle run so the zones stay
				// contiguous.
				if currentHigh < highEnd {
					t.swap(currentLow, highEnd)
				}
				highEnd--
			}
			return lowEnd - begin, end - 1 - highEnd
		}
	}
}
