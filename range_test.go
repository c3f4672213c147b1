package geotree

import (
	"math/rand"
	"testing"

	"github.com/geotoolbox/geotree/geom"
)

func TestRangeQueryBoxes(t *testing.T) {
	elems := []geom.Rect{
		geom.R(0, 0, 1, 1),
		geom.R(1, 0, 2, 1),
		geom.R(0, 1, 1, 2),
		geom.R(2, 2, 3, 3),
	}
	tr := Build(elems, boxKey, 2)

	var got []geom.Rect
	tr.Search(geom.R(0, 0, 1.5, 1.5), func(_ int, r geom.Rect) bool {
		got = append(got, r)
		return true
	})
	expect(t, len(got) == 3)
	for _, r := range got {
		expect(t, r != geom.R(2, 2, 3, 3))
	}

	got = got[:0]
	tr.Search(geom.R(2, 2, 3, 3), func(_ int, r geom.Rect) bool {
		got = append(got, r)
		return true
	})
	expect(t, len(got) == 1)
	expect(t, got[0] == geom.R(2, 2, 3, 3))
}

func TestRangeQueryBordersInclusive(t *testing.T) {
	tr := Build([]geom.Point{geom.P(1, 1)}, pointKey, 8)
	// A query box corner touching the point exactly still matches.
	count := 0
	tr.Search(geom.R(0, 0, 1, 1), func(int, geom.Point) bool {
		count++
		return true
	})
	expect(t, count == 1)
	count = 0
	tr.Search(geom.R(1, 1, 2, 2), func(int, geom.Point) bool {
		count++
		return true
	})
	expect(t, count == 1)
	count = 0
	tr.Search(geom.R(2, 2, 3, 3), func(int, geom.Point) bool {
		count++
		return true
	})
	expect(t, count == 0)
}

func TestRangeQueryMatchesScanPoints(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	pts := randPoints(rng, 2000, 10)
	tr := Build(append([]geom.Point(nil), pts...), pointKey, 16)
	for trial := 0; trial < 100; trial++ {
		q := randBoxes(rng, 1, 10, 5)[0]
		want := map[geom.Point]int{}
		for _, p := range pts {
			if q.ContainsPoint(p) {
				want[p]++
			}
		}
		got := map[geom.Point]int{}
		for it := tr.RangeQuery(q); it.Valid(); it.Next() {
			expect(t, it.Item() == tr.Elements()[it.Index()])
			got[it.Item()]++
		}
		expect(t, len(got) == len(want))
		for k, v := range want {
			expect(t, got[k] == v)
		}
	}
}

func TestRangeQueryMatchesScanBoxes(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	boxes := randBoxes(rng, 2000, 10, 0.5)
	tr := Build(append([]geom.Rect(nil), boxes...), boxKey, 16)
	for trial := 0; trial < 100; trial++ {
		q := randBoxes(rng, 1, 10, 5)[0]
		want := 0
		for _, b := range boxes {
			if q.Intersects(b) {
				want++
			}
		}
		got := 0
		for it := tr.RangeQuery(q); it.Valid(); it.Next() {
			expect(t, q.Intersects(keyRect(it.Item())))
			got++
		}
		expect(t, got == want)
	}
}

func TestRangeQueryFromSubtree(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	boxes := randBoxes(rng, 500, 10, 0.5)
	tr := Build(boxes, boxKey, 8)
	root := tr.Root()
	expect(t, root.Valid() && !root.Info().IsLeaf())
	low := root.LowChild()
	expect(t, low.Valid())
	all := geom.R(-100, -100, 100, 100)

	// Querying from a child yields exactly the elements of that subtree.
	want := map[int]bool{}
	for i := 0; i < tr.NumNodes(); i++ {
		if !subtreeOf(tr, i, low.Index()) {
			continue
		}
		info := tr.Node(i)
		for e := info.Begin; e >= 0 && e < info.End; e++ {
			want[e] = true
		}
	}
	got := map[int]bool{}
	for it := tr.RangeQueryFrom(low, all); it.Valid(); it.Next() {
		got[it.Index()] = true
	}
	expect(t, len(got) == len(want))
	for e := range want {
		expect(t, got[e])
	}
}

func subtreeOf[K Key, T any](tr *Tree[K, T], idx, root int) bool {
	for ; idx >= 0; idx = tr.Node(idx).Parent {
		if idx == root {
			return true
		}
	}
	return false
}

func TestRangeIterEqual(t *testing.T) {
	tr := Build([]geom.Point{geom.P(0, 0), geom.P(1, 1)}, pointKey, 8)
	q := geom.R(-1, -1, 2, 2)
	a := tr.RangeQuery(q)
	b := tr.RangeQuery(q)
	expect(t, a.Equal(b))
	b.Next()
	expect(t, !a.Equal(b))
	a.Next()
	expect(t, a.Equal(b))
	a.Next()
	b.Next()
	// Exhausted iterators compare equal.
	expect(t, !a.Valid() && a.Equal(b))
}

func TestRepeatedQueriesIdentical(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	tr := Build(randBoxes(rng, 500, 10, 0.5), boxKey, 8)
	q := geom.R(2, 2, 7, 7)
	collect := func() []int {
		var idx []int
		for it := tr.RangeQuery(q); it.Valid(); it.Next() {
			idx = append(idx, it.Index())
		}
		return idx
	}
	first, second := collect(), collect()
	expect(t, len(first) > 0 && len(first) == len(second))
	for i := range first {
		expect(t, first[i] == second[i])
	}
	na := tr.Nearest(geom.P(5, 5), 10, 0)
	nb := tr.Nearest(geom.P(5, 5), 10, 0)
	expect(t, len(na) == len(nb))
	for i := range na {
		expect(t, na[i] == nb[i])
	}
}

func TestSearchEarlyStop(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	tr := Build(randPoints(rng, 100, 1), pointKey, 8)
	count := 0
	done := tr.Search(geom.R(-1, -1, 1, 1), func(int, geom.Point) bool {
		count++
		return count < 5
	})
	expect(t, !done)
	expect(t, count == 5)
}

func TestNodeIterPreOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	tr := Build(randBoxes(rng, 1000, 10, 0.5), boxKey, 8)
	visited := make([]bool, tr.NumNodes())
	steps := 0
	for it := tr.Root(); it.Valid(); {
		idx := it.Index()
		expect(t, !visited[idx])
		visited[idx] = true
		// Parents are visited before their children.
		if p := it.Info().Parent; p != nilIdx {
			expect(t, visited[p])
		}
		steps++
		if !it.Next() {
			break
		}
	}
	expect(t, steps == tr.NumNodes())
	for _, v := range visited {
		expect(t, v)
	}
}
