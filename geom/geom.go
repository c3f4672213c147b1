// Package geom provides the 2D primitives consumed by the geotree index:
// points, axis-aligned rectangles, and the overlap/distance predicates the
// tree needs for pruning.
package geom

import "math"

// Dims is the number of axes. The index and all tools assume planar data.
const Dims = 2

// Point is a 2D coordinate, indexable by axis.
type Point [Dims]float64

// P constructs a point.
func P(x, y float64) Point {
	return Point{x, y}
}

// Rect is an axis-aligned rectangle. The zero Rect is the rect at the origin;
// an empty rect (see Empty) uses NaN coordinates as a sentinel.
type Rect struct {
	Min, Max Point
}

// R constructs a rect from min/max coordinates.
func R(minX, minY, maxX, maxY float64) Rect {
	return Rect{Point{minX, minY}, Point{maxX, maxY}}
}

// PointRect returns the degenerate rect covering a single point.
func PointRect(p Point) Rect {
	return Rect{p, p}
}

// Empty returns the empty rect sentinel. Expanding it with a point or rect
// yields the bound of what was added.
func Empty() Rect {
	nan := math.NaN()
	return Rect{Point{nan, nan}, Point{nan, nan}}
}

// IsEmpty reports whether r is the empty sentinel.
func (r Rect) IsEmpty() bool {
	return r.Min[0] != r.Min[0]
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{(r.Min[0] + r.Max[0]) / 2, (r.Min[1] + r.Max[1]) / 2}
}

// Size returns the extent of r along one axis.
func (r Rect) Size(axis int) float64 {
	return r.Max[axis] - r.Min[axis]
}

// Sizes returns the extents of r on all axes.
func (r Rect) Sizes() Point {
	return Point{r.Max[0] - r.Min[0], r.Max[1] - r.Min[1]}
}

// Expand grows r to include the point p. r may be empty, p may not be NaN.
// The comparisons are written to replace NaN bounds rather than keep them.
func (r Rect) Expand(p Point) Rect {
	for i := 0; i < Dims; i++ {
		if !(r.Min[i] <= p[i]) {
			r.Min[i] = p[i]
		}
		if !(r.Max[i] >= p[i]) {
			r.Max[i] = p[i]
		}
	}
	return r
}

// Union grows r to include the rect o. Either may be empty.
func (r Rect) Union(o Rect) Rect {
	if o.IsEmpty() {
		return r
	}
	return r.Expand(o.Min).Expand(o.Max)
}

// Intersects reports whether r and o share any point, borders included.
func (r Rect) Intersects(o Rect) bool {
	for i := 0; i < Dims; i++ {
		if r.Max[i] < o.Min[i] || r.Min[i] > o.Max[i] {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p lies inside r, borders included.
func (r Rect) ContainsPoint(p Point) bool {
	for i := 0; i < Dims; i++ {
		if p[i] < r.Min[i] || p[i] > r.Max[i] {
			return false
		}
	}
	return true
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return r.ContainsPoint(o.Min) && r.ContainsPoint(o.Max)
}

// Intersect returns the overlapping region of r and o, or the empty rect when
// they do not touch.
func (r Rect) Intersect(o Rect) Rect {
	for i := 0; i < Dims; i++ {
		if r.Min[i] > o.Max[i] || r.Max[i] < o.Min[i] {
			return Empty()
		}
		if r.Min[i] < o.Min[i] {
			r.Min[i] = o.Min[i]
		}
		if r.Max[i] > o.Max[i] {
			r.Max[i] = o.Max[i]
		}
	}
	return r
}

// ClosestPoint returns the point inside r nearest to p.
func (r Rect) ClosestPoint(p Point) Point {
	for i := 0; i < Dims; i++ {
		if p[i] < r.Min[i] {
			p[i] = r.Min[i]
		} else if p[i] > r.Max[i] {
			p[i] = r.Max[i]
		}
	}
	return p
}

// DistSquaredToPoint returns the squared distance from p to the nearest point
// of r, zero when p is inside.
func (r Rect) DistSquaredToPoint(p Point) float64 {
	return DistSquared(p, r.ClosestPoint(p))
}

// DistSquared returns the squared euclidean distance between two points.
func DistSquared(a, b Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}

// Dist returns the euclidean distance between two points.
func Dist(a, b Point) float64 {
	return math.Sqrt(DistSquared(a, b))
}
