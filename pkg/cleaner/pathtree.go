package cleaner

import (
	"math"

	"plotopt/pkg/geometry"

	"github.com/asim/quadtree"
)

// pathTree indexes stroke endpoints for nearest-neighbour lookups. Each
// quadtree point carries the set of strokes that start or end there.
type pathTree struct {
	quadTree *quadtree.QuadTree
	bounds   geometry.Rectangle
	paths    []geometry.Polyline
	lengths  []float64

	// byLocation lets coincident endpoints share one quadtree point.
	byLocation map[geometry.Point]*quadtree.Point
	// overflow holds strokes whose endpoints the quadtree refused.
	overflow map[int]struct{}
}

func newPathTree(paths []geometry.Polyline) *pathTree {
	b := geometry.Bounds(paths)

	// Add a small margin to avoid dropping objects at the edges
	b.Min = b.Min.Add(geometry.Point{X: -10, Y: -10})
	b.Max = b.Max.Add(geometry.Point{X: 10, Y: 10})

	lengths := make([]float64, len(paths))
	for i, path := range paths {
		lengths[i] = path.Length()
	}

	center := b.Center()
	aabb := quadtree.NewAABB(
		quadtree.NewPoint(center.X, center.Y, nil),
		quadtree.NewPoint((b.Max.X-b.Min.X)/2, (b.Max.Y-b.Min.Y)/2, nil))
	return &pathTree{
		quadTree:   quadtree.New(aabb, 0, nil),
		bounds:     b,
		paths:      paths,
		lengths:    lengths,
		byLocation: map[geometry.Point]*quadtree.Point{},
		overflow:   map[int]struct{}{},
	}
}

func (t *pathTree) addPath(index int) {
	path := t.paths[index]
	if len(path) == 0 {
		return
	}

	addOne := func(p geometry.Point) {
		if point, found := t.byLocation[p]; found {
			// Add the path to the existing set
			point.Data().(map[int]struct{})[index] = struct{}{}
			return
		}
		point := quadtree.NewPoint(p.X, p.Y, map[int]struct{}{index: {}})
		if !t.quadTree.Insert(point) {
			t.overflow[index] = struct{}{}
			return
		}
		t.byLocation[p] = point
	}

	addOne(path.Start())
	addOne(path.End())
}

func (t *pathTree) removePath(index int) {
	path := t.paths[index]
	delete(t.overflow, index)

	removeOne := func(p geometry.Point) {
		point, found := t.byLocation[p]
		if !found {
			return
		}
		paths := point.Data().(map[int]struct{})
		delete(paths, index)
		if len(paths) == 0 {
			t.quadTree.Remove(point)
			delete(t.byLocation, p)
		}
	}
	removeOne(path.Start())
	removeOne(path.End())
}

// findNearest returns the stroke that scores lowest from p, where the score
// is the distance to its nearer endpoint plus penalty times its length.
// Ties go to the lower index so the ordering is deterministic.
func (t *pathTree) findNearest(p geometry.Point, penalty float64) (int, bool) {
	reach := math.Max(
		math.Max(math.Abs(p.X-t.bounds.Min.X), math.Abs(p.X-t.bounds.Max.X)),
		math.Max(math.Abs(p.Y-t.bounds.Min.Y), math.Abs(p.Y-t.bounds.Max.Y)))

	// Grow a search box around p until the best score inside it is no more
	// than the box's half width. A stroke outside the box has both endpoints
	// farther than that, and a score no lower than its distance.
	half := math.Max(reach/64, 1)
	for {
		best, bestScore := -1, math.Inf(1)
		consider := func(index int) {
			score := t.paths[index].EndpointDistance(p) + penalty*t.lengths[index]
			if score < bestScore || (score == bestScore && index < best) {
				best, bestScore = index, score
			}
		}

		for index := range t.overflow {
			consider(index)
		}
		points := t.quadTree.Search(quadtree.NewAABB(
			quadtree.NewPoint(p.X, p.Y, nil),
			quadtree.NewPoint(half, half, nil)))
		for _, point := range points {
			for index := range point.Data().(map[int]struct{}) {
				consider(index)
			}
		}

		// Once the box covers the whole tree every point is a candidate.
		if (best >= 0 && bestScore <= half) || half > reach {
			return best, best >= 0
		}
		if best >= 0 {
			half = bestScore * (1 + 1e-9)
		} else {
			half *= 2
		}
	}
}
