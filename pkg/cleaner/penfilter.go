package cleaner

import (
	"math"
	"sort"

	"plotopt/pkg/geometry"

	"github.com/asim/quadtree"
)

// segmentTree indexes the line segments of kept strokes by their midpoints.
type segmentTree struct {
	quadTree   *quadtree.QuadTree
	byLocation map[geometry.Point]*quadtree.Point
	overflow   []geometry.LineSegment
	// maxHalf is the longest half-length indexed so far, which widens every
	// query so long segments with a far-away midpoint are still found.
	maxHalf float64
}

func newSegmentTree(b geometry.Rectangle) *segmentTree {
	center := b.Center()
	aabb := quadtree.NewAABB(
		quadtree.NewPoint(center.X, center.Y, nil),
		quadtree.NewPoint((b.Max.X-b.Min.X)/2+10, (b.Max.Y-b.Min.Y)/2+10, nil))
	return &segmentTree{
		quadTree:   quadtree.New(aabb, 0, nil),
		byLocation: map[geometry.Point]*quadtree.Point{},
	}
}

func (t *segmentTree) addPath(path geometry.Polyline) {
	for _, seg := range path.Segments() {
		t.maxHalf = math.Max(t.maxHalf, seg.Length()/2)
		mid := seg.Midpoint()
		if point, found := t.byLocation[mid]; found {
			segs := point.Data().(*[]geometry.LineSegment)
			*segs = append(*segs, seg)
			continue
		}
		point := quadtree.NewPoint(mid.X, mid.Y, &[]geometry.LineSegment{seg})
		if !t.quadTree.Insert(point) {
			t.overflow = append(t.overflow, seg)
			continue
		}
		t.byLocation[mid] = point
	}
}

// coverageAt returns how much of a pen mark at p, in [0, 1], is already
// drawn by indexed segments. Two strokes of width penWidth overlap fully at
// distance 0 and not at all at distance penWidth or more.
func (t *segmentTree) coverageAt(p geometry.Point, penWidth float64) float64 {
	best := 0.0
	check := func(seg geometry.LineSegment) bool {
		d := seg.Distance(p)
		if d >= penWidth {
			return false
		}
		best = math.Max(best, 1-d/penWidth)
		return best >= 0.999
	}

	for _, seg := range t.overflow {
		if check(seg) {
			return 1
		}
	}

	reach := penWidth + t.maxHalf
	points := t.quadTree.Search(quadtree.NewAABB(
		quadtree.NewPoint(p.X, p.Y, nil),
		quadtree.NewPoint(reach, reach, nil)))
	for _, point := range points {
		for _, seg := range *point.Data().(*[]geometry.LineSegment) {
			if check(seg) {
				return 1
			}
		}
	}
	return best
}

// FilterCovered drops strokes that would be mostly hidden under strokes
// already drawn with a pen penWidth wide. Longer strokes are considered
// first and always win. visibility is the fraction, in [0, 1], of a stroke
// that must remain visible for it to be kept.
//
// It returns the kept strokes in their input order and the input indices of
// the removed ones.
func FilterCovered(paths []geometry.Polyline, penWidth, visibility float64) ([]geometry.Polyline, []int) {
	if len(paths) < 2 || penWidth <= 0 || visibility <= 0 {
		return paths, nil
	}

	lengths := make([]float64, len(paths))
	order := make([]int, len(paths))
	for i, path := range paths {
		lengths[i] = path.Length()
		order[i] = i
	}
	// Longest first.
	sort.SliceStable(order, func(a, b int) bool {
		return lengths[order[a]] > lengths[order[b]]
	})

	tree := newSegmentTree(geometry.Bounds(paths))
	keep := make([]bool, len(paths))
	var removed []int

	for n, index := range order {
		path := paths[index]
		// Nothing to compare the first stroke against.
		if n == 0 {
			tree.addPath(path)
			keep[index] = true
			continue
		}

		samples := []geometry.Point{path.Start()}
		if lengths[index] > 1e-12 {
			samples = path.Sample(penWidth / 2)
		}
		visible := 0.0
		for _, s := range samples {
			visible += 1 - tree.coverageAt(s, penWidth)
		}

		if visible/float64(len(samples)) >= visibility {
			tree.addPath(path)
			keep[index] = true
		} else {
			removed = append(removed, index)
		}
	}

	var kept []geometry.Polyline
	for i, path := range paths {
		if keep[i] {
			kept = append(kept, path)
		}
	}
	return kept, removed
}
