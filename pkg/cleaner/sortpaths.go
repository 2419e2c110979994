package cleaner

import (
	"plotopt/pkg/geometry"
)

// SortNearest orders strokes greedily: starting at start, repeatedly draw
// the stroke with the closest endpoint next, reversing it when its end is
// the closer one. A positive lengthPenalty adds that multiple of a stroke's
// length to its distance, so short strokes nearby are drawn first.
func SortNearest(paths []geometry.Polyline, start geometry.Point, lengthPenalty float64) []geometry.Polyline {
	if len(paths) == 0 {
		return nil
	}

	tree := newPathTree(paths)
	for i := range paths {
		tree.addPath(i)
	}

	sorted := make([]geometry.Polyline, 0, len(paths))
	pos := start
	for {
		index, ok := tree.findNearest(pos, lengthPenalty)
		if !ok {
			break
		}
		tree.removePath(index)

		nearest := paths[index]
		if nearest.End().Distance(pos) < nearest.Start().Distance(pos) {
			nearest = nearest.Reverse()
		}
		pos = nearest.End()
		sorted = append(sorted, nearest)
	}
	return sorted
}
