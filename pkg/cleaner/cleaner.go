package cleaner

import (
	"plotopt/pkg/geometry"
	"plotopt/pkg/twoopt"
)

// shouldKeepPath rejects strokes the pen can't draw: fewer than two points,
// or dots where every point is the same.
func shouldKeepPath(path geometry.Polyline) bool {
	if len(path) < 2 {
		return false
	}
	for _, p := range path[1:] {
		if p != path[0] {
			return true
		}
	}
	return false
}

// DropDegenerate removes dots and empty strokes.
func DropDegenerate(paths []geometry.Polyline) []geometry.Polyline {
	var kept []geometry.Polyline
	for _, path := range paths {
		if shouldKeepPath(path) {
			kept = append(kept, path)
		}
	}
	return kept
}

// toTour reduces each stroke to where the pen goes down and comes up.
func toTour(paths []geometry.Polyline) []twoopt.Segment {
	starts := make([]geometry.Point, len(paths))
	ends := make([]geometry.Point, len(paths))
	for i, path := range paths {
		starts[i], ends[i] = path.Start(), path.End()
	}
	return twoopt.NewTour(starts, ends)
}

// PenUpDistance is how far the pen travels lifted to draw paths in order,
// starting from the origin.
func PenUpDistance(paths []geometry.Polyline) float64 {
	return twoopt.TotalPenUp(toTour(paths))
}
