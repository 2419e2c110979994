package cleaner

import (
	"plotopt/pkg/geometry"
)

// MergeAdjacent joins each stroke onto the one before it when the pen would
// travel no more than threshold between them. It returns the merged strokes
// and how many joins were made.
func MergeAdjacent(paths []geometry.Polyline, threshold float64) ([]geometry.Polyline, int) {
	if len(paths) == 0 {
		return nil, 0
	}

	merged := []geometry.Polyline{append(geometry.Polyline(nil), paths[0]...)}
	joins := 0
	for _, next := range paths[1:] {
		current := merged[len(merged)-1]
		if current.End().Distance(next.Start()) <= threshold {
			merged[len(merged)-1] = append(current, next[1:]...)
			joins++
			continue
		}
		merged = append(merged, append(geometry.Polyline(nil), next...))
	}
	return merged, joins
}

// Simplify removes redundant points from each stroke, keeping every stroke
// within tolerance of its original shape. A tolerance of 0 or less leaves
// the strokes alone.
func Simplify(paths []geometry.Polyline, tolerance float64) []geometry.Polyline {
	if tolerance <= 0 {
		return paths
	}
	simplified := make([]geometry.Polyline, 0, len(paths))
	for _, path := range paths {
		if s := path.Simplify(tolerance); len(s) > 0 {
			simplified = append(simplified, s)
		}
	}
	return simplified
}
