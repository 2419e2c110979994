package cleaner

import (
	"plotopt/pkg/geometry"
	"plotopt/pkg/twoopt"

	"golang.org/x/xerrors"
)

// Refine improves the drawing order with 2-opt, using at most maxIterations
// passes. Strokes the search flipped are drawn reversed.
func Refine(paths []geometry.Polyline, maxIterations int) ([]geometry.Polyline, *twoopt.Result, error) {
	tour := toTour(paths)
	res, err := twoopt.Run(tour, maxIterations)
	if err != nil {
		return nil, nil, xerrors.Errorf("refining %d strokes: %w", len(paths), err)
	}

	refined := make([]geometry.Polyline, len(tour))
	for i, seg := range tour {
		path := paths[seg.Index]
		if seg.Flipped {
			path = path.Reverse()
		}
		refined[i] = path
	}
	return refined, res, nil
}
