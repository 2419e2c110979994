package cleaner

import (
	"io"
	"log"

	"plotopt/pkg/cfg"
	"plotopt/pkg/geometry"
	"plotopt/pkg/twoopt"
)

// Stats summarises what Optimize did.
type Stats struct {
	InputPaths      int
	DegenerateCount int
	// RemovedIndices are positions, among the non-degenerate strokes, that
	// the pen-width filter dropped.
	RemovedIndices []int
	OutputPaths    int
	MergedCount    int

	// Pen-up travel for the strokes in file order, after nearest-neighbour
	// ordering, and at the end.
	OriginalPenUp float64
	NearestPenUp  float64
	FinalPenUp    float64

	Iterations int
	History    []float64
	State      twoopt.State
}

// Result is the optimized toolpath.
type Result struct {
	Paths []geometry.Polyline
	Stats Stats
}

// Optimize reorders strokes to reduce pen-up travel. The stages run in
// order: drop dots, drop strokes hidden by the pen width, simplify,
// nearest-neighbour ordering, 2-opt refinement, merge touching strokes.
// logger may be nil.
func Optimize(paths []geometry.Polyline, s cfg.Settings, logger *log.Logger) (*Result, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	stats := Stats{InputPaths: len(paths)}

	paths = DropDegenerate(paths)
	stats.DegenerateCount = stats.InputPaths - len(paths)
	logger.Printf("Loaded %d paths (%d dots dropped). Z-Down: %g, Z-Up: %g",
		len(paths), stats.DegenerateCount, s.ZDown, s.ZUp)

	if s.PenWidth > 0 {
		paths, stats.RemovedIndices = FilterCovered(paths, s.PenWidth, s.VisibilityThreshold/100)
		logger.Printf("Pen width %g mm: removed %d covered paths", s.PenWidth, len(stats.RemovedIndices))
	}

	paths = Simplify(paths, s.SimplifyTolerance)
	stats.OriginalPenUp = PenUpDistance(paths)

	paths = SortNearest(paths, geometry.Origin, s.NearestLengthPenalty)
	stats.NearestPenUp = PenUpDistance(paths)
	logger.Printf("Nearest-neighbour ordering: %.1fmm -> %.1fmm", stats.OriginalPenUp, stats.NearestPenUp)

	paths, res, err := Refine(paths, s.MaxIterations)
	if err != nil {
		return nil, err
	}
	stats.Iterations = res.Iterations
	stats.History = res.History
	stats.State = res.State
	logger.Printf("2-Opt %s after %d iterations: %.1fmm", res.State, res.Iterations, res.History[res.Iterations])

	paths, stats.MergedCount = MergeAdjacent(paths, s.MergeThreshold)
	stats.OutputPaths = len(paths)
	stats.FinalPenUp = PenUpDistance(paths)
	logger.Printf("Merged %d paths, %d remain", stats.MergedCount, stats.OutputPaths)

	return &Result{Paths: paths, Stats: stats}, nil
}
