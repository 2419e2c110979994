package twoopt

import (
	"plotopt/pkg/geometry"

	"golang.org/x/xerrors"
)

var (
	ErrNegativeIterations = xerrors.New("max iterations must not be negative")
	ErrNonFinite          = xerrors.New("segment coordinates must be finite")
	ErrBadIndex           = xerrors.New("segment indices must be a permutation of 0..n-1")
	ErrLengthMismatch     = xerrors.New("coordinate arrays differ in length")
)

// Result is the outcome of Run.
type Result struct {
	Iterations int
	// History holds Iterations+1 pen-up totals, starting with the input's.
	History []float64
	State   State
}

// Run checks tour and then optimizes it in place with at most maxIterations
// passes.
func Run(tour []Segment, maxIterations int) (*Result, error) {
	if maxIterations < 0 {
		return nil, xerrors.Errorf("max iterations %d: %w", maxIterations, ErrNegativeIterations)
	}
	if err := validate(tour); err != nil {
		return nil, err
	}

	history := make([]float64, maxIterations+1)
	iterations, state := OptimizeState(tour, maxIterations, history)
	return &Result{
		Iterations: iterations,
		History:    history[:iterations+1],
		State:      state,
	}, nil
}

func validate(tour []Segment) error {
	seen := make([]bool, len(tour))
	for i, seg := range tour {
		if !seg.Start.IsFinite() || !seg.End.IsFinite() {
			return xerrors.Errorf("segment %d: %w", i, ErrNonFinite)
		}
		if seg.Index < 0 || seg.Index >= len(tour) || seen[seg.Index] {
			return xerrors.Errorf("segment %d has index %d: %w", i, seg.Index, ErrBadIndex)
		}
		seen[seg.Index] = true
	}
	return nil
}

// FromArrays builds a tour from parallel start/end coordinate arrays.
func FromArrays(sx, sy, ex, ey []float64) ([]Segment, error) {
	n := len(sx)
	if len(sy) != n || len(ex) != n || len(ey) != n {
		return nil, xerrors.Errorf("sx=%d sy=%d ex=%d ey=%d: %w",
			len(sx), len(sy), len(ex), len(ey), ErrLengthMismatch)
	}
	tour := make([]Segment, n)
	for i := range tour {
		tour[i] = Segment{
			Start: geometry.Point{X: sx[i], Y: sy[i]},
			End:   geometry.Point{X: ex[i], Y: ey[i]},
			Index: i,
		}
	}
	return tour, nil
}

// ToArrays is the inverse of FromArrays. It also returns the original index
// and flip flag of each position.
func ToArrays(tour []Segment) (sx, sy, ex, ey []float64, order []int, flipped []bool) {
	n := len(tour)
	sx, sy = make([]float64, n), make([]float64, n)
	ex, ey = make([]float64, n), make([]float64, n)
	order, flipped = make([]int, n), make([]bool, n)
	for i, seg := range tour {
		sx[i], sy[i] = seg.Start.X, seg.Start.Y
		ex[i], ey[i] = seg.End.X, seg.End.Y
		order[i] = seg.Index
		flipped[i] = seg.Flipped
	}
	return
}
