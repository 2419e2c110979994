// Package twoopt orders pen-plotter strokes to cut down pen-up travel, using
// a first-improvement 2-opt local search that may also reverse strokes.
package twoopt

import "plotopt/pkg/geometry"

// Epsilon is the smallest saving a move must make to be accepted. It keeps
// the search from cycling on moves that only differ by rounding error.
const Epsilon = 1e-6

// State is where the local search ended up.
type State int

const (
	Scanning State = iota
	Improved
	Converged
	Exhausted
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case Improved:
		return "improved"
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Optimize improves tour in place and returns the number of passes run,
// including the final pass that found nothing to improve. history must hold
// at least maxIterations+1 values; history[0] gets the starting pen-up
// distance and history[k] the distance after pass k. Entries past the
// returned count are left alone.
//
// Inputs are not checked here; see Run for the validating entry point.
func Optimize(tour []Segment, maxIterations int, history []float64) int {
	passes, _ := OptimizeState(tour, maxIterations, history)
	return passes
}

// OptimizeState is Optimize, also reporting whether the search converged or
// ran out of passes.
func OptimizeState(tour []Segment, maxIterations int, history []float64) (int, State) {
	n := len(tour)
	history[0] = TotalPenUp(tour)
	if n <= 1 {
		return 0, Converged
	}

	passes := 0
	for passes < maxIterations {
		passes++
		state := scan(tour)
		history[passes] = TotalPenUp(tour)
		if state == Converged {
			return passes, Converged
		}
	}
	return passes, Exhausted
}

// scan looks for the first improving reversal and applies it.
func scan(tour []Segment) State {
	n := len(tour)
	for i := 0; i < n-1; i++ {
		prev := geometry.Origin
		if i > 0 {
			prev = tour[i-1].End
		}

		for j := i + 1; j < n; j++ {
			current := dist(prev, tour[i].Start)
			candidate := dist(prev, tour[j].End)
			if j < n-1 {
				current += dist(tour[j].End, tour[j+1].Start)
				candidate += dist(tour[i].Start, tour[j+1].Start)
			}

			if candidate < current-Epsilon {
				Reverse(tour, i, j)
				return Improved
			}
		}
	}
	return Converged
}
