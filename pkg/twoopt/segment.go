package twoopt

import (
	"math"

	"plotopt/pkg/geometry"
)

// Segment is one stroke as the optimizer sees it: the point where the pen
// goes down and the point where it comes back up.
type Segment struct {
	Start, End geometry.Point

	// Index is the position the segment had in the input.
	Index int

	// Flipped is set when Start and End are swapped relative to the input.
	Flipped bool
}

// Flip reverses the direction the segment is drawn in.
func (s *Segment) Flip() {
	s.Start, s.End = s.End, s.Start
	s.Flipped = !s.Flipped
}

// NewTour builds a tour in input order. starts and ends must have equal length.
func NewTour(starts, ends []geometry.Point) []Segment {
	tour := make([]Segment, len(starts))
	for i := range tour {
		tour[i] = Segment{Start: starts[i], End: ends[i], Index: i}
	}
	return tour
}

func dist(a, b geometry.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// TotalPenUp is the travel distance with the pen lifted: from the origin to
// the first segment, then from the end of each segment to the start of the
// next.
func TotalPenUp(tour []Segment) float64 {
	if len(tour) == 0 {
		return 0
	}
	total := dist(geometry.Origin, tour[0].Start)
	for i := 0; i < len(tour)-1; i++ {
		total += dist(tour[i].End, tour[i+1].Start)
	}
	return total
}

// Reverse reverses tour[i..j] in place and flips every segment in it, so the
// pen walks the same strokes backwards. Applying it twice to the same range
// is a no-op. Requires 0 <= i < j < len(tour).
func Reverse(tour []Segment, i, j int) {
	l, r := i, j
	for l < r {
		tour[l], tour[r] = tour[r], tour[l]
		tour[l].Flip()
		tour[r].Flip()
		l++
		r--
	}
	if l == r {
		tour[l].Flip()
	}
}
