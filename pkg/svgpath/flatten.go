package svgpath

import (
	"plotopt/pkg/geometry"
)

// maxFlattenDepth caps curve subdivision at 1024 pieces per curve.
const maxFlattenDepth = 10

// Flatten converts the sub path to a polyline. Curves are split until every
// piece stays within tolerance of its chord. tolerance must be positive.
func (path *SubPath) Flatten(tolerance float64) geometry.Polyline {
	line := geometry.Polyline{path.Start}
	last := path.Start
	for _, drawTo := range path.DrawTo {
		switch drawTo.Command {
		case LineTo, ClosePath:
			line = append(line, drawTo.To)
		case CurveTo:
			line = flattenCubic(line, last, drawTo.C1, drawTo.C2, drawTo.To, tolerance, 0)
		}
		last = drawTo.To
	}
	return line
}

// flattenCubic appends the points of the curve after p0, halving it until
// both control points are within tolerance of the chord. The curve lies in
// the convex hull of its control points, so it is then within tolerance of
// the chord too.
func flattenCubic(line geometry.Polyline, p0, p1, p2, p3 geometry.Point, tolerance float64, depth int) geometry.Polyline {
	chord := geometry.LineSegment{A: p0, B: p3}
	if depth >= maxFlattenDepth || (chord.Distance(p1) <= tolerance && chord.Distance(p2) <= tolerance) {
		return append(line, p3)
	}

	// de Casteljau split at t = 0.5
	p01, p12, p23 := midpoint(p0, p1), midpoint(p1, p2), midpoint(p2, p3)
	p012, p123 := midpoint(p01, p12), midpoint(p12, p23)
	mid := midpoint(p012, p123)
	line = flattenCubic(line, p0, p01, p012, mid, tolerance, depth+1)
	return flattenCubic(line, mid, p123, p23, p3, tolerance, depth+1)
}

func midpoint(a, b geometry.Point) geometry.Point {
	return geometry.LineSegment{A: a, B: b}.Midpoint()
}

// Polylines flattens every sub path.
func Polylines(path []*SubPath, tolerance float64) []geometry.Polyline {
	lines := make([]geometry.Polyline, 0, len(path))
	for _, group := range path {
		lines = append(lines, group.Flatten(tolerance))
	}
	return lines
}
