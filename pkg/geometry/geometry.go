package geometry

import (
	"math"
)

type Point struct {
	X float64
	Y float64
}

type Vector2 = Point

// Origin is where the plotter head parks before a job starts.
var Origin = Point{}

type LineSegment struct {
	A Point
	B Point
}

type Rectangle struct {
	Min Point
	Max Point
}

// Polyline is one pen-down stroke, drawn from the first point to the last.
type Polyline []Point

func (a Vector2) Minus(b Vector2) Vector2 {
	return Vector2{
		X: a.X - b.X,
		Y: a.Y - b.Y,
	}
}

func (a Vector2) Add(b Vector2) Vector2 {
	return Vector2{
		X: a.X + b.X,
		Y: a.Y + b.Y,
	}
}

func (v Vector2) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

func (a Vector2) Dot(b Vector2) float64 {
	return a.X*b.X + a.Y*b.Y
}

// Distance returns the distance between two points.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Scale returns the point scaled by the given factor f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

func (s LineSegment) Length() float64 {
	return s.A.Distance(s.B)
}

func (s LineSegment) Midpoint() Point {
	return s.A.Add(s.B).Scale(0.5)
}

// Distance returns the distance between a point and a line segment.
func (s LineSegment) Distance(p Point) float64 {
	AB := s.B.Minus(s.A)
	AP := p.Minus(s.A)
	lenSq := AB.Dot(AB)
	if lenSq < 1e-24 {
		// degenerate segment, treat it as a point
		return AP.Magnitude()
	}

	// Project onto the segment and clamp to its ends.
	t := math.Max(0, math.Min(1, AP.Dot(AB)/lenSq))
	closest := s.A.Add(AB.Scale(t))
	return p.Distance(closest)
}

// Contains reports whether p lies inside the rectangle, edges included.
func (r Rectangle) Contains(p Point) bool {
	return r.Min.X <= p.X && p.X <= r.Max.X && r.Min.Y <= p.Y && p.Y <= r.Max.Y
}

func (r Rectangle) Center() Point {
	return r.Min.Add(r.Max).Scale(0.5)
}

// Bounds returns the bounding rectangle of all the given polylines.
// With no points the rectangle is inverted (Min = +Inf, Max = -Inf).
func Bounds(lines []Polyline) Rectangle {
	r := Rectangle{
		Min: Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, line := range lines {
		for _, p := range line {
			r.Min.X = math.Min(r.Min.X, p.X)
			r.Min.Y = math.Min(r.Min.Y, p.Y)
			r.Max.X = math.Max(r.Max.X, p.X)
			r.Max.Y = math.Max(r.Max.Y, p.Y)
		}
	}
	return r
}

func (line Polyline) Start() Point {
	return line[0]
}

func (line Polyline) End() Point {
	return line[len(line)-1]
}

// Length is the drawn length of the polyline.
func (line Polyline) Length() float64 {
	length := 0.0
	for i := 1; i < len(line); i++ {
		length += line[i-1].Distance(line[i])
	}
	return length
}

// Reverse returns a reversed copy of the polyline.
func (line Polyline) Reverse() Polyline {
	reversed := make(Polyline, len(line))
	for i, p := range line {
		reversed[len(line)-1-i] = p
	}
	return reversed
}

// Segments returns the line segments between successive points.
func (line Polyline) Segments() []LineSegment {
	if len(line) < 2 {
		return nil
	}
	segments := make([]LineSegment, 0, len(line)-1)
	for i := 1; i < len(line); i++ {
		segments = append(segments, LineSegment{A: line[i-1], B: line[i]})
	}
	return segments
}

func (line Polyline) EndpointDistance(p Point) float64 {
	if len(line) == 0 {
		return math.NaN()
	}
	d := line[0].Distance(p)
	if len(line) > 1 {
		d = math.Min(d, line[len(line)-1].Distance(p))
	}
	return d
}

// Sample returns points spaced interval apart along the polyline. The first
// and last points are always included.
func (line Polyline) Sample(interval float64) []Point {
	if len(line) == 0 {
		return nil
	}
	if len(line) == 1 || interval <= 0 {
		return []Point{line[0]}
	}

	samples := []Point{line[0]}
	residual := 0.0
	for i := 1; i < len(line); i++ {
		a, b := line[i-1], line[i]
		segLen := a.Distance(b)
		if segLen < 1e-12 {
			continue
		}
		unit := b.Minus(a).Scale(1 / segLen)
		pos := interval - residual
		for pos < segLen-1e-12 {
			samples = append(samples, a.Add(unit.Scale(pos)))
			pos += interval
		}
		residual = segLen - (pos - interval)
	}

	last := line[len(line)-1]
	if samples[len(samples)-1].Distance(last) > 1e-12 {
		samples = append(samples, last)
	}
	return samples
}

// Simplify simplifies the polyline using the Douglas-Peucker algorithm.
func (points Polyline) Simplify(epsilon float64) Polyline {
	if len(points) < 2 {
		return nil
	}

	// find the point with the max distance from the line segment between the first and last points
	firstPoint, lastPoint := points[0], points[len(points)-1]
	chord := LineSegment{A: firstPoint, B: lastPoint}
	if len(points) == 2 {
		return Polyline{firstPoint, lastPoint}
	}

	dmax := 0.0
	index := 0
	for i := 1; i < len(points)-1; i++ {
		d := chord.Distance(points[i])
		if d > dmax {
			index = i
			dmax = d
		}
	}

	if dmax < epsilon {
		return Polyline{firstPoint, lastPoint}
	}

	// note: need to be careful on the recursive step to not call with < 2 points
	recResults1 := Polyline(points[:index+1]).Simplify(epsilon)
	recResults2 := Polyline(points[index:]).Simplify(epsilon)

	// recResults1 is always freshly built, so appending onto it can't clobber the input.
	return append(recResults1[:len(recResults1)-1], recResults2...)
}
