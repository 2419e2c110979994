// Package svgpath reads SVG path data and SVG documents and turns them into
// pen strokes.
package svgpath

import (
	"fmt"
	"math"
	"strconv"

	"plotopt/pkg/geometry"

	"golang.org/x/xerrors"
)

// Path data grammar, abridged from the SVG 1.1 BNF:
//
// svg-path:
//     wsp* moveto-drawto-command-groups? wsp*
// moveto-drawto-command-group:
//     moveto wsp* drawto-commands?
// moveto:
//     ( "M" | "m" ) wsp* coordinate-pair (comma-wsp? lineto-argument-sequence)?
// drawto-command:
//     closepath | lineto | horizontal-lineto | vertical-lineto
//     | curveto | smooth-curveto | quadratic-bezier-curveto
//     | smooth-quadratic-bezier-curveto | elliptical-arc
// elliptical-arc-argument:
//     nonnegative-number comma-wsp? nonnegative-number comma-wsp?
//         number comma-wsp flag comma-wsp? flag comma-wsp? coordinate-pair
// number:
//     sign? (digit-sequence | fractional-constant) exponent?
// fractional-constant:
//     digit-sequence? "." digit-sequence | digit-sequence "."
// comma-wsp:
//     (wsp+ comma? wsp*) | (comma wsp*)

// ErrSyntax is wrapped by every path data parse error.
var ErrSyntax = xerrors.New("invalid path data")

type Command string

const (
	ClosePath Command = "Z"
	LineTo    Command = "L"
	CurveTo   Command = "C"
)

// DrawTo is one drawing command in absolute coordinates. Quadratic curves
// and arcs are stored as cubic curves, so C1 and C2 are the cubic control
// points. They are only set for CurveTo.
type DrawTo struct {
	Command Command
	To      geometry.Point
	C1, C2  geometry.Point
}

// SubPath is a run of drawing commands that starts with a move.
type SubPath struct {
	Start  geometry.Point
	DrawTo []*DrawTo
}

type state struct {
	data     string
	index    int
	subPaths []*SubPath
	group    *SubPath
	current  geometry.Point
	relative bool

	// Control points of the previous command, reflected by S and T.
	cubicControl *geometry.Point
	quadControl  *geometry.Point
}

// Parse parses a path's d attribute.
func Parse(path string) ([]*SubPath, error) {
	s := &state{data: path}
	err := s.parse()
	return s.subPaths, err
}

func (s *state) errorf(format string, args ...interface{}) error {
	return xerrors.Errorf("%s at offset %d: %w", fmt.Sprintf(format, args...), s.index, ErrSyntax)
}

func (s *state) parse() error {
	for {
		s.whitespace()

		c := s.peek()
		if c != 'M' && c != 'm' {
			break
		}
		if err := s.parseMoveTo(); err != nil {
			return err
		}
		s.whitespace()
		if err := s.parseDrawToCommands(); err != nil {
			return err
		}
	}

	s.whitespace()
	if s.index != len(s.data) {
		return s.errorf("unparsed data %q", s.data[s.index:])
	}
	return nil
}

func (s *state) parseMoveTo() error {
	command := s.next()
	if command != 'M' && command != 'm' {
		return s.errorf("expected \"M\" or \"m\", got %q", string(command))
	}
	s.relative = command == 'm'
	s.whitespace()

	p, err := s.parseCoordinatePair()
	if err != nil {
		return err
	}
	if s.relative {
		p = p.Add(s.current)
	}
	s.current = p
	s.group = &SubPath{Start: p}
	s.subPaths = append(s.subPaths, s.group)
	s.cubicControl, s.quadControl = nil, nil

	// Further coordinate pairs are implicit line-tos.
	for {
		savedIndex := s.index
		s.commaWhitespace()
		p, err := s.parseCoordinatePair()
		if err != nil {
			// backtrack.
			s.index = savedIndex
			break
		}
		s.lineTo(s.absolute(p))
	}
	return nil
}

// ensureSubPath starts a new sub path at the current point when a drawing
// command follows a close path without a move.
func (s *state) ensureSubPath() {
	if s.group == nil {
		s.group = &SubPath{Start: s.current}
		s.subPaths = append(s.subPaths, s.group)
	}
}

func (s *state) absolute(p geometry.Point) geometry.Point {
	if s.relative {
		return p.Add(s.current)
	}
	return p
}

func (s *state) parseDrawToCommands() error {
	first := true
	for {
		if !first {
			s.whitespace()
		}
		first = false

		c := s.peek()
		switch c {
		case 'Z', 'z':
			s.next()
			s.closePath()
			continue
		case 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c', 'S', 's', 'Q', 'q', 'T', 't', 'A', 'a':
		default:
			return nil
		}

		s.next()
		s.relative = c >= 'a'
		s.whitespace()
		s.ensureSubPath()

		var err error
		switch c {
		case 'L', 'l':
			err = s.arguments(s.parseLineTo)
		case 'H', 'h':
			err = s.arguments(s.parseHorizontalLineTo)
		case 'V', 'v':
			err = s.arguments(s.parseVerticalLineTo)
		case 'C', 'c':
			err = s.arguments(s.parseCurveTo)
		case 'S', 's':
			err = s.arguments(s.parseSmoothCurveTo)
		case 'Q', 'q':
			err = s.arguments(s.parseQuadraticTo)
		case 'T', 't':
			err = s.arguments(s.parseSmoothQuadraticTo)
		case 'A', 'a':
			err = s.arguments(s.parseArc)
		}
		if err != nil {
			return err
		}
	}
}

// arguments runs parse once per argument group following a command letter.
// The first group is required. After that, the first group that fails to
// parse is backtracked over and ends the command.
func (s *state) arguments(parse func() error) error {
	first := true
	for {
		oldIndex := s.index
		if !first {
			s.commaWhitespace()
		}
		if err := parse(); err != nil {
			if !first {
				s.index = oldIndex
				return nil
			}
			return err
		}
		first = false
	}
}

func (s *state) parseLineTo() error {
	p, err := s.parseCoordinatePair()
	if err != nil {
		return err
	}
	s.lineTo(s.absolute(p))
	return nil
}

func (s *state) parseHorizontalLineTo() error {
	x, err := s.parseNumber()
	if err != nil {
		return err
	}
	if s.relative {
		x += s.current.X
	}
	s.lineTo(geometry.Point{X: x, Y: s.current.Y})
	return nil
}

func (s *state) parseVerticalLineTo() error {
	y, err := s.parseNumber()
	if err != nil {
		return err
	}
	if s.relative {
		y += s.current.Y
	}
	s.lineTo(geometry.Point{X: s.current.X, Y: y})
	return nil
}

func (s *state) parseCurveTo() error {
	points, err := s.parseCoordinatePairs(3)
	if err != nil {
		return err
	}
	s.cubicTo(s.absolute(points[0]), s.absolute(points[1]), s.absolute(points[2]))
	return nil
}

func (s *state) parseSmoothCurveTo() error {
	points, err := s.parseCoordinatePairs(2)
	if err != nil {
		return err
	}
	s.cubicTo(s.reflect(s.cubicControl), s.absolute(points[0]), s.absolute(points[1]))
	return nil
}

func (s *state) parseQuadraticTo() error {
	points, err := s.parseCoordinatePairs(2)
	if err != nil {
		return err
	}
	s.quadTo(s.absolute(points[0]), s.absolute(points[1]))
	return nil
}

func (s *state) parseSmoothQuadraticTo() error {
	p, err := s.parseCoordinatePair()
	if err != nil {
		return err
	}
	s.quadTo(s.reflect(s.quadControl), s.absolute(p))
	return nil
}

func (s *state) parseArc() error {
	rx, err := s.parseNumber()
	if err != nil {
		return err
	}
	s.commaWhitespace()
	ry, err := s.parseNumber()
	if err != nil {
		return err
	}
	s.commaWhitespace()
	rotation, err := s.parseNumber()
	if err != nil {
		return err
	}
	s.commaWhitespace()
	large, err := s.parseFlag()
	if err != nil {
		return err
	}
	s.commaWhitespace()
	sweep, err := s.parseFlag()
	if err != nil {
		return err
	}
	s.commaWhitespace()
	p, err := s.parseCoordinatePair()
	if err != nil {
		return err
	}
	s.arcTo(rx, ry, rotation, large, sweep, s.absolute(p))
	return nil
}

func (s *state) closePath() {
	if s.group == nil {
		return
	}
	s.group.DrawTo = append(s.group.DrawTo,
		&DrawTo{Command: ClosePath, To: s.group.Start})
	s.current = s.group.Start
	s.group = nil
	s.cubicControl, s.quadControl = nil, nil
}

func (s *state) lineTo(p geometry.Point) {
	s.group.DrawTo = append(s.group.DrawTo, &DrawTo{Command: LineTo, To: p})
	s.current = p
	s.cubicControl, s.quadControl = nil, nil
}

func (s *state) cubicTo(c1, c2, p geometry.Point) {
	s.group.DrawTo = append(s.group.DrawTo,
		&DrawTo{Command: CurveTo, To: p, C1: c1, C2: c2})
	s.current = p
	s.cubicControl, s.quadControl = &c2, nil
}

// quadTo stores the quadratic curve with control point q as the equivalent
// cubic.
func (s *state) quadTo(q, p geometry.Point) {
	start := s.current
	c1 := start.Add(q.Minus(start).Scale(2.0 / 3))
	c2 := p.Add(q.Minus(p).Scale(2.0 / 3))
	s.cubicTo(c1, c2, p)
	s.cubicControl, s.quadControl = nil, &q
}

// reflect mirrors control about the current point, or returns the current
// point when the previous command had no matching control point.
func (s *state) reflect(control *geometry.Point) geometry.Point {
	if control == nil {
		return s.current
	}
	return s.current.Scale(2).Minus(*control)
}

// arcTo appends the elliptical arc from the current point to p as cubic
// curves of at most a quarter turn each. The centre is found with the
// endpoint to centre conversion from the SVG implementation notes.
func (s *state) arcTo(rx, ry, rotation float64, large, sweep bool, p geometry.Point) {
	start := s.current
	if start == p {
		return
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		s.lineTo(p)
		return
	}

	phi := rotation * math.Pi / 180
	cos, sin := math.Cos(phi), math.Sin(phi)
	dx, dy := (start.X-p.X)/2, (start.Y-p.Y)/2
	x1 := cos*dx + sin*dy
	y1 := -sin*dx + cos*dy

	// Radii too small to span the endpoints are scaled up.
	if lambda := x1*x1/(rx*rx) + y1*y1/(ry*ry); lambda > 1 {
		k := math.Sqrt(lambda)
		rx *= k
		ry *= k
	}

	num := rx*rx*ry*ry - rx*rx*y1*y1 - ry*ry*x1*x1
	den := rx*rx*y1*y1 + ry*ry*x1*x1
	coef := math.Sqrt(math.Max(0, num/den))
	if large == sweep {
		coef = -coef
	}
	cx1 := coef * rx * y1 / ry
	cy1 := -coef * ry * x1 / rx
	cx := cos*cx1 - sin*cy1 + (start.X+p.X)/2
	cy := sin*cx1 + cos*cy1 + (start.Y+p.Y)/2

	theta := math.Atan2((y1-cy1)/ry, (x1-cx1)/rx)
	delta := math.Atan2((-y1-cy1)/ry, (-x1-cx1)/rx) - theta
	if sweep && delta < 0 {
		delta += 2 * math.Pi
	} else if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	}

	pieces := int(math.Ceil(math.Abs(delta)/(math.Pi/2) - 1e-9))
	if pieces < 1 {
		pieces = 1
	}
	step := delta / float64(pieces)
	k := 4.0 / 3 * math.Tan(step/4)

	// ellipse returns the point at angle t and its derivative.
	ellipse := func(t float64) (geometry.Point, geometry.Vector2) {
		ct, st := math.Cos(t), math.Sin(t)
		return geometry.Point{X: cx + rx*ct*cos - ry*st*sin, Y: cy + rx*ct*sin + ry*st*cos},
			geometry.Vector2{X: -rx*st*cos - ry*ct*sin, Y: -rx*st*sin + ry*ct*cos}
	}

	from, dFrom := ellipse(theta)
	from = start
	for i := 1; i <= pieces; i++ {
		to, dTo := ellipse(theta + float64(i)*step)
		if i == pieces {
			to = p
		}
		s.cubicTo(from.Add(dFrom.Scale(k)), to.Minus(dTo.Scale(k)), to)
		from, dFrom = to, dTo
	}
	// S after an arc has nothing to reflect.
	s.cubicControl = nil
}

func (s *state) parseCoordinatePairs(count int) ([]geometry.Point, error) {
	points := make([]geometry.Point, count)
	for i := range points {
		if i > 0 {
			s.commaWhitespace()
		}
		p, err := s.parseCoordinatePair()
		if err != nil {
			return nil, err
		}
		points[i] = p
	}
	return points, nil
}

// parseCoordinatePair parses "coordinate comma-wsp? coordinate"
func (s *state) parseCoordinatePair() (geometry.Point, error) {
	x, err := s.parseNumber()
	if err != nil {
		return geometry.Point{}, err
	}
	s.commaWhitespace()
	y, err := s.parseNumber()
	if err != nil {
		return geometry.Point{}, err
	}
	return geometry.Point{X: x, Y: y}, nil
}

func (s *state) parseFlag() (bool, error) {
	switch c := s.next(); c {
	case '0':
		return false, nil
	case '1':
		return true, nil
	default:
		return false, s.errorf("expected a flag, got %q", string(c))
	}
}

func (s *state) parseNumber() (float64, error) {
	c := s.peek()
	if c == '+' || c == '-' {
		s.next()
		n, err := s.parseNonNegativeNumber()
		if c == '-' {
			n = -n
		}
		return n, err
	}
	return s.parseNonNegativeNumber()
}

func (s *state) parseNonNegativeNumber() (float64, error) {
	number := s.digitSequence()
	if number == "" {
		// Possible fractional constant starting with a decimal point
		c := s.next()
		if c != '.' {
			return 0, s.errorf("expected a number, got %q", string(c))
		}
		number = "." + s.digitSequence()
		if number == "." {
			return 0, s.errorf("expected a number, got only a \".\"")
		}
	} else if s.peek() == '.' {
		s.next()
		number += "." + s.digitSequence()
	}

	// Only take the exponent when digits follow, so "2em" leaves "em" for
	// the caller.
	if c := s.peek(); c == 'E' || c == 'e' {
		saved := s.index
		s.next()
		sign := ""
		if c := s.peek(); c == '+' || c == '-' {
			s.next()
			sign = string(c)
		}
		if exponent := s.digitSequence(); exponent != "" {
			number += "E" + sign + exponent
		} else {
			s.index = saved
		}
	}

	n, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, xerrors.Errorf("%v: %w", err, ErrSyntax)
	}
	return n, nil
}

func (s *state) digitSequence() string {
	start := s.index
	for {
		c := s.peek()
		if c < '0' || c > '9' {
			break
		}
		s.next()
	}
	return s.data[start:s.index]
}

// whitespace consumes "wsp*", and returns the number of bytes consumed
func (s *state) whitespace() int {
	count := 0
	for {
		switch s.peek() {
		case ' ', '\t', '\n', '\r':
			s.next()
			count++
		default:
			return count
		}
	}
}

// commaWhitespace consumes an optional "(wsp+ comma? wsp*) | (comma wsp*)",
// and returns true if something was consumed
func (s *state) commaWhitespace() bool {
	if s.peek() == ',' {
		s.next()
		s.whitespace()
		return true
	}

	if s.whitespace() > 0 {
		if s.peek() == ',' {
			s.next()
		}
		s.whitespace()
		return true
	}
	return false
}

// peek returns the next byte without consuming it, or 0 if at the end of stream
func (s *state) peek() byte {
	if s.index < len(s.data) {
		return s.data[s.index]
	}
	return 0
}

// next consumes and returns the next byte, or 0 if at the end of stream
func (s *state) next() byte {
	if s.index < len(s.data) {
		i := s.index
		s.index++
		return s.data[i]
	}
	return 0
}

// ParseNumbers parses a list of numbers separated by commas or whitespace,
// as used by the points and viewBox attributes.
func ParseNumbers(list string) ([]float64, error) {
	s := &state{data: list}
	var numbers []float64
	s.whitespace()
	for s.peek() != 0 {
		if len(numbers) > 0 && s.peek() == ',' {
			s.next()
			s.whitespace()
		}
		n, err := s.parseNumber()
		if err != nil {
			return numbers, err
		}
		numbers = append(numbers, n)
		s.whitespace()
	}
	return numbers, nil
}

type Function struct {
	Name string
	Args []float64
}

// ParseFunctions parses a list of functions such as a transform attribute:
// (wsp* identifier wsp* "(" wsp* number (comma-wsp number)* wsp* ")" wsp*)*
func ParseFunctions(functions string) ([]*Function, error) {
	s := &state{data: functions}
	var parsed []*Function
	for {
		s.whitespace()
		if s.peek() == 0 {
			return parsed, nil
		}

		function := &Function{}
		parsed = append(parsed, function)

		c := s.next()
		if !isLetter(c) {
			return parsed, s.errorf("identifier must start with a letter, got %q", string(c))
		}
		function.Name += string(c)
		for c := s.peek(); isLetter(c) || ('0' <= c && c <= '9') || c == '_' || c == '-'; c = s.peek() {
			function.Name += string(s.next())
		}

		s.whitespace()
		if c := s.next(); c != '(' {
			return parsed, s.errorf("expected \"(\", got %q", string(c))
		}

		s.whitespace()
		oldIndex := s.index
		n, err := s.parseNumber()
		if err != nil {
			s.index = oldIndex
		} else {
			function.Args = append(function.Args, n)
			for {
				oldIndex = s.index
				s.commaWhitespace()
				n, err = s.parseNumber()
				if err != nil {
					s.index = oldIndex
					break
				}
				function.Args = append(function.Args, n)
			}
		}

		s.whitespace()
		if c := s.next(); c != ')' {
			return parsed, s.errorf("expected \")\", got %q", string(c))
		}
		// Functions may also be separated by commas.
		s.commaWhitespace()
	}
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
