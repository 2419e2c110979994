package svgpath

import (
	"math"

	"plotopt/pkg/geometry"

	"golang.org/x/xerrors"
)

// Matrix is an SVG affine transform:
//
//	⎡ A  C  E ⎤
//	⎢ B  D  F ⎥
//	⎣ 0  0  1 ⎦
type Matrix struct {
	A float64
	B float64
	C float64
	D float64
	E float64
	F float64
}

var Identity = Matrix{A: 1, D: 1}

func Translate(x, y float64) Matrix {
	return Matrix{A: 1, D: 1, E: x, F: y}
}

func Scale(x, y float64) Matrix {
	return Matrix{A: x, D: y}
}

// ParseTransform parses a transform attribute. An empty attribute is the
// identity.
func ParseTransform(transform string) (Matrix, error) {
	m := Identity

	functions, err := ParseFunctions(transform)
	if err != nil {
		return m, xerrors.Errorf("transform %q: %w", transform, err)
	}

	for _, function := range functions {
		args := function.Args
		wantArgs := func(counts ...int) error {
			for _, n := range counts {
				if len(args) == n {
					return nil
				}
			}
			return xerrors.Errorf("%s transform takes %v args, got %v", function.Name, counts, args)
		}

		switch function.Name {
		case "matrix":
			if err := wantArgs(6); err != nil {
				return m, err
			}
			m = m.Multiply(Matrix{
				A: args[0], C: args[2], E: args[4],
				B: args[1], D: args[3], F: args[5],
			})
		case "translate":
			if err := wantArgs(1, 2); err != nil {
				return m, err
			}
			y := 0.0
			if len(args) == 2 {
				y = args[1]
			}
			m = m.Multiply(Translate(args[0], y))
		case "scale":
			if err := wantArgs(1, 2); err != nil {
				return m, err
			}
			y := args[0]
			if len(args) == 2 {
				y = args[1]
			}
			m = m.Multiply(Scale(args[0], y))
		case "rotate":
			//  ⎡ cos(θ)  −sin(θ)  −x⋅cos(θ)+y⋅sin(θ)+x ⎤
			//  ⎢ sin(θ)   cos(θ)  −x⋅sin(θ)−y⋅cos(θ)+y |
			//  ⎣   0        0               1          ⎦
			if err := wantArgs(1, 3); err != nil {
				return m, err
			}
			cos := math.Cos(args[0] * math.Pi / 180)
			sin := math.Sin(args[0] * math.Pi / 180)
			x, y := 0.0, 0.0
			if len(args) == 3 {
				x, y = args[1], args[2]
			}
			m = m.Multiply(Matrix{
				A: cos, C: -sin, E: -x*cos + y*sin + x,
				B: sin, D: cos, F: -x*sin - y*cos + y,
			})
		case "skewX":
			if err := wantArgs(1); err != nil {
				return m, err
			}
			m = m.Multiply(Matrix{A: 1, C: math.Tan(args[0] * math.Pi / 180), D: 1})
		case "skewY":
			if err := wantArgs(1); err != nil {
				return m, err
			}
			m = m.Multiply(Matrix{A: 1, B: math.Tan(args[0] * math.Pi / 180), D: 1})
		default:
			return m, xerrors.Errorf("unknown transform function %q %v", function.Name, args)
		}
	}

	return m, nil
}

// Multiply returns m × other, the transform that applies other first.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.C*other.B,
		B: m.B*other.A + m.D*other.B,
		C: m.A*other.C + m.C*other.D,
		D: m.B*other.C + m.D*other.D,
		E: m.A*other.E + m.C*other.F + m.E,
		F: m.B*other.E + m.D*other.F + m.F,
	}
}

func (m Matrix) TransformPoint(p geometry.Point) geometry.Point {
	return geometry.Point{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// TransformPath transforms sub paths in place. Affine transforms map cubic
// curves to cubic curves, so moving the control points is exact.
func (m Matrix) TransformPath(path []*SubPath) {
	for _, group := range path {
		group.Start = m.TransformPoint(group.Start)
		for _, drawTo := range group.DrawTo {
			drawTo.To = m.TransformPoint(drawTo.To)
			if drawTo.Command == CurveTo {
				drawTo.C1 = m.TransformPoint(drawTo.C1)
				drawTo.C2 = m.TransformPoint(drawTo.C2)
			}
		}
	}
}
