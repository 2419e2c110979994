package svgpath_test

import (
	"math"
	"strings"
	"testing"

	"plotopt/pkg/geometry"
	"plotopt/pkg/svgpath"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/xerrors"
)

func pt(x, y float64) geometry.Point {
	return geometry.Point{X: x, Y: y}
}

func lineTo(x, y float64) *svgpath.DrawTo {
	return &svgpath.DrawTo{Command: svgpath.LineTo, To: pt(x, y)}
}

func curveTo(x1, y1, x2, y2, x, y float64) *svgpath.DrawTo {
	return &svgpath.DrawTo{Command: svgpath.CurveTo, C1: pt(x1, y1), C2: pt(x2, y2), To: pt(x, y)}
}

func closePath(x, y float64) *svgpath.DrawTo {
	return &svgpath.DrawTo{Command: svgpath.ClosePath, To: pt(x, y)}
}

func TestBasic(t *testing.T) {
	subPaths, err := svgpath.Parse(" \t\r\nM1.e2 2. 1 .2.3 0.4e2 z L 7 8 9 10 H 11 12 13 L 2 2v5C 5 6 7 8 9 10")
	if err != nil {
		t.Errorf("parsing failed: %s", err)
	}
	expected := []*svgpath.SubPath{
		{Start: pt(100, 2), DrawTo: []*svgpath.DrawTo{
			lineTo(1, .2),
			lineTo(.3, 40),
			closePath(100, 2),
		}},
		{Start: pt(100, 2), DrawTo: []*svgpath.DrawTo{
			lineTo(7, 8),
			lineTo(9, 10),
			lineTo(11, 10),
			lineTo(12, 10),
			lineTo(13, 10),
			lineTo(2, 2),
			lineTo(2, 7),
			curveTo(5, 6, 7, 8, 9, 10),
		}},
	}
	if diff := cmp.Diff(expected, subPaths); diff != "" {
		t.Errorf("incorrect output: %s", diff)
	}
}

func TestCommands(t *testing.T) {
	k := 4.0 / 3 * math.Tan(math.Pi/8) * 10
	tests := []struct {
		Name string
		Path string
		Want []*svgpath.SubPath
	}{
		{
			Name: "relative commands",
			Path: "m 1 1 l 2 0 0 2 h -2 z m 5 5 v 1",
			Want: []*svgpath.SubPath{
				{Start: pt(1, 1), DrawTo: []*svgpath.DrawTo{
					lineTo(3, 1), lineTo(3, 3), lineTo(1, 3), closePath(1, 1),
				}},
				{Start: pt(6, 6), DrawTo: []*svgpath.DrawTo{lineTo(6, 7)}},
			},
		},
		{
			Name: "new sub path on every move",
			Path: "M0,0 L1,1 M2,2 L3,3",
			Want: []*svgpath.SubPath{
				{Start: pt(0, 0), DrawTo: []*svgpath.DrawTo{lineTo(1, 1)}},
				{Start: pt(2, 2), DrawTo: []*svgpath.DrawTo{lineTo(3, 3)}},
			},
		},
		{
			Name: "smooth cubic reflects the previous control point",
			Path: "M 0 0 C 1 1 2 1 3 0 S 5 -1 6 0",
			Want: []*svgpath.SubPath{
				{Start: pt(0, 0), DrawTo: []*svgpath.DrawTo{
					curveTo(1, 1, 2, 1, 3, 0),
					curveTo(4, -1, 5, -1, 6, 0),
				}},
			},
		},
		{
			Name: "quadratic curves become cubic",
			Path: "M 0 0 Q 3 3 6 0 T 12 0",
			Want: []*svgpath.SubPath{
				{Start: pt(0, 0), DrawTo: []*svgpath.DrawTo{
					curveTo(2, 2, 4, 2, 6, 0),
					curveTo(8, -2, 10, -2, 12, 0),
				}},
			},
		},
		{
			Name: "quarter arc",
			Path: "M 10 0 A 10 10 0 0 1 0 10",
			Want: []*svgpath.SubPath{
				{Start: pt(10, 0), DrawTo: []*svgpath.DrawTo{
					curveTo(10, k, k, 10, 0, 10),
				}},
			},
		},
		{
			Name: "arc with a zero radius is a line",
			Path: "M 0 0 A 0 5 0 0 1 4 0",
			Want: []*svgpath.SubPath{
				{Start: pt(0, 0), DrawTo: []*svgpath.DrawTo{lineTo(4, 0)}},
			},
		},
		{
			Name: "empty",
			Path: "  ",
		},
	}

	for _, test := range tests {
		got, err := svgpath.Parse(test.Path)
		if err != nil {
			t.Errorf("test %s: parsing failed: %s", test.Name, err)
			continue
		}
		if diff := cmp.Diff(test.Want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("test %s: incorrect output: %s", test.Name, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, path := range []string{
		"M 0",
		"L 1 2",
		"M 0 0 L 1 x",
		"M 0 0 A 1 1 0 2 0 1 1",
		"M 0 0 C 1 1 2 2",
		"M 0 0 L 1 1 7",
	} {
		if _, err := svgpath.Parse(path); !xerrors.Is(err, svgpath.ErrSyntax) {
			t.Errorf("Parse(%q): got error %v, want %v", path, err, svgpath.ErrSyntax)
		}
	}
}

func TestParseTransform(t *testing.T) {
	tests := []struct {
		Transform string
		Want      svgpath.Matrix
	}{
		{"", svgpath.Identity},
		{"translate(10)", svgpath.Matrix{A: 1, D: 1, E: 10}},
		{"translate(10, 20) scale(2)", svgpath.Matrix{A: 2, D: 2, E: 10, F: 20}},
		{"scale(2 3)", svgpath.Matrix{A: 2, D: 3}},
		{"rotate(90)", svgpath.Matrix{B: 1, C: -1}},
		{"rotate(90 10 10)", svgpath.Matrix{B: 1, C: -1, E: 20}},
		{"matrix(1 2 3 4 5 6)", svgpath.Matrix{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}},
	}
	for _, test := range tests {
		got, err := svgpath.ParseTransform(test.Transform)
		if err != nil {
			t.Errorf("ParseTransform(%q) failed: %s", test.Transform, err)
			continue
		}
		if diff := cmp.Diff(test.Want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("ParseTransform(%q): incorrect matrix: %s", test.Transform, diff)
		}
	}

	for _, bad := range []string{"rotate(1 2)", "bogus(1)", "translate(1", "scale()"} {
		if _, err := svgpath.ParseTransform(bad); err == nil {
			t.Errorf("ParseTransform(%q) succeeded", bad)
		}
	}
}

func TestFlatten(t *testing.T) {
	square := &svgpath.SubPath{Start: pt(0, 0), DrawTo: []*svgpath.DrawTo{
		lineTo(1, 0), lineTo(1, 1), closePath(0, 0),
	}}
	want := geometry.Polyline{pt(0, 0), pt(1, 0), pt(1, 1), pt(0, 0)}
	if diff := cmp.Diff(want, square.Flatten(0.1)); diff != "" {
		t.Errorf("incorrect polyline: %s", diff)
	}

	circle, err := svgpath.Parse("M 10 0 A 10 10 0 1 1 -10 0 A 10 10 0 1 1 10 0 Z")
	if err != nil {
		t.Fatalf("parsing failed: %s", err)
	}
	const tolerance = 0.1
	line := circle[0].Flatten(tolerance)
	if len(line) < 9 {
		t.Errorf("circle flattened to only %d points", len(line))
	}
	if line.Start() != pt(10, 0) || line.End() != pt(10, 0) {
		t.Errorf("circle is not closed: %v -> %v", line.Start(), line.End())
	}
	for i, p := range line {
		// Cubic arcs are within 0.03% of the radius.
		if r := p.Magnitude(); math.Abs(r-10) > 0.01 {
			t.Errorf("point %d at radius %g", i, r)
		}
	}
	for i, seg := range line.Segments() {
		if r := seg.Midpoint().Magnitude(); r < 10-tolerance-0.01 {
			t.Errorf("segment %d strays to radius %g", i, r)
		}
	}

	coarse, fine := circle[0].Flatten(1), circle[0].Flatten(0.01)
	if len(coarse) >= len(fine) {
		t.Errorf("tolerance 1 gave %d points, 0.01 gave %d", len(coarse), len(fine))
	}
}

const drawing = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="100mm" height="50mm" viewBox="0 0 200 100">
  <defs><path d="M 0 0 L 5 5"/></defs>
  <g transform="translate(10 0)">
    <line x1="0" y1="0" x2="20" y2="0"/>
    <rect x="0" y="20" width="10" height="10" style="fill:none;stroke:black"/>
  </g>
  <polyline points="0,100 50,100 50,90"/>
  <path d="M 0 0 L 10 10" display="none"/>
  <g style="stroke:red; display:none"><line x1="0" y1="0" x2="1" y2="1"/></g>
  <text x="5" y="5">ignored</text>
  <circle cx="100" cy="50" r="10"/>
</svg>`

func TestLoad(t *testing.T) {
	lines, err := svgpath.Load(strings.NewReader(drawing), 0.1)
	if err != nil {
		t.Fatalf("Load failed: %s", err)
	}
	if len(lines) != 4 {
		t.Fatalf("got %d strokes, want 4: %v", len(lines), lines)
	}

	// Half a millimetre per user unit, Y flipped on a 50mm page.
	want := []geometry.Polyline{
		{pt(5, 50), pt(15, 50)},
		{pt(5, 40), pt(10, 40), pt(10, 35), pt(5, 35), pt(5, 40)},
		{pt(0, 0), pt(25, 0), pt(25, 5)},
	}
	if diff := cmp.Diff(want, lines[:3], cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("incorrect strokes: %s", diff)
	}

	center := pt(50, 25)
	for i, p := range lines[3] {
		if r := p.Distance(center); math.Abs(r-5) > 0.1 {
			t.Errorf("circle point %d at radius %g", i, r)
		}
	}
}

func TestLoadUnits(t *testing.T) {
	tests := []struct {
		Name string
		SVG  string
		Want []geometry.Polyline
	}{
		{
			Name: "pixels without a view box",
			SVG:  `<svg width="96" height="96"><line x1="0" y1="0" x2="96" y2="0"/></svg>`,
			Want: []geometry.Polyline{{pt(0, 25.4), pt(25.4, 25.4)}},
		},
		{
			Name: "view box centred on a taller page",
			SVG:  `<svg width="100mm" height="100mm" viewBox="0 0 200 100"><line x1="0" y1="0" x2="200" y2="0"/></svg>`,
			Want: []geometry.Polyline{{pt(0, 75), pt(100, 75)}},
		},
		{
			Name: "stretched view box",
			SVG:  `<svg width="100mm" height="100mm" viewBox="0 0 200 100" preserveAspectRatio="none"><line x1="0" y1="0" x2="200" y2="0"/></svg>`,
			Want: []geometry.Polyline{{pt(0, 100), pt(100, 100)}},
		},
		{
			Name: "no page size",
			SVG:  `<svg><polyline points="0 0 96 96"/></svg>`,
			Want: []geometry.Polyline{{pt(0, 25.4), pt(25.4, 0)}},
		},
	}
	for _, test := range tests {
		got, err := svgpath.Load(strings.NewReader(test.SVG), 0.1)
		if err != nil {
			t.Errorf("test %s: Load failed: %s", test.Name, err)
			continue
		}
		if diff := cmp.Diff(test.Want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("test %s: incorrect strokes: %s", test.Name, diff)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		Name      string
		SVG       string
		Tolerance float64
		Want      error
	}{
		{Name: "zero tolerance", SVG: `<svg/>`, Tolerance: 0, Want: svgpath.ErrTolerance},
		{Name: "not svg", SVG: `<html/>`, Tolerance: 0.1, Want: svgpath.ErrNotSVG},
		{Name: "bad path", SVG: `<svg><path id="p1" d="M 0 0 L x"/></svg>`, Tolerance: 0.1, Want: svgpath.ErrSyntax},
	}
	for _, test := range tests {
		_, err := svgpath.Load(strings.NewReader(test.SVG), test.Tolerance)
		if !xerrors.Is(err, test.Want) {
			t.Errorf("test %s: got error %v, want %v", test.Name, err, test.Want)
		}
	}

	for _, bad := range []string{
		`<svg><g transform="spin(3)"><line x2="1"/></g></svg>`,
		`<svg viewBox="0 0 10"/>`,
		`<svg><line`,
	} {
		if _, err := svgpath.Load(strings.NewReader(bad), 0.1); err == nil {
			t.Errorf("Load(%q) succeeded", bad)
		}
	}
}
