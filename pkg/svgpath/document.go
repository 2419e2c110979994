package svgpath

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"

	"plotopt/pkg/geometry"

	"golang.org/x/xerrors"
)

var (
	ErrNotSVG    = xerrors.New("document root is not <svg>")
	ErrTolerance = xerrors.New("curve tolerance must be positive")
)

// Node is one element of an SVG document. Only the attributes needed to
// trace outlines are decoded.
type Node struct {
	XMLName             xml.Name
	ID                  string  `xml:"id,attr"`
	Width               string  `xml:"width,attr"`
	Height              string  `xml:"height,attr"`
	ViewBox             string  `xml:"viewBox,attr"`
	PreserveAspectRatio string  `xml:"preserveAspectRatio,attr"`
	Transform           string  `xml:"transform,attr"`
	Styles              string  `xml:"style,attr"`
	Display             string  `xml:"display,attr"`
	Children            []*Node `xml:",any"`

	D      string `xml:"d,attr"`
	Points string `xml:"points,attr"`

	// rect, circle, ellipse and line geometry
	X  string `xml:"x,attr"`
	Y  string `xml:"y,attr"`
	RX string `xml:"rx,attr"`
	RY string `xml:"ry,attr"`
	CX string `xml:"cx,attr"`
	CY string `xml:"cy,attr"`
	R  string `xml:"r,attr"`
	X1 string `xml:"x1,attr"`
	Y1 string `xml:"y1,attr"`
	X2 string `xml:"x2,attr"`
	Y2 string `xml:"y2,attr"`
}

// Load reads an SVG document and traces the outline of every shape as pen
// strokes, in document order. Coordinates are millimetres with Y pointing
// up, the way the plotter bed is laid out. Curves are flattened to within
// tolerance mm. Fills, text and images are ignored.
func Load(r io.Reader, tolerance float64) ([]geometry.Polyline, error) {
	if !(tolerance > 0) {
		return nil, xerrors.Errorf("curve tolerance %g: %w", tolerance, ErrTolerance)
	}

	var root Node
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, xerrors.Errorf("decoding svg: %w", err)
	}
	if root.XMLName.Local != "svg" {
		return nil, xerrors.Errorf("found <%s>: %w", root.XMLName.Local, ErrNotSVG)
	}

	page, pageHeight, err := root.pageTransform()
	if err != nil {
		return nil, err
	}

	var lines []geometry.Polyline
	var descend func(node *Node, matrix Matrix) error
	descend = func(node *Node, matrix Matrix) error {
		if node.hidden() {
			return nil
		}
		local, err := ParseTransform(node.Transform)
		if err != nil {
			return xerrors.Errorf("%s: %w", node, err)
		}
		matrix = matrix.Multiply(local)

		switch node.XMLName.Local {
		case "svg", "g", "a", "switch":
			for _, child := range node.Children {
				if err := descend(child, matrix); err != nil {
					return err
				}
			}
			return nil
		}

		path, err := node.path()
		if err != nil {
			return xerrors.Errorf("%s: %w", node, err)
		}
		matrix.TransformPath(path)
		lines = append(lines, Polylines(path, tolerance)...)
		return nil
	}
	for _, child := range root.Children {
		if err := descend(child, page); err != nil {
			return nil, err
		}
	}

	// SVG puts the origin at the top left with Y down. Without a page
	// height, mirror the drawing within its own bounds.
	if pageHeight <= 0 {
		b := geometry.Bounds(lines)
		pageHeight = b.Min.Y + b.Max.Y
	}
	for _, line := range lines {
		for i := range line {
			line[i].Y = pageHeight - line[i].Y
		}
	}
	return lines, nil
}

func (n *Node) String() string {
	if n.ID != "" {
		return fmt.Sprintf("<%s id=%q>", n.XMLName.Local, n.ID)
	}
	return "<" + n.XMLName.Local + ">"
}

// Style returns one property from the style attribute.
func (n *Node) Style(name string) string {
	for _, pair := range strings.Split(n.Styles, ";") {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) == 2 && strings.TrimSpace(kv[0]) == name {
			return strings.TrimSpace(kv[1])
		}
	}
	return ""
}

func (n *Node) hidden() bool {
	return n.Display == "none" || n.Style("display") == "none"
}

// pageTransform maps user units to millimetres, and returns the page height
// in millimetres when the document gives one.
func (n *Node) pageTransform() (Matrix, float64, error) {
	width, hasWidth := toMM(n.Width)
	height, hasHeight := toMM(n.Height)

	if strings.TrimSpace(n.ViewBox) == "" {
		// User units are pixels. height is 0 when unknown.
		return Scale(unitFactors["px"], unitFactors["px"]), height, nil
	}

	vb, err := ParseNumbers(n.ViewBox)
	if err != nil || len(vb) != 4 || vb[2] <= 0 || vb[3] <= 0 {
		return Identity, 0, xerrors.Errorf("bad viewBox %q", n.ViewBox)
	}
	sx, sy := unitFactors["px"], unitFactors["px"]
	switch {
	case hasWidth && hasHeight:
		sx, sy = width/vb[2], height/vb[3]
	case hasWidth:
		sx, sy = width/vb[2], width/vb[2]
	case hasHeight:
		sx, sy = height/vb[3], height/vb[3]
	}
	if !hasHeight {
		height = vb[3] * sy
	}
	if !hasWidth {
		width = vb[2] * sx
	}

	m := Scale(sx, sy).Multiply(Translate(-vb[0], -vb[1]))
	if !strings.HasPrefix(strings.TrimSpace(n.PreserveAspectRatio), "none") && sx != sy {
		// The default xMidYMid meet: uniform scale, centred on the page.
		s := math.Min(sx, sy)
		m = Translate((width-vb[2]*s)/2, (height-vb[3]*s)/2).
			Multiply(Scale(s, s)).
			Multiply(Translate(-vb[0], -vb[1]))
	}
	return m, height, nil
}

// path converts a shape element to sub paths in user units. Elements that
// draw nothing, or that aren't shapes, return no sub paths.
func (n *Node) path() ([]*SubPath, error) {
	switch n.XMLName.Local {
	case "path":
		return Parse(n.D)

	case "line":
		return []*SubPath{{
			Start:  geometry.Point{X: number(n.X1), Y: number(n.Y1)},
			DrawTo: []*DrawTo{{Command: LineTo, To: geometry.Point{X: number(n.X2), Y: number(n.Y2)}}},
		}}, nil

	case "polyline", "polygon":
		coords, err := ParseNumbers(n.Points)
		if err != nil {
			return nil, err
		}
		if len(coords) < 4 {
			return nil, nil
		}
		group := &SubPath{Start: geometry.Point{X: coords[0], Y: coords[1]}}
		// An odd trailing coordinate is ignored.
		for i := 2; i+1 < len(coords); i += 2 {
			group.DrawTo = append(group.DrawTo,
				&DrawTo{Command: LineTo, To: geometry.Point{X: coords[i], Y: coords[i+1]}})
		}
		if n.XMLName.Local == "polygon" {
			group.DrawTo = append(group.DrawTo, &DrawTo{Command: ClosePath, To: group.Start})
		}
		return []*SubPath{group}, nil

	case "rect":
		x, y, w, h := number(n.X), number(n.Y), number(n.Width), number(n.Height)
		if w <= 0 || h <= 0 {
			return nil, nil
		}
		rx, ry := number(n.RX), number(n.RY)
		if n.RX == "" {
			rx = ry
		}
		if n.RY == "" {
			ry = rx
		}
		rx, ry = math.Min(math.Max(rx, 0), w/2), math.Min(math.Max(ry, 0), h/2)
		if rx == 0 || ry == 0 {
			return Parse(fmt.Sprintf("M %g %g H %g V %g H %g Z", x, y, x+w, y+h, x))
		}
		return Parse(fmt.Sprintf(
			"M %g %g H %g A %g %g 0 0 1 %g %g V %g A %g %g 0 0 1 %g %g H %g A %g %g 0 0 1 %g %g V %g A %g %g 0 0 1 %g %g Z",
			x+rx, y, x+w-rx, rx, ry, x+w, y+ry,
			y+h-ry, rx, ry, x+w-rx, y+h,
			x+rx, rx, ry, x, y+h-ry,
			y+ry, rx, ry, x+rx, y))

	case "circle", "ellipse":
		cx, cy := number(n.CX), number(n.CY)
		rx, ry := number(n.R), number(n.R)
		if n.XMLName.Local == "ellipse" {
			rx, ry = number(n.RX), number(n.RY)
		}
		if rx <= 0 || ry <= 0 {
			return nil, nil
		}
		return Parse(fmt.Sprintf("M %g %g A %g %g 0 1 1 %g %g A %g %g 0 1 1 %g %g Z",
			cx+rx, cy, rx, ry, cx-rx, cy, rx, ry, cx+rx, cy))
	}
	return nil, nil
}

// Units as defined at https://www.w3.org/TR/css3-values/#absolute-lengths,
// in millimetres.
var unitFactors = map[string]float64{
	"cm": 10,
	"mm": 1,
	"Q":  0.25,
	"in": 25.4,
	"pc": 25.4 / 6,
	"pt": 25.4 / 72,
	"px": 25.4 / 96,
}

// toMM converts a length such as "210mm" or "800" (pixels) to millimetres.
// Relative units such as "%" and "em" are not known.
func toMM(length string) (float64, bool) {
	s := &state{data: strings.TrimSpace(length)}
	n, err := s.parseNumber()
	if err != nil || n <= 0 {
		return 0, false
	}
	unit := strings.TrimSpace(s.data[s.index:])
	if unit == "" {
		unit = "px"
	}
	factor, ok := unitFactors[unit]
	return n * factor, ok
}

// number reads the leading number of a coordinate attribute, or 0.
func number(attr string) float64 {
	s := &state{data: strings.TrimSpace(attr)}
	n, err := s.parseNumber()
	if err != nil {
		return 0
	}
	return n
}
