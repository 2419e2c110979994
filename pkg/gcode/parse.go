package gcode

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"plotopt/pkg/cfg"
	"plotopt/pkg/geometry"

	"golang.org/x/xerrors"
)

// Program is what Parse recovers from a plotter G-code file.
type Program struct {
	// Paths are the pen-down strokes, in file order.
	Paths []geometry.Polyline

	ZUp, ZDown float64
	Feedrate   float64

	// Set when the values above came from the file rather than defaults.
	PenHeightsDetected bool
	FeedrateDetected   bool
}

// Apply copies the values detected in the file onto s.
func (p *Program) Apply(s *cfg.Settings) {
	if p.PenHeightsDetected {
		s.ZUp = p.ZUp
		s.ZDown = p.ZDown
	}
	if p.FeedrateDetected {
		s.Feedrate = p.Feedrate
	}
}

type line struct {
	number  int
	command string
	words   map[byte]float64
}

// stripComment drops ";" comments and parenthesised comments.
func stripComment(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	for {
		open := strings.IndexByte(s, '(')
		if open < 0 {
			break
		}
		end := strings.IndexByte(s[open:], ')')
		if end < 0 {
			s = s[:open]
			break
		}
		s = s[:open] + " " + s[open+end+1:]
	}
	return strings.TrimSpace(s)
}

// normalizeCommand turns "g01" and "G1" into "G1".
func normalizeCommand(c string) string {
	c = strings.ToUpper(c)
	if len(c) > 1 && (c[0] == 'G' || c[0] == 'M') {
		if n, err := strconv.Atoi(c[1:]); err == nil {
			return c[:1] + strconv.Itoa(n)
		}
	}
	return c
}

func readLines(r io.Reader) ([]line, error) {
	var lines []line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	number := 0
	for scanner.Scan() {
		number++
		text := stripComment(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		l := line{
			number:  number,
			command: normalizeCommand(fields[0]),
			words:   map[byte]float64{},
		}
		for _, field := range fields[1:] {
			letter := strings.ToUpper(field[:1])[0]
			switch letter {
			case 'X', 'Y', 'Z', 'F':
				v, err := strconv.ParseFloat(field[1:], 64)
				if err != nil {
					return nil, xerrors.Errorf("line %d: bad %c value %q: %w", number, letter, field[1:], err)
				}
				l.words[letter] = v
			}
		}
		lines = append(lines, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Errorf("reading gcode: %w", err)
	}
	return lines, nil
}

func isMove(command string) bool {
	return command == "G0" || command == "G1"
}

// Parse reads plotter G-code and extracts the pen-down strokes. The pen
// heights are the lowest and highest Z seen on G0/G1 moves; any Z at or near
// the lower one puts the pen down.
func Parse(r io.Reader) (*Program, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	prog := &Program{
		ZUp:      cfg.DefaultZUp,
		ZDown:    cfg.DefaultZDown,
		Feedrate: cfg.DefaultFeedrate,
	}

	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, l := range lines {
		if z, ok := l.words['Z']; ok && isMove(l.command) {
			minZ = math.Min(minZ, z)
			maxZ = math.Max(maxZ, z)
		}
	}
	if minZ < maxZ {
		prog.ZDown, prog.ZUp = minZ, maxZ
		prog.PenHeightsDetected = true
	}

	var current geometry.Point
	var path geometry.Polyline
	drawing := false
	endPath := func() {
		if len(path) > 1 {
			prog.Paths = append(prog.Paths, path)
		}
		path = nil
	}

	for _, l := range lines {
		if f, ok := l.words['F']; ok && l.command == "G1" {
			prog.Feedrate = f
			prog.FeedrateDetected = true
		}
		if !isMove(l.command) {
			continue
		}
		if x, ok := l.words['X']; ok {
			current.X = x
		}
		if y, ok := l.words['Y']; ok {
			current.Y = y
		}

		z, hasZ := l.words['Z']
		switch {
		case hasZ && z <= prog.ZDown+cfg.PenDownTolerance:
			if !drawing {
				drawing = true
				path = geometry.Polyline{current}
			} else {
				path = append(path, current)
			}
		case hasZ:
			if drawing {
				drawing = false
				endPath()
			}
		case drawing:
			path = append(path, current)
		}
	}
	if drawing {
		endPath()
	}

	return prog, nil
}
