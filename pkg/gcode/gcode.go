package gcode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"plotopt/pkg/cfg"
	"plotopt/pkg/geometry"
)

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// writeBlock writes user supplied G-code, one line at a time.
func writeBlock(w io.Writer, block string) {
	block = strings.TrimSpace(block)
	if block == "" {
		return
	}
	for _, l := range strings.Split(block, "\n") {
		fmt.Fprintln(w, strings.TrimRight(l, "\r"))
	}
}

// Generate writes the strokes as plotter G-code, in order, pen up between
// each, and returns home at the end.
func Generate(out io.Writer, paths []geometry.Polyline, s cfg.Settings) error {
	w := bufio.NewWriter(out)

	penUp := fmt.Sprintf("G0 Z%.2f F%s", s.ZUp, formatNumber(s.ZSpeed))
	penDown := fmt.Sprintf("G0 Z%.2f F%s", s.ZDown, formatNumber(s.ZSpeed))
	travel := formatNumber(s.TravelSpeed)
	feed := formatNumber(s.Feedrate)

	// Output gcode header
	fmt.Fprintln(w, "; Optimized by plotopt")
	fmt.Fprintln(w, "G90 ; Absolute positioning")
	fmt.Fprintln(w, "G21 ; Millimeters")
	writeBlock(w, s.Header)
	fmt.Fprintln(w, penUp, "; Pen up")

	for _, path := range paths {
		if len(path) == 0 {
			continue
		}
		start := path.Start()
		fmt.Fprintf(w, "G0 X%.3f Y%.3f F%s\n", start.X, start.Y, travel)
		fmt.Fprintln(w, penDown)
		for _, p := range path[1:] {
			fmt.Fprintf(w, "G1 X%.3f Y%.3f F%s\n", p.X, p.Y, feed)
		}
		fmt.Fprintln(w, penUp)
	}

	// Output gcode footer
	writeBlock(w, s.Footer)
	fmt.Fprintf(w, "G0 X0 Y0 F%s ; Return to home\n", travel)

	return w.Flush()
}
